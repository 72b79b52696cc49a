package cmd

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	tm "github.com/buger/goterm"
	"github.com/spf13/cobra"

	"seqpipe/pkg/store"
	"seqpipe/pkg/util/context"
)

// NewInputsCommand returns a new instance of the inputs command group
func NewInputsCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "inputs",
		Short: "manage the pipeline input queue",
	}
	command.AddCommand(newInputsAddCommand())
	command.AddCommand(newInputsListCommand())
	command.AddCommand(newInputsClearCommand())
	command.AddCommand(newInputsRetryFailedCommand())
	return command
}

func newInputsAddCommand() *cobra.Command {
	var priority int
	command := &cobra.Command{
		Use:   "add FILES...",
		Short: "add file(s) to the input queue",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			st, err := openStore()
			if err != nil {
				log.Fatal(err)
			}
			defer st.Close()

			ctx := context.Background()
			for _, path := range args {
				if _, err := os.Stat(path); err != nil {
					fmt.Println(tm.Color(fmt.Sprintf("Error: file not found: %s", path), tm.RED))
					os.Exit(1)
				}
				if _, err := st.Add(ctx, path, priority); err != nil {
					log.Fatal(err)
				}
				fmt.Printf("  Added: %s (priority: %d)\n", path, priority)
			}
			fmt.Println(tm.Color(fmt.Sprintf("\nAdded %d input(s) to queue.", len(args)), tm.GREEN))
		},
	}
	command.Flags().IntVar(&priority, "priority", 0, "priority level (higher = processed first)")
	return command
}

func newInputsListCommand() *cobra.Command {
	var statusFilter string
	var limit int
	command := &cobra.Command{
		Use:   "list",
		Short: "list inputs in the queue",
		Run: func(cmd *cobra.Command, args []string) {
			var status store.Status
			if statusFilter != "" && statusFilter != "all" {
				s, err := store.ParseStatus(statusFilter)
				if err != nil {
					log.Fatal(err)
				}
				status = s
			}

			st, err := openStore()
			if err != nil {
				log.Fatal(err)
			}
			defer st.Close()

			items, err := st.List(context.Background(), status, limit)
			if err != nil {
				log.Fatal(err)
			}
			if len(items) == 0 {
				fmt.Println("No inputs found.")
				return
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSTATUS\tPRIORITY\tINPUT")
			for _, it := range items {
				fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", it.ID, colorStatus(it.Status), it.Priority, it.InputRef)
			}
			tw.Flush()
			fmt.Printf("\nShowing %d input(s).\n", len(items))
		},
	}
	command.Flags().StringVar(&statusFilter, "status", "all", "filter by status (pending, processing, completed, failed or all)")
	command.Flags().IntVar(&limit, "limit", 50, "maximum number of inputs to show")
	return command
}

func newInputsClearCommand() *cobra.Command {
	var statusFilter string
	var yes bool
	command := &cobra.Command{
		Use:   "clear",
		Short: "clear inputs from the queue",
		Run: func(cmd *cobra.Command, args []string) {
			var status store.Status
			if statusFilter != "all" {
				s, err := store.ParseStatus(statusFilter)
				if err != nil {
					log.Fatal(err)
				}
				status = s
			}

			if !yes && !confirm(fmt.Sprintf("This will delete all %s inputs from the queue. Continue?", strings.ToUpper(statusFilter))) {
				fmt.Println("Aborted.")
				return
			}

			st, err := openStore()
			if err != nil {
				log.Fatal(err)
			}
			defer st.Close()

			deleted, err := st.Clear(context.Background(), status)
			if err != nil {
				log.Fatal(err)
			}
			fmt.Println(tm.Color(fmt.Sprintf("Deleted %d input(s).", deleted), tm.GREEN))
		},
	}
	command.Flags().StringVar(&statusFilter, "status", "", "status of inputs to clear (pending, completed, failed or all)")
	command.Flags().BoolVar(&yes, "yes", false, "skip confirmation prompt")
	command.MarkFlagRequired("status")
	return command
}

func newInputsRetryFailedCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "retry-failed",
		Short: "reset failed inputs to pending status",
		Run: func(cmd *cobra.Command, args []string) {
			st, err := openStore()
			if err != nil {
				log.Fatal(err)
			}
			defer st.Close()

			reset, err := st.ResetFailed(context.Background())
			if err != nil {
				log.Fatal(err)
			}
			fmt.Println(tm.Color(fmt.Sprintf("Reset %d failed input(s) to pending.", reset), tm.GREEN))
		},
	}
	return command
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}

func colorStatus(s store.Status) string {
	switch s {
	case store.StatusPending:
		return tm.Color(string(s), tm.YELLOW)
	case store.StatusProcessing:
		return tm.Color(string(s), tm.BLUE)
	case store.StatusCompleted:
		return tm.Color(string(s), tm.GREEN)
	case store.StatusFailed:
		return tm.Color(string(s), tm.RED)
	}
	return string(s)
}
