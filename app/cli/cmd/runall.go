package cmd

import (
	"fmt"
	"log"
	"os"

	tm "github.com/buger/goterm"
	"github.com/spf13/cobra"

	"seqpipe/app/cli/cmd/common"
	"seqpipe/pkg/jobs"
	"seqpipe/pkg/parallel"
	"seqpipe/pkg/pipeline"
	"seqpipe/pkg/util/context"
)

type runAllOpts struct {
	fromDB     bool // --from-db
	maxWorkers int  // --max-workers
	limit      int  // --limit
}

// NewRunAllCommand returns a new instance of the run-all command
func NewRunAllCommand() *cobra.Command {
	var runAllOpts runAllOpts
	command := &cobra.Command{
		Use:   "run-all [FILES...]",
		Short: "run the complete pipeline for many inputs in parallel",
		Long: `Run the complete pipeline for one or more inputs.

Inputs come either from the command line (one or more file paths) or from the
pending items of the input queue (--from-db). Inputs are processed in
parallel; the number of workers is bounded by --max-workers.`,
		Run: func(cmd *cobra.Command, args []string) {
			if runAllOpts.fromDB && len(args) > 0 {
				fmt.Println(tm.Color("Error: cannot specify both --from-db and input files.", tm.RED))
				os.Exit(1)
			}
			if !runAllOpts.fromDB && len(args) == 0 {
				fmt.Println(tm.Color("Error: must specify either input files or --from-db.", tm.RED))
				os.Exit(1)
			}
			if runAllOpts.limit > 0 && !runAllOpts.fromDB {
				fmt.Println(tm.Color("Warning: --limit is only used with --from-db, ignoring.", tm.YELLOW))
			}

			st, err := openStore()
			if err != nil {
				log.Fatal(err)
			}
			defer st.Close()

			def, err := jobs.DefaultDefinition(cfg, st)
			if err != nil {
				log.Fatal(err)
			}
			factory := func() (*pipeline.Runner, error) {
				return pipeline.NewRunner(cfg, def)
			}

			opts := parallel.Options{
				MaxWorkers: parallel.Workers(runAllOpts.maxWorkers),
				Progress: func(completed, total int, unit parallel.UnitResult) {
					common.PrintProgress(os.Stdout, completed, total, unit)
				},
			}

			ctx := context.Background()
			var summary parallel.Summary
			if runAllOpts.fromDB {
				fmt.Printf("Processing pending inputs from %s with %d workers\n\n", cfg.DBPath, opts.MaxWorkers)
				summary, err = parallel.RunFromQueue(ctx, factory, st, runAllOpts.limit, opts)
				if err != nil {
					log.Fatal(err)
				}
			} else {
				fmt.Printf("Processing %d file(s) with %d workers\n\n", len(args), opts.MaxWorkers)
				summary = parallel.Run(ctx, factory, args, opts)
			}

			common.PrintSummary(os.Stdout, summary)
			if summary.Failed > 0 {
				os.Exit(1)
			}
		},
	}
	command.Flags().BoolVar(&runAllOpts.fromDB, "from-db", false, "read inputs from the queue instead of the command line")
	command.Flags().IntVar(&runAllOpts.maxWorkers, "max-workers", 0, "maximum parallel workers (default: CPU count)")
	command.Flags().IntVar(&runAllOpts.limit, "limit", 0, "maximum number of inputs to claim (only with --from-db)")

	return command
}
