package cmd

import (
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"seqpipe/pkg/jobs"
	"seqpipe/pkg/store"
)

// NewListJobsCommand returns a new instance of the list-jobs command
func NewListJobsCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "list-jobs",
		Short: "list the jobs of the pipeline in execution order",
		Run: func(cmd *cobra.Command, args []string) {
			// The definition is listed without touching the database.
			def, err := jobs.DefaultDefinition(cfg, store.NewInMemoryStore())
			if err != nil {
				log.Fatal(err)
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(tw, "#\tNAME\tDESCRIPTION")
			for i, name := range def.JobNames() {
				spec, err := def.Job(name)
				if err != nil {
					log.Fatal(err)
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\n", i+1, spec.Name, spec.Description)
			}
			tw.Flush()
		},
	}
	return command
}
