package cmd

import (
	"fmt"
	"log"
	"os"
	"strconv"

	tm "github.com/buger/goterm"
	"github.com/spf13/cobra"

	"seqpipe/pkg/jobs"
	"seqpipe/pkg/pipeline"
	"seqpipe/pkg/util/context"
)

type runOpts struct {
	startFrom string // --start-from
	stopAfter string // --stop-after
}

// NewRunCommand returns a new instance of the run command
func NewRunCommand() *cobra.Command {
	var runOpts runOpts
	command := &cobra.Command{
		Use:   "run INPUT",
		Short: "run the pipeline on one input with flexible start and stop points",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			st, err := openStore()
			if err != nil {
				log.Fatal(err)
			}
			defer st.Close()

			def, err := jobs.DefaultDefinition(cfg, st)
			if err != nil {
				log.Fatal(err)
			}
			runner, err := pipeline.NewRunner(cfg, def)
			if err != nil {
				log.Fatal(err)
			}

			input, err := parseInput(def, args[0], runOpts.startFrom)
			if err != nil {
				fmt.Println(tm.Color(fmt.Sprintf("Error: %s", err), tm.RED))
				os.Exit(1)
			}

			result := runner.Run(context.Background(), input, runOpts.startFrom, runOpts.stopAfter)
			if !result.Success {
				fmt.Println(tm.Color(fmt.Sprintf("Pipeline failed: %s", result.Err), tm.RED))
				os.Exit(1)
			}
			fmt.Println(tm.Color("Pipeline completed successfully!", tm.GREEN))
			fmt.Printf("Result: %v\n", result.Output)
		},
	}
	command.Flags().StringVar(&runOpts.startFrom, "start-from", "", "job name to start from")
	command.Flags().StringVar(&runOpts.stopAfter, "stop-after", "", "job name to stop after")

	return command
}

// parseInput interprets the raw command line input for the starting job:
// the finalize job takes a batch ID, every other job takes a file path.
func parseInput(def *pipeline.Definition, raw, startFrom string) (interface{}, error) {
	start := startFrom
	if start == "" {
		first, err := def.First()
		if err != nil {
			return nil, err
		}
		start = first
	}

	if start == jobs.JobFinalize {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("job %s requires a batch ID (integer), got: %s", jobs.JobFinalize, raw)
		}
		return id, nil
	}

	if _, err := os.Stat(raw); err != nil {
		return nil, fmt.Errorf("file not found: %s", raw)
	}
	return raw, nil
}
