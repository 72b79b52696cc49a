package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"seqpipe/pkg/pipeline"
	"seqpipe/pkg/store"
	"seqpipe/pkg/util/config"
	"seqpipe/pkg/util/context"
)

type rootOpts struct {
	configFile string // --config
	logLevel   string // --log-level
	outputDir  string // --output-dir
	dbPath     string // --db-path
}

var (
	opts rootOpts
	cfg  pipeline.Config
)

// NewRootCommand returns a new instance of the seqpipe command
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "seqpipe",
		Short: "seqpipe runs sequential job pipelines over one or many inputs",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if err := setup(cmd); err != nil {
				log.Fatal(err)
			}
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "path to a JSON config file")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error or off)")
	rootCmd.PersistentFlags().StringVar(&opts.outputDir, "output-dir", "", "output directory for processed files")
	rootCmd.PersistentFlags().StringVar(&opts.dbPath, "db-path", "", "path to the SQLite database")

	rootCmd.AddCommand(NewRunCommand())
	rootCmd.AddCommand(NewRunAllCommand())
	rootCmd.AddCommand(NewListJobsCommand())
	rootCmd.AddCommand(NewInputsCommand())
	return rootCmd
}

// setup builds the pipeline configuration from defaults, config file, env
// variables and flags, in increasing order of precedence.
func setup(cmd *cobra.Command) error {
	if err := config.Load(opts.configFile); err != nil {
		return err
	}

	cfg = pipeline.DefaultConfig()
	if err := config.Unmarshal("pipeline", &cfg); err != nil {
		return err
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.outputDir != "" {
		cfg.OutputDir = opts.outputDir
	}
	if opts.dbPath != "" {
		cfg.DBPath = opts.dbPath
	}

	return context.Configure(cfg.LogLevel)
}

// openStore opens the SQLite store from the current configuration.
func openStore() (store.Store, error) {
	if err := cfg.EnsureDirs(); err != nil {
		return nil, err
	}
	return store.NewSQLiteStore(cfg.DBPath)
}
