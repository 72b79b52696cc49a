package pipeline

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Config holds the settings threaded through the runner to every job factory.
// There is no ambient global configuration; callers construct one and pass it
// down explicitly.
type Config struct {
	OutputDir string `mapstructure:"output_dir" env:"SEQPIPE_OUTPUT_DIR"`
	DBPath    string `mapstructure:"db_path" env:"SEQPIPE_DB_PATH"`
	LogLevel  string `mapstructure:"log_level" env:"SEQPIPE_LOG_LEVEL"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		OutputDir: filepath.Join("data", "output"),
		DBPath:    filepath.Join("data", "pipeline.db"),
		LogLevel:  "info",
	}
}

// EnsureDirs creates the output directory and the database parent directory.
func (c Config) EnsureDirs() error {
	if c.OutputDir != "" {
		if err := os.MkdirAll(c.OutputDir, 0o755); err != nil {
			return errors.Wrapf(err, "cannot create output directory %s", c.OutputDir)
		}
	}
	if c.DBPath != "" {
		if err := os.MkdirAll(filepath.Dir(c.DBPath), 0o755); err != nil {
			return errors.Wrapf(err, "cannot create database directory %s", filepath.Dir(c.DBPath))
		}
	}
	return nil
}
