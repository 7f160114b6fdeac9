package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"ragdemo/internal/config"
	"ragdemo/internal/logging"
)

var (
	cfg     *config.Config
	logger  *slog.Logger
	logSink io.Closer
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ragdemo",
	Short: "Ask questions over documents indexed in Ragie",
	Long: `ragdemo answers questions with retrieval-augmented generation.

Relevant passages are retrieved from Ragie (or Qdrant) and passed as
context to an OpenAI-compatible chat model.

Example usage:
  ragdemo chat                 # Interactive question loop
  ragdemo serve                # Web UI and JSON API on http://127.0.0.1:8000
  ragdemo serve --no-browser   # Same, without opening a browser`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		return err
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// setupLogging installs the process logger. Lines also go to LOG_FILE when set.
func setupLogging(out io.Writer, level string) error {
	l, closer, err := logging.New(logging.Options{
		Level:     level,
		Format:    cfg.LogFormat,
		Output:    out,
		File:      cfg.LogFile,
		FileMaxMB: cfg.LogFileMaxMB,
	})
	if err != nil {
		return err
	}
	closeLogSink()
	logger = l
	logSink = closer
	slog.SetDefault(l)
	return nil
}

func closeLogSink() {
	if logSink != nil {
		_ = logSink.Close()
		logSink = nil
	}
}
