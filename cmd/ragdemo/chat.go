package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ragdemo/internal/app"
	"ragdemo/internal/cli"
	"ragdemo/internal/contextutil"
	"ragdemo/internal/service"
)

var (
	chatTopK            int
	chatLogInteractions bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask questions interactively",
	Long: `Start an interactive loop that answers each question from the
retrieved documents. Type 'help' for commands and 'exit' to quit.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().IntVar(&chatTopK, "top-k", service.DefaultTopK, "number of chunks to retrieve per question")
	chatCmd.Flags().BoolVar(&chatLogInteractions, "log-interactions", true, "record questions and answers under LOG_DIR")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	// Operational logs stay out of the conversation unless debugging.
	level := "warn"
	if cfg.Debug {
		level = cfg.LogLevel
	}
	if err := setupLogging(cmd.ErrOrStderr(), level); err != nil {
		return err
	}

	if chatTopK < 1 || chatTopK > service.MaxTopK {
		return fmt.Errorf("--top-k must be between 1 and %d", service.MaxTopK)
	}

	out := cmd.OutOrStdout()
	if missing := cfg.MissingCredentials(); len(missing) > 0 {
		fmt.Fprintf(out, "Missing API keys: %s\n", strings.Join(missing, ", "))
		fmt.Fprintln(out, "Please set them in your .env file or environment variables")
		return fmt.Errorf("missing API keys: %s", strings.Join(missing, ", "))
	}

	ctx := contextutil.WithLogger(cmd.Context(), logger)
	application := app.New(ctx, cfg, app.Options{DisableInteractionLog: !chatLogInteractions})
	defer func() {
		_ = application.Close()
	}()

	svc, err := application.QueryService()
	if err != nil {
		return err
	}

	return cli.New(svc, cmd.InOrStdin(), out, chatTopK).Run(ctx)
}
