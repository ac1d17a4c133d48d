package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"formpilot/internal/cache"
	"formpilot/internal/config"
	"formpilot/internal/logging"
	"formpilot/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cliUser owns the selection kept for the duration of one command
const cliUser = "formctl"

var (
	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "formctl",
	Short: "Analyze public forms and submit weighted responses",
	Long: `formctl works against a public form without the API server.

Available subcommands:
  analyze - Print the question model of a form as JSON
  run     - Submit a batch of responses with configured weights`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		level := cfg.LogLevel
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			level = "debug"
		}
		var err error
		logger, err = logging.New(level)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <form-url>",
	Short: "Print the question model of a form",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	rootCmd.AddCommand(analyzeCmd, runCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newFormService() *service.FormService {
	client := service.NewFormsClient(cfg.FormsBaseURL, cfg.FormsMaxRetries, logger)
	return service.NewFormService(client, nil, cache.NewMemorySelectionCache(), logger)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	sel, err := newFormService().Select(cmd.Context(), cliUser, args[0])
	if err != nil {
		return fmt.Errorf("analyze failed: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]interface{}{
		"form":    sel.Form,
		"weights": sel.Weights,
		"fields":  sel.Fields,
	})
}
