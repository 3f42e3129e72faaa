package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bioinsight/backend/internal/app"
	"github.com/bioinsight/backend/internal/metrics"
	"github.com/bioinsight/backend/pkg/config"
	"github.com/bioinsight/backend/pkg/logger"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "bioinsight",
	Short: "Drug-target interaction resolution and evidence scoring",
	Long: `Resolves the drug and target named in a free-text question, gathers
interaction evidence from Open Targets, scores it and explains it.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		level, _ := cmd.Flags().GetString("log-level")
		if level == "" {
			level = cfg.Logging.Level
		}
		// stdout carries command output.
		output := cfg.Logging.OutputPath
		if output == "" || output == "stdout" {
			output = "stderr"
		}
		if err := logger.Init(level, cfg.Logging.Format, output); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		metrics.Init()
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "log level (overrides config)")
}

func buildApp(ctx context.Context) (*app.App, error) {
	a, err := app.Build(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize services: %w", err)
	}
	return a, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
