package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bioinsight/backend/internal/evaluation"
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Measure resolution accuracy over a labelled query set",
	Long: `Loads a YAML list of {query, drug, target} cases, resolves each query
and reports per-side and pair accuracy with per-stage counts.

Example:
  bioinsight eval --dataset testdata/resolution.yaml --min-pair-accuracy 0.8`,
	RunE: runEval,
}

func init() {
	f := evalCmd.Flags()
	f.String("dataset", "testdata/resolution.yaml", "YAML dataset path")
	f.Float64("min-pair-accuracy", 0, "fail when pair accuracy is below this value")
	rootCmd.AddCommand(evalCmd)
}

func runEval(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("dataset")
	minPair, _ := cmd.Flags().GetFloat64("min-pair-accuracy")

	ds, err := evaluation.LoadDataset(path)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := evaluation.NewEvaluator(a.Pipeline).Run(ctx, ds)
	if err != nil {
		return err
	}
	if err := printJSON(cmd.OutOrStdout(), report); err != nil {
		return err
	}

	if report.PairAccuracy < minPair {
		return fmt.Errorf("pair accuracy %.3f below threshold %.3f", report.PairAccuracy, minPair)
	}
	return nil
}
