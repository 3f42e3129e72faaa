package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bioinsight/backend/internal/query"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [query]",
	Short: "Resolve, score and explain a drug-target interaction",
	Long: `Answers a free-text question end to end, or analyzes an explicit pair
when --drug and --target are given.

Examples:
  bioinsight analyze "What is the interaction between Aspirin and COX-2?"
  bioinsight analyze --drug Imatinib --target BCR-ABL1`,
	RunE: runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.String("drug", "", "drug name (skips resolution)")
	f.String("target", "", "target name (skips resolution)")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	drug, _ := cmd.Flags().GetString("drug")
	target, _ := cmd.Flags().GetString("target")
	pair := drug != "" || target != ""

	switch {
	case pair && (drug == "" || target == ""):
		return errors.New("--drug and --target must be given together")
	case !pair && len(args) == 0:
		return errors.New("a query or --drug/--target is required")
	}

	ctx := cmd.Context()
	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if pair {
		result, err := a.Engine.Analyze(ctx, drug, target)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), result)
	}

	resp, err := a.Engine.ProcessQuery(ctx, query.QueryRequest{Query: strings.Join(args, " ")})
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), resp)
}
