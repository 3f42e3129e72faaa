package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/bioinsight/backend/internal/extraction"
	"github.com/bioinsight/backend/internal/matching"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <query>",
	Short: "Resolve the drug and target named in a query",
	Long: `Runs the three-stage resolution pipeline (reference dictionary, Open
Targets search, generative fallback) and prints the result as JSON.

Example:
  bioinsight resolve "How does Imatinib interact with BCR-ABL1?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	res := a.Pipeline.Resolve(ctx, strings.Join(args, " "))
	return printJSON(cmd.OutOrStdout(), res)
}

var extractCmd = &cobra.Command{
	Use:   "extract <query>",
	Short: "Apply the fixed sentence templates to a query",
	Long: `Matches the query against the deterministic templates ("X inhibits Y",
"interaction between X and Y", ...) and validates any captured names against
the reference corpora. This path is independent of the resolution pipeline.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	ext, matched := extraction.ExtractDeterministic(text)

	out := struct {
		Query     string                `json:"query"`
		Matched   bool                  `json:"matched"`
		Extracted extraction.Extraction `json:"extracted"`
		Validated *matching.BestMatches `json:"validated,omitempty"`
	}{Query: text, Matched: matched, Extracted: ext}

	if matched {
		ctx := cmd.Context()
		a, err := buildApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		best, err := a.Matcher.FindBestMatches(ctx, ext.Drug, ext.Target)
		if err != nil {
			return err
		}
		out.Validated = &best
	}
	return printJSON(cmd.OutOrStdout(), out)
}
