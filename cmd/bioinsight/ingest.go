package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bioinsight/backend/internal/ingestion"
	"github.com/bioinsight/backend/internal/matching"
	"github.com/bioinsight/backend/pkg/logger"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load the TTD drug and target files into SQLite",
	Long: `Parses the TTD flat-file downloads into the local corpus tables and, when
Milvus is enabled, copies named drugs and targets into its collections.
Missing files are skipped.

Example:
  bioinsight ingest --drugs data/P1-02-TTD_drug_download.txt --targets data/P1-01-TTD_target_download.txt`,
	RunE: runIngest,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Upsert the reference drug and target corpora into the index",
	RunE:  runSeed,
}

func init() {
	f := ingestCmd.Flags()
	f.String("drugs", "data/P1-02-TTD_drug_download.txt", "TTD drug file")
	f.String("targets", "data/P1-01-TTD_target_download.txt", "TTD target file")
	f.Bool("index", true, "populate the similarity index after loading")
	rootCmd.AddCommand(ingestCmd, seedCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	drugs, _ := cmd.Flags().GetString("drugs")
	targets, _ := cmd.Flags().GetString("targets")
	index, _ := cmd.Flags().GetBool("index")

	ctx := cmd.Context()
	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	parsed, err := a.Processor.IngestFiles(ctx, drugs, targets)
	if err != nil {
		return err
	}

	out := struct {
		Parsed ingestion.ParseStats  `json:"parsed"`
		Index  *ingestion.IndexStats `json:"index,omitempty"`
	}{Parsed: parsed}

	// The in-process index does not outlive this command.
	if index && a.Zilliz != nil {
		stats, err := a.Processor.PopulateIndex(ctx)
		if err != nil {
			return err
		}
		out.Index = &stats
	} else if index {
		logger.Info("Skipping index population for the in-process index")
	}

	return printJSON(cmd.OutOrStdout(), out)
}

func runSeed(cmd *cobra.Command, args []string) error {
	a, err := buildApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	drugs, targets := len(matching.BaselineDrugs()), len(matching.BaselineTargets())
	logger.Info("Seed complete", zap.Int("drugs", drugs), zap.Int("targets", targets), zap.Bool("milvus", a.Zilliz != nil))
	return printJSON(cmd.OutOrStdout(), map[string]int{"drugs": drugs, "targets": targets})
}
