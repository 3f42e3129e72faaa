package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bioinsight/backend/internal/evidence"
	"github.com/bioinsight/backend/internal/scoring"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a JSON evidence list",
	Long: `Reads a JSON array of evidence records (file or stdin) and prints the
confidence result. --debug prints the per-record breakdown instead.

Examples:
  bioinsight score --file evidence.json
  bioinsight score --file evidence.json --process --debug --drug Imatinib --target ABL1
  cat evidence.json | bioinsight score`,
	RunE: runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.String("file", "", "evidence JSON file (default stdin)")
	f.Bool("process", false, "merge duplicates and infer sources before scoring")
	f.Bool("debug", false, "print the per-record breakdown")
	f.String("drug", "?", "drug label for --debug")
	f.String("target", "?", "target label for --debug")
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("file")
	process, _ := cmd.Flags().GetBool("process")
	debug, _ := cmd.Flags().GetBool("debug")

	records, err := readRecords(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}
	if process {
		records = evidence.Process(records)
	}

	if debug {
		drug, _ := cmd.Flags().GetString("drug")
		target, _ := cmd.Flags().GetString("target")
		_, err := fmt.Fprint(cmd.OutOrStdout(), scoring.Explain(records, drug, target))
		return err
	}
	return printJSON(cmd.OutOrStdout(), scoring.Score(records))
}

func readRecords(stdin io.Reader, path string) ([]evidence.Record, error) {
	r := stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open evidence: %w", err)
		}
		defer f.Close()
		r = f
	}

	var records []evidence.Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("parse evidence: %w", err)
	}
	return records, nil
}
