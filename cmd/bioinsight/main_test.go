package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const evidenceJSON = `[
  {"drug":{"id":"CHEMBL941","name":"IMATINIB"},"target":{"id":"ENSG00000097007"},"phase":4,
   "mechanismOfAction":"Tyrosine-protein kinase ABL inhibitor","references":[{"source":"FDA","urls":[]}]},
  {"drug":{"id":"CHEMBL941","name":"IMATINIB"},"target":{"id":"ENSG00000097007"},"phase":4,
   "mechanismOfAction":"Tyrosine-protein kinase ABL inhibitor","references":[{"source":"DailyMed","urls":[]}]}
]`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	chdir(t, t.TempDir())

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestScoreCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evidence.json")
	require.NoError(t, os.WriteFile(path, []byte(evidenceJSON), 0o600))

	out, err := execute(t, "score", "--file", path, "--process")
	require.NoError(t, err)
	assert.Contains(t, out, `"max_phase": 4`)
	assert.Contains(t, out, `"evidence_count": 1`)

	out, err = execute(t, "score", "--file", path, "--process=false", "--debug", "--drug", "Imatinib", "--target", "ABL1")
	require.NoError(t, err)
	assert.Contains(t, out, "Imatinib → ABL1")
	assert.Contains(t, out, "Evidence #2:")
}

func TestReadRecords(t *testing.T) {
	records, err := readRecords(strings.NewReader(evidenceJSON), "")
	require.NoError(t, err)
	assert.Len(t, records, 2)

	_, err = readRecords(strings.NewReader(`{"phase":4}`), "")
	assert.ErrorContains(t, err, "parse evidence")

	_, err = readRecords(nil, filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "open evidence")
}

func TestAnalyzeCommand_RequiresBothSides(t *testing.T) {
	_, err := execute(t, "analyze", "--drug", "Imatinib")
	assert.EqualError(t, err, "--drug and --target must be given together")
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestCacheInvalidate_RequiresRedis(t *testing.T) {
	_, err := execute(t, "cache", "invalidate", "ot:evidence")
	assert.EqualError(t, err, "redis is not enabled in config")
}
