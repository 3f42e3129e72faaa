package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.OpenTargets.SearchTimeout())
	assert.Equal(t, 15*time.Second, cfg.OpenTargets.EvidenceTimeout())
	assert.Equal(t, 3, cfg.OpenTargets.MaxRetries)
	assert.Equal(t, 300*time.Second, cfg.LLM.Timeout())
	assert.False(t, cfg.Zilliz.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_EnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("BIOINSIGHT_SERVER_PORT", "9090")
	t.Setenv("BIOINSIGHT_LLM_MODEL", "llama3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "llama3", cfg.LLM.Model)
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
