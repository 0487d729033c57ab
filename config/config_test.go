package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"TUBESEED_RANKING_CSV", "TUBESEED_OUTPUT_JS", "TUBESEED_RECORD_RUNS", "PORT", "LOG_LEVEL", "TUBESEED_TZ"} {
		t.Setenv(key, "")
	}

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "TubeTrend_Ranking.csv", cfg.RankingPath)
	assert.Equal(t, "src/default_channels.js", cfg.OutputPath)
	assert.False(t, cfg.RecordRuns)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "Asia/Seoul", cfg.Timezone)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvFile(t *testing.T) {
	t.Setenv("TUBESEED_LIVE_CSV", "")
	os.Unsetenv("TUBESEED_LIVE_CSV")
	t.Setenv("TUBESEED_OUTPUT_JS", "from-env.js")

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("TUBESEED_LIVE_CSV=/data/live.csv\nTUBESEED_OUTPUT_JS=from-file.js\nTUBESEED_RECORD_RUNS=true\n"), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("TUBESEED_LIVE_CSV")
		os.Unsetenv("TUBESEED_RECORD_RUNS")
	})

	cfg, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, "/data/live.csv", cfg.LivePath)
	assert.Equal(t, "from-env.js", cfg.OutputPath, "environment wins over the env file")
	assert.True(t, cfg.RecordRuns)
}

func TestLoad_MissingEnvFileIsIgnored(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{OutputPath: " ", DatabasePath: "x.db", Port: "eighty", LogLevel: "loud", Timezone: "Mars/Base"}

	err := cfg.Validate()

	require.Error(t, err)
	for _, field := range []string{"output_path", "port", "log_level", "timezone"} {
		assert.Contains(t, err.Error(), field)
	}
	assert.NotContains(t, err.Error(), "database_path")
	assert.Equal(t, "UTC", cfg.Location().String())
}
