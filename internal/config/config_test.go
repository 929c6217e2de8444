package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"REVIEW_LISTEN_ADDR",
	"REVIEW_LOG_LEVEL",
	"REVIEW_RULES_FILE",
	"REVIEW_BATCH_WORKERS",
	"REVIEW_REQUEST_TIMEOUT_S",
	"REVIEW_MAX_BODY_BYTES",
}

// isolate runs the test from an empty directory with every REVIEW_* variable
// cleared, so neither a stray .env nor the host environment leaks in.
func isolate(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	isolate(t)

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, int64(1<<20), cfg.MaxBodyBytes)
}

func TestFromEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("REVIEW_LISTEN_ADDR", "127.0.0.1:9000")
	t.Setenv("REVIEW_LOG_LEVEL", "debug")
	t.Setenv("REVIEW_RULES_FILE", "rules.yaml")
	t.Setenv("REVIEW_BATCH_WORKERS", "3")
	t.Setenv("REVIEW_REQUEST_TIMEOUT_S", "30")
	t.Setenv("REVIEW_MAX_BODY_BYTES", "2048")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, Config{
		ListenAddr:     "127.0.0.1:9000",
		LogLevel:       "debug",
		RulesFile:      "rules.yaml",
		BatchWorkers:   3,
		RequestTimeout: 30 * time.Second,
		MaxBodyBytes:   2048,
	}, cfg)
}

func TestFromEnvReadsDotEnv(t *testing.T) {
	isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(".", ".env"), []byte("REVIEW_BATCH_WORKERS=5\n"), 0o600))
	// godotenv only fills variables that are unset
	require.NoError(t, os.Unsetenv("REVIEW_BATCH_WORKERS"))

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.BatchWorkers)
	require.NoError(t, os.Unsetenv("REVIEW_BATCH_WORKERS"))
}

func TestFromEnvParseErrors(t *testing.T) {
	for _, key := range []string{"REVIEW_BATCH_WORKERS", "REVIEW_REQUEST_TIMEOUT_S", "REVIEW_MAX_BODY_BYTES"} {
		t.Run(key, func(t *testing.T) {
			isolate(t)
			t.Setenv(key, "lots")
			_, err := FromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.BatchWorkers = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.RequestTimeout = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.MaxBodyBytes = -1
	assert.Error(t, cfg.Validate())

	assert.NoError(t, Default().Validate())
}
