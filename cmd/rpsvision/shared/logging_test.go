package shared

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]log.Level{
		"debug": log.DebugLevel,
		"info":  log.InfoLevel,
		"warn":  log.WarnLevel,
		"error": log.ErrorLevel,
		"":      log.WarnLevel,
		"loud":  log.WarnLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestSetupFileLoggerTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rps.log")
	require.NoError(t, os.WriteFile(path, []byte("stale contents\n"), 0o644))

	logger, closeLog, err := SetupFileLogger(path, "info")
	require.NoError(t, err)
	logger.Debug("hidden")
	logger.Info("Match started", "round", 1)
	closeLog()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "stale")
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "Match started")
	assert.Contains(t, string(data), "round=1")
}

func TestSetupFileLoggerBadPath(t *testing.T) {
	_, _, err := SetupFileLogger(filepath.Join(t.TempDir(), "missing", "rps.log"), "info")
	assert.Error(t, err)
}
