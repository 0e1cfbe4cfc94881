package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "sensei_bot.log")

	logger, closeFn, err := New(Config{Level: "debug", File: path})
	require.NoError(t, err)

	logger.Debug("generated quiz")
	closeFn()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	line := strings.TrimSpace(string(raw))
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "generated quiz", entry["msg"])
	assert.Equal(t, "debug", entry["level"])
}

func TestNewLevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")

	logger, closeFn, err := New(Config{Level: "warn", File: path})
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown")
	closeFn()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "hidden")
	assert.Contains(t, string(raw), "shown")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, _, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNewWithoutFile(t *testing.T) {
	logger, closeFn, err := New(Config{})
	require.NoError(t, err)
	defer closeFn()
	assert.NotNil(t, logger)
}
