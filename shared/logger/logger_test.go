package logger_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamebook/shared/logger"
)

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var lines []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		entry := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		lines = append(lines, entry)
	}
	return lines
}

func TestNew_NamedJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gamebook.log")
	log, err := logger.New(logger.Config{Level: "info", Encoding: "json", OutputPath: path, Name: "gamebook"})
	require.NoError(t, err)

	log.Named("Reader").Info("Session started")
	log.Debug("hidden")
	require.NoError(t, log.Sync())

	lines := readLines(t, path)
	require.Len(t, lines, 1)
	assert.Equal(t, "gamebook.Reader", lines[0]["component"])
	assert.Equal(t, "INFO", lines[0]["level"])
	assert.Equal(t, "Session started", lines[0]["msg"])
}

func TestNew_DefaultsToWarn(t *testing.T) {
	for _, level := range []string{"", "loud"} {
		t.Run("level="+level, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "gamebook.log")
			log, err := logger.New(logger.Config{Level: level, Encoding: "json", OutputPath: path})
			require.NoError(t, err)

			log.Info("skipped")
			log.Warn("kept")
			require.NoError(t, log.Sync())

			lines := readLines(t, path)
			require.Len(t, lines, 1)
			assert.Equal(t, "kept", lines[0]["msg"])
		})
	}
}
