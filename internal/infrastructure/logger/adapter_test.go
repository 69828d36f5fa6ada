package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerAdapter_ConsoleLevel(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Console = &buf

	log, err := NewLoggerAdapter(cfg)
	require.NoError(t, err)

	log.Debug("hidden message")
	log.Info("cycle finished", "step", 3)
	require.NoError(t, log.Close())

	out := buf.String()
	assert.NotContains(t, out, "hidden message")
	assert.Contains(t, out, "cycle finished")
	assert.Contains(t, out, `"step": 3`)
}

func TestLoggerAdapter_InvalidLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = "loud"

	_, err := NewLoggerAdapter(cfg)
	assert.Error(t, err)
}

func TestLoggerAdapter_FileIsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guide.log")
	cfg := DefaultConfig()
	cfg.Level = "debug"
	cfg.File = path
	cfg.Console = &bytes.Buffer{}

	log, err := NewLoggerAdapter(cfg)
	require.NoError(t, err)

	log.WithFields(map[string]any{"task": "t-1", "step": 2}).Warn("element not found", "id", "elem_4")
	require.NoError(t, log.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "element not found", entry["message"])
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "t-1", entry["task"])
	assert.Equal(t, "elem_4", entry["id"])
	assert.Contains(t, entry, "timestamp")
}

func TestNewNop(t *testing.T) {
	log := NewNop()
	log.WithField("k", "v").Error("ignored")
	assert.NoError(t, log.Close())
}
