package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initToFile(t *testing.T, level, format string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "client.log")
	require.NoError(t, Init(Config{Level: level, Format: format, Output: path}))
	t.Cleanup(func() {
		_ = Init(Config{Level: "INFO", Format: "text", Output: "stderr"})
	})
	return path
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestTextOutput(t *testing.T) {
	path := initToFile(t, "DEBUG", "text")

	Info("mount established", "device", "nfs", "port", 2049)
	Debug("rpc call", "xid", 7)

	out := readLog(t, path)
	assert.Contains(t, out, "[INFO] mount established device=nfs port=2049")
	assert.Contains(t, out, "[DEBUG] rpc call xid=7")
	// File output never carries ANSI escapes.
	assert.NotContains(t, out, "\033[")
}

func TestJSONOutput(t *testing.T) {
	path := initToFile(t, "INFO", "json")

	Warn("retransmitting call", "xid", 42, "attempt", 1)

	out := strings.TrimSpace(readLog(t, path))
	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &record))
	assert.Equal(t, "retransmitting call", record["msg"])
	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, float64(42), record["xid"])
}

func TestLevelFiltering(t *testing.T) {
	path := initToFile(t, "WARN", "text")

	Debug("hidden")
	Info("also hidden")
	Error("visible")

	out := readLog(t, path)
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")

	t.Run("SetLevelAtRuntime", func(t *testing.T) {
		SetLevel("DEBUG")
		Debug("now visible")
		assert.Contains(t, readLog(t, path), "now visible")
	})
}

func TestWithBindsAttrs(t *testing.T) {
	path := initToFile(t, "INFO", "text")

	log := With("device", "nfs")
	log.Info("operation complete", "op", "read")

	out := readLog(t, path)
	assert.Contains(t, out, "device=nfs")
	assert.Contains(t, out, "op=read")
}
