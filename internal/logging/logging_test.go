package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel(" DEBUG "))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info", "json")
	logger.With("component", "auth").Info("user logged in", "username", "alice")
	logger.Debug("hidden")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "user logged in", rec["msg"])
	assert.Equal(t, "auth", rec["component"])
	assert.Equal(t, "alice", rec["username"])
}

func TestNewColor(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var buf bytes.Buffer
	logger := New(&buf, "debug", "color")
	logger.With("component", "http").WithGroup("req").Warn("request", "status", 404)
	logger.Debug("tick")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "WRN request component=http req.status=404")
	assert.Contains(t, lines[1], "DBG tick")
}

func TestNewColorRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "error", "color")
	logger.Info("skipped")
	assert.Empty(t, buf.String())
}
