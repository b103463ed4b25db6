package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHandler_JSON(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{Level: "debug", Format: "json"}
	logger := slog.New(newHandler(&buf, cfg, parseLevel(cfg.Level)))

	logger.Debug("test debug message", slog.String("key", "value"))

	var logEntry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))

	assert.Equal(t, "DEBUG", logEntry["level"])
	assert.Equal(t, "test debug message", logEntry["msg"])
	assert.Equal(t, "value", logEntry["key"])
	assert.Contains(t, logEntry, "time")
}

func TestNewHandler_LevelFiltering(t *testing.T) {
	tests := []struct {
		level   string
		logged  []string
		dropped []string
	}{
		{level: "debug", logged: []string{"debug msg", "info msg"}},
		{level: "info", logged: []string{"info msg", "warn msg"}, dropped: []string{"debug msg"}},
		{level: "warn", logged: []string{"warn msg", "error msg"}, dropped: []string{"info msg"}},
		{level: "error", logged: []string{"error msg"}, dropped: []string{"warn msg"}},
		{level: "bogus", logged: []string{"info msg"}, dropped: []string{"debug msg"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			cfg := &Config{Level: tt.level, Format: "json"}
			logger := slog.New(newHandler(&buf, cfg, parseLevel(cfg.Level)))

			logger.Debug("debug msg")
			logger.Info("info msg")
			logger.Warn("warn msg")
			logger.Error("error msg")

			out := buf.String()
			for _, want := range tt.logged {
				assert.Contains(t, out, want)
			}
			for _, skip := range tt.dropped {
				assert.NotContains(t, out, skip)
			}
		})
	}
}

func TestNewHandler_Console(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{Level: "info", Format: "console", TimeFormat: time.TimeOnly}
	logger := slog.New(newHandler(&buf, cfg, parseLevel(cfg.Level)))

	logger.Info("console message", slog.String("service", "api"))

	out := buf.String()
	assert.Contains(t, out, "console message")
	assert.Contains(t, out, "service")
}

func TestNew(t *testing.T) {
	logger, err := New(&Config{Level: "info", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	require.NotNil(t, logger)
	require.NotNil(t, logger.Logger)
}

func TestNewDefault(t *testing.T) {
	logger := NewDefault()
	require.NotNil(t, logger)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{Level: "info", Format: "json"}
	base := &Logger{Logger: slog.New(newHandler(&buf, cfg, parseLevel(cfg.Level)))}

	derived := base.With("request_id", "abc-123")
	derived.Info("with attrs")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var logEntry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &logEntry))
	assert.Equal(t, "abc-123", logEntry["request_id"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelInfo, parseLevel("info"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}
