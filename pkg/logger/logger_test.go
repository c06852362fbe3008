package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-signal/backend/pkg/config"
)

func newTestLogger(buf *bytes.Buffer, level string) *Logger {
	return NewWithWriter(&config.Config{Env: "test", LogLevel: level, LogFormat: "json"}, buf)
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"invalid", zerolog.InfoLevel}, // Default
		{"", zerolog.InfoLevel},        // Default
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.input))
		})
	}
}

func TestNewWithWriter_BaseFields(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf, "info")
	log.Info("engine started")

	entry := decode(t, &buf)
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "engine started", entry["message"])
	assert.Equal(t, ServiceName, entry["service"])
	assert.Equal(t, "test", entry["env"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf, "warn")
	assert.Equal(t, zerolog.WarnLevel, log.Level())

	log.Info("dropped")
	assert.Zero(t, buf.Len())

	log.Warn("kept")
	assert.Equal(t, "kept", decode(t, &buf)["message"])
}

func TestWithModuleAndFields(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf, "debug").WithModule("scoring")

	log.WithFields(map[string]interface{}{
		"symbol": "005930",
		"score":  52.1,
	}).Debug("scored")

	entry := decode(t, &buf)
	assert.Equal(t, "scoring", entry["module"])
	assert.Equal(t, "005930", entry["symbol"])
	assert.Equal(t, 52.1, entry["score"])
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf, "info")

	log.WithError(errors.New("source unavailable")).Errorf("rank failed: %d sectors", 3)

	entry := decode(t, &buf)
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "source unavailable", entry["error"])
	assert.Equal(t, "rank failed: 3 sectors", entry["message"])
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&config.Config{Env: "dev", LogLevel: "info", LogFormat: "console"}, &buf)
	log.Info("test message")

	assert.Contains(t, buf.String(), "test message")
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().WithField("k", "v").Error("nothing")
	})
}
