package logs

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"authservice/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"INFO", slog.LevelInfo},
		{"Warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}

	for _, tt := range tests {
		got, err := parseLogLevel(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := parseLogLevel("verbose")
	assert.Error(t, err)
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	cfg := &config.Config{}
	cfg.Env.Log.Level = "loud"

	logger, err := New(Params{Config: cfg})
	assert.Error(t, err)
	assert.Nil(t, logger)
}

func TestNew_PrettyHandler(t *testing.T) {
	cfg := &config.Config{}
	cfg.Env.Log.Level = "debug"
	cfg.Env.Log.Pretty = true

	logger, err := New(Params{Config: cfg})
	require.NoError(t, err)
	assert.True(t, logger.Enabled(t.Context(), slog.LevelDebug))
}

func TestNewLogger_JSONWithServiceName(t *testing.T) {
	cfg := &config.Config{}
	cfg.Env.ServiceName = "authservice"
	cfg.Env.Log.Level = "info"

	var buf bytes.Buffer
	logger, err := newLogger(cfg, &buf)
	require.NoError(t, err)

	logger.Info("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "authservice", line["service"])
}
