package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "debug", "JSON")
	require.True(t, l.Enabled(context.Background(), slog.LevelDebug))

	l.Info("object stored", slog.String("id", "abc123"))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "object stored", record["msg"])
	assert.Equal(t, "abc123", record["id"])
}

func TestNewTextRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "warn", "text")
	l.Info("dropped")
	assert.Zero(t, buf.Len())
	l.Warn("kept")
	assert.Contains(t, buf.String(), "msg=kept")
}

func TestContextLogger(t *testing.T) {
	Init("info", "text")

	custom := L.With("request_id", "12345")
	ctx := WithContext(context.Background(), custom)
	assert.Same(t, custom, FromContext(ctx))
	assert.Same(t, L, FromContext(context.Background()))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"Warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.expected {
			t.Errorf("parseLevel(%s) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}
