package slogutil

import (
	"bytes"
	"log/slog"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_Format(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo)
	logger.Info("indexed files", "count", 42, "root", "src/main")

	line := strings.TrimSuffix(buf.String(), "\n")
	re := regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z \[info\] indexed files \| count=42 root=src/main$`)
	assert.Regexp(t, re, line)
}

func TestHandler_NoAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewLogger(&buf, slog.LevelInfo).Warn("plain")
	assert.NotContains(t, buf.String(), "|")
	assert.Contains(t, buf.String(), "[warn] plain")
}

func TestHandler_Levels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn)
	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "[warn] warn message")
	assert.Contains(t, out, "[error] error message")
}

func TestHandler_WithAttrsAndGroups(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelDebug).
		With("file", "A.kt").
		WithGroup("analysis")
	logger.Debug("done", "errors", 2, slog.Group("timing", "total", 3*time.Millisecond))

	out := buf.String()
	assert.Contains(t, out, "[debug] done | file=A.kt analysis.errors=2 analysis.timing.total=3ms")
}

func TestHandler_QuotesStrings(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewLogger(&buf, slog.LevelInfo).Info("m", "msg", "two words")
	assert.Contains(t, buf.String(), `msg="two words"`)
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	logger := Discard()
	require.NotNil(t, logger)
	assert.False(t, logger.Enabled(t.Context(), slog.LevelError))
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"":        slog.LevelWarn,
		"error":   slog.LevelError,
		"off":     levelOff,
		"verbose": slog.LevelWarn,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}
