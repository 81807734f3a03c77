package slogutil

import (
	"io"
	"log/slog"
	"strings"
)

// levelOff is above every standard level.
const levelOff = slog.Level(100)

// NewLogger returns a logger using Handler at level.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(NewHandler(w, &slog.HandlerOptions{Level: level}))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(NewHandler(io.Discard, &slog.HandlerOptions{Level: levelOff}))
}

// ParseLevel maps debug, info, warn and error (any case) to a slog level.
// Anything else, including "", is Warn; "off" or "quiet" disables logging.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	case "off", "quiet", "none":
		return levelOff
	}
	return slog.LevelWarn
}
