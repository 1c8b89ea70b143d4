// Package logging builds the process-wide structured logger. Components
// derive child loggers with With("component", ...) and add session, tenant
// and request attributes as they go.
package logging

import (
	"io"
	"log/slog"
	"strings"
)

const (
	FormatJSON = "json"
	FormatText = "text"
)

// New returns a logger writing to w. The level is read through a LevelVar so
// it can be changed while the process runs.
func New(w io.Writer, level *slog.LevelVar, format string) *slog.Logger {
	if level == nil {
		level = NewLevel("info")
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case FormatText:
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler)
}

func NewLevel(level string) *slog.LevelVar {
	lv := &slog.LevelVar{}
	lv.Set(ParseLevel(level))
	return lv
}

// ParseLevel maps a level name to slog.Level. Unknown names fall back to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func ValidLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

func ValidFormats() []string {
	return []string{FormatJSON, FormatText}
}

// Nop discards everything; used by tests and commands that print to stdout.
func Nop() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
