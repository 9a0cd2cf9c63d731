// Package obs builds the structured logger used by the sync services.
package obs

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger returns a JSON slog logger on stdout. Debug enables debug level.
func NewLogger(debug bool) *slog.Logger {
	return NewLoggerTo(os.Stdout, debug)
}

// NewLoggerTo is NewLogger writing to w.
func NewLoggerTo(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
