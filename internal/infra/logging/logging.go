package logging

import (
	"io"
	"log/slog"
	"os"
)

// New returns a JSON logger writing to w. attrs are attached to every record.
func New(w io.Writer, level slog.Level, attrs ...any) *slog.Logger {
	return slog.New(
		slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}),
	).With(attrs...)
}

// SetupJSON sets slog's default logger to use JSON output on stdout at the
// given level and returns it.
func SetupJSON(level slog.Level, attrs ...any) *slog.Logger {
	logger := New(os.Stdout, level, attrs...)
	slog.SetDefault(logger)

	return logger
}

// Component derives a logger tagged with the subsystem name.
func Component(base *slog.Logger, name string) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}

	return base.With("component", name)
}
