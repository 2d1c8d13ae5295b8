package cli

import (
	"io"
	"log/slog"

	"github.com/google/uuid"
)

// newLogger returns a text logger on w at Info, or Debug when verbose.
// Every record carries the run id.
func newLogger(w io.Writer, verbose bool, runID string) *slog.Logger {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	})
	return slog.New(handler).With("run_id", runID)
}

// newRunID returns a time-ordered UUIDv7, falling back to a random UUID
// if the clock sequence cannot be read.
func newRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
