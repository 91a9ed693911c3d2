// Package logging provides the shared slog constructors. Output goes to
// stderr so it never interleaves with the conversation UI on stdout.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// New creates the application logger. Common keys are standardized
// ("error" -> "err") so log queries stay uniform across packages.
func New(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}))
}

// NewNop returns a no-op logger, the default for library use and tests.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
