package testutil

import (
	"io"
	"log/slog"
)

// NopLogger returns an slog logger whose output goes nowhere. Every
// component takes a logger, so tests hand them this one to stay quiet.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
