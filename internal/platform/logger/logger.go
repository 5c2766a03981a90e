package logger

import (
	"log/slog"
	"os"
)

// New returns a JSON slog logger writing to stdout; the platform scrapes and
// indexes structured output.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}
