package logger

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// New returns a structured logger for the given environment: colored
// human-readable output for local/dev, JSON for staging/production.
// No business logic should depend on logging implementation details.
func New(appEnv string) *slog.Logger {
	if appEnv == "local" || appEnv == "dev" {
		return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
		}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
