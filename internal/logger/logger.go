package logger

import (
	"os"

	"squad-ladder/internal/config"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func New() zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Caller().
		Logger()

	logger = logger.Level(zerolog.DebugLevel)

	return logger
}

// WithLevel applies the configured level; unknown levels fall back to info.
func WithLevel(logger zerolog.Logger, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return logger.Level(lvl)
}

func decorate(logger zerolog.Logger, cfg *config.Config) zerolog.Logger {
	return WithLevel(logger, cfg.LogLevel)
}

var Module = fx.Provide(New)

// Leveled re-levels the logger for every constructor in the enclosing fx.Module.
// It must not be used in the scope that provides the config.
var Leveled = fx.Decorate(decorate)
