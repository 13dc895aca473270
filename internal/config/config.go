package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	DBPath         string        `validate:"required"`
	ServerPort     string        `validate:"required,numeric"`
	LogLevel       string        `validate:"oneof=trace debug info warn error"`
	ArchiveURL     string        `validate:"omitempty,url"`
	ArchiveToken   string
	KillWindow     time.Duration `validate:"min=1m"`
	TxMaxRetries   int           `validate:"min=0,max=10"`
	AllowedOrigins []string      `validate:"min=1"`
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	killWindow, err := time.ParseDuration(getEnv("KILL_WINDOW", "3h"))
	if err != nil {
		return nil, fmt.Errorf("invalid KILL_WINDOW: %w", err)
	}
	retries, err := strconv.Atoi(getEnv("TX_MAX_RETRIES", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid TX_MAX_RETRIES: %w", err)
	}

	cfg := &Config{
		DBPath:         getEnv("DB_PATH", "ladder.db"),
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		ArchiveURL:     getEnv("ARCHIVE_URL", ""),
		ArchiveToken:   getEnv("ARCHIVE_TOKEN", ""),
		KillWindow:     killWindow,
		TxMaxRetries:   retries,
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "*")),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Bool("archive_forwarding", cfg.ArchiveURL != "").
		Dur("kill_window", cfg.KillWindow).
		Int("tx_max_retries", cfg.TxMaxRetries).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

var Module = fx.Provide(Load)
