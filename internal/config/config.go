package config

import (
	"log/slog"
	"os"
	"time"
)

type Config struct {
	Port        string
	DBPath      string
	SheetURL    string // optional default sheet for the dashboard endpoints
	HTTPTimeout time.Duration
	LogLevel    slog.Level
}

func FromEnv() Config {
	to := 15 * time.Second
	if v := os.Getenv("HTTP_TIMEOUT_SECONDS"); v != "" {
		if d, err := time.ParseDuration(v + "s"); err == nil {
			to = d
		}
	}
	lvl := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		lvl = slog.LevelDebug
	}
	return Config{
		Port:        envOr("PORT", "8080"),
		DBPath:      envOr("DB_PATH", "dashgo.db"),
		SheetURL:    os.Getenv("SHEET_URL"),
		HTTPTimeout: to,
		LogLevel:    lvl,
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
