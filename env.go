package main

import (
	"log/slog"
	"os"
	"strings"
)

func envOr(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseLogLevel reads LOG_LEVEL (debug, info, warn or error).
func parseLogLevel(fallback slog.Level) slog.Level {
	switch strings.ToLower(envOr("LOG_LEVEL", "")) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return fallback
	}
}
