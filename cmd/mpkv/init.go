package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"mpkv/pkg/config"
)

// defaultConfigPath returns ~/.mpkv/config.yaml, or a relative fallback
// when the home directory cannot be determined.
func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".mpkv", "config.yaml")
}

// initLogger configures the global slog.Logger (JSON or text) on stderr so
// log lines never mix with command output on stdout.
func initLogger(cfg config.LoggerConfig) {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
