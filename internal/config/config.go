package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	APIBase   string
	WSBase    string
	TokenFile string
	LogLevel  string
}

func Load() Config {
	// Missing .env is fine; env vars still apply.
	_ = godotenv.Load()

	apiBase := getEnv("API_BASE", "http://127.0.0.1:8000")
	return Config{
		APIBase:   strings.TrimRight(apiBase, "/"),
		WSBase:    strings.TrimRight(getEnv("WS_BASE", deriveWSBase(apiBase)), "/"),
		TokenFile: getEnv("TOKEN_FILE", defaultTokenFile()),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
	}
}

// NewLogger builds the process logger. Bad levels fall back to info.
func NewLogger(level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func deriveWSBase(apiBase string) string {
	switch {
	case strings.HasPrefix(apiBase, "https://"):
		return "wss://" + strings.TrimPrefix(apiBase, "https://")
	case strings.HasPrefix(apiBase, "http://"):
		return "ws://" + strings.TrimPrefix(apiBase, "http://")
	}
	return apiBase
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".sansoyunu-token"
	}
	return filepath.Join(dir, "sansoyunu", "token")
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
