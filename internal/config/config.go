// Package config loads runtime settings from the environment and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const devSessionSecret = "dev_fallback_secret"

// Config holds everything main needs to wire the server.
type Config struct {
	Port    string
	GinMode string

	DBDriver string // postgres | sqlite
	DBDSN    string

	SessionSecret  string
	SessionBackend string // cookie | db
	SessionMaxAge  int

	MediaRoot      string
	MaxUploadBytes int64

	PasswordMinLength int
	LoginRedirectURL  string

	CORSAllowedOrigins []string

	LogLevel  string
	LogFormat string
	LogFile   string

	ShutdownTimeout int
}

// Load reads .env (current dir, parent, repo root) and then the environment.
func Load() (*Config, error) {
	// when started from cmd/server the .env sits two levels up.
	// godotenv.Load stops at the first missing file, so try them one by one.
	for _, f := range []string{".env", "../.env", "../../.env"} {
		_ = godotenv.Load(f)
	}

	cfg := &Config{
		Port:    getEnv("APP_PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "debug"),

		DBDriver: strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBDSN:    getEnv("DB_DSN", ""),

		SessionSecret:  getEnv("SESSION_SECRET", devSessionSecret),
		SessionBackend: strings.ToLower(getEnv("SESSION_BACKEND", "cookie")),
		SessionMaxAge:  getEnvAsInt("SESSION_MAX_AGE", 14*24*60*60),

		MediaRoot:      getEnv("MEDIA_ROOT", "media"),
		MaxUploadBytes: getEnvAsInt64("MAX_UPLOAD_BYTES", 32<<20),

		PasswordMinLength: getEnvAsInt("PASSWORD_MIN_LENGTH", 8),
		LoginRedirectURL:  getEnv("LOGIN_REDIRECT_URL", "/"),

		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),

		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),
		LogFile:   getEnv("LOG_FILE", ""),

		ShutdownTimeout: getEnvAsInt("SHUTDOWN_TIMEOUT", 10),
	}

	if cfg.DBDriver == "sqlite" && cfg.DBDSN == "" {
		cfg.DBDSN = "gallery.db"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later at startup.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (postgres or sqlite)", c.DBDriver)
	}
	if c.DBDSN == "" {
		return fmt.Errorf("DB_DSN is empty (check your .env)")
	}

	switch c.SessionBackend {
	case "cookie", "db":
	default:
		return fmt.Errorf("unsupported SESSION_BACKEND %q (cookie or db)", c.SessionBackend)
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is empty")
	}
	if c.GinMode == "release" && c.SessionSecret == devSessionSecret {
		return fmt.Errorf("SESSION_SECRET must be set in release mode")
	}

	if c.MediaRoot == "" {
		return fmt.Errorf("MEDIA_ROOT is empty")
	}
	if c.PasswordMinLength < 1 {
		return fmt.Errorf("PASSWORD_MIN_LENGTH must be positive")
	}
	if !strings.HasPrefix(c.LoginRedirectURL, "/") {
		return fmt.Errorf("LOGIN_REDIRECT_URL must be a local path")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
