package config

import (
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", "")
	t.Setenv("APP_PORT", "")
	t.Setenv("SESSION_BACKEND", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.DBDSN != "gallery.db" {
		t.Errorf("DBDSN = %q, want gallery.db", cfg.DBDSN)
	}
	if cfg.SessionBackend != "cookie" {
		t.Errorf("SessionBackend = %q, want cookie", cfg.SessionBackend)
	}
	if cfg.PasswordMinLength != 8 {
		t.Errorf("PasswordMinLength = %d, want 8", cfg.PasswordMinLength)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_DSN", "host=db user=app")
	t.Setenv("APP_PORT", "9000")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("SESSION_BACKEND", "DB")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Port != "9000" || cfg.MaxUploadBytes != 1024 {
		t.Errorf("unexpected overrides: port=%q max=%d", cfg.Port, cfg.MaxUploadBytes)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "http://b.test" {
		t.Errorf("unexpected origins: %#v", cfg.CORSAllowedOrigins)
	}
	if cfg.SessionBackend != "db" {
		t.Errorf("SessionBackend = %q, want db", cfg.SessionBackend)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			DBDriver:          "sqlite",
			DBDSN:             ":memory:",
			SessionSecret:     "secret",
			SessionBackend:    "cookie",
			MediaRoot:         "media",
			PasswordMinLength: 8,
			LoginRedirectURL:  "/",
			LogLevel:          "info",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.DBDriver = "mysql" }, wantErr: "DB_DRIVER"},
		{name: "empty dsn", mutate: func(c *Config) { c.DBDSN = "" }, wantErr: "DB_DSN"},
		{name: "unknown session backend", mutate: func(c *Config) { c.SessionBackend = "redis" }, wantErr: "SESSION_BACKEND"},
		{name: "dev secret in release", mutate: func(c *Config) {
			c.GinMode = "release"
			c.SessionSecret = devSessionSecret
		}, wantErr: "release mode"},
		{name: "absolute redirect", mutate: func(c *Config) { c.LoginRedirectURL = "http://evil.test/" }, wantErr: "local path"},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "trace" }, wantErr: "log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}
