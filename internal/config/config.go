// Package config loads runtime settings from the environment. A .env file
// in the working directory is read first when present; real environment
// variables win over it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port    int    `envconfig:"PORT" default:"8080"`
	DBPath  string `envconfig:"DB_PATH" default:"data/forms.db"`
	BaseURL string `envconfig:"BASE_URL"`

	JWTSecret    string `envconfig:"JWT_SECRET" required:"true"`
	CookieSecure bool   `envconfig:"COOKIE_SECURE" default:"false"`

	GoogleClientID     string `envconfig:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `envconfig:"GOOGLE_CLIENT_SECRET"`
	GoogleCallbackURL  string `envconfig:"GOOGLE_CALLBACK_URL"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	SheetsWorkers int           `envconfig:"SHEETS_WORKERS" default:"2"`
	SheetsQueue   int           `envconfig:"SHEETS_QUEUE" default:"64"`
	SheetsTimeout time.Duration `envconfig:"SHEETS_TIMEOUT" default:"15s"`

	BuilderSessionTTL  time.Duration `envconfig:"BUILDER_SESSION_TTL" default:"2h"`
	BuilderMaxSessions int           `envconfig:"BUILDER_MAX_SESSIONS" default:"1000"`
}

// Load reads .env files (missing ones are skipped) and then the process
// environment. Derived defaults are filled in after parsing.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: reading %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = fmt.Sprintf("http://localhost:%d", cfg.Port)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.GoogleCallbackURL == "" {
		cfg.GoogleCallbackURL = cfg.BaseURL + "/api/auth/google/callback"
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("config: PORT %d out of range", cfg.Port)
	}
	return &cfg, nil
}

// GoogleEnabled reports whether OAuth client credentials were supplied.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// SlogLevel maps LOG_LEVEL to a slog level. Unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
