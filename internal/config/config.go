// Package config loads server settings from the environment (and an
// optional .env file) and validates them.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// SMTPConfig configures outgoing mail. An empty Addr disables mail.
type SMTPConfig struct {
	Addr     string `env:"ADDR"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM" validate:"required_with=Addr,omitempty,email"`
}

// DefaultDatabaseURL is used when DATABASE_URL is unset.
const DefaultDatabaseURL = "file:folio.db"

// MinSessionSecretLength is the shortest SESSION_SECRET accepted when auth
// is required.
const MinSessionSecretLength = 32

// Config holds all server settings.
type Config struct {
	DatabaseURL string `env:"DATABASE_URL" envDefault:"file:folio.db" validate:"required"`
	DBMigrate   bool   `env:"DB_MIGRATE"`

	ListenAddr  string `env:"LISTEN_ADDR"  envDefault:":8080"                 validate:"required"`
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000" validate:"required,url"`
	SiteName    string `env:"SITE_NAME"    envDefault:"folio"`

	AuthRequired      bool          `env:"AUTH_REQUIRED"       envDefault:"true"`
	SessionSecret     string        `env:"SESSION_SECRET"                         validate:"required_if=AuthRequired true"`
	SessionTTL        time.Duration `env:"SESSION_TTL"         envDefault:"168h"  validate:"min=1m"`
	AdminEmail        string        `env:"ADMIN_EMAIL"                            validate:"omitempty,email"`
	AdminPasswordHash string        `env:"ADMIN_PASSWORD_HASH"`

	ContactRateLimit int           `env:"CONTACT_RATE_LIMIT" envDefault:"0"   validate:"min=0"`
	LongPollMax      time.Duration `env:"LONG_POLL_MAX"      envDefault:"25s" validate:"min=0,max=5m"`

	SMTP       SMTPConfig `envPrefix:"SMTP_"`
	DigestCron string     `env:"DIGEST_CRON"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn warning error"`
}

// Load reads .env (if present) into the process environment and then
// parses and validates the configuration from it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return parse(env.Options{})
}

// FromMap parses the configuration from vars instead of the process environment.
func FromMap(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.AdminEmail = strings.TrimSpace(cfg.AdminEmail)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.AuthRequired && len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("invalid config: SESSION_SECRET must be at least %d bytes", MinSessionSecretLength)
	}
	if !cfg.AuthRequired {
		slog.Warn("AUTH_REQUIRED=false: every request is treated as the admin")
	}
	return cfg, nil
}

// MailEnabled reports whether SMTP delivery is configured.
func (c *Config) MailEnabled() bool {
	return c.SMTP.Addr != ""
}

// DigestEnabled reports whether the unread digest job should be scheduled.
func (c *Config) DigestEnabled() bool {
	return c.MailEnabled() && c.AdminEmail != "" && strings.TrimSpace(c.DigestCron) != ""
}
