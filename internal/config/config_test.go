package config

import (
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestFromMap_Defaults(t *testing.T) {
	cfg, err := FromMap(map[string]string{"SESSION_SECRET": testSecret})
	if err != nil {
		t.Fatalf("FromMap returned unexpected error: %v", err)
	}
	if cfg.DatabaseURL != "file:folio.db" {
		t.Errorf("unexpected DatabaseURL %q", cfg.DatabaseURL)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("unexpected ListenAddr %q", cfg.ListenAddr)
	}
	if !cfg.AuthRequired {
		t.Error("auth must be required by default")
	}
	if cfg.SessionTTL != 168*time.Hour {
		t.Errorf("unexpected SessionTTL %v", cfg.SessionTTL)
	}
	if cfg.LongPollMax != 25*time.Second {
		t.Errorf("unexpected LongPollMax %v", cfg.LongPollMax)
	}
	if cfg.ContactRateLimit != 0 {
		t.Errorf("rate limit must be off by default, got %d", cfg.ContactRateLimit)
	}
	if cfg.MailEnabled() || cfg.DigestEnabled() {
		t.Error("mail must be disabled without SMTP_ADDR")
	}
}

func TestFromMap_Overrides(t *testing.T) {
	cfg, err := FromMap(map[string]string{
		"DATABASE_URL":       "postgres://u:p@localhost/folio",
		"SESSION_SECRET":     testSecret,
		"SESSION_TTL":        "2h",
		"ADMIN_EMAIL":        " admin@example.com ",
		"CONTACT_RATE_LIMIT": "5",
		"SMTP_ADDR":          "smtp.example.com:587",
		"SMTP_FROM":          "noreply@example.com",
		"DIGEST_CRON":        "0 8 * * *",
		"LOG_LEVEL":          "DEBUG",
	})
	if err != nil {
		t.Fatalf("FromMap returned unexpected error: %v", err)
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Errorf("unexpected SessionTTL %v", cfg.SessionTTL)
	}
	if cfg.AdminEmail != "admin@example.com" {
		t.Errorf("expected trimmed admin email, got %q", cfg.AdminEmail)
	}
	if cfg.SMTP.Addr != "smtp.example.com:587" || cfg.SMTP.From != "noreply@example.com" {
		t.Errorf("unexpected SMTP config %+v", cfg.SMTP)
	}
	if !cfg.DigestEnabled() {
		t.Error("expected digest to be enabled")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected lowercased log level, got %q", cfg.LogLevel)
	}
}

func TestFromMap_Invalid(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
	}{
		{"secret required with auth", map[string]string{}},
		{"short secret with auth", map[string]string{"SESSION_SECRET": testSecret[:MinSessionSecretLength-1]}},
		{"bad log level", map[string]string{"SESSION_SECRET": testSecret, "LOG_LEVEL": "loud"}},
		{"negative rate limit", map[string]string{"SESSION_SECRET": testSecret, "CONTACT_RATE_LIMIT": "-1"}},
		{"bad admin email", map[string]string{"SESSION_SECRET": testSecret, "ADMIN_EMAIL": "nope"}},
		{"smtp without from", map[string]string{"SESSION_SECRET": testSecret, "SMTP_ADDR": "smtp:25"}},
		{"unparsable ttl", map[string]string{"SESSION_SECRET": testSecret, "SESSION_TTL": "soon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromMap(tt.vars); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestFromMap_DevAuthNeedsNoSecret(t *testing.T) {
	cfg, err := FromMap(map[string]string{"AUTH_REQUIRED": "false"})
	if err != nil {
		t.Fatalf("FromMap returned unexpected error: %v", err)
	}
	if cfg.AuthRequired {
		t.Error("expected AuthRequired=false")
	}
}
