package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/folio/backend/pkg/client"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.BaseURL != defaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, defaultBaseURL)
	}
	if cfg.Session != nil {
		t.Error("expected no session")
	}
}

func TestLoadConfig_ParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	data := `base_url: https://example.com/api
name: Jane
email: jane@x.com
session:
  token: abc
  email: admin@x.com
  expires_at: 2030-01-01T00:00:00Z
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.BaseURL != "https://example.com/api" || cfg.Email != "jane@x.com" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.Session == nil || cfg.Session.Token != "abc" {
		t.Fatalf("session not parsed: %+v", cfg.Session)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("base_url: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(path); err == nil {
		t.Error("expected a parse error")
	}
}

func TestSaveConfig_OwnerOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "c.yaml")
	if err := saveConfig(path, &cliConfig{BaseURL: "x"}); err != nil {
		t.Fatalf("saveConfig: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("perm = %o, want 600", perm)
	}
}

func TestEnvSession_Expired(t *testing.T) {
	e := &env{cfg: &cliConfig{Session: &client.Session{Token: "t", ExpiresAt: time.Now().Add(-time.Minute)}}}
	if _, err := e.session(); err == nil {
		t.Error("expected expired session error")
	}
	e.cfg.Session.ExpiresAt = time.Now().Add(time.Hour)
	if _, err := e.session(); err != nil {
		t.Errorf("valid session rejected: %v", err)
	}
}
