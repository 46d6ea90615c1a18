package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/folio/backend/pkg/client"
)

const defaultBaseURL = "http://localhost:8080/api"

// cliConfig is the on-disk state of folioctl.
type cliConfig struct {
	BaseURL string `yaml:"base_url"`
	// Name and Email identify the visitor for chat and contact.
	Name  string `yaml:"name,omitempty"`
	Email string `yaml:"email,omitempty"`
	// Session is the admin login, if any.
	Session *client.Session `yaml:"session,omitempty"`
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".folioctl.yaml"
	}
	return filepath.Join(home, ".folioctl.yaml")
}

// loadConfig reads path. A missing file yields the defaults.
func loadConfig(path string) (*cliConfig, error) {
	cfg := &cliConfig{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return cfg, nil
}

// saveConfig writes cfg to path, readable only by the owner since it may
// hold a session token.
func saveConfig(path string, cfg *cliConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// env is what every command needs: the parsed config, where it lives, and
// a client for its base URL.
type env struct {
	path   string
	cfg    *cliConfig
	client *client.Client
}

func loadEnv(cmd *cobra.Command) (*env, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := loadConfig(path)
	if err != nil {
		return nil, err
	}
	if u, _ := cmd.Flags().GetString("url"); u != "" {
		cfg.BaseURL = u
	}
	return &env{path: path, cfg: cfg, client: client.New(cfg.BaseURL)}, nil
}

// session returns the stored admin session or tells the user to log in.
func (e *env) session() (*client.Session, error) {
	s := e.cfg.Session
	if s == nil {
		return nil, errors.New("not logged in: run `folioctl login`")
	}
	if s.Expired(time.Now()) {
		return nil, errors.New("session expired: run `folioctl login`")
	}
	return s, nil
}

func (e *env) save() error {
	return saveConfig(e.path, e.cfg)
}
