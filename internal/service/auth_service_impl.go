package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/folio/backend/internal/model"
	"github.com/folio/backend/pkg/auth"
)

// passwordCost matches the bcrypt cost used for stored admin hashes.
const passwordCost = 10

// AuthConfig holds the single admin account and session settings.
type AuthConfig struct {
	AdminEmail   string
	PasswordHash string
	Secret       []byte
	TTL          time.Duration
}

// AuthServiceImpl is the production implementation of AuthService.
type AuthServiceImpl struct {
	cfg AuthConfig
	now func() time.Time
}

// NewAuthService creates an AuthServiceImpl. Login always fails when no
// password hash is configured.
func NewAuthService(cfg AuthConfig) *AuthServiceImpl {
	return &AuthServiceImpl{cfg: cfg, now: time.Now}
}

var _ AuthService = (*AuthServiceImpl)(nil)

func (s *AuthServiceImpl) Login(_ context.Context, email, password string) (*model.AdminSession, error) {
	if s.cfg.PasswordHash == "" {
		slog.Warn("admin login attempted but ADMIN_PASSWORD_HASH is not set")
		return nil, ErrInvalidCredentials
	}

	// The hash comparison always runs so a wrong email costs the same time.
	pwErr := bcrypt.CompareHashAndPassword([]byte(s.cfg.PasswordHash), []byte(password))
	emailOK := strings.EqualFold(strings.TrimSpace(email), s.cfg.AdminEmail)
	if pwErr != nil || !emailOK {
		slog.Info("admin login rejected", "email", email)
		return nil, ErrInvalidCredentials
	}

	token, expires, err := auth.CreateSessionToken(s.cfg.AdminEmail, s.cfg.Secret, s.cfg.TTL, s.now())
	if err != nil {
		return nil, err
	}
	slog.Info("admin logged in", "email", s.cfg.AdminEmail)
	return &model.AdminSession{Token: token, Email: s.cfg.AdminEmail, ExpiresAt: expires}, nil
}

// HashPassword returns the bcrypt hash to put in ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", invalid("password", "password_required")
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
