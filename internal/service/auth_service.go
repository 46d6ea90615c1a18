package service

import (
	"context"

	"github.com/folio/backend/internal/model"
)

// AuthService authenticates the site admin and issues session tokens.
type AuthService interface {
	// Login checks the admin credentials and returns a new session.
	// It returns ErrInvalidCredentials on any mismatch.
	Login(ctx context.Context, email, password string) (*model.AdminSession, error)
}
