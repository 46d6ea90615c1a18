package service

import (
	"errors"
	"fmt"

	"github.com/folio/backend/internal/repository"
)

// ErrNotFound is returned when an operation references a record that does
// not exist. It wraps repository.ErrNotFound.
var ErrNotFound = fmt.Errorf("service: %w", repository.ErrNotFound)

// ErrInvalidCredentials is returned by AuthService.Login on a bad email or password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ValidationError reports a missing or malformed input field. Code is the
// machine-readable error code surfaced to API clients.
type ValidationError struct {
	Field string
	Code  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Code)
}

func invalid(field, code string) error {
	return &ValidationError{Field: field, Code: code}
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// notFound maps repository.ErrNotFound to ErrNotFound and leaves other errors alone.
func notFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
