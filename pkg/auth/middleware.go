package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type contextKey string

const adminKey contextKey = "admin_email"

// AdminFromContext returns the authenticated admin email, if any.
func AdminFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(adminKey).(string)
	return v, ok && v != ""
}

// WithAdmin stores the authenticated admin email in the context.
func WithAdmin(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, adminKey, email)
}

// TokenFromRequest extracts a session token from the Authorization bearer
// header, falling back to the session cookie.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(SessionCookieName()); err == nil {
		return cookie.Value
	}
	return ""
}

// RequireAdmin rejects requests without a valid admin session and stores the
// admin email in the request context otherwise.
func RequireAdmin(sessionSecret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				writeUnauthorized(w, "unauthorized")
				return
			}

			email, err := VerifySessionToken(token, sessionSecret)
			if err != nil {
				writeUnauthorized(w, "invalid_session")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAdmin(r.Context(), email)))
		})
	}
}

// DevAdminEmail is the admin identity injected when AUTH_REQUIRED=false.
const DevAdminEmail = "dev-admin@localhost"

// DevAuth marks every request as coming from the dev admin.
func DevAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithAdmin(r.Context(), DevAdminEmail)))
	})
}

func writeUnauthorized(w http.ResponseWriter, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
}
