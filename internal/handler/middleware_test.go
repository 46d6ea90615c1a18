package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// ---------------------------------------------------------------------------
// SecurityHeaders
// ---------------------------------------------------------------------------

func TestSecurityHeaders_SetsHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(okHandler()).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	headers := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}
	for name, want := range headers {
		if got := rec.Header().Get(name); got != want {
			t.Errorf("%s: want %q, got %q", name, want, got)
		}
	}
	if csp := rec.Header().Get("Content-Security-Policy"); !strings.Contains(csp, "frame-ancestors 'none'") {
		t.Errorf("CSP missing frame-ancestors: %q", csp)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected inner status to pass through, got %d", rec.Code)
	}
}

// ---------------------------------------------------------------------------
// RateLimiter
// ---------------------------------------------------------------------------

func newTestRateLimiter(t *testing.T, perMinute int) *RateLimiter {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewRateLimiter(ctx, perMinute, 1)
}

func postFrom(h http.Handler, remoteAddr, xff string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/api/messages", nil)
	req.RemoteAddr = remoteAddr
	if xff != "" {
		req.Header.Set("X-Forwarded-For", xff)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	h := newTestRateLimiter(t, 3).Middleware(okHandler())

	for i := 0; i < 3; i++ {
		if rec := postFrom(h, "192.168.1.1:12345", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}
	rec := postFrom(h, "192.168.1.1:12345", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on 4th request, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
	if !strings.Contains(rec.Body.String(), "rate_limited") {
		t.Errorf("expected rate_limited error code, got %s", rec.Body.String())
	}
}

func TestRateLimiter_DifferentIPsAreIndependent(t *testing.T) {
	h := newTestRateLimiter(t, 1).Middleware(okHandler())

	postFrom(h, "10.0.0.1:1234", "")
	if rec := postFrom(h, "10.0.0.2:1234", ""); rec.Code != http.StatusOK {
		t.Errorf("different IP should not be rate limited, got %d", rec.Code)
	}
}

func TestRateLimiter_UsesRightmostForwardedFor(t *testing.T) {
	h := newTestRateLimiter(t, 1).Middleware(okHandler())

	postFrom(h, "10.0.0.99:1234", "203.0.113.50")
	// A spoofed leftmost entry must not reset the client's window.
	if rec := postFrom(h, "10.0.0.99:1234", "9.9.9.9, 203.0.113.50"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429 for same real client IP, got %d", rec.Code)
	}
}

func TestRateLimiter_WindowSlides(t *testing.T) {
	rl := newTestRateLimiter(t, 1)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	h := rl.Middleware(okHandler())

	postFrom(h, "10.0.0.1:1", "")
	if rec := postFrom(h, "10.0.0.1:1", ""); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 inside the window, got %d", rec.Code)
	}

	now = now.Add(61 * time.Second)
	if rec := postFrom(h, "10.0.0.1:1", ""); rec.Code != http.StatusOK {
		t.Errorf("expected 200 after the window slid, got %d", rec.Code)
	}
}

func TestRateLimiter_SweepForgetsIdleClients(t *testing.T) {
	rl := newTestRateLimiter(t, 5)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	postFrom(rl.Middleware(okHandler()), "10.0.0.1:1", "")

	now = now.Add(2 * time.Minute)
	rl.sweep()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if len(rl.clients) != 0 {
		t.Errorf("expected idle client to be dropped, got %d entries", len(rl.clients))
	}
}
