package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Ali-LB/dbcc/internal/app/access"
	"github.com/Ali-LB/dbcc/internal/common/security"
	"github.com/Ali-LB/dbcc/internal/domain/model"
	"github.com/Ali-LB/dbcc/internal/lib/logger/sl"

	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLimiter struct {
	allow     bool
	remaining time.Duration
	err       error
	keys      []string
}

func (l *stubLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	l.keys = append(l.keys, key)
	return l.allow, l.remaining, l.err
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestRateLimit(t *testing.T) {
	tests := []struct {
		name    string
		limiter *stubLimiter
		want    int
	}{
		{"allowed", &stubLimiter{allow: true}, http.StatusNoContent},
		{"throttled", &stubLimiter{allow: false}, http.StatusTooManyRequests},
		{"limiter down fails open", &stubLimiter{err: errors.New("redis: connection refused")}, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/login", nil)
			req.RemoteAddr = "203.0.113.7:51234"
			rec := httptest.NewRecorder()

			RateLimit(tt.limiter, "login", sl.Discard())(okHandler).ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			require.Len(t, tt.limiter.keys, 1)
			assert.Equal(t, "login:203.0.113.7", tt.limiter.keys[0])
		})
	}
}

func TestRateLimit_RetryAfterFollowsWindow(t *testing.T) {
	tests := []struct {
		remaining time.Duration
		want      string
	}{
		{15 * time.Minute, "900"},
		{4*time.Minute + 200*time.Millisecond, "241"},
		{300 * time.Millisecond, "1"},
		{0, "1"},
	}
	for _, tt := range tests {
		t.Run(tt.remaining.String(), func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/login", nil)
			rec := httptest.NewRecorder()

			RateLimit(&stubLimiter{remaining: tt.remaining}, "login", sl.Discard())(okHandler).ServeHTTP(rec, req)

			require.Equal(t, http.StatusTooManyRequests, rec.Code)
			assert.Equal(t, tt.want, rec.Header().Get("Retry-After"))
		})
	}
}

func serveWithSession(t *testing.T, h http.Handler, token string) *httptest.ResponseRecorder {
	t.Helper()
	chain := jwtauth.Verifier(security.TokenAuth)(ResolvePrincipal(h))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)
	return rec
}

func TestResolvePrincipal(t *testing.T) {
	security.InitJWT([]byte("middleware-secret"), time.Hour)
	token, err := security.GenerateToken("user-1", string(model.RoleAdmin))
	require.NoError(t, err)

	var got model.Principal
	capture := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = access.FromContext(r.Context())
	})

	serveWithSession(t, capture, token)
	assert.Equal(t, model.Principal{UserID: "user-1", Role: model.RoleAdmin}, got)

	serveWithSession(t, capture, "")
	assert.False(t, got.IsAuthenticated())

	serveWithSession(t, capture, "garbage")
	assert.False(t, got.IsAuthenticated())
}

func TestRequireRole(t *testing.T) {
	security.InitJWT([]byte("middleware-secret"), time.Hour)
	member, err := security.GenerateToken("user-2", string(model.RoleMember))
	require.NoError(t, err)
	admin, err := security.GenerateToken("user-3", string(model.RoleAdmin))
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, serveWithSession(t, Authenticator(okHandler), "").Code)
	assert.Equal(t, http.StatusNoContent, serveWithSession(t, Authenticator(okHandler), member).Code)
	assert.Equal(t, http.StatusForbidden, serveWithSession(t, AdminOnly(okHandler), member).Code)
	assert.Equal(t, http.StatusNoContent, serveWithSession(t, AdminOnly(okHandler), admin).Code)

	rec := serveWithSession(t, Authenticator(okHandler), "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid token")
}
