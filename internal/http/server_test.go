package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type fakeDB struct{ err error }

func (f fakeDB) Ping(context.Context) error { return f.err }

type fakeOAuth struct{ exchangeErr error }

func (fakeOAuth) ParseState(state string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSuffix(state, ".sig"), 10, 64)
	if err != nil || !strings.HasSuffix(state, ".sig") {
		return 0, errors.New("invalid state")
	}
	return id, nil
}

func (f fakeOAuth) Exchange(_ context.Context, code string) (*oauth2.Token, error) {
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return &oauth2.Token{AccessToken: "tok-" + code}, nil
}

type fakeTokens struct{ saved map[int64]string }

func (f *fakeTokens) SaveToken(_ context.Context, userID int64, tok *oauth2.Token) error {
	f.saved[userID] = tok.AccessToken
	return nil
}

func newTestServer(t *testing.T, deps Deps) *Server {
	t.Helper()
	s := NewServer(":0", deps)
	t.Cleanup(func() { s.rateLimiter.Stop() })
	return s
}

func get(s *Server, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, Deps{})
	rec := get(s, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestReady(t *testing.T) {
	tests := []struct {
		name string
		db   Pinger
		code int
	}{
		{"healthy db", fakeDB{}, http.StatusOK},
		{"db down", fakeDB{err: errors.New("locked")}, http.StatusServiceUnavailable},
		{"no db", nil, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, Deps{DB: tt.db})
			assert.Equal(t, tt.code, get(s, "/readyz").Code)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, Deps{})
	rec := get(s, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestOAuthCallback(t *testing.T) {
	tokens := &fakeTokens{saved: map[int64]string{}}
	s := newTestServer(t, Deps{OAuth: fakeOAuth{}, Tokens: tokens})

	rec := get(s, "/oauth/callback?code=abc&state=42.sig")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Авторизация прошла успешно")
	assert.Equal(t, "tok-abc", tokens.saved[42])
	assert.Equal(t, "no-referrer", rec.Header().Get("Referrer-Policy"))
}

func TestOAuthCallbackFailures(t *testing.T) {
	tests := []struct {
		name   string
		oauth  fakeOAuth
		target string
		code   int
	}{
		{"provider error", fakeOAuth{}, "/oauth/callback?error=access_denied&state=1.sig", http.StatusBadRequest},
		{"forged state", fakeOAuth{}, "/oauth/callback?code=abc&state=1", http.StatusBadRequest},
		{"missing code", fakeOAuth{}, "/oauth/callback?state=1.sig", http.StatusBadRequest},
		{"exchange fails", fakeOAuth{exchangeErr: errors.New("invalid_grant")}, "/oauth/callback?code=abc&state=1.sig", http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := &fakeTokens{saved: map[int64]string{}}
			s := newTestServer(t, Deps{OAuth: tt.oauth, Tokens: tokens})
			rec := get(s, tt.target)
			assert.Equal(t, tt.code, rec.Code)
			assert.Contains(t, rec.Body.String(), "Ошибка авторизации")
			assert.Empty(t, tokens.saved)
		})
	}
}

func TestOAuthCallbackDisabled(t *testing.T) {
	s := newTestServer(t, Deps{})
	assert.Equal(t, http.StatusNotFound, get(s, "/oauth/callback?code=abc&state=1.sig").Code)
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name, remote, xff, want string
	}{
		{"direct", "203.0.113.9:1234", "", "203.0.113.9"},
		{"untrusted proxy header ignored", "203.0.113.9:1234", "198.51.100.1", "203.0.113.9"},
		{"trusted proxy", "10.0.0.2:1234", "198.51.100.1, 10.0.0.2", "198.51.100.1"},
		{"trusted proxy bad header", "10.0.0.2:1234", "garbage", "10.0.0.2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			assert.Equal(t, tt.want, extractClientIP(r))
		})
	}
}
