// Package http serves health probes, Prometheus metrics and the Yandex
// OAuth callback.
package http

import (
	"context"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/oauth2"

	"budgetify/internal/log"
	"budgetify/internal/middleware/ratelimit"
	appweb "budgetify/web"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OAuthExchanger verifies a callback state and trades the code for a token.
type OAuthExchanger interface {
	ParseState(state string) (int64, error)
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}

type TokenSaver interface {
	SaveToken(ctx context.Context, userID int64, tok *oauth2.Token) error
}

// Deps are optional; a nil OAuth disables /oauth/callback.
type Deps struct {
	DB     Pinger
	OAuth  OAuthExchanger
	Tokens TokenSaver
	Logger *log.Logger
}

type Server struct {
	http.Server
	db          Pinger
	oauth       OAuthExchanger
	tokens      TokenSaver
	templates   *template.Template
	rateLimiter *ratelimit.Limiter
	logger      *log.Logger
	started     time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		db:          deps.DB,
		oauth:       deps.OAuth,
		tokens:      deps.Tokens,
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: 30}),
		logger:      logger,
		started:     time.Now(),
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())
	if s.oauth != nil && s.tokens != nil {
		limit := s.rateLimiter.Middleware(extractClientIP)
		mux.Handle("GET /oauth/callback", limit(http.HandlerFunc(s.handleOAuthCallback)))
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           log.Middleware(logger)(withSecurityHeaders(mux)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter and gracefully shuts the server down.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
