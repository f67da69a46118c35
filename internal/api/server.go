// Package api exposes the control channels over HTTP: command execution,
// provider discovery, health, and the audit trail.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mattjoyce/relay/internal/audit"
	"github.com/mattjoyce/relay/internal/auth"
	"github.com/mattjoyce/relay/internal/ipc"
	"github.com/mattjoyce/relay/internal/log"
	"github.com/mattjoyce/relay/internal/plugin"
)

// AuditReader is the read side of the audit trail consumed by GET /audit.
type AuditReader interface {
	Recent(ctx context.Context, limit int) ([]audit.Entry, error)
}

// Config holds API server configuration.
type Config struct {
	Listen       string
	APIKey       string
	ReplyTimeout time.Duration
}

// consumerConn is the server's attachment to one provider. The mutex
// serializes the server's own use of the endpoint; one HTTP request in
// flight per provider at a time.
type consumerConn struct {
	mu sync.Mutex
	ep *ipc.Endpoint
}

// Server is the HTTP API server. It attaches one consumer endpoint per
// loaded provider at construction time, during the registration phase.
type Server struct {
	config    Config
	registry  *plugin.Registry
	audit     AuditReader
	conns     map[string]*consumerConn
	logger    *slog.Logger
	server    *http.Server
	startedAt time.Time
}

// New creates the API server and registers its consumer endpoints. Must run
// before the registry's channels are started.
func New(config Config, registry *plugin.Registry, audit AuditReader) (*Server, error) {
	if config.ReplyTimeout <= 0 {
		config.ReplyTimeout = ipc.DefaultReplyTimeout
	}

	conns := make(map[string]*consumerConn, len(registry.All()))
	for _, name := range registry.Names() {
		ep, err := registry.Attach(name)
		if err != nil {
			return nil, fmt.Errorf("attach api endpoint: %w", err)
		}
		conns[name] = &consumerConn{ep: ep}
	}

	return &Server{
		config:    config,
		registry:  registry,
		audit:     audit,
		conns:     conns,
		logger:    log.WithComponent("api"),
		startedAt: time.Now(),
	}, nil
}

// Start runs the HTTP server until ctx is cancelled, then shuts it down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.config.Listen,
		Handler:      s.setupRoutes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api server listening", "addr", s.config.Listen)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("api shutdown: %w", err)
		}
		s.logger.Info("api server stopped")
		return nil
	}
}

func (s *Server) setupRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/plugins", s.handlePlugins)
		r.Post("/plugin/{name}/run", s.handleRun)
		r.Get("/audit", s.handleAudit)
	})

	return r
}

// requireAuth rejects requests without the configured bearer token.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := auth.ExtractBearerToken(r)
		if err != nil {
			s.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if !auth.Equal(token, s.config.APIKey) {
			s.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
