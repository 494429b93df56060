// Package web serves the bot over an HTTP JSON API.
//
// Each request names its user in the X-User-ID header. A user has to send
// the configured auth token once (POST /api/auth) before anything else is
// accepted; the flag is kept in the session store.
//
//	POST   /api/auth                    {"token": "..."}
//	POST   /api/transactions            {"text": "...", "tags": ["..."]}
//	DELETE /api/transactions/{handle}
//	GET    /api/dispatchers
//	GET    /api/dispatchers/{name}
//	GET    /api/session/tags
//	PUT    /api/session/tags            {"tags": ["..."]}
//	POST   /api/reload
//
// SECURITY WARNING: X-User-ID is trusted as sent. Bind the server to
// localhost or put it behind a proxy that sets the header.
package web

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/robinvdvleuten/beancount-bot/manager"
)

// Sessions stores per-user state. *session.Store implements it.
type Sessions interface {
	Authenticated(ctx context.Context, user string) (bool, error)
	SetAuthenticated(ctx context.Context, user string, authenticated bool) error
	Tags(ctx context.Context, user string) ([]string, error)
	SetTags(ctx context.Context, user string, tags []string) error
}

// Reloader builds a new manager from the current configuration.
type Reloader func(ctx context.Context) (*manager.Manager, error)

// Server is the HTTP transport.
type Server struct {
	Addr string

	manager   atomic.Pointer[manager.Manager]
	sessions  Sessions
	authToken string
	reload    Reloader
	logger    zerolog.Logger
	timeout   time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(s *Server) {
		s.Addr = addr
	}
}

// WithAuthToken sets the token users send to authenticate. Without one,
// every user is rejected.
func WithAuthToken(token string) Option {
	return func(s *Server) {
		s.authToken = token
	}
}

// WithReloader enables POST /api/reload.
func WithReloader(reload Reloader) Option {
	return func(s *Server) {
		s.reload = reload
	}
}

// New creates a Server for m.
func New(m *manager.Manager, sessions Sessions, opts ...Option) *Server {
	s := &Server{
		Addr:     "127.0.0.1:8080",
		sessions: sessions,
		logger:   zerolog.Nop(),
		timeout:  60 * time.Second,
	}
	s.manager.Store(m)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Manager returns the manager currently serving requests.
func (s *Server) Manager() *manager.Manager {
	return s.manager.Load()
}

// SetManager replaces the manager. Requests already running finish with the
// previous one.
func (s *Server) SetManager(m *manager.Manager) {
	s.manager.Store(m)
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.Addr).Msg("listening")
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info().Msg("shutting down")
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Handler returns the HTTP handler of the API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(s.requireUser)

		r.Post("/auth", s.handleAuth)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Post("/transactions", s.handleCreate)
			r.Delete("/transactions/{handle}", s.handleWithdraw)

			r.Get("/dispatchers", s.handleListDispatchers)
			r.Get("/dispatchers/{name}", s.handleGetDispatcher)

			r.Get("/session/tags", s.handleGetTags)
			r.Put("/session/tags", s.handlePutTags)

			r.Post("/reload", s.handleReload)
		})
	})

	return r
}
