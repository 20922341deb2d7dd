// package server contains the router, middleware & handlers of the playlist viewer web service
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playlist-viewer/internal/apierr"
	"github.com/desertthunder/playlist-viewer/internal/services"
	"github.com/desertthunder/playlist-viewer/internal/session"
	"github.com/desertthunder/playlist-viewer/internal/shared"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging, panic recovery and session issuance.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers in the playlist viewer.
// Implementations handle a group of endpoints (API proxy, auth, pages).
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the "METHOD /path" patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
// Implementations register handlers, apply middleware, and configure the HTTP server.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// Opts contains the dependencies of a [Server].
type Opts struct {
	Config   *shared.Config
	Backend  *services.BackendClient
	Sessions *session.Manager
	Logger   *log.Logger
	Pages    []Handler // extra handlers mounted behind the same middleware, e.g. the web pages
}

// Server is the playlist viewer HTTP server.
type Server struct {
	addr   string
	router *BasicRouter
	logger *log.Logger
}

// New builds the router: request logging, panic recovery and session issuance wrap every route.
func New(opts Opts) *Server {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Backend == nil {
		opts.Backend = services.NewBackendClientFromConfig(opts.Config)
	}
	if opts.Sessions == nil {
		opts.Sessions = session.NewManager(session.NewMemoryStore(), session.NewMemoryTokenStore(), session.Options{
			CookieName: opts.Config.Session.CookieName,
			JWTCookie:  opts.Config.Session.JWTCookie,
			MaxAge:     opts.Config.Session.MaxAge.Duration,
			Secure:     opts.Config.Session.Secure,
			Logger:     opts.Logger,
		})
	}

	errs := apierr.NewWriter(opts.Config.UI.Locale, opts.Logger)

	router := NewBasicRouter()
	router.Use(RequestLogger(opts.Logger), Recoverer(errs, opts.Logger), opts.Sessions.Middleware)

	router.Handler(NewAPIHandler(opts.Backend, opts.Sessions, errs, opts.Logger))
	router.Handler(NewAuthHandler(opts.Backend, opts.Sessions, errs, opts.Config.Server.BaseURL, opts.Logger))
	for _, h := range opts.Pages {
		router.Handler(h)
	}

	return &Server{
		addr:   opts.Config.Server.Addr(),
		router: router,
		logger: opts.Logger,
	}
}

// ServeHTTP implements [http.Handler].
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Addr returns the listen address.
func (s *Server) Addr() string { return s.addr }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
