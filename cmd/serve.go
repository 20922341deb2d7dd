package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/playlist-viewer/internal/apierr"
	"github.com/desertthunder/playlist-viewer/internal/repositories"
	"github.com/desertthunder/playlist-viewer/internal/server"
	"github.com/desertthunder/playlist-viewer/internal/session"
	"github.com/desertthunder/playlist-viewer/internal/web"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP server until SIGINT or SIGTERM.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if cmd.IsSet("host") {
		r.config.Server.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		r.config.Server.Port = cmd.Int("port")
	}
	if err := r.config.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions, err := r.sessionManager(ctx, cmd.Duration("purge-interval"))
	if err != nil {
		return err
	}

	errs := apierr.NewWriter(r.config.UI.Locale, r.logger)
	pages, err := web.New(r.backend, sessions, errs, r.config.UI.Locale, r.logger)
	if err != nil {
		return err
	}

	srv := server.New(server.Opts{
		Config:   r.config,
		Backend:  r.backend,
		Sessions: sessions,
		Logger:   r.logger,
		Pages:    []server.Handler{pages},
	})

	r.logger.Info("serving playlist viewer", "addr", srv.Addr(), "backend", r.backend.BaseURL(), "store", r.config.Session.Store)
	return srv.ListenAndServe(ctx)
}

// sessionManager builds the session layer on the configured store. The sqlite store also gets a purge loop.
func (r *Runner) sessionManager(ctx context.Context, purgeEvery time.Duration) (*session.Manager, error) {
	opts := session.Options{
		CookieName: r.config.Session.CookieName,
		JWTCookie:  r.config.Session.JWTCookie,
		MaxAge:     r.config.Session.MaxAge.Duration,
		Secure:     r.config.Session.Secure,
		Logger:     r.logger,
	}

	if r.config.Session.Store == "memory" {
		return session.NewManager(session.NewMemoryStore(), session.NewMemoryTokenStore(), opts), nil
	}

	db, err := r.database()
	if err != nil {
		return nil, err
	}

	store := repositories.NewSessionRepository(db)
	tokens := repositories.NewTokenRepository(db)
	if purgeEvery > 0 {
		go r.purgeLoop(ctx, store, tokens, purgeEvery)
	}

	return session.NewManager(store, tokens, opts), nil
}

func (r *Runner) purgeLoop(ctx context.Context, store *repositories.SessionRepository, tokens *repositories.TokenRepository, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.purge(ctx, store, tokens)
		}
	}
}

// purge drops expired tokens and sessions idle for longer than the cookie max age.
func (r *Runner) purge(ctx context.Context, store *repositories.SessionRepository, tokens *repositories.TokenRepository) {
	n, err := tokens.PurgeExpired(ctx)
	if err != nil {
		r.logger.Warn("token purge failed", "error", err)
	} else if n > 0 {
		r.logger.Info("purged expired tokens", "count", n)
	}

	maxAge := r.config.Session.MaxAge.Duration
	if maxAge <= 0 {
		// sessions never go idle without a max age
		return
	}

	idle, err := store.List(map[string]any{"idle_since": time.Now().Add(-maxAge)})
	if err != nil {
		r.logger.Warn("session listing failed", "error", err)
		return
	}
	for _, s := range idle {
		if s.ID() == cliSessionID {
			continue
		}
		if err := store.Delete(s.ID()); err != nil {
			r.logger.Warn("failed to delete idle session", "session", s.ID(), "error", err)
		}
	}
	if len(idle) > 0 {
		r.logger.Debug("purged idle sessions", "count", len(idle))
	}
}
