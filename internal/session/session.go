// Package session issues sessionId cookies and keeps the backend JWT for each session.
//
// A [Manager] is the request-scoped replacement for client-side user/session state: its middleware makes sure every
// request carries a session, stores it on the [context.Context], and [Manager.Credentials] resolves the tokens that
// the API routes forward to the backend. The JWT is read from its cookie first and from the [TokenStore] second.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playlist-viewer/internal/models"
	"github.com/desertthunder/playlist-viewer/internal/services"
	"github.com/desertthunder/playlist-viewer/internal/shared"
	"golang.org/x/oauth2"
)

// Store persists sessions; [repositories.SessionRepository] and [MemoryStore] implement it.
type Store interface {
	Create(s *models.Session) error
	Get(id string) (*models.Session, error)
	Update(s *models.Session) error
	Delete(id string) error
}

// TokenStore is the key-value store holding one JWT per session id.
type TokenStore interface {
	Save(ctx context.Context, sessionID string, token *oauth2.Token) error
	Load(ctx context.Context, sessionID string) (*oauth2.Token, error)
	Delete(ctx context.Context, sessionID string) error
}

// Options configures a [Manager].
type Options struct {
	CookieName string
	JWTCookie  string
	MaxAge     time.Duration
	Secure     bool
	Logger     *log.Logger
}

// Manager issues sessions and resolves their credentials.
type Manager struct {
	store  Store
	tokens TokenStore
	opts   Options
	logger *log.Logger
	now    func() time.Time
}

// NewManager creates a [Manager] backed by store and tokens.
func NewManager(store Store, tokens TokenStore, opts Options) *Manager {
	if opts.CookieName == "" {
		opts.CookieName = "sessionId"
	}
	if opts.JWTCookie == "" {
		opts.JWTCookie = "JWT"
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Manager{
		store:  store,
		tokens: tokens,
		opts:   opts,
		logger: shared.WithLogger(opts.Logger, "component", "session"),
		now:    time.Now,
	}
}

type ctxKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s *models.Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored by [Manager.Middleware].
func FromContext(ctx context.Context) (*models.Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*models.Session)
	return s, ok && s != nil
}

// Issue returns the request's session, creating one and setting its cookie when the cookie is absent, unknown or
// idle past MaxAge. The boolean reports whether a new session was issued.
func (m *Manager) Issue(w http.ResponseWriter, r *http.Request) (*models.Session, bool, error) {
	if c, err := r.Cookie(m.opts.CookieName); err == nil && c.Value != "" {
		s, err := m.store.Get(c.Value)
		switch {
		case err == nil && !s.Expired(m.opts.MaxAge, m.now()):
			s.Touch()
			if err := m.store.Update(s); err != nil {
				return nil, false, fmt.Errorf("failed to touch session: %w", err)
			}
			return s, false, nil
		case err == nil:
			m.logger.Debug("session expired", "id", s.ID())
			m.forget(r.Context(), s.ID())
		case !errors.Is(err, shared.ErrSessionNotFound):
			return nil, false, fmt.Errorf("failed to load session: %w", err)
		}
	}

	s := models.NewSession(shared.GenerateID())
	if err := m.store.Create(s); err != nil {
		return nil, false, fmt.Errorf("failed to create session: %w", err)
	}

	http.SetCookie(w, m.cookie(m.opts.CookieName, s.ID(), m.opts.MaxAge))
	m.logger.Debug("issued session", "id", s.ID())
	return s, true, nil
}

// Middleware issues a session for every request and stores it on the request context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, _, err := m.Issue(w, r)
		if err != nil {
			m.logger.Error("session unavailable", "error", err)
			http.Error(w, "session unavailable", http.StatusInternalServerError)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
	})
}

// Credentials returns the tokens to forward for r.
//
// The session id comes from the request context (or the cookie when the middleware did not run). The JWT comes from
// the JWT cookie, falling back to the token store; an expired or missing stored token yields no JWT.
func (m *Manager) Credentials(r *http.Request) services.Credentials {
	var creds services.Credentials

	if s, ok := FromContext(r.Context()); ok {
		creds.SessionID = s.ID()
	} else if c, err := r.Cookie(m.opts.CookieName); err == nil {
		creds.SessionID = c.Value
	}

	if c, err := r.Cookie(m.opts.JWTCookie); err == nil && c.Value != "" {
		creds.JWT = c.Value
		return creds
	}

	if creds.SessionID != "" && m.tokens != nil {
		tok, err := m.tokens.Load(r.Context(), creds.SessionID)
		switch {
		case err == nil && tok.Valid():
			creds.JWT = tok.AccessToken
		case err != nil && !errors.Is(err, shared.ErrTokenNotFound) && !errors.Is(err, shared.ErrTokenExpired):
			m.logger.Warn("failed to load token", "session", creds.SessionID, "error", err)
		}
	}

	return creds
}

// StoreJWT saves jwt for sessionID and sets the JWT cookie. The cookie and stored token expire with the JWT's exp
// claim when it has one.
func (m *Manager) StoreJWT(ctx context.Context, w http.ResponseWriter, sessionID, jwt string) (*oauth2.Token, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: no session", shared.ErrNotAuthenticated)
	}

	token, err := TokenFromJWT(jwt)
	if err != nil {
		return nil, err
	}
	if !token.Expiry.IsZero() && !token.Expiry.After(m.now()) {
		return nil, fmt.Errorf("%w: jwt already expired", shared.ErrTokenExpired)
	}

	if err := m.tokens.Save(ctx, sessionID, token); err != nil {
		return nil, err
	}

	maxAge := m.opts.MaxAge
	if !token.Expiry.IsZero() {
		maxAge = token.Expiry.Sub(m.now())
	}
	http.SetCookie(w, m.cookie(m.opts.JWTCookie, jwt, maxAge))

	return token, nil
}

// SelectPlaylist records playlistID as the selected playlist of the session on ctx.
func (m *Manager) SelectPlaylist(ctx context.Context, playlistID string) error {
	s, ok := FromContext(ctx)
	if !ok {
		return shared.ErrSessionNotFound
	}
	s.SelectPlaylist(playlistID)
	return m.store.Update(s)
}

// Clear deletes the stored JWT and session for sessionID and expires both cookies.
func (m *Manager) Clear(ctx context.Context, w http.ResponseWriter, sessionID string) {
	if sessionID != "" {
		m.forget(ctx, sessionID)
	}
	http.SetCookie(w, m.cookie(m.opts.CookieName, "", -1))
	http.SetCookie(w, m.cookie(m.opts.JWTCookie, "", -1))
}

func (m *Manager) forget(ctx context.Context, sessionID string) {
	if m.tokens != nil {
		if err := m.tokens.Delete(ctx, sessionID); err != nil {
			m.logger.Warn("failed to delete token", "session", sessionID, "error", err)
		}
	}
	if err := m.store.Delete(sessionID); err != nil && !errors.Is(err, shared.ErrSessionNotFound) {
		m.logger.Warn("failed to delete session", "session", sessionID, "error", err)
	}
}

// cookie builds an HttpOnly cookie; a negative maxAge deletes it and zero makes it a browser-session cookie.
func (m *Manager) cookie(name, value string, maxAge time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	switch {
	case maxAge < 0:
		c.MaxAge = -1
	case maxAge > 0:
		c.MaxAge = int(maxAge / time.Second)
	}
	return c
}
