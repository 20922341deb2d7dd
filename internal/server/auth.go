package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playlist-viewer/internal/apierr"
	"github.com/desertthunder/playlist-viewer/internal/services"
	"github.com/desertthunder/playlist-viewer/internal/session"
	"github.com/desertthunder/playlist-viewer/internal/shared"
)

// AuthHandler sends the browser to the backend login and stores the JWT the backend hands back.
type AuthHandler struct {
	backend  *services.BackendClient
	sessions *session.Manager
	errs     *apierr.Writer
	baseURL  string
	logger   *log.Logger
}

// NewAuthHandler creates the login/callback handler. baseURL is this server's public URL, used to build the
// callback address given to the backend.
func NewAuthHandler(backend *services.BackendClient, sessions *session.Manager, errs *apierr.Writer, baseURL string, logger *log.Logger) *AuthHandler {
	return &AuthHandler{
		backend:  backend,
		sessions: sessions,
		errs:     errs,
		baseURL:  strings.TrimRight(baseURL, "/"),
		logger:   shared.WithLogger(logger, "component", "auth"),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *AuthHandler) Routes() []string {
	return []string{"GET /api/auth/login", "GET /api/auth/callback"}
}

func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/auth/login":
		h.login(w, r)
	case "/api/auth/callback":
		h.callback(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	callback := h.baseURL + "/api/auth/callback"
	if next := localPath(r.URL.Query().Get("next")); next != "" {
		callback += "?" + url.Values{"next": {next}}.Encode()
	}
	http.Redirect(w, r, h.backend.LoginURL(callback), http.StatusFound)
}

// callback stores ?token= for the current session and redirects home (or to ?next= when it is a local path).
func (h *AuthHandler) callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	token := q.Get("token")
	if token == "" {
		msg := "login did not return a token"
		if e := q.Get("error"); e != "" {
			msg = fmt.Sprintf("login failed: %s", e)
		}
		h.errs.Handle(w, r, apierr.Unauthorized(msg))
		return
	}

	s, ok := session.FromContext(r.Context())
	if !ok {
		h.errs.Handle(w, r, shared.ErrSessionNotFound)
		return
	}

	if _, err := h.sessions.StoreJWT(r.Context(), w, s.ID(), token); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	h.logger.Info("session authenticated", "session", s.ID())

	next := localPath(q.Get("next"))
	if next == "" {
		next = "/"
	}
	http.Redirect(w, r, next, http.StatusFound)
}

// localPath returns p when it is an absolute path on this host, and "" otherwise.
func localPath(p string) string {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return ""
	}
	return p
}

// CallbackResult contains the JWT delivered to a [CallbackHandler].
type CallbackResult struct {
	Token string
	err   error
}

func (c *CallbackResult) Error() error {
	return c.err
}

// CallbackHandler receives the backend's login redirect for the CLI. It serves a single /callback request,
// checks the state parameter and delivers the token through [CallbackHandler.Result].
type CallbackHandler struct {
	state       string
	resultChan  chan CallbackResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewCallbackHandler creates a handler expecting state on the callback.
// The state token should be random so a stray redirect cannot be mistaken for ours.
func NewCallbackHandler(state string) *CallbackHandler {
	return &CallbackHandler{
		state:      state,
		resultChan: make(chan CallbackResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{"GET /callback"}
}

// ServeHTTP handles the login callback request.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	q := r.URL.Query()
	if q.Get("state") != h.state {
		h.Send(CallbackResult{err: errors.New("invalid state parameter")})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	token := q.Get("token")
	if token == "" {
		h.Send(CallbackResult{err: fmt.Errorf("%w: login failed: %s", shared.ErrNotAuthenticated, q.Get("error"))})
		http.Error(w, "Login failed", http.StatusBadRequest)
		return
	}

	h.Send(CallbackResult{Token: token})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head>
    <title>Logged in</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Logged in to Playlist Viewer</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`)
}

// Send sends the result through the channel (only once).
func (h *CallbackHandler) Send(result CallbackResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel; it receives exactly one result and is then closed.
func (h *CallbackHandler) Result() <-chan CallbackResult {
	return h.resultChan
}
