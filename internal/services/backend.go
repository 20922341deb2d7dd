package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/desertthunder/playlist-viewer/internal/shared"
	"golang.org/x/time/rate"
)

// Credentials are the opaque tokens forwarded to the backend on behalf of a browser session.
type Credentials struct {
	SessionID string
	JWT       string
}

// Authenticated reports whether a JWT is present.
func (c Credentials) Authenticated() bool { return c.JWT != "" }

// BackendOpts configures a [BackendClient].
type BackendOpts struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	RateLimit  float64 // requests per second; 0 disables limiting
	Burst      int
	SessionKey string // cookie name for the session id
	JWTKey     string // cookie name for the JWT
	LoginPath  string
}

// BackendClient sends requests to the Spotify-backed service.
type BackendClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	sessionKey string
	jwtKey     string
	loginPath  string
}

// NewBackendClient creates a client for the backend described by opts.
func NewBackendClient(opts BackendOpts) *BackendClient {
	if opts.BaseURL == "" {
		opts.BaseURL = "http://localhost:8000"
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.SessionKey == "" {
		opts.SessionKey = "sessionId"
	}
	if opts.JWTKey == "" {
		opts.JWTKey = "JWT"
	}
	if opts.LoginPath == "" {
		opts.LoginPath = "/auth/login"
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return &BackendClient{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: opts.HTTPClient,
		limiter:    limiter,
		sessionKey: opts.SessionKey,
		jwtKey:     opts.JWTKey,
		loginPath:  opts.LoginPath,
	}
}

// NewBackendClientFromConfig builds a [BackendClient] from the [backend] and [session] config sections.
func NewBackendClientFromConfig(cfg *shared.Config) *BackendClient {
	return NewBackendClient(BackendOpts{
		BaseURL:    cfg.Backend.BaseURL,
		Timeout:    cfg.Backend.Timeout.Duration,
		RateLimit:  cfg.Backend.RateLimit,
		Burst:      cfg.Backend.Burst,
		SessionKey: cfg.Session.CookieName,
		JWTKey:     cfg.Session.JWTCookie,
		LoginPath:  cfg.Backend.LoginPath,
	})
}

// BaseURL returns the backend base URL without a trailing slash.
func (c *BackendClient) BaseURL() string { return c.baseURL }

// APIResponse represents a raw backend response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports whether the status is 2xx.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Get performs a GET request to path with the given query parameters.
func (c *BackendClient) Get(ctx context.Context, path string, query url.Values, creds Credentials) (*APIResponse, error) {
	return c.Do(ctx, http.MethodGet, path, query, nil, creds)
}

// Post performs a POST request with a JSON body.
func (c *BackendClient) Post(ctx context.Context, path string, data []byte, creds Credentials) (*APIResponse, error) {
	return c.Do(ctx, http.MethodPost, path, nil, data, creds)
}

// Delete performs a DELETE request to path with the given query parameters.
func (c *BackendClient) Delete(ctx context.Context, path string, query url.Values, creds Credentials) (*APIResponse, error) {
	return c.Do(ctx, http.MethodDelete, path, query, nil, creds)
}

// Do builds the URL from path and query, attaches creds, waits for the rate limiter and sends the request.
//
// A non-2xx status is not an error here; callers relay or convert it.
func (c *BackendClient) Do(ctx context.Context, method, path string, query url.Values, body []byte, creds Credentials) (*APIResponse, error) {
	fullURL := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.attach(req, creds)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", shared.ErrAPIRequest, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", shared.ErrAPIRequest, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", shared.ErrAPIRequest, err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
	}

	var jsonData any
	if len(data) > 0 && json.Unmarshal(data, &jsonData) == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

func (c *BackendClient) attach(req *http.Request, creds Credentials) {
	if creds.SessionID != "" {
		req.AddCookie(&http.Cookie{Name: c.sessionKey, Value: creds.SessionID})
	}
	if creds.JWT != "" {
		req.AddCookie(&http.Cookie{Name: c.jwtKey, Value: creds.JWT})
		req.Header.Set("Authorization", "Bearer "+creds.JWT)
	}
}

// LoginURL returns the backend login URL, asking it to send the browser back to returnTo.
func (c *BackendClient) LoginURL(returnTo string) string {
	u := c.baseURL + "/" + strings.TrimLeft(c.loginPath, "/")
	if returnTo == "" {
		return u
	}
	return u + "?" + url.Values{"redirect_uri": {returnTo}}.Encode()
}
