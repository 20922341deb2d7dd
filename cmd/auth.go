package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/desertthunder/playlist-viewer/internal/server"
	"github.com/desertthunder/playlist-viewer/internal/session"
	"github.com/desertthunder/playlist-viewer/internal/shared"
	"github.com/urfave/cli/v3"
)

// openBrowser is swapped out in tests.
var openBrowser = shared.OpenBrowser

// Login sends the browser through the backend login and saves the JWT it redirects back with.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	tokens, err := r.tokenStore()
	if err != nil {
		return err
	}

	jwt, err := r.awaitLogin(ctx, cmd.Int("port"), cmd.Duration("timeout"), !cmd.Bool("no-browser"))
	if err != nil {
		return err
	}

	token, err := session.TokenFromJWT(jwt)
	if err != nil {
		return err
	}
	if err := tokens.Save(ctx, cliSessionID, token); err != nil {
		return err
	}

	r.writePlainln("✓ Logged in")
	if !token.Expiry.IsZero() {
		r.writePlain("Token valid until %s\n", token.Expiry.Local().Format(time.RFC1123))
	}
	return nil
}

// awaitLogin serves a one-shot callback on 127.0.0.1:port and waits for the backend to redirect to it.
func (r *Runner) awaitLogin(ctx context.Context, port int, timeout time.Duration, launch bool) (string, error) {
	state := shared.GenerateID()
	callback := server.NewCallbackHandler(state)
	router := server.NewBasicRouter()
	router.Handler(callback)

	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return "", fmt.Errorf("failed to listen for login callback: %w", err)
	}

	httpServer := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Debug("starting login callback server", "addr", ln.Addr().String())
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down callback server", "error", err)
		}
	}()

	returnTo := fmt.Sprintf("http://%s/callback?%s", ln.Addr().String(), url.Values{"state": {state}}.Encode())
	loginURL := r.backend.LoginURL(returnTo)

	if launch {
		r.writePlain("→ Opening browser for login...\n")
		if err := openBrowser(loginURL); err != nil {
			r.logger.Warnf("failed to open browser automatically %v", err)
			r.writePlainln("⚠ Could not open browser automatically.")
			launch = false
		}
	}
	if !launch {
		r.writePlain("Please open this URL in your browser:\n%s\n\n", loginURL)
	}

	r.writePlain("→ Waiting for login (%s timeout)...\n", timeout)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var result server.CallbackResult
	select {
	case result = <-callback.Result():
	case err := <-serverErrors:
		return "", fmt.Errorf("server error: %w", err)
	case <-timer.C:
		return "", fmt.Errorf("%w: login timed out after %s", shared.ErrNotAuthenticated, timeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}

	if err := result.Error(); err != nil {
		return "", fmt.Errorf("login failed: %w", err)
	}
	return result.Token, nil
}

// Logout ends the backend session when there is one and always forgets the saved JWT.
func (r *Runner) Logout(ctx context.Context, cmd *cli.Command) error {
	creds, err := r.credentials(ctx, cmd)
	if err != nil {
		return err
	}

	if creds.Authenticated() {
		if err := r.backend.Logout(ctx, creds); err != nil {
			r.logger.Warn("backend logout failed", "error", err)
		}
	}

	tokens, err := r.tokenStore()
	if err != nil {
		return err
	}
	if err := tokens.Delete(ctx, cliSessionID); err != nil {
		return err
	}

	return r.writePlain("✓ Logged out\n")
}

// WhoAmI prints the Spotify user behind the saved JWT.
func (r *Runner) WhoAmI(ctx context.Context, cmd *cli.Command) error {
	creds, err := r.requireAuth(ctx, cmd)
	if err != nil {
		return err
	}

	user, err := r.backend.CurrentUser(ctx, creds)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, true)
	}

	r.writePlain("%s (%s)\n", user.DisplayName, user.ID)
	if user.Email != "" {
		r.writePlain("%s\n", user.Email)
	}
	return nil
}
