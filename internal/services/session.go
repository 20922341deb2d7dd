package services

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/desertthunder/playlist-viewer/internal/models"
)

// CurrentUser fetches the profile attached to creds.
func (c *BackendClient) CurrentUser(ctx context.Context, creds Credentials) (*models.User, error) {
	resp, err := c.Get(ctx, "/api/session/user", nil, creds)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp, nil); err != nil {
		return nil, err
	}
	return decode[models.User](resp, "user")
}

// CheckSession asks the backend whether creds are still valid. A 401 or 403 is reported as false, not an error.
func (c *BackendClient) CheckSession(ctx context.Context, creds Credentials) (bool, error) {
	resp, err := c.Get(ctx, "/api/session/check", nil, creds)
	if err != nil {
		return false, err
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return false, nil
	}
	if err := checkStatus(resp, nil); err != nil {
		return false, err
	}

	var body struct {
		Valid         *bool `json:"valid"`
		Authenticated *bool `json:"authenticated"`
	}
	if json.Unmarshal(resp.Body, &body) == nil {
		switch {
		case body.Valid != nil:
			return *body.Valid, nil
		case body.Authenticated != nil:
			return *body.Authenticated, nil
		}
	}
	return true, nil
}

// Logout ends the backend session for creds.
func (c *BackendClient) Logout(ctx context.Context, creds Credentials) error {
	resp, err := c.Post(ctx, "/api/session/logout", []byte("{}"), creds)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return nil
	}
	return checkStatus(resp, nil)
}
