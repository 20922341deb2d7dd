package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/playlist-viewer/internal/services"
	"github.com/desertthunder/playlist-viewer/internal/shared"
	"github.com/urfave/cli/v3"
)

// splitPath separates "/api/x?a=b" into the path and its query.
func splitPath(raw string) (string, url.Values, error) {
	if raw == "" {
		return "", nil, fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}
	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() {
		return "", nil, fmt.Errorf("%w: %q is not a backend path", shared.ErrInvalidArgument, raw)
	}
	return "/" + strings.TrimLeft(u.Path, "/"), u.Query(), nil
}

func (r *Runner) apiCall(ctx context.Context, cmd *cli.Command, method string, body []byte) (*services.APIResponse, error) {
	path, query, err := splitPath(cmd.StringArg("path"))
	if err != nil {
		return nil, err
	}
	creds, err := r.credentials(ctx, cmd)
	if err != nil {
		return nil, err
	}

	r.logger.Info(method+" request", "path", path)

	resp, err := r.backend.Do(ctx, method, path, query, body, creds)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}
	return resp, nil
}

func (r *Runner) writeResponse(resp *services.APIResponse, pretty bool) error {
	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, pretty)
	}
	if len(resp.Body) == 0 {
		return r.writePlain("%d %s\n", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}

// APIGet makes a direct GET request to the backend
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	resp, err := r.apiCall(ctx, cmd, http.MethodGet, nil)
	if err != nil {
		return err
	}
	return r.writeResponse(resp, !cmd.Bool("json"))
}

// APIPost makes a direct POST request to the backend
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	data := cmd.String("data")
	if data == "" {
		return fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
	}

	var jsonTest any
	if err := json.Unmarshal([]byte(data), &jsonTest); err != nil {
		return fmt.Errorf("%w: data is not valid JSON: %v", shared.ErrInvalidInput, err)
	}

	resp, err := r.apiCall(ctx, cmd, http.MethodPost, []byte(data))
	if err != nil {
		return err
	}
	return r.writeResponse(resp, true)
}

// APIDelete makes a direct DELETE request to the backend
func (r *Runner) APIDelete(ctx context.Context, cmd *cli.Command) error {
	resp, err := r.apiCall(ctx, cmd, http.MethodDelete, nil)
	if err != nil {
		return err
	}
	return r.writeResponse(resp, true)
}
