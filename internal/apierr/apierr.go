// package apierr maps failures to HTTP statuses and localized JSON error bodies
package apierr

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/playlist-viewer/internal/shared"
)

// Code identifies an error kind independent of its HTTP status; it selects the localized message.
type Code string

const (
	CodeBadRequest       Code = "bad_request"
	CodeUnauthorized     Code = "unauthorized"
	CodeForbidden        Code = "forbidden"
	CodeNotFound         Code = "not_found"
	CodePlaylistNotFound Code = "playlist_not_found"
	CodeTrackNotFound    Code = "track_not_found"
	CodeInvalidPlaylist  Code = "invalid_playlist"
	CodeUpstream         Code = "upstream_error"
	CodeBadGateway       Code = "bad_gateway"
	CodeInternal         Code = "internal_error"
)

// Error is an API failure carrying the HTTP status to answer with.
type Error struct {
	Status  int
	Code    Code
	Message string // developer-facing; the response body carries the localized text
	Details any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s (%d): %s: %v", e.Code, e.Status, e.Message, e.cause)
	}
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// WithDetails returns a copy of e carrying details.
func (e *Error) WithDetails(details any) *Error {
	c := *e
	c.Details = details
	return &c
}

// WithCause returns a copy of e wrapping cause.
func (e *Error) WithCause(cause error) *Error {
	c := *e
	c.cause = cause
	return &c
}

// New creates an [Error] with an explicit status and code.
func New(status int, code Code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, CodeBadRequest, message)
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, CodeUnauthorized, message)
}

func Forbidden(message string) *Error {
	return New(http.StatusForbidden, CodeForbidden, message)
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, CodeNotFound, message)
}

func Internal(message string) *Error {
	return New(http.StatusInternalServerError, CodeInternal, message)
}

// PlaylistNotFound is the 404 answered when the backend does not know a playlist id.
func PlaylistNotFound(id string) *Error {
	return New(http.StatusNotFound, CodePlaylistNotFound, fmt.Sprintf("playlist %s not found", id))
}

// TrackNotFound is the 404 answered when the backend does not know a track id.
func TrackNotFound(id string) *Error {
	return New(http.StatusNotFound, CodeTrackNotFound, fmt.Sprintf("track %s not found", id))
}

// Is reports whether err is an [*Error] with the given status.
func Is(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// FromStatus converts a non-2xx backend response into an [Error], keeping the backend's message as details.
func FromStatus(status int, body []byte) *Error {
	message, details := backendMessage(body)
	if message == "" {
		message = http.StatusText(status)
	}

	var e *Error
	switch status {
	case http.StatusBadRequest:
		e = BadRequest(message)
	case http.StatusUnauthorized:
		e = Unauthorized(message)
	case http.StatusForbidden:
		e = Forbidden(message)
	case http.StatusNotFound:
		e = NotFound(message)
	default:
		e = New(status, CodeUpstream, message)
	}
	if details != nil {
		e.Details = details
	}
	return e
}

// backendMessage pulls a human message out of the common error body shapes.
func backendMessage(body []byte) (string, any) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return "", nil
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", nil
	}

	for _, key := range []string{"error", "message", "detail"} {
		if s, ok := payload[key].(string); ok && s != "" {
			return s, payload["details"]
		}
	}
	return "", payload
}

// From converts any error into an [*Error], mapping the shared sentinel errors to statuses.
func From(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case errors.Is(err, shared.ErrInvalidPlaylistURL):
		return New(http.StatusBadRequest, CodeInvalidPlaylist, err.Error()).WithCause(err)
	case errors.Is(err, shared.ErrInvalidInput), errors.Is(err, shared.ErrMissingArgument), errors.Is(err, shared.ErrInvalidArgument):
		return BadRequest(err.Error()).WithCause(err)
	case errors.Is(err, shared.ErrNotAuthenticated), errors.Is(err, shared.ErrTokenExpired), errors.Is(err, shared.ErrTokenNotFound):
		return Unauthorized(err.Error()).WithCause(err)
	case errors.Is(err, shared.ErrPlaylistNotFound):
		return New(http.StatusNotFound, CodePlaylistNotFound, err.Error()).WithCause(err)
	case errors.Is(err, shared.ErrTrackNotFound):
		return New(http.StatusNotFound, CodeTrackNotFound, err.Error()).WithCause(err)
	case errors.Is(err, shared.ErrAPIRequest), errors.Is(err, shared.ErrServiceUnavailable):
		return New(http.StatusBadGateway, CodeBadGateway, err.Error()).WithCause(err)
	default:
		return Internal(err.Error()).WithCause(err)
	}
}
