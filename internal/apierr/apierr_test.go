package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/playlist-viewer/internal/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromStatus(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		code    Code
		message string
	}{
		{"bad request", 400, `{"error":"missing playlistId"}`, CodeBadRequest, "missing playlistId"},
		{"unauthorized", 401, ``, CodeUnauthorized, "Unauthorized"},
		{"forbidden", 403, `{"message":"nope"}`, CodeForbidden, "nope"},
		{"not found", 404, `{"detail":"gone"}`, CodeNotFound, "gone"},
		{"server error", 503, `not json`, CodeUpstream, "Service Unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := FromStatus(tt.status, []byte(tt.body))
			assert.Equal(t, tt.status, e.Status)
			assert.Equal(t, tt.code, e.Code)
			assert.Equal(t, tt.message, e.Message)
		})
	}

	t.Run("keeps unrecognised body as details", func(t *testing.T) {
		e := FromStatus(422, []byte(`{"field":"name"}`))
		assert.Equal(t, map[string]any{"field": "name"}, e.Details)
	})
}

func TestFrom(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   Code
	}{
		{fmt.Errorf("wrap: %w", shared.ErrInvalidPlaylistURL), 400, CodeInvalidPlaylist},
		{fmt.Errorf("wrap: %w", shared.ErrMissingArgument), 400, CodeBadRequest},
		{shared.ErrNotAuthenticated, 401, CodeUnauthorized},
		{shared.ErrTokenExpired, 401, CodeUnauthorized},
		{fmt.Errorf("p1: %w", shared.ErrPlaylistNotFound), 404, CodePlaylistNotFound},
		{shared.ErrTrackNotFound, 404, CodeTrackNotFound},
		{fmt.Errorf("%w: dial tcp", shared.ErrAPIRequest), 502, CodeBadGateway},
		{errors.New("boom"), 500, CodeInternal},
		{fmt.Errorf("wrapped: %w", Forbidden("no")), 403, CodeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			e := From(tt.err)
			assert.Equal(t, tt.status, e.Status)
			assert.Equal(t, tt.code, e.Code)
		})
	}

	t.Run("wrapped cause is reachable", func(t *testing.T) {
		e := From(fmt.Errorf("x: %w", shared.ErrTokenExpired))
		assert.ErrorIs(t, e, shared.ErrTokenExpired)
		assert.True(t, Is(e, http.StatusUnauthorized))
		assert.False(t, Is(errors.New("plain"), http.StatusUnauthorized))
	})
}

func TestWriter(t *testing.T) {
	decode := func(t *testing.T, rec *httptest.ResponseRecorder) Body {
		t.Helper()
		var body Body
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		return body
	}

	t.Run("English by default", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/playlists/x", nil)

		Handle(rec, req, PlaylistNotFound("x"))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		body := decode(t, rec)
		assert.Equal(t, "Playlist not found. Check the URL and try again.", body.Error)
		assert.Equal(t, CodePlaylistNotFound, body.Code)
		assert.Equal(t, "playlist x not found", body.Message)
	})

	t.Run("Accept-Language selects Japanese", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Language", "ja-JP,ja;q=0.9,en;q=0.5")

		Handle(rec, req, Unauthorized("no jwt"))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "続けるにはSpotifyでログインしてください。", decode(t, rec).Error)
	})

	t.Run("configured fallback locale", func(t *testing.T) {
		w := NewWriter("ja", nil)
		assert.Equal(t, "トラックが見つかりません。", w.Localize(CodeTrackNotFound, ""))
		assert.Equal(t, "Track not found.", w.Localize(CodeTrackNotFound, "en-US"))
	})

	t.Run("unknown code falls back to internal message", func(t *testing.T) {
		assert.Equal(t, "An unexpected error occurred.", NewWriter("en", nil).Localize(Code("mystery"), ""))
	})

	t.Run("internal errors hide the message", func(t *testing.T) {
		rec := httptest.NewRecorder()
		Handle(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("db exploded"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decode(t, rec)
		assert.Empty(t, body.Message)
		assert.Equal(t, CodeInternal, body.Code)
	})

	t.Run("upstream 5xx drops backend details", func(t *testing.T) {
		rec := httptest.NewRecorder()
		err := FromStatus(http.StatusServiceUnavailable, []byte(`{"error":"pool exhausted","details":{"host":"10.0.0.5"}}`))
		require.NotNil(t, err.Details)

		Handle(rec, httptest.NewRequest(http.MethodGet, "/", nil), err)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.NotContains(t, rec.Body.String(), "details")
		assert.NotContains(t, rec.Body.String(), "10.0.0.5")
	})

	t.Run("client errors keep details", func(t *testing.T) {
		rec := httptest.NewRecorder()
		err := FromStatus(http.StatusBadRequest, []byte(`{"error":"bad field","details":{"field":"name"}}`))

		Handle(rec, httptest.NewRequest(http.MethodGet, "/", nil), err)

		body := decode(t, rec)
		assert.Equal(t, "bad field", body.Message)
		assert.Equal(t, map[string]any{"field": "name"}, body.Details)
	})
}
