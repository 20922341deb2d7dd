package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/playlist-viewer/internal/apierr"
	"github.com/desertthunder/playlist-viewer/internal/models"
)

// checkStatus converts a non-2xx response into an [apierr.Error]. notFound, when set, replaces the generic 404.
func checkStatus(resp *APIResponse, notFound *apierr.Error) error {
	if resp.OK() {
		return nil
	}
	if resp.StatusCode == http.StatusNotFound && notFound != nil {
		return notFound
	}
	return apierr.FromStatus(resp.StatusCode, resp.Body)
}

func decode[T any](resp *APIResponse, what string) (*T, error) {
	var v T
	if err := json.Unmarshal(resp.Body, &v); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", what, err)
	}
	return &v, nil
}

// decodeList accepts either a bare JSON array or an object wrapping the array under one of keys.
func decodeList[T any](resp *APIResponse, what string, keys ...string) ([]T, error) {
	var list []T
	if err := json.Unmarshal(resp.Body, &list); err == nil {
		return list, nil
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(resp.Body, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", what, err)
	}

	for _, key := range keys {
		raw, ok := wrapped[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("failed to decode %s.%s: %w", what, key, err)
		}
		return list, nil
	}

	return nil, fmt.Errorf("failed to decode %s: no list under %v", what, keys)
}

func playlistPath(id string, rest ...string) string {
	p := "/api/playlists/" + url.PathEscape(id)
	for _, r := range rest {
		p += "/" + r
	}
	return p
}

func trackPath(id string, rest ...string) string {
	p := "/api/tracks/" + url.PathEscape(id)
	for _, r := range rest {
		p += "/" + r
	}
	return p
}

// GetPlaylist fetches playlist metadata and, when the backend embeds them, its tracks.
func (c *BackendClient) GetPlaylist(ctx context.Context, id string, creds Credentials) (*models.Playlist, error) {
	resp, err := c.Get(ctx, playlistPath(id), nil, creds)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp, apierr.PlaylistNotFound(id)); err != nil {
		return nil, err
	}
	return decode[models.Playlist](resp, "playlist")
}

// GetPlaylistTracks fetches the tracks of playlist id.
func (c *BackendClient) GetPlaylistTracks(ctx context.Context, id string, creds Credentials) ([]models.Track, error) {
	resp, err := c.Get(ctx, playlistPath(id, "tracks"), nil, creds)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp, apierr.PlaylistNotFound(id)); err != nil {
		return nil, err
	}
	return decodeList[models.Track](resp, "tracks", "items", "tracks")
}

// GetPlaylistAudioFeatures fetches audio features for every track of playlist id.
func (c *BackendClient) GetPlaylistAudioFeatures(ctx context.Context, id string, creds Credentials) ([]models.AudioFeatures, error) {
	resp, err := c.Get(ctx, playlistPath(id, "audio-features"), nil, creds)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp, apierr.PlaylistNotFound(id)); err != nil {
		return nil, err
	}
	return decodeList[models.AudioFeatures](resp, "audio features", "audio_features", "items")
}

// GetTrack fetches a single track.
func (c *BackendClient) GetTrack(ctx context.Context, id string, creds Credentials) (*models.Track, error) {
	resp, err := c.Get(ctx, trackPath(id), nil, creds)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp, apierr.TrackNotFound(id)); err != nil {
		return nil, err
	}
	return decode[models.Track](resp, "track")
}

// GetTrackAudioFeatures fetches the audio features of a single track.
func (c *BackendClient) GetTrackAudioFeatures(ctx context.Context, id string, creds Credentials) (*models.AudioFeatures, error) {
	resp, err := c.Get(ctx, trackPath(id, "audio-features"), nil, creds)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp, apierr.TrackNotFound(id)); err != nil {
		return nil, err
	}
	return decode[models.AudioFeatures](resp, "audio features")
}

const favoritesPath = "/api/playlists/favorite"

// ListFavorites fetches the user's bookmarked playlists.
func (c *BackendClient) ListFavorites(ctx context.Context, creds Credentials) ([]models.FavoritePlaylist, error) {
	resp, err := c.Get(ctx, favoritesPath, nil, creds)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp, nil); err != nil {
		return nil, err
	}
	return decodeList[models.FavoritePlaylist](resp, "favorites", "favorites", "items")
}

// AddFavorite bookmarks a playlist and returns the stored record.
func (c *BackendClient) AddFavorite(ctx context.Context, fav models.FavoritePlaylist, creds Credentials) (*models.FavoritePlaylist, error) {
	if err := fav.Validate(); err != nil {
		return nil, apierr.BadRequest(err.Error())
	}

	body, err := json.Marshal(fav)
	if err != nil {
		return nil, fmt.Errorf("failed to encode favorite: %w", err)
	}

	resp, err := c.Post(ctx, favoritesPath, body, creds)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp, apierr.PlaylistNotFound(fav.PlaylistID)); err != nil {
		return nil, err
	}
	if !resp.IsJSON {
		return &fav, nil
	}
	return decode[models.FavoritePlaylist](resp, "favorite")
}

// RemoveFavorite deletes the bookmark for playlistID.
func (c *BackendClient) RemoveFavorite(ctx context.Context, playlistID string, creds Credentials) error {
	if playlistID == "" {
		return apierr.BadRequest("playlistId is required")
	}

	resp, err := c.Delete(ctx, favoritesPath, url.Values{"playlistId": {playlistID}}, creds)
	if err != nil {
		return err
	}
	return checkStatus(resp, apierr.PlaylistNotFound(playlistID))
}

// IsFavorite reports whether playlistID is among the user's favorites.
func (c *BackendClient) IsFavorite(ctx context.Context, playlistID string, creds Credentials) (bool, error) {
	favs, err := c.ListFavorites(ctx, creds)
	if err != nil {
		return false, err
	}
	for _, f := range favs {
		if f.PlaylistID == playlistID {
			return true, nil
		}
	}
	return false, nil
}
