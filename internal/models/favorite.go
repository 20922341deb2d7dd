package models

import (
	"fmt"
	"strings"
	"time"
)

// FavoritePlaylist is a playlist bookmarked by the user in the backend.
type FavoritePlaylist struct {
	PlaylistID string    `json:"playlistId"`
	Name       string    `json:"name"`
	Owner      string    `json:"owner"`
	TrackCount *int      `json:"trackCount,omitempty"`
	ImageURL   string    `json:"imageUrl,omitempty"`
	AddedAt    time.Time `json:"addedAt,omitzero"`
}

// Validate checks the fields the backend requires when adding a favorite.
func (f FavoritePlaylist) Validate() error {
	if strings.TrimSpace(f.PlaylistID) == "" {
		return fmt.Errorf("playlistId is required")
	}
	return nil
}

// FavoriteFromPlaylist builds the request body for bookmarking p.
func FavoriteFromPlaylist(p Playlist) FavoritePlaylist {
	count := p.TrackCount()
	return FavoritePlaylist{
		PlaylistID: p.ID,
		Name:       p.Name,
		Owner:      p.Owner.DisplayName,
		TrackCount: &count,
		ImageURL:   p.CoverURL(),
	}
}
