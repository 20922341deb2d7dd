package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/playlist-viewer/internal/models"
	"github.com/desertthunder/playlist-viewer/internal/shared"
)

var (
	_ list.Item = favoriteItem{}
	_ list.Item = trackItem{}
)

// favoriteItem wraps [models.FavoritePlaylist] to implement [list.Item].
type favoriteItem struct {
	favorite models.FavoritePlaylist
}

func (i favoriteItem) FilterValue() string { return i.favorite.Name }
func (i favoriteItem) Title() string {
	if i.favorite.Name == "" {
		return i.favorite.PlaylistID
	}
	return i.favorite.Name
}
func (i favoriteItem) Description() string {
	desc := i.favorite.Owner
	if i.favorite.TrackCount != nil {
		desc = fmt.Sprintf("%s • %d tracks", desc, *i.favorite.TrackCount)
	}
	return desc
}

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track models.Track
}

func (i trackItem) FilterValue() string { return i.track.Name }
func (i trackItem) Title() string       { return i.track.Name }
func (i trackItem) Description() string {
	desc := fmt.Sprintf("%s • %s", i.track.ArtistNames(), shared.FormatDuration(i.track.DurationMs))
	if i.track.Album.Name != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album.Name)
	}
	if i.track.Popularity != nil {
		desc = fmt.Sprintf("%s • ♥ %d", desc, *i.track.Popularity)
	}
	return desc
}
