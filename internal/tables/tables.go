// package tables sorts the rows of the playlist, track and favorites tables
//
// Every column sorts stably. Numbers compare numerically and strings case-insensitively. Undefined cells (nil
// numbers, blank strings, zero timestamps) sort after defined ones in both directions.
package tables

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/desertthunder/playlist-viewer/internal/models"
)

// ErrUnknownColumn is returned for a column name the table does not have.
var ErrUnknownColumn = errors.New("unknown sort column")

// Direction is a sort order.
type Direction int

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "desc"
	}
	return "asc"
}

// Toggle returns the opposite direction.
func (d Direction) Toggle() Direction {
	if d == Desc {
		return Asc
	}
	return Desc
}

// ParseDirection parses "asc" or "desc"; anything else, including "", is ascending.
func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), "desc") {
		return Desc
	}
	return Asc
}

// Track columns.
const (
	TrackName       = "name"
	TrackArtist     = "artist"
	TrackAlbum      = "album"
	TrackDuration   = "duration"
	TrackPopularity = "popularity"
	TrackAddedAt    = "added_at"
)

// TrackColumns lists the sortable track columns in display order.
var TrackColumns = []string{TrackName, TrackArtist, TrackAlbum, TrackDuration, TrackPopularity, TrackAddedAt}

// Favorite columns.
const (
	FavoriteName    = "name"
	FavoriteOwner   = "owner"
	FavoriteTracks  = "tracks"
	FavoriteAddedAt = "added_at"
)

// FavoriteColumns lists the sortable favorites columns in display order.
var FavoriteColumns = []string{FavoriteName, FavoriteOwner, FavoriteTracks, FavoriteAddedAt}

// cell is one comparable value; ok is false when the value is undefined.
type cell struct {
	num float64
	str string
	ok  bool
}

func numCell(v float64) cell {
	return cell{num: v, ok: true}
}

func strCell(s string) cell {
	s = strings.TrimSpace(s)
	return cell{str: strings.ToLower(s), ok: s != ""}
}

func timeCell(t time.Time) cell {
	if t.IsZero() {
		return cell{}
	}
	return cell{num: float64(t.UnixNano()), ok: true}
}

func optCell(v *int) cell {
	if v == nil {
		return cell{}
	}
	return numCell(float64(*v))
}

// compareCells orders a before b, placing undefined cells last regardless of dir.
func compareCells(a, b cell, dir Direction) int {
	switch {
	case !a.ok && !b.ok:
		return 0
	case !a.ok:
		return 1
	case !b.ok:
		return -1
	}

	c := cmp.Compare(a.num, b.num)
	if c == 0 {
		c = strings.Compare(a.str, b.str)
	}
	if dir == Desc {
		c = -c
	}
	return c
}

func sortBy[T any](rows []T, dir Direction, key func(T) cell) []T {
	out := slices.Clone(rows)
	slices.SortStableFunc(out, func(a, b T) int {
		return compareCells(key(a), key(b), dir)
	})
	return out
}

func trackKey(column string) (func(models.Track) cell, error) {
	switch column {
	case TrackName:
		return func(t models.Track) cell { return strCell(t.Name) }, nil
	case TrackArtist:
		return func(t models.Track) cell { return strCell(t.PrimaryArtist()) }, nil
	case TrackAlbum:
		return func(t models.Track) cell { return strCell(t.Album.Name) }, nil
	case TrackDuration:
		return func(t models.Track) cell {
			if t.DurationMs <= 0 {
				return cell{}
			}
			return numCell(float64(t.DurationMs))
		}, nil
	case TrackPopularity:
		return func(t models.Track) cell { return optCell(t.Popularity) }, nil
	case TrackAddedAt:
		return func(t models.Track) cell { return timeCell(t.AddedTime()) }, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, column)
}

// SortTracks returns a sorted copy of tracks. An empty column keeps the playlist order.
func SortTracks(tracks []models.Track, column string, dir Direction) ([]models.Track, error) {
	if column == "" {
		return slices.Clone(tracks), nil
	}
	key, err := trackKey(column)
	if err != nil {
		return nil, err
	}
	return sortBy(tracks, dir, key), nil
}

func favoriteKey(column string) (func(models.FavoritePlaylist) cell, error) {
	switch column {
	case FavoriteName:
		return func(f models.FavoritePlaylist) cell { return strCell(f.Name) }, nil
	case FavoriteOwner:
		return func(f models.FavoritePlaylist) cell { return strCell(f.Owner) }, nil
	case FavoriteTracks:
		return func(f models.FavoritePlaylist) cell { return optCell(f.TrackCount) }, nil
	case FavoriteAddedAt:
		return func(f models.FavoritePlaylist) cell { return timeCell(f.AddedAt) }, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, column)
}

// SortFavorites returns a sorted copy of favs. An empty column keeps the backend order.
func SortFavorites(favs []models.FavoritePlaylist, column string, dir Direction) ([]models.FavoritePlaylist, error) {
	if column == "" {
		return slices.Clone(favs), nil
	}
	key, err := favoriteKey(column)
	if err != nil {
		return nil, err
	}
	return sortBy(favs, dir, key), nil
}
