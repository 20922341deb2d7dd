package models

import (
	"fmt"
	"strings"
	"time"
)

// Image is an artwork resource.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height,omitempty"`
	Width  int    `json:"width,omitempty"`
}

// Artist represents a Spotify artist.
type Artist struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Genres []string `json:"genres,omitempty"`
	Images []Image  `json:"images,omitempty"`
}

// Album represents a Spotify album.
type Album struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	ReleaseDate string   `json:"release_date,omitempty"`
	Images      []Image  `json:"images,omitempty"`
	Artists     []Artist `json:"artists,omitempty"`
}

// Track represents a Spotify track.
//
// Popularity is nil when the backend omits it; tables sort such tracks last.
type Track struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Artists    []Artist `json:"artists"`
	Album      Album    `json:"album"`
	DurationMs int      `json:"duration_ms"`
	Popularity *int     `json:"popularity,omitempty"`
	Explicit   bool     `json:"explicit"`
	PreviewURL string   `json:"preview_url,omitempty"`
	AddedAt    string   `json:"added_at,omitempty"`
}

// ArtistNames joins the credited artists with ", ".
func (t Track) ArtistNames() string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

// PrimaryArtist returns the first credited artist name, or "" when there is none.
func (t Track) PrimaryArtist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0].Name
}

// AddedTime parses AddedAt, returning the zero time when it is missing or malformed.
func (t Track) AddedTime() time.Time {
	ts, err := time.Parse(time.RFC3339, t.AddedAt)
	if err != nil {
		return time.Time{}
	}
	return ts
}

// AudioFeatures is the Spotify audio analysis summary for one track.
type AudioFeatures struct {
	ID               string  `json:"id"`
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Valence          float64 `json:"valence"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Liveness         float64 `json:"liveness"`
	Speechiness      float64 `json:"speechiness"`
	Tempo            float64 `json:"tempo"`    // BPM
	Loudness         float64 `json:"loudness"` // dB, typically -60..0
	Key              int     `json:"key"`      // pitch class, -1 when undetected
	Mode             int     `json:"mode"`     // 1 major, 0 minor
	TimeSignature    int     `json:"time_signature"`
}

var pitchClasses = [...]string{"C", "C♯/D♭", "D", "D♯/E♭", "E", "F", "F♯/G♭", "G", "G♯/A♭", "A", "A♯/B♭", "B"}

// KeyName renders Key and Mode as e.g. "A minor"; unknown keys return "-".
func (f AudioFeatures) KeyName() string {
	if f.Key < 0 || f.Key >= len(pitchClasses) {
		return "-"
	}
	mode := "minor"
	if f.Mode == 1 {
		mode = "major"
	}
	return fmt.Sprintf("%s %s", pitchClasses[f.Key], mode)
}

// Owner is the user who owns a playlist.
type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Followers wraps the follower count the way Spotify nests it.
type Followers struct {
	Total int `json:"total"`
}

// Playlist represents a Spotify playlist, optionally with its tracks.
type Playlist struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Owner       Owner      `json:"owner"`
	Images      []Image    `json:"images,omitempty"`
	Followers   *Followers `json:"followers,omitempty"`
	TotalTracks int        `json:"total_tracks"`
	Tracks      []Track    `json:"tracks,omitempty"`
	URL         string     `json:"url,omitempty"`
}

// CoverURL returns the first image URL, or "".
func (p Playlist) CoverURL() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0].URL
}

// TrackCount prefers the backend total and falls back to the embedded track list.
func (p Playlist) TrackCount() int {
	if p.TotalTracks > 0 {
		return p.TotalTracks
	}
	return len(p.Tracks)
}

// User is the Spotify profile attached to the current session.
type User struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	Email       string  `json:"email,omitempty"`
	Images      []Image `json:"images,omitempty"`
}
