package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTrack(t *testing.T) {
	track := Track{
		Name:    "Windowlicker",
		Artists: []Artist{{Name: "Aphex Twin"}, {Name: "Guest"}},
		AddedAt: "2024-03-01T10:00:00Z",
	}

	if got := track.ArtistNames(); got != "Aphex Twin, Guest" {
		t.Errorf("ArtistNames() = %q", got)
	}
	if got := track.PrimaryArtist(); got != "Aphex Twin" {
		t.Errorf("PrimaryArtist() = %q", got)
	}
	if track.AddedTime().IsZero() {
		t.Error("expected AddedTime to parse")
	}
	if (Track{AddedAt: "yesterday"}).AddedTime() != (time.Time{}) {
		t.Error("expected zero time for malformed timestamp")
	}
	if (Track{}).PrimaryArtist() != "" {
		t.Error("expected empty primary artist")
	}
}

func TestTrackDecodesSpotifyFields(t *testing.T) {
	raw := `{"id":"t1","name":"Song","duration_ms":215000,"artists":[{"id":"a1","name":"A"}],"album":{"id":"al","name":"Al","release_date":"1999"}}`

	var track Track
	if err := json.Unmarshal([]byte(raw), &track); err != nil {
		t.Fatalf("failed to decode track: %v", err)
	}
	if track.DurationMs != 215000 || track.Album.ReleaseDate != "1999" {
		t.Errorf("unexpected decode result: %+v", track)
	}
	if track.Popularity != nil {
		t.Error("missing popularity should decode as nil")
	}
}

func TestAudioFeaturesKeyName(t *testing.T) {
	tc := []struct {
		key, mode int
		want      string
	}{
		{key: 9, mode: 0, want: "A minor"},
		{key: 0, mode: 1, want: "C major"},
		{key: -1, mode: 1, want: "-"},
		{key: 12, mode: 1, want: "-"},
	}

	for _, tt := range tc {
		if got := (AudioFeatures{Key: tt.key, Mode: tt.mode}).KeyName(); got != tt.want {
			t.Errorf("KeyName(%d, %d) = %q, want %q", tt.key, tt.mode, got, tt.want)
		}
	}
}

func TestPlaylist(t *testing.T) {
	p := Playlist{ID: "p1", Name: "Mix", Owner: Owner{DisplayName: "me"}, Tracks: []Track{{}, {}}}

	if p.TrackCount() != 2 {
		t.Errorf("expected fallback track count 2, got %d", p.TrackCount())
	}
	p.TotalTracks = 40
	if p.TrackCount() != 40 {
		t.Errorf("expected backend total 40, got %d", p.TrackCount())
	}
	if p.CoverURL() != "" {
		t.Error("expected empty cover URL")
	}

	fav := FavoriteFromPlaylist(p)
	if fav.PlaylistID != "p1" || fav.Owner != "me" || fav.TrackCount == nil || *fav.TrackCount != 40 {
		t.Errorf("unexpected favorite: %+v", fav)
	}
	if err := fav.Validate(); err != nil {
		t.Errorf("expected valid favorite: %v", err)
	}
	if err := (FavoritePlaylist{PlaylistID: "  "}).Validate(); err == nil {
		t.Error("expected blank playlist id to be rejected")
	}
}

func TestSession(t *testing.T) {
	s := NewSession("abc")
	if err := s.Validate(); err != nil {
		t.Fatalf("expected valid session: %v", err)
	}

	s.SelectPlaylist("p1")
	if s.SelectedPlaylist() != "p1" {
		t.Errorf("expected selected playlist p1, got %q", s.SelectedPlaylist())
	}

	if s.Expired(time.Hour, time.Now()) {
		t.Error("fresh session should not be expired")
	}
	if !s.Expired(time.Hour, time.Now().Add(2*time.Hour)) {
		t.Error("idle session should be expired")
	}
	if s.Expired(0, time.Now().Add(1000*time.Hour)) {
		t.Error("zero max age should never expire")
	}

	if err := NewSession("").Validate(); err == nil {
		t.Error("expected missing id to be rejected")
	}

	now := time.Now()
	if err := RestoreSession("x", "", now, now.Add(-time.Minute)).Validate(); err == nil {
		t.Error("expected last seen before created to be rejected")
	}
}
