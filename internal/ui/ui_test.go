package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/playlist-viewer/internal/models"
	"github.com/desertthunder/playlist-viewer/internal/services"
	"github.com/desertthunder/playlist-viewer/internal/shared"
	tu "github.com/desertthunder/playlist-viewer/internal/testing"
)

const playlistID = "37i9dQZF1DXcBWIGoYBM5M"

type fakeSource struct {
	favorites   []models.FavoritePlaylist
	featuresErr error
	calls       []string
}

func (f *fakeSource) GetPlaylist(_ context.Context, id string, _ services.Credentials) (*models.Playlist, error) {
	f.calls = append(f.calls, "playlist:"+id)
	if id != playlistID {
		return nil, shared.ErrPlaylistNotFound
	}
	p := tu.SamplePlaylist()
	p.Tracks = nil
	return &p, nil
}

func (f *fakeSource) GetPlaylistTracks(_ context.Context, id string, _ services.Credentials) ([]models.Track, error) {
	f.calls = append(f.calls, "tracks:"+id)
	return tu.SampleTracks(), nil
}

func (f *fakeSource) GetPlaylistAudioFeatures(_ context.Context, id string, _ services.Credentials) ([]models.AudioFeatures, error) {
	f.calls = append(f.calls, "features:"+id)
	return tu.SampleFeatures()[:2], nil
}

func (f *fakeSource) GetTrackAudioFeatures(_ context.Context, id string, _ services.Credentials) (*models.AudioFeatures, error) {
	f.calls = append(f.calls, "track-features:"+id)
	if f.featuresErr != nil {
		return nil, f.featuresErr
	}
	all := tu.SampleFeatures()
	return &all[2], nil
}

func (f *fakeSource) ListFavorites(_ context.Context, _ services.Credentials) ([]models.FavoritePlaylist, error) {
	f.calls = append(f.calls, "favorites")
	return f.favorites, nil
}

func keyRunes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var enter = tea.KeyMsg{Type: tea.KeyEnter}

// run executes cmd and feeds its message back into the model.
func run(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	m.Update(cmd())
}

func trackIDs(m *Model) string {
	var ids []string
	for _, it := range m.trackList.Items() {
		ids = append(ids, it.(trackItem).track.ID)
	}
	return strings.Join(ids, ",")
}

func loadedModel(t *testing.T, src *fakeSource) *Model {
	t.Helper()
	m := NewModel(context.Background(), src, services.Credentials{JWT: "jwt"}, playlistID)
	run(t, m, m.Init())
	if m.view != TrackListView {
		t.Fatalf("expected track list view, got %v (err %v)", m.view, m.err)
	}
	return m
}

func TestFavoritesView(t *testing.T) {
	src := &fakeSource{favorites: []models.FavoritePlaylist{{PlaylistID: playlistID, Name: "Top Hits", TrackCount: tu.IntPtr(3)}}}
	m := NewModel(context.Background(), src, services.Credentials{JWT: "jwt"}, "")

	run(t, m, m.Init())
	if got := len(m.favoriteList.Items()); got != 1 {
		t.Fatalf("expected 1 favorite, got %d", got)
	}
	if !strings.Contains(m.View(), "Top Hits") {
		t.Errorf("favorites view missing item:\n%s", m.View())
	}

	_, cmd := m.Update(enter)
	run(t, m, cmd)
	if m.view != TrackListView || m.playlist == nil || m.playlist.ID != playlistID {
		t.Errorf("expected playlist to open, got view %v", m.view)
	}
}

func TestSearchView(t *testing.T) {
	t.Run("opens a pasted URL", func(t *testing.T) {
		src := &fakeSource{}
		m := NewModel(context.Background(), src, services.Credentials{}, "")
		m.Update(keyRunes("/"))
		if m.view != SearchView {
			t.Fatalf("expected search view, got %v", m.view)
		}

		m.Update(keyRunes("https://open.spotify.com/playlist/" + playlistID + "?si=x"))
		_, cmd := m.Update(enter)
		run(t, m, cmd)

		if m.view != TrackListView {
			t.Fatalf("expected track list, got %v (err %v)", m.view, m.err)
		}
		if got := trackIDs(m); got != "t1,t2,t3" {
			t.Errorf("unexpected tracks %s", got)
		}
	})

	t.Run("invalid input stays on the form", func(t *testing.T) {
		m := NewModel(context.Background(), &fakeSource{}, services.Credentials{}, "")
		m.Update(keyRunes("/"))
		m.Update(keyRunes("not a playlist"))
		_, cmd := m.Update(enter)

		if cmd != nil || m.view != SearchView || !errors.Is(m.err, shared.ErrInvalidPlaylistURL) {
			t.Errorf("expected invalid playlist error, got view %v err %v", m.view, m.err)
		}
		if !strings.Contains(m.View(), "Error") {
			t.Error("expected error banner")
		}

		m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		if m.view != FavoritesView || m.err != nil {
			t.Errorf("expected esc to return to favorites, got %v", m.view)
		}
	})

	t.Run("unknown playlist shows the error", func(t *testing.T) {
		m := NewModel(context.Background(), &fakeSource{}, services.Credentials{}, "0000000000000000000000")
		run(t, m, m.Init())
		if !errors.Is(m.err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected not found, got %v", m.err)
		}
	})
}

func TestTrackListView(t *testing.T) {
	t.Run("sorts by column and direction", func(t *testing.T) {
		m := loadedModel(t, &fakeSource{})

		m.Update(keyRunes("s")) // name
		if got := trackIDs(m); got != "t1,t3,t2" {
			t.Errorf("expected name order, got %s", got)
		}

		m.Update(keyRunes("d"))
		if got := trackIDs(m); got != "t2,t3,t1" {
			t.Errorf("expected reversed name order, got %s", got)
		}

		for range 3 { // artist, album, duration
			m.Update(keyRunes("s"))
		}
		m.Update(keyRunes("s")) // popularity desc
		if got := trackIDs(m); got != "t1,t2,t3" {
			t.Errorf("expected popularity desc with undefined last, got %s", got)
		}
		if !strings.Contains(m.View(), "sorted by popularity (desc)") {
			t.Error("missing sort status")
		}
	})

	t.Run("chart view", func(t *testing.T) {
		m := loadedModel(t, &fakeSource{})
		m.Update(keyRunes("c"))
		if m.view != ChartView {
			t.Fatalf("expected chart view, got %v", m.view)
		}

		out := m.View()
		for _, want := range []string{"The Weeknd", "Dua Lipa", "Danceability", "over 2 tracks"} {
			if !strings.Contains(out, want) {
				t.Errorf("chart missing %q:\n%s", want, out)
			}
		}

		m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		if m.view != TrackListView {
			t.Errorf("expected esc to return to tracks, got %v", m.view)
		}
	})

	t.Run("detail uses playlist features when present", func(t *testing.T) {
		src := &fakeSource{}
		m := loadedModel(t, src)

		_, cmd := m.Update(enter)
		if cmd != nil {
			t.Error("expected no fetch for a track with features")
		}
		if m.view != TrackDetailView || !strings.Contains(m.View(), "Blinding Lights") {
			t.Errorf("unexpected detail view:\n%s", m.View())
		}
	})

	t.Run("detail fetches missing features", func(t *testing.T) {
		src := &fakeSource{}
		m := loadedModel(t, src)
		m.Update(keyRunes("s")) // name order puts t3 second
		m.Update(tea.KeyMsg{Type: tea.KeyDown})

		_, cmd := m.Update(enter)
		run(t, m, cmd)

		if m.selected == nil || m.selected.ID != "t3" {
			t.Fatalf("expected t3 selected, got %+v", m.selected)
		}
		if !strings.Contains(m.View(), "103 BPM") {
			t.Errorf("expected fetched features in view:\n%s", m.View())
		}
	})

	t.Run("failed feature fetch shows error", func(t *testing.T) {
		src := &fakeSource{featuresErr: errors.New("boom")}
		m := loadedModel(t, src)
		m.Update(keyRunes("s"))
		m.Update(tea.KeyMsg{Type: tea.KeyDown})

		_, cmd := m.Update(enter)
		run(t, m, cmd)

		out := m.View()
		if !strings.Contains(out, "boom") || !strings.Contains(out, "No audio features available.") {
			t.Errorf("unexpected view:\n%s", out)
		}
	})
}
