package web

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playlist-viewer/internal/apierr"
	"github.com/desertthunder/playlist-viewer/internal/models"
	"github.com/desertthunder/playlist-viewer/internal/server"
	"github.com/desertthunder/playlist-viewer/internal/services"
	"github.com/desertthunder/playlist-viewer/internal/session"
	"github.com/desertthunder/playlist-viewer/internal/shared"
	tu "github.com/desertthunder/playlist-viewer/internal/testing"
	"github.com/desertthunder/playlist-viewer/internal/tables"
)

const playlistID = "37i9dQZF1DXcBWIGoYBM5M"

func newTestSite(t *testing.T, routes map[string]http.HandlerFunc) (http.Handler, *tu.FakeBackend) {
	t.Helper()

	fb := tu.NewFakeBackend(t, routes)
	logger := log.New(io.Discard)
	cfg := shared.DefaultConfig()
	cfg.Backend.BaseURL = fb.URL

	backend := services.NewBackendClient(services.BackendOpts{BaseURL: fb.URL})
	sessions := session.NewManager(session.NewMemoryStore(), session.NewMemoryTokenStore(), session.Options{
		MaxAge: time.Hour,
		Logger: logger,
	})

	pages, err := New(backend, sessions, apierr.NewWriter("en", logger), "en", logger)
	if err != nil {
		t.Fatalf("failed to create pages: %v", err)
	}

	srv := server.New(server.Opts{Config: cfg, Backend: backend, Sessions: sessions, Logger: logger, Pages: []server.Handler{pages}})
	return srv, fb
}

func get(h http.Handler, target string, authed bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if authed {
		req.AddCookie(&http.Cookie{Name: "JWT", Value: "jwt"})
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func siteRoutes() map[string]http.HandlerFunc {
	favs := []models.FavoritePlaylist{{PlaylistID: playlistID, Name: "Today's Top Hits", Owner: "Spotify"}}
	return map[string]http.HandlerFunc{
		"GET /api/session/user":                                tu.JSON(http.StatusOK, models.User{ID: "u1", DisplayName: "Ada"}),
		"GET /api/playlists/favorite":                          tu.JSON(http.StatusOK, favs),
		"POST /api/playlists/favorite":                         tu.JSON(http.StatusCreated, favs[0]),
		"DELETE /api/playlists/favorite":                       tu.Status(http.StatusNoContent),
		"GET /api/playlists/" + playlistID:                     tu.JSON(http.StatusOK, tu.SamplePlaylist()),
		"GET /api/playlists/" + playlistID + "/audio-features": tu.JSON(http.StatusOK, tu.SampleFeatures()),
		"GET /api/playlists/missing":                           tu.Status(http.StatusNotFound),
		"GET /api/tracks/t1":                                   tu.JSON(http.StatusOK, tu.SampleTracks()[0]),
		"GET /api/tracks/t1/audio-features":                    tu.JSON(http.StatusOK, tu.SampleFeatures()[0]),
		"POST /api/session/logout":                             tu.Status(http.StatusNoContent),
	}
}

func TestHomePage(t *testing.T) {
	t.Run("anonymous visitors get the login button", func(t *testing.T) {
		site, _ := newTestSite(t, siteRoutes())
		rec := get(site, "/", false)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		body := rec.Body.String()
		if !strings.Contains(body, "Log in with Spotify") || strings.Contains(body, "Favorites</h2>") {
			t.Errorf("unexpected home page: %s", body)
		}
	})

	t.Run("authenticated visitors see user and favorites", func(t *testing.T) {
		site, _ := newTestSite(t, siteRoutes())
		rec := get(site, "/?sort=name&dir=desc", true)
		body := rec.Body.String()
		for _, want := range []string{"Ada", "Log out", "Today&#39;s Top Hits", "/playlists/" + playlistID} {
			if !strings.Contains(body, want) {
				t.Errorf("expected %q in page", want)
			}
		}
	})

	t.Run("search redirects to the playlist", func(t *testing.T) {
		site, _ := newTestSite(t, siteRoutes())
		rec := get(site, "/?q="+url.QueryEscape("spotify:playlist:"+playlistID), false)
		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/playlists/"+playlistID {
			t.Errorf("unexpected redirect %d %s", rec.Code, rec.Header().Get("Location"))
		}
	})

	t.Run("bad search shows the localized error", func(t *testing.T) {
		site, _ := newTestSite(t, siteRoutes())
		rec := get(site, "/?q=nope", false)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Enter a Spotify playlist URL or ID.") {
			t.Errorf("missing error message")
		}
	})
}

func TestPlaylistPage(t *testing.T) {
	t.Run("renders tracks, charts and favorite toggle", func(t *testing.T) {
		site, _ := newTestSite(t, siteRoutes())
		rec := get(site, "/playlists/"+playlistID+"?sort=popularity&dir=desc", true)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		body := rec.Body.String()
		for _, want := range []string{"Blinding Lights", "3:20", "The Weeknd", "Remove from favorites", "Danceability", "dir=asc"} {
			if !strings.Contains(body, want) {
				t.Errorf("expected %q in page", want)
			}
		}
		if strings.Index(body, "Blinding Lights") > strings.Index(body, "Save Your Tears") {
			t.Error("expected tracks sorted by popularity descending")
		}
	})

	t.Run("requires login", func(t *testing.T) {
		site, _ := newTestSite(t, siteRoutes())
		rec := get(site, "/playlists/"+playlistID, false)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("unknown playlist is 404", func(t *testing.T) {
		site, _ := newTestSite(t, siteRoutes())
		rec := get(site, "/playlists/missing", true)
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Playlist not found") {
			t.Error("missing localized message")
		}
	})
}

func TestTrackPage(t *testing.T) {
	site, _ := newTestSite(t, siteRoutes())
	rec := get(site, "/tracks/t1", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	body := rec.Body.String()
	for _, want := range []string{"Blinding Lights", "After Hours", "171 BPM", "Energy"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in page", want)
		}
	}
}

func TestFavoriteToggle(t *testing.T) {
	post := func(h http.Handler, action string) *httptest.ResponseRecorder {
		form := url.Values{"action": {action}}.Encode()
		req := httptest.NewRequest(http.MethodPost, "/playlists/"+playlistID+"/favorite", strings.NewReader(form))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(&http.Cookie{Name: "JWT", Value: "jwt"})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	t.Run("add", func(t *testing.T) {
		site, fb := newTestSite(t, siteRoutes())
		rec := post(site, "add")
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("expected 303, got %d", rec.Code)
		}
		last := fb.Last(t)
		if last.Method != http.MethodPost || !strings.Contains(last.Body, `"playlistId":"`+playlistID+`"`) {
			t.Errorf("unexpected backend request %+v", last)
		}
	})

	t.Run("remove", func(t *testing.T) {
		site, fb := newTestSite(t, siteRoutes())
		post(site, "remove")
		if last := fb.Last(t); last.Method != http.MethodDelete {
			t.Errorf("unexpected backend request %+v", last)
		}
	})

	t.Run("unknown action", func(t *testing.T) {
		site, _ := newTestSite(t, siteRoutes())
		if rec := post(site, "explode"); rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestLogout(t *testing.T) {
	site, fb := newTestSite(t, siteRoutes())
	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: "JWT", Value: "jwt"})
	rec := httptest.NewRecorder()
	site.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" {
		t.Errorf("unexpected response %d %s", rec.Code, rec.Header().Get("Location"))
	}
	if last := fb.Last(t); last.Path != "/api/session/logout" {
		t.Errorf("unexpected backend request %+v", last)
	}
}

func TestHeaders(t *testing.T) {
	hs := headers("/p", tables.TrackColumns, trackLabels, tables.TrackDuration, tables.Asc)
	if len(hs) != len(tables.TrackColumns) {
		t.Fatalf("expected %d headers, got %d", len(tables.TrackColumns), len(hs))
	}

	for _, h := range hs {
		switch {
		case h.Label == "Duration":
			if !h.Active || h.URL != "/p?dir=desc&sort=duration" || h.Arrow() != "▲" {
				t.Errorf("unexpected active header %+v", h)
			}
		case h.Active:
			t.Errorf("unexpected active header %+v", h)
		case !strings.Contains(h.URL, "dir=asc"):
			t.Errorf("inactive header should sort ascending: %+v", h)
		}
	}
}
