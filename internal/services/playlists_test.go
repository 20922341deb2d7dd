package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/desertthunder/playlist-viewer/internal/apierr"
	"github.com/desertthunder/playlist-viewer/internal/models"
	tu "github.com/desertthunder/playlist-viewer/internal/testing"
)

func TestPlaylistOperations(t *testing.T) {
	ctx := context.Background()
	creds := Credentials{SessionID: "sid", JWT: "jwt"}
	playlist := tu.SamplePlaylist()

	fb := tu.NewFakeBackend(t, map[string]http.HandlerFunc{
		"GET /api/playlists/" + playlist.ID:                     tu.JSON(200, playlist),
		"GET /api/playlists/missing":                            tu.JSON(404, map[string]string{"error": "not found"}),
		"GET /api/playlists/private":                            tu.JSON(403, map[string]string{"error": "private"}),
		"GET /api/playlists/" + playlist.ID + "/tracks":         tu.JSON(200, map[string]any{"items": tu.SampleTracks()}),
		"GET /api/playlists/bare/tracks":                        tu.JSON(200, tu.SampleTracks()),
		"GET /api/playlists/broken/tracks":                      tu.JSON(200, map[string]any{"nothing": true}),
		"GET /api/playlists/" + playlist.ID + "/audio-features": tu.JSON(200, map[string]any{"audio_features": tu.SampleFeatures()}),
		"GET /api/tracks/t1":                                    tu.JSON(200, tu.SampleTracks()[0]),
		"GET /api/tracks/t1/audio-features":                     tu.JSON(200, tu.SampleFeatures()[0]),
		"GET /api/tracks/nope":                                  tu.Status(404),
	})
	c := NewBackendClient(BackendOpts{BaseURL: fb.URL})

	t.Run("GetPlaylist", func(t *testing.T) {
		t.Run("Decodes Playlist", func(t *testing.T) {
			got, err := c.GetPlaylist(ctx, playlist.ID, creds)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got.Name != playlist.Name || len(got.Tracks) != 3 {
				t.Errorf("unexpected playlist %+v", got)
			}
		})

		t.Run("Maps 404 To Playlist Not Found", func(t *testing.T) {
			_, err := c.GetPlaylist(ctx, "missing", creds)

			var apiErr *apierr.Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected apierr.Error, got %v", err)
			}
			if apiErr.Code != apierr.CodePlaylistNotFound || apiErr.Status != 404 {
				t.Errorf("expected playlist_not_found/404, got %s/%d", apiErr.Code, apiErr.Status)
			}
		})

		t.Run("Relays Other Statuses", func(t *testing.T) {
			_, err := c.GetPlaylist(ctx, "private", creds)
			if !apierr.Is(err, http.StatusForbidden) {
				t.Errorf("expected 403, got %v", err)
			}
		})
	})

	t.Run("GetPlaylistTracks", func(t *testing.T) {
		t.Run("Wrapped Items", func(t *testing.T) {
			tracks, err := c.GetPlaylistTracks(ctx, playlist.ID, creds)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(tracks) != 3 || tracks[0].Popularity == nil || *tracks[0].Popularity != 95 {
				t.Errorf("unexpected tracks %+v", tracks)
			}
		})

		t.Run("Bare Array", func(t *testing.T) {
			tracks, err := c.GetPlaylistTracks(ctx, "bare", creds)
			if err != nil || len(tracks) != 3 {
				t.Errorf("expected 3 tracks, got %d (%v)", len(tracks), err)
			}
		})

		t.Run("Unknown Shape", func(t *testing.T) {
			if _, err := c.GetPlaylistTracks(ctx, "broken", creds); err == nil {
				t.Error("expected decode error")
			}
		})
	})

	t.Run("GetPlaylistAudioFeatures", func(t *testing.T) {
		features, err := c.GetPlaylistAudioFeatures(ctx, playlist.ID, creds)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(features) != 3 || features[2].Valence != 0.9 {
			t.Errorf("unexpected features %+v", features)
		}
	})

	t.Run("GetTrack", func(t *testing.T) {
		track, err := c.GetTrack(ctx, "t1", creds)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if track.Name != "Blinding Lights" {
			t.Errorf("unexpected track %+v", track)
		}

		features, err := c.GetTrackAudioFeatures(ctx, "t1", creds)
		if err != nil || features.Tempo != 171 {
			t.Errorf("unexpected features %+v (%v)", features, err)
		}

		_, err = c.GetTrack(ctx, "nope", creds)
		var apiErr *apierr.Error
		if !errors.As(err, &apiErr) || apiErr.Code != apierr.CodeTrackNotFound {
			t.Errorf("expected track_not_found, got %v", err)
		}
	})
}

func TestFavoriteOperations(t *testing.T) {
	ctx := context.Background()
	creds := Credentials{JWT: "jwt"}

	var stored []models.FavoritePlaylist
	fb := tu.NewFakeBackend(t, map[string]http.HandlerFunc{
		"GET /api/playlists/favorite": func(w http.ResponseWriter, r *http.Request) {
			tu.JSON(200, map[string]any{"favorites": stored})(w, r)
		},
		"POST /api/playlists/favorite": func(w http.ResponseWriter, r *http.Request) {
			var fav models.FavoritePlaylist
			json.NewDecoder(r.Body).Decode(&fav)
			stored = append(stored, fav)
			tu.JSON(201, fav)(w, r)
		},
		"DELETE /api/playlists/favorite": func(w http.ResponseWriter, r *http.Request) {
			id := r.URL.Query().Get("playlistId")
			for i, f := range stored {
				if f.PlaylistID == id {
					stored = append(stored[:i], stored[i+1:]...)
					w.WriteHeader(204)
					return
				}
			}
			tu.JSON(404, map[string]string{"error": "not a favorite"})(w, r)
		},
	})
	c := NewBackendClient(BackendOpts{BaseURL: fb.URL})

	t.Run("Add", func(t *testing.T) {
		fav, err := c.AddFavorite(ctx, models.FavoriteFromPlaylist(tu.SamplePlaylist()), creds)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if fav.PlaylistID != tu.SamplePlaylist().ID {
			t.Errorf("unexpected favorite %+v", fav)
		}
	})

	t.Run("Add Rejects Missing Playlist ID", func(t *testing.T) {
		before := len(fb.Requests())
		_, err := c.AddFavorite(ctx, models.FavoritePlaylist{}, creds)
		if !apierr.Is(err, http.StatusBadRequest) {
			t.Errorf("expected 400, got %v", err)
		}
		if len(fb.Requests()) != before {
			t.Error("invalid favorite should not reach the backend")
		}
	})

	t.Run("List And IsFavorite", func(t *testing.T) {
		favs, err := c.ListFavorites(ctx, creds)
		if err != nil || len(favs) != 1 {
			t.Fatalf("expected 1 favorite, got %d (%v)", len(favs), err)
		}

		ok, err := c.IsFavorite(ctx, tu.SamplePlaylist().ID, creds)
		if err != nil || !ok {
			t.Errorf("expected playlist to be a favorite (%v)", err)
		}
	})

	t.Run("Remove", func(t *testing.T) {
		if err := c.RemoveFavorite(ctx, tu.SamplePlaylist().ID, creds); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if q := fb.Last(t).Query; q != "playlistId="+tu.SamplePlaylist().ID {
			t.Errorf("unexpected query %q", q)
		}

		if err := c.RemoveFavorite(ctx, "unknown", creds); !apierr.Is(err, http.StatusNotFound) {
			t.Errorf("expected 404, got %v", err)
		}
		if err := c.RemoveFavorite(ctx, "", creds); !apierr.Is(err, http.StatusBadRequest) {
			t.Errorf("expected 400, got %v", err)
		}
	})
}

func TestSessionOperations(t *testing.T) {
	ctx := context.Background()

	fb := tu.NewFakeBackend(t, map[string]http.HandlerFunc{
		"GET /api/session/user": func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				tu.JSON(401, map[string]string{"error": "no token"})(w, r)
				return
			}
			tu.JSON(200, models.User{ID: "u1", DisplayName: "Listener"})(w, r)
		},
		"GET /api/session/check": func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				w.WriteHeader(401)
				return
			}
			tu.JSON(200, map[string]bool{"valid": true})(w, r)
		},
		"POST /api/session/logout": tu.Status(204),
	})
	c := NewBackendClient(BackendOpts{BaseURL: fb.URL})

	user, err := c.CurrentUser(ctx, Credentials{JWT: "jwt"})
	if err != nil || user.DisplayName != "Listener" {
		t.Errorf("unexpected user %+v (%v)", user, err)
	}

	if _, err := c.CurrentUser(ctx, Credentials{}); !apierr.Is(err, http.StatusUnauthorized) {
		t.Errorf("expected 401, got %v", err)
	}

	if ok, err := c.CheckSession(ctx, Credentials{JWT: "jwt"}); err != nil || !ok {
		t.Errorf("expected valid session (%v)", err)
	}
	if ok, err := c.CheckSession(ctx, Credentials{}); err != nil || ok {
		t.Errorf("expected invalid session without error (%v)", err)
	}

	if err := c.Logout(ctx, Credentials{JWT: "jwt"}); err != nil {
		t.Errorf("expected logout to succeed, got %v", err)
	}
}

func TestSessionStatusHandling(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name      string
		status    int
		wantValid bool
		checkErr  bool
		logoutErr bool
	}{
		{name: "unauthorized", status: http.StatusUnauthorized},
		{name: "forbidden", status: http.StatusForbidden, logoutErr: true},
		{name: "bad request", status: http.StatusBadRequest, checkErr: true, logoutErr: true},
		{name: "no content", status: http.StatusNoContent, wantValid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := tu.NewFakeBackend(t, map[string]http.HandlerFunc{
				"GET /api/session/check":   tu.Status(tt.status),
				"POST /api/session/logout": tu.Status(tt.status),
			})
			c := NewBackendClient(BackendOpts{BaseURL: fb.URL})

			ok, err := c.CheckSession(ctx, Credentials{JWT: "jwt"})
			if (err != nil) != tt.checkErr {
				t.Errorf("CheckSession() error = %v, wantErr %v", err, tt.checkErr)
			}
			if ok != tt.wantValid {
				t.Errorf("CheckSession() = %v, want %v", ok, tt.wantValid)
			}

			err = c.Logout(ctx, Credentials{JWT: "jwt"})
			if (err != nil) != tt.logoutErr {
				t.Errorf("Logout() error = %v, wantErr %v", err, tt.logoutErr)
			}
		})
	}
}
