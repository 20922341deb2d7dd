// package testing contains shared testing utilities
package testing

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/desertthunder/playlist-viewer/internal/models"
)

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// RecordedRequest is what [FakeBackend] saw for one request.
type RecordedRequest struct {
	Method        string
	Path          string
	Query         string
	Body          string
	Cookies       map[string]string
	Authorization string
}

// FakeBackend is an [httptest.Server] standing in for the Spotify-backed service.
//
// Routes are keyed by "METHOD /path" patterns as understood by [http.ServeMux].
type FakeBackend struct {
	*httptest.Server
	mu       sync.Mutex
	requests []RecordedRequest
}

// NewFakeBackend starts a server serving routes; it is closed when t finishes.
func NewFakeBackend(t *testing.T, routes map[string]http.HandlerFunc) *FakeBackend {
	t.Helper()

	fb := &FakeBackend{}
	mux := http.NewServeMux()
	for pattern, h := range routes {
		mux.HandleFunc(pattern, h)
	}

	fb.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rec := RecordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Query:         r.URL.RawQuery,
			Body:          string(body),
			Cookies:       map[string]string{},
			Authorization: r.Header.Get("Authorization"),
		}
		for _, c := range r.Cookies() {
			rec.Cookies[c.Name] = c.Value
		}

		fb.mu.Lock()
		fb.requests = append(fb.requests, rec)
		fb.mu.Unlock()

		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(fb.Close)

	return fb
}

// Requests returns a copy of every request received so far.
func (fb *FakeBackend) Requests() []RecordedRequest {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]RecordedRequest(nil), fb.requests...)
}

// Last returns the most recent request; it fails the test when there is none.
func (fb *FakeBackend) Last(t *testing.T) RecordedRequest {
	t.Helper()
	reqs := fb.Requests()
	if len(reqs) == 0 {
		t.Fatal("backend received no requests")
	}
	return reqs[len(reqs)-1]
}

// JSON returns a handler writing v with status.
func JSON(status int, v any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(v)
	}
}

// Status returns a handler writing only status.
func Status(status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// SamplePlaylist returns a playlist with three tracks across two artists.
func SamplePlaylist() models.Playlist {
	return models.Playlist{
		ID:          "37i9dQZF1DXcBWIGoYBM5M",
		Name:        "Today's Top Hits",
		Description: "The hottest tracks right now.",
		Owner:       models.Owner{ID: "spotify", DisplayName: "Spotify"},
		Images:      []models.Image{{URL: "https://i.scdn.co/image/cover"}},
		TotalTracks: 3,
		Tracks:      SampleTracks(),
	}
}

// SampleTracks returns tracks with one missing popularity.
func SampleTracks() []models.Track {
	return []models.Track{
		{
			ID: "t1", Name: "Blinding Lights", DurationMs: 200040, Popularity: IntPtr(95),
			Artists: []models.Artist{{ID: "a1", Name: "The Weeknd"}},
			Album:   models.Album{ID: "al1", Name: "After Hours"},
			AddedAt: "2024-01-02T00:00:00Z",
		},
		{
			ID: "t2", Name: "Save Your Tears", DurationMs: 215626, Popularity: IntPtr(88),
			Artists: []models.Artist{{ID: "a1", Name: "The Weeknd"}},
			Album:   models.Album{ID: "al1", Name: "After Hours"},
			AddedAt: "2024-01-01T00:00:00Z",
		},
		{
			ID: "t3", Name: "levitating", DurationMs: 203064,
			Artists: []models.Artist{{ID: "a2", Name: "Dua Lipa"}},
			Album:   models.Album{ID: "al2", Name: "Future Nostalgia"},
		},
	}
}

// SampleFeatures returns audio features matching [SampleTracks].
func SampleFeatures() []models.AudioFeatures {
	return []models.AudioFeatures{
		{ID: "t1", Danceability: 0.5, Energy: 0.7, Valence: 0.3, Tempo: 171, Key: 1, Mode: 1, TimeSignature: 4},
		{ID: "t2", Danceability: 0.7, Energy: 0.8, Valence: 0.6, Tempo: 118, Key: 0, Mode: 1, TimeSignature: 4},
		{ID: "t3", Danceability: 0.6, Energy: 0.9, Valence: 0.9, Tempo: 103, Key: 6, Mode: 0, TimeSignature: 4},
	}
}
