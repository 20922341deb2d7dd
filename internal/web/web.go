// Package web renders the browser pages of the playlist viewer.
//
// Pages are server-rendered from embedded [html/template] files and fetch their data through the same
// [services.BackendClient] and [session.Manager] the JSON API uses:
//
//	GET  /                        search form, login button, favorites table
//	GET  /playlists/{id}          track table with sortable headers, artist pie, audio-feature radar
//	GET  /tracks/{id}             track details and audio features
//	POST /playlists/{id}/favorite favorite toggle (action=add|remove)
//	POST /logout                  ends the session and returns home
//
// Table headers are links carrying ?sort= and ?dir=, so sorting works without scripts. Errors render the error page
// with the localized message and the status [apierr.From] assigns.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playlist-viewer/internal/apierr"
	"github.com/desertthunder/playlist-viewer/internal/charts"
	"github.com/desertthunder/playlist-viewer/internal/models"
	"github.com/desertthunder/playlist-viewer/internal/services"
	"github.com/desertthunder/playlist-viewer/internal/session"
	"github.com/desertthunder/playlist-viewer/internal/shared"
	"github.com/desertthunder/playlist-viewer/internal/tables"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"duration": shared.FormatDuration,
	"deref":    func(v *int) int { return *v },
	"inc":      func(i int) int { return i + 1 },
	"scale":    func(v float64) float64 { return v * 100 },
	"pct":      func(v float64) template.CSS { return template.CSS(fmt.Sprintf("%.1f%%", v)) },
	"date": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Format("2006-01-02")
	},
}

var pageNames = []string{"home", "playlist", "track", "error"}

func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html", "templates/charts.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		pages[name] = t
	}
	return pages, nil
}

// Header is a sortable table column heading.
type Header struct {
	Label  string
	URL    string
	Active bool
	Dir    tables.Direction
}

// Arrow shows the direction of the active column.
func (h Header) Arrow() string {
	if h.Dir == tables.Desc {
		return "▼"
	}
	return "▲"
}

// headers builds column links for path; clicking the active column flips its direction.
func headers(path string, columns []string, labels map[string]string, current string, dir tables.Direction) []Header {
	out := make([]Header, 0, len(columns))
	for _, col := range columns {
		h := Header{Label: labels[col], Active: col == current, Dir: dir}
		next := tables.Asc
		if h.Active {
			next = dir.Toggle()
		}
		h.URL = path + "?" + url.Values{"sort": {col}, "dir": {next.String()}}.Encode()
		out = append(out, h)
	}
	return out
}

var trackLabels = map[string]string{
	tables.TrackName:       "Title",
	tables.TrackArtist:     "Artist",
	tables.TrackAlbum:      "Album",
	tables.TrackDuration:   "Duration",
	tables.TrackPopularity: "Popularity",
	tables.TrackAddedAt:    "Added",
}

var favoriteLabels = map[string]string{
	tables.FavoriteName:    "Name",
	tables.FavoriteOwner:   "Owner",
	tables.FavoriteTracks:  "Tracks",
	tables.FavoriteAddedAt: "Added",
}

// page is the data every template receives; each page fills the fields it shows.
type page struct {
	Lang          string
	Title         string
	Path          string
	Authenticated bool
	User          *models.User
	Error         string
	Status        int

	Query     string
	Favorites []models.FavoritePlaylist
	Headers   []Header

	Playlist   *models.Playlist
	TrackCount int
	Tracks     []models.Track
	Favorite   bool
	Artists    []charts.Slice
	Radar      charts.Radar

	Track    *models.Track
	Features *models.AudioFeatures
}

// Handler serves the HTML pages.
type Handler struct {
	backend  *services.BackendClient
	sessions *session.Manager
	errs     *apierr.Writer
	logger   *log.Logger
	lang     string
	pages    map[string]*template.Template
	mux      *http.ServeMux
	routes   []string
}

// New parses the embedded templates and creates the page handler. locale sets the html lang attribute.
func New(backend *services.BackendClient, sessions *session.Manager, errs *apierr.Writer, locale string, logger *log.Logger) (*Handler, error) {
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	if locale == "" {
		locale = "en"
	}

	h := &Handler{
		backend:  backend,
		sessions: sessions,
		errs:     errs,
		logger:   shared.WithLogger(logger, "component", "web"),
		lang:     locale,
		pages:    pages,
		mux:      http.NewServeMux(),
	}

	for pattern, fn := range map[string]http.HandlerFunc{
		"GET /{$}":                      h.home,
		"GET /playlists/{id}":           h.playlist,
		"GET /tracks/{id}":              h.track,
		"POST /playlists/{id}/favorite": h.toggleFavorite,
		"POST /logout":                  h.logout,
	} {
		h.mux.HandleFunc(pattern, fn)
		h.routes = append(h.routes, pattern)
	}

	return h, nil
}

// Routes returns the page patterns.
func (h *Handler) Routes() []string { return h.routes }

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) newPage(r *http.Request, creds services.Credentials, title string) *page {
	p := &page{Lang: h.lang, Title: title, Path: r.URL.RequestURI(), Authenticated: creds.Authenticated()}
	if p.Authenticated {
		user, err := h.backend.CurrentUser(r.Context(), creds)
		if err != nil {
			h.logger.Debug("no user for session", "session", creds.SessionID, "error", err)
		} else {
			p.User = user
		}
	}
	return p
}

func (h *Handler) render(w http.ResponseWriter, name string, status int, p *page) {
	var buf bytes.Buffer
	if err := h.pages[name].ExecuteTemplate(&buf, "layout", p); err != nil {
		h.logger.Error("failed to render page", "page", name, "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, creds services.Credentials, err error) {
	e := apierr.From(err)
	if e.Status >= http.StatusInternalServerError {
		h.logger.Error("page failed", "path", r.URL.Path, "error", err)
	}

	p := h.newPage(r, creds, http.StatusText(e.Status))
	p.Status = e.Status
	p.Error = h.errs.Localize(e.Code, r.Header.Get("Accept-Language"))
	h.render(w, "error", e.Status, p)
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	creds := h.sessions.Credentials(r)
	status := http.StatusOK

	q := strings.TrimSpace(r.URL.Query().Get("q"))
	var searchErr error
	if q != "" {
		id, err := services.ExtractPlaylistID(q)
		if err == nil {
			http.Redirect(w, r, "/playlists/"+url.PathEscape(id), http.StatusSeeOther)
			return
		}
		searchErr = err
	}

	p := h.newPage(r, creds, "")
	p.Query = q
	if searchErr != nil {
		e := apierr.From(searchErr)
		status = e.Status
		p.Error = h.errs.Localize(e.Code, r.Header.Get("Accept-Language"))
	}

	if creds.Authenticated() {
		column, dir := r.URL.Query().Get("sort"), tables.ParseDirection(r.URL.Query().Get("dir"))
		favs, err := h.backend.ListFavorites(r.Context(), creds)
		if err == nil && column != "" {
			favs, err = tables.SortFavorites(favs, column, dir)
		}
		if err != nil {
			h.fail(w, r, creds, err)
			return
		}
		p.Favorites = favs
		p.Headers = headers("/", tables.FavoriteColumns, favoriteLabels, column, dir)
	}

	h.render(w, "home", status, p)
}

func (h *Handler) playlist(w http.ResponseWriter, r *http.Request) {
	creds := h.sessions.Credentials(r)
	if !creds.Authenticated() {
		h.fail(w, r, creds, apierr.Unauthorized("login required"))
		return
	}

	ctx, id := r.Context(), r.PathValue("id")
	playlist, err := h.backend.GetPlaylist(ctx, id, creds)
	if err != nil {
		h.fail(w, r, creds, err)
		return
	}

	tracks := playlist.Tracks
	if len(tracks) == 0 {
		if tracks, err = h.backend.GetPlaylistTracks(ctx, id, creds); err != nil {
			h.fail(w, r, creds, err)
			return
		}
	}

	column, dir := r.URL.Query().Get("sort"), tables.ParseDirection(r.URL.Query().Get("dir"))
	if column != "" {
		if tracks, err = tables.SortTracks(tracks, column, dir); err != nil {
			h.fail(w, r, creds, apierr.BadRequest(err.Error()))
			return
		}
	}

	features, err := h.backend.GetPlaylistAudioFeatures(ctx, id, creds)
	if err != nil {
		h.logger.Warn("audio features unavailable", "playlist", id, "error", err)
	}

	favorite, err := h.backend.IsFavorite(ctx, id, creds)
	if err != nil {
		h.logger.Warn("favorites unavailable", "error", err)
	}

	if err := h.sessions.SelectPlaylist(ctx, id); err != nil {
		h.logger.Warn("failed to record selected playlist", "playlist", id, "error", err)
	}

	p := h.newPage(r, creds, playlist.Name)
	p.Playlist = playlist
	p.TrackCount = playlist.TrackCount()
	if p.TrackCount == 0 {
		p.TrackCount = len(tracks)
	}
	p.Tracks = tracks
	p.Favorite = favorite
	p.Headers = headers("/playlists/"+url.PathEscape(id), tables.TrackColumns, trackLabels, column, dir)
	p.Artists = charts.Distribution(tracks, charts.ByArtist)
	p.Radar = charts.AverageFeatures(charts.Pointers(features))

	h.render(w, "playlist", http.StatusOK, p)
}

func (h *Handler) track(w http.ResponseWriter, r *http.Request) {
	creds := h.sessions.Credentials(r)
	if !creds.Authenticated() {
		h.fail(w, r, creds, apierr.Unauthorized("login required"))
		return
	}

	id := r.PathValue("id")
	track, err := h.backend.GetTrack(r.Context(), id, creds)
	if err != nil {
		h.fail(w, r, creds, err)
		return
	}

	p := h.newPage(r, creds, track.Name)
	p.Track = track

	features, err := h.backend.GetTrackAudioFeatures(r.Context(), id, creds)
	if err != nil {
		h.logger.Warn("audio features unavailable", "track", id, "error", err)
	} else {
		p.Features = features
		p.Radar = charts.FeatureRadar(*features)
	}

	h.render(w, "track", http.StatusOK, p)
}

func (h *Handler) toggleFavorite(w http.ResponseWriter, r *http.Request) {
	creds := h.sessions.Credentials(r)
	if !creds.Authenticated() {
		h.fail(w, r, creds, apierr.Unauthorized("login required"))
		return
	}

	id := r.PathValue("id")
	var err error
	switch r.FormValue("action") {
	case "remove":
		err = h.backend.RemoveFavorite(r.Context(), id, creds)
	case "add", "":
		var playlist *models.Playlist
		if playlist, err = h.backend.GetPlaylist(r.Context(), id, creds); err == nil {
			_, err = h.backend.AddFavorite(r.Context(), models.FavoriteFromPlaylist(*playlist), creds)
		}
	default:
		err = apierr.BadRequest(fmt.Sprintf("unknown action %q", r.FormValue("action")))
	}
	if err != nil {
		h.fail(w, r, creds, err)
		return
	}

	http.Redirect(w, r, "/playlists/"+url.PathEscape(id), http.StatusSeeOther)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	creds := h.sessions.Credentials(r)
	if creds.Authenticated() {
		if err := h.backend.Logout(r.Context(), creds); err != nil {
			h.logger.Warn("backend logout failed", "error", err)
		}
	}
	h.sessions.Clear(r.Context(), w, creds.SessionID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
