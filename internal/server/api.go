package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playlist-viewer/internal/apierr"
	"github.com/desertthunder/playlist-viewer/internal/charts"
	"github.com/desertthunder/playlist-viewer/internal/models"
	"github.com/desertthunder/playlist-viewer/internal/services"
	"github.com/desertthunder/playlist-viewer/internal/session"
	"github.com/desertthunder/playlist-viewer/internal/shared"
	"github.com/desertthunder/playlist-viewer/internal/tables"
)

const maxBodyBytes = 1 << 20

// APIHandler serves the JSON routes under /api, forwarding each call to the backend with the caller's session id
// and JWT.
type APIHandler struct {
	backend  *services.BackendClient
	sessions *session.Manager
	errs     *apierr.Writer
	logger   *log.Logger
	mux      *http.ServeMux
	routes   map[string]http.HandlerFunc
}

// NewAPIHandler creates the /api handler.
func NewAPIHandler(backend *services.BackendClient, sessions *session.Manager, errs *apierr.Writer, logger *log.Logger) *APIHandler {
	h := &APIHandler{
		backend:  backend,
		sessions: sessions,
		errs:     errs,
		logger:   shared.WithLogger(logger, "component", "api"),
		mux:      http.NewServeMux(),
	}

	h.routes = map[string]http.HandlerFunc{
		"GET /api/playlists/search":              h.authed(h.searchPlaylist),
		"GET /api/playlists/{id}":                h.authed(h.getPlaylist),
		"GET /api/playlists/{id}/tracks":         h.authed(h.getPlaylistTracks),
		"GET /api/playlists/{id}/audio-features": h.authed(h.getPlaylistFeatures),
		"GET /api/playlists/{id}/charts":         h.authed(h.getPlaylistChart),
		"GET /api/tracks/{id}":                   h.authed(h.getTrack),
		"GET /api/tracks/{id}/audio-features":    h.authed(h.getTrackFeatures),
		"GET /api/playlists/favorite":            h.authed(h.listFavorites),
		"POST /api/playlists/favorite":           h.authed(h.addFavorite),
		"DELETE /api/playlists/favorite":         h.authed(h.removeFavorite),
		"GET /api/session":                       h.getSession,
		"GET /api/session/user":                  h.authed(h.getUser),
		"GET /api/session/check":                 h.checkSession,
		"POST /api/session/token":                h.storeToken,
		"POST /api/session/logout":               h.logout,
		"GET /healthz":                           h.health,
	}
	for pattern, fn := range h.routes {
		h.mux.HandleFunc(pattern, fn)
	}

	return h
}

// Routes returns every pattern the handler serves.
func (h *APIHandler) Routes() []string {
	return slices.Sorted(maps.Keys(h.routes))
}

func (h *APIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

type authedFunc func(w http.ResponseWriter, r *http.Request, creds services.Credentials)

// authed rejects requests with no JWT in the cookie or the token store.
func (h *APIHandler) authed(fn authedFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		creds := h.sessions.Credentials(r)
		if !creds.Authenticated() {
			h.errs.Handle(w, r, apierr.Unauthorized("no JWT for session"))
			return
		}
		fn(w, r, creds)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *APIHandler) selectPlaylist(r *http.Request, id string) {
	if err := h.sessions.SelectPlaylist(r.Context(), id); err != nil {
		h.logger.Warn("failed to record selected playlist", "playlist", id, "error", err)
	}
}

func (h *APIHandler) searchPlaylist(w http.ResponseWriter, r *http.Request, creds services.Credentials) {
	id, err := services.ExtractPlaylistID(r.URL.Query().Get("q"))
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}

	playlist, err := h.backend.GetPlaylist(r.Context(), id, creds)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}

	h.selectPlaylist(r, id)
	writeJSON(w, http.StatusOK, playlist)
}

func (h *APIHandler) getPlaylist(w http.ResponseWriter, r *http.Request, creds services.Credentials) {
	id := r.PathValue("id")
	playlist, err := h.backend.GetPlaylist(r.Context(), id, creds)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}

	h.selectPlaylist(r, id)
	writeJSON(w, http.StatusOK, playlist)
}

// sortQuery reads ?sort= and ?dir=; column is empty when no sort was asked for.
func sortQuery(r *http.Request) (column string, dir tables.Direction) {
	q := r.URL.Query()
	return q.Get("sort"), tables.ParseDirection(q.Get("dir"))
}

func (h *APIHandler) getPlaylistTracks(w http.ResponseWriter, r *http.Request, creds services.Credentials) {
	tracks, err := h.backend.GetPlaylistTracks(r.Context(), r.PathValue("id"), creds)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}

	if column, dir := sortQuery(r); column != "" {
		tracks, err = tables.SortTracks(tracks, column, dir)
		if err != nil {
			h.errs.Handle(w, r, apierr.BadRequest(err.Error()).WithDetails(map[string]any{"columns": tables.TrackColumns}))
			return
		}
	}

	writeJSON(w, http.StatusOK, tracks)
}

type featuresResponse struct {
	Items []models.AudioFeatures `json:"items"`
	Radar charts.Radar           `json:"radar"`
}

func (h *APIHandler) getPlaylistFeatures(w http.ResponseWriter, r *http.Request, creds services.Credentials) {
	features, err := h.backend.GetPlaylistAudioFeatures(r.Context(), r.PathValue("id"), creds)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}

	if features == nil {
		features = []models.AudioFeatures{}
	}
	writeJSON(w, http.StatusOK, featuresResponse{Items: features, Radar: charts.AverageFeatures(charts.Pointers(features))})
}

type chartResponse struct {
	By     charts.Dimension `json:"by"`
	Slices []charts.Slice   `json:"slices"`
}

func (h *APIHandler) getPlaylistChart(w http.ResponseWriter, r *http.Request, creds services.Credentials) {
	by, ok := charts.ParseDimension(r.URL.Query().Get("by"))
	if !ok {
		h.errs.Handle(w, r, apierr.BadRequest(fmt.Sprintf("cannot chart by %q", r.URL.Query().Get("by"))))
		return
	}

	tracks, err := h.backend.GetPlaylistTracks(r.Context(), r.PathValue("id"), creds)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, chartResponse{By: by, Slices: charts.Distribution(tracks, by)})
}

func (h *APIHandler) getTrack(w http.ResponseWriter, r *http.Request, creds services.Credentials) {
	track, err := h.backend.GetTrack(r.Context(), r.PathValue("id"), creds)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, track)
}

type trackFeaturesResponse struct {
	*models.AudioFeatures
	KeyName string       `json:"key_name"`
	Radar   charts.Radar `json:"radar"`
}

func (h *APIHandler) getTrackFeatures(w http.ResponseWriter, r *http.Request, creds services.Credentials) {
	f, err := h.backend.GetTrackAudioFeatures(r.Context(), r.PathValue("id"), creds)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trackFeaturesResponse{AudioFeatures: f, KeyName: f.KeyName(), Radar: charts.FeatureRadar(*f)})
}

func (h *APIHandler) listFavorites(w http.ResponseWriter, r *http.Request, creds services.Credentials) {
	favs, err := h.backend.ListFavorites(r.Context(), creds)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}

	if column, dir := sortQuery(r); column != "" {
		favs, err = tables.SortFavorites(favs, column, dir)
		if err != nil {
			h.errs.Handle(w, r, apierr.BadRequest(err.Error()).WithDetails(map[string]any{"columns": tables.FavoriteColumns}))
			return
		}
	}

	if favs == nil {
		favs = []models.FavoritePlaylist{}
	}
	writeJSON(w, http.StatusOK, favs)
}

func (h *APIHandler) addFavorite(w http.ResponseWriter, r *http.Request, creds services.Credentials) {
	var fav models.FavoritePlaylist
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&fav); err != nil {
		h.errs.Handle(w, r, apierr.BadRequest("invalid favorite body").WithCause(err))
		return
	}

	stored, err := h.backend.AddFavorite(r.Context(), fav, creds)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

func (h *APIHandler) removeFavorite(w http.ResponseWriter, r *http.Request, creds services.Credentials) {
	if err := h.backend.RemoveFavorite(r.Context(), r.URL.Query().Get("playlistId"), creds); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type sessionResponse struct {
	SessionID        string `json:"sessionId"`
	Authenticated    bool   `json:"authenticated"`
	SelectedPlaylist string `json:"selectedPlaylist,omitempty"`
}

func (h *APIHandler) getSession(w http.ResponseWriter, r *http.Request) {
	s, ok := session.FromContext(r.Context())
	if !ok {
		h.errs.Handle(w, r, shared.ErrSessionNotFound)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		SessionID:        s.ID(),
		Authenticated:    h.sessions.Credentials(r).Authenticated(),
		SelectedPlaylist: s.SelectedPlaylist(),
	})
}

func (h *APIHandler) getUser(w http.ResponseWriter, r *http.Request, creds services.Credentials) {
	user, err := h.backend.CurrentUser(r.Context(), creds)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// checkSession answers false without calling the backend when the session has no JWT.
func (h *APIHandler) checkSession(w http.ResponseWriter, r *http.Request) {
	creds := h.sessions.Credentials(r)
	if !creds.Authenticated() {
		writeJSON(w, http.StatusOK, map[string]bool{"authenticated": false})
		return
	}

	ok, err := h.backend.CheckSession(r.Context(), creds)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"authenticated": ok})
}

type tokenRequest struct {
	Token string `json:"token"`
	JWT   string `json:"jwt"`
}

func (h *APIHandler) storeToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.errs.Handle(w, r, apierr.BadRequest("invalid token body").WithCause(err))
		return
	}

	jwt := req.Token
	if jwt == "" {
		jwt = req.JWT
	}
	if jwt == "" {
		h.errs.Handle(w, r, fmt.Errorf("%w: token", shared.ErrMissingArgument))
		return
	}

	s, ok := session.FromContext(r.Context())
	if !ok {
		h.errs.Handle(w, r, shared.ErrSessionNotFound)
		return
	}

	token, err := h.sessions.StoreJWT(r.Context(), w, s.ID(), jwt)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}

	resp := map[string]any{"sessionId": s.ID(), "authenticated": true}
	if !token.Expiry.IsZero() {
		resp["expiresAt"] = token.Expiry.UTC()
	}
	writeJSON(w, http.StatusOK, resp)
}

// logout ends the backend session when there is one, then always clears local state.
func (h *APIHandler) logout(w http.ResponseWriter, r *http.Request) {
	creds := h.sessions.Credentials(r)
	if creds.Authenticated() {
		if err := h.backend.Logout(r.Context(), creds); err != nil {
			h.logger.Warn("backend logout failed", "session", creds.SessionID, "error", err)
		}
	}

	h.sessions.Clear(r.Context(), w, creds.SessionID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
