package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/playlist-viewer/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgFavoritesFetched MsgKind = iota
	MsgPlaylistFetched
	MsgFeaturesFetched
)

type favoritesData struct {
	favorites []models.FavoritePlaylist
	err       error
}

type playlistData struct {
	playlist *models.Playlist
	tracks   []models.Track
	features []models.AudioFeatures
	err      error
}

type featuresData struct {
	trackID  string
	features *models.AudioFeatures
	err      error
}

// favoritesFetchedMsg is the constructor for [MsgFavoritesFetched]
func favoritesFetchedMsg(favorites []models.FavoritePlaylist, err error) Msg {
	return Msg{kind: MsgFavoritesFetched, data: favoritesData{favorites, err}}
}

// playlistFetchedMsg is the constructor for [MsgPlaylistFetched]
func playlistFetchedMsg(data playlistData) Msg {
	return Msg{kind: MsgPlaylistFetched, data: data}
}

// featuresFetchedMsg is the constructor for [MsgFeaturesFetched]
func featuresFetchedMsg(trackID string, features *models.AudioFeatures, err error) Msg {
	return Msg{kind: MsgFeaturesFetched, data: featuresData{trackID, features, err}}
}
