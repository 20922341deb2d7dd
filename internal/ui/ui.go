package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/playlist-viewer/internal/charts"
	"github.com/desertthunder/playlist-viewer/internal/formatter"
	"github.com/desertthunder/playlist-viewer/internal/models"
	"github.com/desertthunder/playlist-viewer/internal/services"
	"github.com/desertthunder/playlist-viewer/internal/shared"
	"github.com/desertthunder/playlist-viewer/internal/tables"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	FavoritesView ViewState = iota
	SearchView
	TrackListView
	ChartView
	TrackDetailView
)

// Source is the data the TUI reads; [services.BackendClient] implements it.
type Source interface {
	GetPlaylist(ctx context.Context, id string, creds services.Credentials) (*models.Playlist, error)
	GetPlaylistTracks(ctx context.Context, id string, creds services.Credentials) ([]models.Track, error)
	GetPlaylistAudioFeatures(ctx context.Context, id string, creds services.Credentials) ([]models.AudioFeatures, error)
	GetTrackAudioFeatures(ctx context.Context, id string, creds services.Credentials) (*models.AudioFeatures, error)
	ListFavorites(ctx context.Context, creds services.Credentials) ([]models.FavoritePlaylist, error)
}

var _ Source = (*services.BackendClient)(nil)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	src          Source
	creds        services.Credentials
	initial      string
	width        int
	height       int
	favoriteList list.Model
	trackList    list.Model
	input        textinput.Model
	playlist     *models.Playlist
	tracks       []models.Track
	features     map[string]models.AudioFeatures
	artists      []charts.Slice
	radar        charts.Radar
	sortCol      int // index into tables.TrackColumns; -1 keeps playlist order
	sortDir      tables.Direction
	selected     *models.Track
	loading      bool
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model. A non-empty playlistID opens that playlist instead of the favorites list.
func NewModel(ctx context.Context, src Source, creds services.Credentials, playlistID string) *Model {
	input := textinput.New()
	input.Placeholder = "https://open.spotify.com/playlist/..."
	input.CharLimit = 256
	input.Width = 60

	m := &Model{
		ctx:          ctx,
		view:         FavoritesView,
		src:          src,
		creds:        creds,
		initial:      playlistID,
		width:        80,
		height:       24,
		input:        input,
		features:     map[string]models.AudioFeatures{},
		sortCol:      -1,
		help:         help.New(),
		keys:         newKeyMap(),
		favoriteList: newList("Favorite playlists", nil, 80, 24),
		trackList:    newList("Tracks", nil, 80, 24),
	}
	return m
}

func newList(title string, items []list.Item, width, height int) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), width-4, height-8)
	l.Title = title
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	return l
}

// Init loads the initial playlist or the favorites list.
func (m *Model) Init() tea.Cmd {
	m.loading = true
	if m.initial != "" {
		return m.fetchPlaylist(m.initial)
	}
	return m.fetchFavorites()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.favoriteList.SetSize(msg.Width-4, msg.Height-8)
		m.trackList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.view {
		case FavoritesView:
			return m.handleFavoritesKeys(msg)
		case SearchView:
			return m.handleSearchKeys(msg)
		case TrackListView:
			return m.handleTrackListKeys(msg)
		case ChartView, TrackDetailView:
			return m.handleDetailKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	m.loading = false

	switch msg.kind {
	case MsgFavoritesFetched:
		data := msg.data.(favoritesData)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		items := make([]list.Item, len(data.favorites))
		for i, f := range data.favorites {
			items[i] = favoriteItem{favorite: f}
		}
		m.favoriteList.SetItems(items)
		return m, nil

	case MsgPlaylistFetched:
		data := msg.data.(playlistData)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.playlist = data.playlist
		m.tracks = data.tracks
		m.features = make(map[string]models.AudioFeatures, len(data.features))
		for _, f := range data.features {
			m.features[f.ID] = f
		}
		m.artists = charts.Distribution(data.tracks, charts.ByArtist)
		m.radar = charts.AverageFeatures(charts.Pointers(data.features))
		m.sortCol, m.sortDir = -1, tables.Asc
		m.trackList.Title = fmt.Sprintf("Tracks in '%s'", data.playlist.Name)
		m.refreshTracks()
		m.view = TrackListView
		return m, nil

	case MsgFeaturesFetched:
		data := msg.data.(featuresData)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		if data.features != nil {
			m.features[data.trackID] = *data.features
		}
		return m, nil
	}

	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var banner string
	if m.err != nil {
		banner = styles.err.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n"
	} else if m.loading {
		banner = styles.help.Render("Loading...") + "\n\n"
	}

	switch m.view {
	case FavoritesView:
		return banner + m.renderFavorites()
	case SearchView:
		return banner + m.renderSearch()
	case TrackListView:
		return banner + m.renderTrackList()
	case ChartView:
		return banner + m.renderChart()
	case TrackDetailView:
		return banner + m.renderTrackDetail()
	default:
		return banner
	}
}

func (m *Model) handleFavoritesKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "/":
		m.view = SearchView
		m.input.SetValue("")
		return m, m.input.Focus()
	case "enter":
		if it, ok := m.favoriteList.SelectedItem().(favoriteItem); ok {
			m.loading = true
			return m, m.fetchPlaylist(it.favorite.PlaylistID)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.favoriteList, cmd = m.favoriteList.Update(msg)
	return m, cmd
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.err = nil
		m.input.Blur()
		m.view = FavoritesView
		return m, nil
	case "enter":
		id, err := services.ExtractPlaylistID(m.input.Value())
		if err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.input.Blur()
		m.loading = true
		return m, m.fetchPlaylist(id)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc":
		m.view = FavoritesView
		return m, nil
	case "/":
		m.view = SearchView
		m.input.SetValue("")
		return m, m.input.Focus()
	case "s":
		m.sortCol = (m.sortCol + 1) % len(tables.TrackColumns)
		m.refreshTracks()
		return m, nil
	case "d":
		m.sortDir = m.sortDir.Toggle()
		m.refreshTracks()
		return m, nil
	case "c":
		m.view = ChartView
		return m, nil
	case "enter":
		if it, ok := m.trackList.SelectedItem().(trackItem); ok {
			track := it.track
			m.selected = &track
			m.view = TrackDetailView
			if _, ok := m.features[track.ID]; !ok {
				m.loading = true
				return m, m.fetchFeatures(track.ID)
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc", "c":
		m.view = TrackListView
	}
	return m, nil
}

// refreshTracks re-sorts the tracks for the current column and rebuilds the list items.
func (m *Model) refreshTracks() {
	tracks := m.tracks
	if m.sortCol >= 0 {
		sorted, err := tables.SortTracks(m.tracks, tables.TrackColumns[m.sortCol], m.sortDir)
		if err != nil {
			m.err = err
		} else {
			tracks = sorted
		}
	}

	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{track: t}
	}
	m.trackList.SetItems(items)
	m.trackList.ResetSelected()
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case FavoritesView:
		m.favoriteList, cmd = m.favoriteList.Update(msg)
	case TrackListView:
		m.trackList, cmd = m.trackList.Update(msg)
	case SearchView:
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchFavorites() tea.Cmd {
	return func() tea.Msg {
		favs, err := m.src.ListFavorites(m.ctx, m.creds)
		return favoritesFetchedMsg(favs, err)
	}
}

// fetchPlaylist loads the playlist, its tracks when they are not embedded, and its audio features. Missing
// features only leave the charts empty.
func (m *Model) fetchPlaylist(id string) tea.Cmd {
	return func() tea.Msg {
		playlist, err := m.src.GetPlaylist(m.ctx, id, m.creds)
		if err != nil {
			return playlistFetchedMsg(playlistData{err: err})
		}

		tracks := playlist.Tracks
		if len(tracks) == 0 {
			if tracks, err = m.src.GetPlaylistTracks(m.ctx, id, m.creds); err != nil {
				return playlistFetchedMsg(playlistData{err: err})
			}
		}

		features, _ := m.src.GetPlaylistAudioFeatures(m.ctx, id, m.creds)
		return playlistFetchedMsg(playlistData{playlist: playlist, tracks: tracks, features: features})
	}
}

func (m *Model) fetchFeatures(trackID string) tea.Cmd {
	return func() tea.Msg {
		f, err := m.src.GetTrackAudioFeatures(m.ctx, trackID, m.creds)
		return featuresFetchedMsg(trackID, f, err)
	}
}

func (m *Model) renderFavorites() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.search, m.keys.quit}
	body := m.favoriteList.View()
	if len(m.favoriteList.Items()) == 0 && !m.loading {
		body = styles.title.Render("Favorite playlists") + "\n" + styles.help.Render("No favorites yet. Press / to open a playlist.")
	}
	return fmt.Sprintf("%s\n\n%s", body, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderSearch() string {
	title := styles.title.Render("Open a playlist")
	helpKeys := []key.Binding{m.keys.enter, m.keys.back}
	return fmt.Sprintf("%s\n%s\n\n%s", title, m.input.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderTrackList() string {
	status := "playlist order"
	if m.sortCol >= 0 {
		status = fmt.Sprintf("sorted by %s (%s)", tables.TrackColumns[m.sortCol], m.sortDir)
	}

	helpKeys := []key.Binding{m.keys.enter, m.keys.sort, m.keys.dir, m.keys.chart, m.keys.back, m.keys.quit}
	return fmt.Sprintf("%s\n%s\n\n%s", m.trackList.View(), styles.help.Render(status), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderChart() string {
	var b strings.Builder
	name := ""
	if m.playlist != nil {
		name = m.playlist.Name
	}

	b.WriteString(styles.title.Render(fmt.Sprintf("Artists in '%s'", name)))
	b.WriteString("\n")
	b.WriteString(formatter.PieBars(m.artists, 30))
	b.WriteString("\n")
	b.WriteString(styles.title.Render("Audio profile"))
	b.WriteString("\n")
	b.WriteString(formatter.RadarBars(m.radar, 30))
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit}))
	return b.String()
}

func (m *Model) renderTrackDetail() string {
	if m.selected == nil {
		return ""
	}
	t := m.selected

	var b strings.Builder
	b.WriteString(styles.title.Render(t.Name))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Artists:    %s\n", t.ArtistNames())
	fmt.Fprintf(&b, "Album:      %s\n", t.Album.Name)
	fmt.Fprintf(&b, "Duration:   %s\n", shared.FormatDuration(t.DurationMs))
	if t.Popularity != nil {
		fmt.Fprintf(&b, "Popularity: %d\n", *t.Popularity)
	} else {
		fmt.Fprintf(&b, "Popularity: -\n")
	}

	if f, ok := m.features[t.ID]; ok {
		fmt.Fprintf(&b, "Key:        %s\n", f.KeyName())
		fmt.Fprintf(&b, "Tempo:      %.0f BPM\n\n", f.Tempo)
		b.WriteString(formatter.RadarBars(charts.FeatureRadar(f), 30))
	} else if !m.loading {
		b.WriteString("\n" + styles.help.Render("No audio features available.") + "\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit}))
	return b.String()
}
