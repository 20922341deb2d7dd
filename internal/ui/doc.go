// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for exploring playlists:
//  1. [FavoritesView] : Browse bookmarked playlists
//  2. [SearchView] : Paste a playlist URL, URI or ID
//  3. [TrackListView] : Sortable track list of the selected playlist
//  4. [ChartView] : Artist distribution and averaged audio features
//  5. [TrackDetailView] : Details and audio features of one track
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg
// union type. Data comes from a [Source], normally a [services.BackendClient].
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, /, s, d, c, q) with contextual help displayed via
// charmbracelet/bubbles/help.
package ui
