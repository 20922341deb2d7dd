package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/playlist-viewer/internal/charts"
	"github.com/desertthunder/playlist-viewer/internal/models"
	"github.com/desertthunder/playlist-viewer/internal/shared"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#1DB954")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = cellStyle.Foreground(lipgloss.Color("#626262"))
	barStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#1DB954"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return mutedStyle
			default:
				return cellStyle
			}
		})
}

// TrackTable renders tracks as a numbered terminal table. Missing values show as "-".
func TrackTable(tracks []models.Track) string {
	t := newTable("#", "Title", "Artists", "Album", "Duration", "Popularity")
	for i, tr := range tracks {
		pop := popularity(tr)
		if pop == "" {
			pop = "-"
		}
		t.Row(strconv.Itoa(i+1), shared.Truncate(tr.Name, 40), shared.Truncate(tr.ArtistNames(), 30),
			shared.Truncate(tr.Album.Name, 30), shared.FormatDuration(tr.DurationMs), pop)
	}
	return t.Render()
}

// FavoritesTable renders bookmarked playlists.
func FavoritesTable(favs []models.FavoritePlaylist) string {
	t := newTable("ID", "Name", "Owner", "Tracks", "Added")
	for _, f := range favs {
		count, added := "-", "-"
		if f.TrackCount != nil {
			count = strconv.Itoa(*f.TrackCount)
		}
		if !f.AddedAt.IsZero() {
			added = f.AddedAt.Format("2006-01-02")
		}
		t.Row(f.PlaylistID, shared.Truncate(f.Name, 40), f.Owner, count, added)
	}
	return t.Render()
}

// FeaturesTable renders one row of audio features per track.
func FeaturesTable(features []models.AudioFeatures) string {
	t := newTable("ID", "Key", "Tempo", "Dance", "Energy", "Valence", "Acoustic")
	for _, f := range features {
		t.Row(f.ID, f.KeyName(), fmt.Sprintf("%.0f", f.Tempo), fmt.Sprintf("%.2f", f.Danceability),
			fmt.Sprintf("%.2f", f.Energy), fmt.Sprintf("%.2f", f.Valence), fmt.Sprintf("%.2f", f.Acousticness))
	}
	return t.Render()
}

// bar draws a horizontal bar of width cells scaled by fraction (0..1).
func bar(fraction float64, width int) string {
	n := int(fraction*float64(width) + 0.5)
	n = max(0, min(n, width))
	return barStyle.Render(strings.Repeat("█", n)) + strings.Repeat("░", width-n)
}

// PieBars renders pie slices as labelled horizontal bars, the terminal stand-in for a pie chart.
func PieBars(slices []charts.Slice, width int) string {
	if len(slices) == 0 {
		return "(no data)\n"
	}

	labelWidth := 0
	for _, s := range slices {
		labelWidth = max(labelWidth, lipgloss.Width(shared.Truncate(s.Label, 24)))
	}

	var b strings.Builder
	for _, s := range slices {
		label := shared.Truncate(s.Label, 24)
		fmt.Fprintf(&b, "%-*s %s %5.1f%% (%.0f)\n", labelWidth, label, bar(s.Percent/100, width), s.Percent, s.Value)
	}
	return b.String()
}

// RadarBars renders each radar axis as a bar on the 0..1 scale.
func RadarBars(r charts.Radar, width int) string {
	if r.Tracks == 0 {
		return "(no audio features)\n"
	}

	var b strings.Builder
	for _, ax := range r.Axes {
		fmt.Fprintf(&b, "%-16s %s %.2f\n", ax.Label, bar(ax.Value, width), ax.Value)
	}
	fmt.Fprintf(&b, "%-16s %.0f BPM over %d tracks\n", "Tempo", r.Tempo, r.Tracks)
	return b.String()
}
