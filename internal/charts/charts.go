// package charts prepares pie and radar chart series from playlist data
package charts

import (
	"cmp"
	"slices"
	"strings"

	"github.com/desertthunder/playlist-viewer/internal/models"
)

// MaxSlices is the number of named slices a pie keeps before merging the rest into [OtherLabel].
const MaxSlices = 9

// OtherLabel names the slice holding everything past the top [MaxSlices].
const OtherLabel = "Other"

// Slice is one pie segment.
type Slice struct {
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
	Percent float64 `json:"percent"`
}

// PrepareChartData keeps the [MaxSlices] largest slices (ties broken by label) and merges the remainder into one
// [OtherLabel] slice. Non-positive values are dropped and percentages are computed against the kept total.
func PrepareChartData(items []Slice) []Slice {
	kept := make([]Slice, 0, len(items))
	var total float64
	for _, it := range items {
		if it.Value > 0 {
			kept = append(kept, it)
			total += it.Value
		}
	}

	slices.SortStableFunc(kept, func(a, b Slice) int {
		if c := cmp.Compare(b.Value, a.Value); c != 0 {
			return c
		}
		return strings.Compare(a.Label, b.Label)
	})

	if len(kept) > MaxSlices {
		var rest float64
		for _, it := range kept[MaxSlices:] {
			rest += it.Value
		}
		kept = append(kept[:MaxSlices:MaxSlices], Slice{Label: OtherLabel, Value: rest})
	}

	for i := range kept {
		kept[i].Percent = kept[i].Value / total * 100
	}

	return kept
}

// Dimension selects what a distribution counts tracks by.
type Dimension string

const (
	ByArtist Dimension = "artist"
	ByAlbum  Dimension = "album"
)

// Distribution counts tracks per dimension and prepares the pie series. Every credited artist of a track counts.
func Distribution(tracks []models.Track, by Dimension) []Slice {
	counts := map[string]float64{}
	var order []string
	add := func(label string) {
		label = strings.TrimSpace(label)
		if label == "" {
			label = "Unknown"
		}
		if _, ok := counts[label]; !ok {
			order = append(order, label)
		}
		counts[label]++
	}

	for _, t := range tracks {
		switch by {
		case ByAlbum:
			add(t.Album.Name)
		default:
			if len(t.Artists) == 0 {
				add("")
			}
			for _, a := range t.Artists {
				add(a.Name)
			}
		}
	}

	items := make([]Slice, 0, len(order))
	for _, label := range order {
		items = append(items, Slice{Label: label, Value: counts[label]})
	}
	return PrepareChartData(items)
}

// ParseDimension returns the dimension named s; ok is false for unknown names.
func ParseDimension(s string) (Dimension, bool) {
	switch Dimension(strings.ToLower(strings.TrimSpace(s))) {
	case "", ByArtist:
		return ByArtist, true
	case ByAlbum:
		return ByAlbum, true
	}
	return "", false
}
