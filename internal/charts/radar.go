package charts

import "github.com/desertthunder/playlist-viewer/internal/models"

// Axis is one spoke of the audio-feature radar; values are on a 0..1 scale.
type Axis struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Radar is the averaged audio profile of a set of tracks.
type Radar struct {
	Axes   []Axis  `json:"axes"`
	Tempo  float64 `json:"tempo"` // mean BPM, reported beside the radar
	Tracks int     `json:"tracks"`
}

var radarAxes = []struct {
	label string
	value func(models.AudioFeatures) float64
}{
	{"Danceability", func(f models.AudioFeatures) float64 { return f.Danceability }},
	{"Energy", func(f models.AudioFeatures) float64 { return f.Energy }},
	{"Valence", func(f models.AudioFeatures) float64 { return f.Valence }},
	{"Acousticness", func(f models.AudioFeatures) float64 { return f.Acousticness }},
	{"Instrumentalness", func(f models.AudioFeatures) float64 { return f.Instrumentalness }},
	{"Liveness", func(f models.AudioFeatures) float64 { return f.Liveness }},
	{"Speechiness", func(f models.AudioFeatures) float64 { return f.Speechiness }},
}

// AverageFeatures averages each radar axis across features, skipping nil entries. Empty input yields zeros.
func AverageFeatures(features []*models.AudioFeatures) Radar {
	sums := make([]float64, len(radarAxes))
	var tempo float64
	var n int

	for _, f := range features {
		if f == nil {
			continue
		}
		n++
		tempo += f.Tempo
		for i, ax := range radarAxes {
			sums[i] += clamp01(ax.value(*f))
		}
	}

	r := Radar{Axes: make([]Axis, len(radarAxes)), Tracks: n}
	for i, ax := range radarAxes {
		r.Axes[i].Label = ax.label
		if n > 0 {
			r.Axes[i].Value = sums[i] / float64(n)
		}
	}
	if n > 0 {
		r.Tempo = tempo / float64(n)
	}

	return r
}

// FeatureRadar is the radar for a single track.
func FeatureRadar(f models.AudioFeatures) Radar {
	return AverageFeatures([]*models.AudioFeatures{&f})
}

// Pointers adapts a slice of features for [AverageFeatures].
func Pointers(features []models.AudioFeatures) []*models.AudioFeatures {
	out := make([]*models.AudioFeatures, len(features))
	for i := range features {
		out[i] = &features[i]
	}
	return out
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
