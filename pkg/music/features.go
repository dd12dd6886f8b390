package music

import "math"

// AudioFeatures holds the seven normalized descriptors of a track's
// acoustic character. Each value lies in [0,1] and is stored with three
// fractional digits. For albums the fields hold the per-field mean of the
// attached tracks' features.
type AudioFeatures struct {
	Danceability     float64
	Speechiness      float64
	Acousticness     float64
	Valence          float64
	Instrumentalness float64
	Energy           float64
	Liveness         float64
}

// FeatureNames lists the feature fields in storage and display order.
var FeatureNames = []string{
	"danceability",
	"speechiness",
	"acousticness",
	"valence",
	"instrumentalness",
	"energy",
	"liveness",
}

// Round3 rounds x to three decimal places, the fixed-point convention used
// for all persisted feature values.
func Round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}

// Rounded returns a copy of f with every field rounded to three decimals.
func (f AudioFeatures) Rounded() AudioFeatures {
	return AudioFeatures{
		Danceability:     Round3(f.Danceability),
		Speechiness:      Round3(f.Speechiness),
		Acousticness:     Round3(f.Acousticness),
		Valence:          Round3(f.Valence),
		Instrumentalness: Round3(f.Instrumentalness),
		Energy:           Round3(f.Energy),
		Liveness:         Round3(f.Liveness),
	}
}

// MeanFeatures computes the per-field arithmetic mean of the given feature
// sets, rounded to three decimals so album aggregates stay comparable with
// individually stored track values. The list must not be empty.
func MeanFeatures(list []AudioFeatures) AudioFeatures {
	var sum AudioFeatures
	for _, f := range list {
		sum.Danceability += f.Danceability
		sum.Speechiness += f.Speechiness
		sum.Acousticness += f.Acousticness
		sum.Valence += f.Valence
		sum.Instrumentalness += f.Instrumentalness
		sum.Energy += f.Energy
		sum.Liveness += f.Liveness
	}
	n := float64(len(list))
	return AudioFeatures{
		Danceability:     Round3(sum.Danceability / n),
		Speechiness:      Round3(sum.Speechiness / n),
		Acousticness:     Round3(sum.Acousticness / n),
		Valence:          Round3(sum.Valence / n),
		Instrumentalness: Round3(sum.Instrumentalness / n),
		Energy:           Round3(sum.Energy / n),
		Liveness:         Round3(sum.Liveness / n),
	}
}

// Chart scales each feature to a 0-100 integer for bar chart rendering.
// Values are truncated toward zero, not rounded.
func (f AudioFeatures) Chart() []int {
	vals := []float64{
		f.Danceability,
		f.Speechiness,
		f.Acousticness,
		f.Valence,
		f.Instrumentalness,
		f.Energy,
		f.Liveness,
	}
	out := make([]int, len(vals))
	for i, v := range vals {
		out[i] = int(v * 100)
	}
	return out
}
