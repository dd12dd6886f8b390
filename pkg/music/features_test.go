package music

import (
	"errors"
	"testing"
)

// TestMeanFeatures verifies the per-field average with the three decimal
// rounding convention used for persisted values.
func TestMeanFeatures(t *testing.T) {
	a := AudioFeatures{0.2, 0.2, 0.2, 0.2, 0.2, 0.2, 0.2}
	b := AudioFeatures{0.4, 0.4, 0.4, 0.4, 0.4, 0.4, 0.4}
	got := MeanFeatures([]AudioFeatures{a, b})
	want := AudioFeatures{0.3, 0.3, 0.3, 0.3, 0.3, 0.3, 0.3}
	if got != want {
		t.Fatalf("unexpected mean: %+v", got)
	}
}

// TestMeanFeaturesRounding checks that thirds round to three decimals.
func TestMeanFeaturesRounding(t *testing.T) {
	list := []AudioFeatures{
		{Danceability: 0.1},
		{Danceability: 0.1},
		{Danceability: 0.2},
	}
	got := MeanFeatures(list)
	if got.Danceability != 0.133 {
		t.Fatalf("expected 0.133 got %v", got.Danceability)
	}
}

func TestRound3(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{0.1234, 0.123},
		{0.1236, 0.124},
		{0.9999, 1},
		{0, 0},
	}
	for _, c := range cases {
		if got := Round3(c.in); got != c.want {
			t.Errorf("Round3(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

// TestChartTruncates verifies chart values are truncated toward zero, not
// rounded, matching the rendering convention.
func TestChartTruncates(t *testing.T) {
	f := AudioFeatures{
		Danceability:     0.25,
		Speechiness:      0.005,
		Acousticness:     0.75,
		Valence:          0.999,
		Instrumentalness: 0,
		Energy:           0.5,
		Liveness:         1,
	}
	got := f.Chart()
	want := []int{25, 0, 75, 99, 0, 50, 100}
	if len(got) != len(want) {
		t.Fatalf("unexpected length %d", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chart[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestShapeError(t *testing.T) {
	err := error(&ShapeError{Entity: "album", Field: "images"})
	if err.Error() != "upstream album payload missing images" {
		t.Fatalf("unexpected message: %s", err)
	}
	var shape *ShapeError
	if !errors.As(err, &shape) || shape.Field != "images" {
		t.Fatal("expected shape error match")
	}
}

func TestUpstreamErrorUnwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := error(&UpstreamError{Endpoint: "album", Err: inner})
	if !errors.Is(err, inner) {
		t.Fatal("expected unwrap to inner error")
	}
}
