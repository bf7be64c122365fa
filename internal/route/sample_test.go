package route

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/famolydrive/drivequiz/internal/drivequiz"
)

func line(n int) []drivequiz.Coordinate {
	coords := make([]drivequiz.Coordinate, n)
	for i := range coords {
		coords[i] = drivequiz.Coordinate{Lat: 35.0 + float64(i)/10, Lng: 139.0 + float64(i)/10}
	}
	return coords
}

func TestSampleTenPointsFive(t *testing.T) {
	coords := line(10)

	got := Sample(coords, 5)

	want := []drivequiz.Coordinate{coords[0], coords[2], coords[4], coords[6], coords[8]}
	assert.Equal(t, want, got)
}

func TestSampleBounds(t *testing.T) {
	tests := []struct {
		name    string
		points  int
		n       int
		wantLen int
	}{
		{name: "empty", points: 0, n: 5, wantLen: 0},
		{name: "fewer points than samples", points: 3, n: 5, wantLen: 3},
		{name: "exact", points: 5, n: 5, wantLen: 5},
		{name: "uneven stride truncates", points: 11, n: 5, wantLen: 5},
		{name: "single sample", points: 7, n: 1, wantLen: 1},
		{name: "zero means default", points: 50, n: 0, wantLen: DefaultSamples},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coords := line(tt.points)
			got := Sample(coords, tt.n)
			require.Len(t, got, tt.wantLen)

			n := tt.n
			if n < 1 {
				n = DefaultSamples
			}
			stride := max(1, tt.points/n)
			for i, c := range got {
				assert.Equal(t, coords[i*stride], c, "sample %d", i)
			}
		})
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	coords := []drivequiz.Coordinate{
		{Lat: 35.68124, Lng: 139.76712},
		{Lat: 35.5, Lng: 139.6},
		{Lat: 35.31972, Lng: 139.55164},
	}

	got, err := Decode(Encode(coords))
	require.NoError(t, err)
	require.Len(t, got, len(coords))
	for i := range coords {
		assert.InDelta(t, coords[i].Lat, got[i].Lat, 1e-5)
		assert.InDelta(t, coords[i].Lng, got[i].Lng, 1e-5)
	}
}

func TestSamplePathEmpty(t *testing.T) {
	got, err := SamplePath("", 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSampleResolver(t *testing.T) {
	r, err := SampleResolver{}.Resolve(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, "東京駅", r.Origin)
	assert.Equal(t, "鎌倉駅", r.Destination)

	coords, err := Decode(r.Polyline)
	require.NoError(t, err)
	assert.NotEmpty(t, coords)
}
