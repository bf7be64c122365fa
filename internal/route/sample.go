package route

import (
	"fmt"

	"googlemaps.github.io/maps"

	"github.com/famolydrive/drivequiz/internal/drivequiz"
)

// DefaultSamples is the number of sample points taken from a path when the
// caller does not ask for a specific count.
const DefaultSamples = 5

// Decode turns a Google encoded polyline into its coordinates. An empty
// string decodes to an empty path.
func Decode(encoded string) ([]drivequiz.Coordinate, error) {
	if encoded == "" {
		return nil, nil
	}
	points, err := maps.DecodePolyline(encoded)
	if err != nil {
		return nil, fmt.Errorf("decoding polyline: %w", err)
	}
	coords := make([]drivequiz.Coordinate, len(points))
	for i, p := range points {
		coords[i] = drivequiz.Coordinate{Lat: p.Lat, Lng: p.Lng}
	}
	return coords, nil
}

// Encode is the inverse of Decode.
func Encode(coords []drivequiz.Coordinate) string {
	points := make([]maps.LatLng, len(coords))
	for i, c := range coords {
		points[i] = maps.LatLng{Lat: c.Lat, Lng: c.Lng}
	}
	return maps.Encode(points)
}

// Sample picks at most n coordinates at a fixed stride of max(1, len/n),
// starting with the first one and keeping the original order. n < 1 means
// DefaultSamples.
func Sample(coords []drivequiz.Coordinate, n int) []drivequiz.Coordinate {
	if n < 1 {
		n = DefaultSamples
	}
	if len(coords) == 0 {
		return nil
	}

	stride := max(1, len(coords)/n)
	out := make([]drivequiz.Coordinate, 0, n)
	for i := 0; i < len(coords) && len(out) < n; i += stride {
		out = append(out, coords[i])
	}
	return out
}

// SamplePath decodes encoded and samples it.
func SamplePath(encoded string, n int) ([]drivequiz.Coordinate, error) {
	coords, err := Decode(encoded)
	if err != nil {
		return nil, err
	}
	return Sample(coords, n), nil
}
