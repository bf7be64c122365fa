package places

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/famolydrive/drivequiz/internal/drivequiz"
)

type fakeProvider struct {
	// nearby results keyed by the latitude of the query point.
	results     map[float64][]Candidate
	nearbyErr   map[float64]error
	detailsErr  map[string]error
	nearbyCalls []NearbyQuery
	detailCalls []string
}

func (f *fakeProvider) Nearby(_ context.Context, q NearbyQuery) ([]Candidate, error) {
	f.nearbyCalls = append(f.nearbyCalls, q)
	if err := f.nearbyErr[q.Location.Lat]; err != nil {
		return nil, err
	}
	return f.results[q.Location.Lat], nil
}

func (f *fakeProvider) Details(_ context.Context, placeID string) (Details, error) {
	f.detailCalls = append(f.detailCalls, placeID)
	if err := f.detailsErr[placeID]; err != nil {
		return Details{}, err
	}
	return Details{
		Name:             "詳細 " + placeID,
		FormattedAddress: "神奈川県 " + placeID,
		Types:            []string{"tourist_attraction"},
	}, nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func point(lat float64) drivequiz.Coordinate {
	return drivequiz.Coordinate{Lat: lat, Lng: 139}
}

func cand(id string) Candidate {
	return Candidate{PlaceID: id, Name: id, Location: drivequiz.Coordinate{Lat: 35, Lng: 139}}
}

func ids(spots []drivequiz.HistoricalSpot) []string {
	out := make([]string, len(spots))
	for i, s := range spots {
		out[i] = s.PlaceID
	}
	return out
}

func TestLocateDeduplicatesAcrossPoints(t *testing.T) {
	p := &fakeProvider{results: map[float64][]Candidate{
		35.0: {cand("X1"), cand("A")},
		35.1: {cand("X1"), cand("B")},
	}}
	l := NewLocator(p, Options{MaxResults: 10}, discard())

	spots := l.Locate(context.Background(), []drivequiz.Coordinate{point(35.0), point(35.1)})

	assert.Equal(t, []string{"X1", "A", "B"}, ids(spots))
	assert.Equal(t, []string{"X1", "A", "B"}, p.detailCalls, "duplicate must not be enriched twice")
}

func TestLocateTakesTwoPerPoint(t *testing.T) {
	p := &fakeProvider{results: map[float64][]Candidate{
		35.0: {cand("A"), cand("B"), cand("C"), cand("D")},
	}}
	l := NewLocator(p, Options{}, discard())

	spots := l.Locate(context.Background(), []drivequiz.Coordinate{point(35.0)})

	assert.Equal(t, []string{"A", "B"}, ids(spots))
}

func TestLocateStopsAtCap(t *testing.T) {
	p := &fakeProvider{results: map[float64][]Candidate{
		35.0: {cand("A"), cand("B")},
		35.1: {cand("C"), cand("D")},
		35.2: {cand("E"), cand("F")},
	}}
	l := NewLocator(p, Options{MaxResults: 3}, discard())

	spots := l.Locate(context.Background(), []drivequiz.Coordinate{point(35.0), point(35.1), point(35.2)})

	assert.Equal(t, []string{"A", "B", "C"}, ids(spots))
	assert.Len(t, p.nearbyCalls, 2, "search for the third point must be short-circuited")
}

func TestLocateSkipsFailingPoint(t *testing.T) {
	p := &fakeProvider{
		results: map[float64][]Candidate{
			35.1: {cand("B")},
		},
		nearbyErr: map[float64]error{35.0: errors.New("OVER_QUERY_LIMIT")},
	}
	l := NewLocator(p, Options{}, discard())

	spots := l.Locate(context.Background(), []drivequiz.Coordinate{point(35.0), point(35.1)})

	assert.Equal(t, []string{"B"}, ids(spots))
}

func TestLocateOmitsVenueWhenDetailsFail(t *testing.T) {
	p := &fakeProvider{
		results: map[float64][]Candidate{
			35.0: {cand("A"), cand("B")},
			35.1: {cand("A")},
		},
		detailsErr: map[string]error{"A": errors.New("timeout")},
	}
	l := NewLocator(p, Options{}, discard())

	spots := l.Locate(context.Background(), []drivequiz.Coordinate{point(35.0), point(35.1)})

	require.Equal(t, []string{"B"}, ids(spots))
	assert.Equal(t, "詳細 B", spots[0].Name)
	assert.Equal(t, "神奈川県 B", spots[0].Address)
	assert.NotEmpty(t, spots[0].Description)
	assert.True(t, spots[0].Difficulty.Valid())
}

func TestLocateRotatesKeywords(t *testing.T) {
	p := &fakeProvider{}
	l := NewLocator(p, Options{Keywords: []string{"神社", "寺"}}, discard())

	l.Locate(context.Background(), []drivequiz.Coordinate{point(1), point(2), point(3)})

	require.Len(t, p.nearbyCalls, 3)
	assert.Equal(t, "神社", p.nearbyCalls[0].Keyword)
	assert.Equal(t, "寺", p.nearbyCalls[1].Keyword)
	assert.Equal(t, "神社", p.nearbyCalls[2].Keyword)
	assert.Equal(t, DefaultRadiusMeters, p.nearbyCalls[0].RadiusMeters)
}

func TestLocateIdsAreDistinct(t *testing.T) {
	results := make(map[float64][]Candidate)
	points := make([]drivequiz.Coordinate, 0, 8)
	for i := range 8 {
		lat := 35 + float64(i)
		points = append(points, point(lat))
		results[lat] = []Candidate{cand(fmt.Sprintf("P%d", i%3)), cand(fmt.Sprintf("P%d", (i+1)%3))}
	}
	l := NewLocator(&fakeProvider{results: results}, Options{MaxResults: 10, SkipDetails: true}, discard())

	spots := l.Locate(context.Background(), points)

	seen := map[string]bool{}
	for _, s := range spots {
		assert.False(t, seen[s.PlaceID], "duplicate %s", s.PlaceID)
		seen[s.PlaceID] = true
	}
	assert.Len(t, spots, 3)
}

func TestRadiusClamped(t *testing.T) {
	assert.Equal(t, MaxRadiusMeters, Options{RadiusMeters: 50000}.withDefaults().RadiusMeters)
	assert.Equal(t, MinRadiusMeters, Options{RadiusMeters: 100}.withDefaults().RadiusMeters)
}

func TestSampleSpots(t *testing.T) {
	spots := SampleSpots()
	require.Len(t, spots, 2)
	spots[0].Name = "changed"
	assert.Equal(t, "鎌倉大仏", SampleSpots()[0].Name)
}
