package route

import (
	"context"

	"github.com/famolydrive/drivequiz/internal/drivequiz"
)

// Resolver turns two place names into a driving route. Implementations
// return drivequiz.ErrRouteNotFound when either endpoint or the route
// between them cannot be resolved.
type Resolver interface {
	Resolve(ctx context.Context, origin, destination string) (drivequiz.Route, error)
}

// samplePolyline is a coarse twelve point trace from Tokyo Station down the
// bay to Kamakura.
const samplePolyline = "o~wxEkgatY~oCrfC~wDzh@n{FrfCndJ~{B~sKzqMjjCcaBbpGniJnzD~{BnzDn}@j}Asg@n_@r]"

// SampleResolver serves a fixed Tokyo to Kamakura route. It backs the service
// when no maps API key is configured so the rest of the flow stays usable.
type SampleResolver struct{}

func (SampleResolver) Resolve(_ context.Context, origin, destination string) (drivequiz.Route, error) {
	if origin == "" {
		origin = "東京駅"
	}
	if destination == "" {
		destination = "鎌倉駅"
	}
	return drivequiz.Route{
		Origin:       origin,
		Destination:  destination,
		OriginCoords: drivequiz.Coordinate{Lat: 35.6812, Lng: 139.7671},
		DestCoords:   drivequiz.Coordinate{Lat: 35.3197, Lng: 139.5516},
		Distance:     "55.2 km",
		Duration:     "1時間 15分",
		Polyline:     samplePolyline,
	}, nil
}
