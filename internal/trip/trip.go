// Package trip turns an origin and destination into a route and the
// historical spots along it. The HTTP server and the CLI both call Search.
package trip

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/famolydrive/drivequiz/internal/config"
	"github.com/famolydrive/drivequiz/internal/drivequiz"
	"github.com/famolydrive/drivequiz/internal/googlemaps"
	"github.com/famolydrive/drivequiz/internal/metrics"
	"github.com/famolydrive/drivequiz/internal/places"
	"github.com/famolydrive/drivequiz/internal/route"
)

// Locator finds spots near sample points.
type Locator interface {
	Locate(ctx context.Context, points []drivequiz.Coordinate) []drivequiz.HistoricalSpot
}

type Result struct {
	Route drivequiz.Route            `json:"route"`
	Spots []drivequiz.HistoricalSpot `json:"historicalSpots"`
	// UsedSample is set when no spot was found and the fixed sample spots
	// were returned instead.
	UsedSample bool `json:"usedSample"`
}

type Planner struct {
	resolver route.Resolver
	locator  Locator
	samples  int
	logger   *slog.Logger
}

// NewPlanner builds a planner taking samples points along each route.
func NewPlanner(resolver route.Resolver, locator Locator, samples int, logger *slog.Logger) *Planner {
	if samples < 1 {
		samples = route.DefaultSamples
	}
	return &Planner{resolver: resolver, locator: locator, samples: samples, logger: logger}
}

// Search resolves the route, samples its path and locates spots near the
// samples. Only a resolution failure is returned as an error.
func (p *Planner) Search(ctx context.Context, origin, destination string) (Result, error) {
	r, err := p.resolver.Resolve(ctx, origin, destination)
	if err != nil {
		if !errors.Is(err, drivequiz.ErrRouteNotFound) {
			err = fmt.Errorf("%w: %v", drivequiz.ErrRouteNotFound, err)
		}
		p.logger.Info("route not resolved", "origin", origin, "destination", destination, "error", err)
		return Result{}, err
	}

	points, err := route.SamplePath(r.Polyline, p.samples)
	if err != nil {
		p.logger.Warn("decoding route polyline", "error", err)
	}

	spots := p.locator.Locate(ctx, points)
	if len(spots) == 0 {
		metrics.SampleFallbacks.Inc()
		p.logger.Info("no spots found, using samples", "origin", origin, "destination", destination)
		return Result{Route: r, Spots: places.SampleSpots(), UsedSample: true}, nil
	}
	return Result{Route: r, Spots: spots}, nil
}

// NewFromConfig wires Google Maps when a key is configured. Without one the
// fixed sample route is served and every search ends in the sample spots.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Planner, error) {
	if !cfg.LiveMaps() {
		logger.Warn("GOOGLE_MAPS_API_KEY not set, serving the sample route")
		return NewPlanner(route.SampleResolver{}, noLocator{}, cfg.SamplePoints, logger), nil
	}

	gm, err := googlemaps.New(cfg.GoogleMapsAPIKey, googlemaps.Options{
		Language:    cfg.MapsLanguage,
		CallTimeout: cfg.MapsTimeout,
	})
	if err != nil {
		return nil, err
	}
	locator := places.NewLocator(gm, places.Options{
		RadiusMeters: cfg.SearchRadiusMeters,
		MaxResults:   cfg.MaxSpots,
		CallTimeout:  cfg.MapsTimeout,
	}, logger)
	return NewPlanner(gm, locator, cfg.SamplePoints, logger), nil
}

// noLocator finds nothing, so the planner falls back to the sample spots.
type noLocator struct{}

func (noLocator) Locate(context.Context, []drivequiz.Coordinate) []drivequiz.HistoricalSpot {
	return nil
}
