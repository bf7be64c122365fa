// Package places finds historical venues near the sample points of a route.
package places

import (
	"context"
	"log/slog"
	"time"

	"github.com/famolydrive/drivequiz/internal/classify"
	"github.com/famolydrive/drivequiz/internal/drivequiz"
	"github.com/famolydrive/drivequiz/internal/metrics"
)

// NearbyQuery is one category search around a coordinate.
type NearbyQuery struct {
	Location     drivequiz.Coordinate
	RadiusMeters int
	Keyword      string
}

// Candidate is a ranked search hit.
type Candidate struct {
	PlaceID  string
	Name     string
	Location drivequiz.Coordinate
	Types    []string
	Vicinity string
}

// Details is the enriched record for one place.
type Details struct {
	Name             string
	FormattedAddress string
	Location         drivequiz.Coordinate
	Types            []string
}

// Provider is the places search capability the locator consumes.
type Provider interface {
	Nearby(ctx context.Context, q NearbyQuery) ([]Candidate, error)
	Details(ctx context.Context, placeID string) (Details, error)
}

// DefaultKeywords rotate across sample points.
var DefaultKeywords = []string{"神社", "寺", "城", "史跡", "博物館"}

const (
	DefaultRadiusMeters = 3000
	MinRadiusMeters     = 3000
	MaxRadiusMeters     = 5000
	DefaultMaxResults   = 5
	DefaultPerPoint     = 2
	DefaultCallTimeout  = 5 * time.Second
)

type Options struct {
	Keywords     []string
	RadiusMeters int
	MaxResults   int
	PerPoint     int
	// SkipDetails uses the search hit as is instead of looking up details.
	SkipDetails bool
	CallTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if len(o.Keywords) == 0 {
		o.Keywords = DefaultKeywords
	}
	if o.RadiusMeters == 0 {
		o.RadiusMeters = DefaultRadiusMeters
	}
	o.RadiusMeters = min(max(o.RadiusMeters, MinRadiusMeters), MaxRadiusMeters)
	if o.MaxResults <= 0 {
		o.MaxResults = DefaultMaxResults
	}
	if o.PerPoint <= 0 {
		o.PerPoint = DefaultPerPoint
	}
	if o.CallTimeout <= 0 {
		o.CallTimeout = DefaultCallTimeout
	}
	return o
}

type Locator struct {
	provider Provider
	opts     Options
	logger   *slog.Logger
}

func NewLocator(provider Provider, opts Options, logger *slog.Logger) *Locator {
	return &Locator{provider: provider, opts: opts.withDefaults(), logger: logger}
}

// Locate searches around each point in order and returns up to MaxResults
// classified spots with pairwise distinct place ids. Provider failures are
// logged and skipped; Locate itself never fails.
func (l *Locator) Locate(ctx context.Context, points []drivequiz.Coordinate) []drivequiz.HistoricalSpot {
	seen := make(map[string]struct{})
	spots := make([]drivequiz.HistoricalSpot, 0, l.opts.MaxResults)

	for i, p := range points {
		if len(spots) >= l.opts.MaxResults {
			break
		}
		if ctx.Err() != nil {
			break
		}

		keyword := l.opts.Keywords[i%len(l.opts.Keywords)]
		candidates, err := l.nearby(ctx, NearbyQuery{
			Location:     p,
			RadiusMeters: l.opts.RadiusMeters,
			Keyword:      keyword,
		})
		if err != nil {
			metrics.ProviderFailures.WithLabelValues("places", "nearby").Inc()
			l.logger.Warn("nearby search failed", "point", i, "keyword", keyword, "error", err)
			continue
		}

		if len(candidates) > l.opts.PerPoint {
			candidates = candidates[:l.opts.PerPoint]
		}
		for _, c := range candidates {
			if len(spots) >= l.opts.MaxResults {
				break
			}
			if c.PlaceID == "" {
				continue
			}
			if _, dup := seen[c.PlaceID]; dup {
				continue
			}
			seen[c.PlaceID] = struct{}{}

			spot, ok := l.enrich(ctx, c)
			if !ok {
				continue
			}
			spots = append(spots, classify.Apply(spot))
		}
	}
	return spots
}

func (l *Locator) nearby(ctx context.Context, q NearbyQuery) ([]Candidate, error) {
	ctx, cancel := context.WithTimeout(ctx, l.opts.CallTimeout)
	defer cancel()
	return l.provider.Nearby(ctx, q)
}

func (l *Locator) enrich(ctx context.Context, c Candidate) (drivequiz.HistoricalSpot, bool) {
	spot := drivequiz.HistoricalSpot{
		PlaceID:  c.PlaceID,
		Name:     c.Name,
		Address:  c.Vicinity,
		Location: c.Location,
		Types:    c.Types,
	}
	if l.opts.SkipDetails {
		return spot, true
	}

	ctx, cancel := context.WithTimeout(ctx, l.opts.CallTimeout)
	defer cancel()

	d, err := l.provider.Details(ctx, c.PlaceID)
	if err != nil {
		metrics.ProviderFailures.WithLabelValues("places", "details").Inc()
		l.logger.Warn("place details failed", "place_id", c.PlaceID, "error", err)
		return spot, false
	}

	if d.Name != "" {
		spot.Name = d.Name
	}
	if d.FormattedAddress != "" {
		spot.Address = d.FormattedAddress
	}
	if d.Location != (drivequiz.Coordinate{}) {
		spot.Location = d.Location
	}
	if len(d.Types) > 0 {
		spot.Types = d.Types
	}
	return spot, true
}
