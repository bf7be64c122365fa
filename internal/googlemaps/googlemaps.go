// Package googlemaps adapts the Google Maps Geocoding, Directions and Places
// web services to route.Resolver and places.Provider.
package googlemaps

import (
	"context"
	"fmt"
	"strings"
	"time"

	"googlemaps.github.io/maps"

	"github.com/famolydrive/drivequiz/internal/drivequiz"
	"github.com/famolydrive/drivequiz/internal/metrics"
	"github.com/famolydrive/drivequiz/internal/places"
)

const (
	DefaultLanguage    = "ja"
	DefaultCallTimeout = 5 * time.Second
)

type Options struct {
	Language string
	// CallTimeout bounds each web service request.
	CallTimeout time.Duration
	// BaseURL is only set in tests.
	BaseURL string
}

type Client struct {
	api  *maps.Client
	opts Options
}

// New builds a client for apiKey.
func New(apiKey string, opts Options) (*Client, error) {
	copts := []maps.ClientOption{maps.WithAPIKey(apiKey)}
	if opts.BaseURL != "" {
		copts = append(copts, maps.WithBaseURL(opts.BaseURL))
	}
	api, err := maps.NewClient(copts...)
	if err != nil {
		return nil, fmt.Errorf("creating maps client: %w", err)
	}
	if opts.Language == "" {
		opts.Language = DefaultLanguage
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = DefaultCallTimeout
	}
	return &Client{api: api, opts: opts}, nil
}

func (c *Client) call(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.opts.CallTimeout)
}

func coord(l maps.LatLng) drivequiz.Coordinate {
	return drivequiz.Coordinate{Lat: l.Lat, Lng: l.Lng}
}

// Resolve geocodes both endpoints and requests driving directions between
// them. Every failure is reported as drivequiz.ErrRouteNotFound.
func (c *Client) Resolve(ctx context.Context, origin, destination string) (drivequiz.Route, error) {
	from, err := c.geocode(ctx, origin)
	if err != nil {
		return drivequiz.Route{}, err
	}
	to, err := c.geocode(ctx, destination)
	if err != nil {
		return drivequiz.Route{}, err
	}

	dctx, cancel := c.call(ctx)
	defer cancel()
	routes, _, err := c.api.Directions(dctx, &maps.DirectionsRequest{
		Origin:      origin,
		Destination: destination,
		Mode:        maps.TravelModeDriving,
		Language:    c.opts.Language,
	})
	if err != nil {
		metrics.ProviderFailures.WithLabelValues("maps", "directions").Inc()
		return drivequiz.Route{}, fmt.Errorf("%w: directions: %v", drivequiz.ErrRouteNotFound, err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return drivequiz.Route{}, fmt.Errorf("%w: no driving route", drivequiz.ErrRouteNotFound)
	}

	leg := routes[0].Legs[0]
	out := drivequiz.Route{
		Origin:       origin,
		Destination:  destination,
		OriginCoords: from,
		DestCoords:   to,
		Distance:     leg.Distance.HumanReadable,
		Duration:     FormatDuration(leg.Duration),
		Polyline:     routes[0].OverviewPolyline.Points,
	}
	for _, s := range leg.Steps {
		out.Steps = append(out.Steps, drivequiz.Step{
			Instruction: s.HTMLInstructions,
			Distance:    s.Distance.HumanReadable,
			Duration:    FormatDuration(s.Duration),
			Start:       coord(s.StartLocation),
			End:         coord(s.EndLocation),
		})
	}
	return out, nil
}

func (c *Client) geocode(ctx context.Context, address string) (drivequiz.Coordinate, error) {
	if strings.TrimSpace(address) == "" {
		return drivequiz.Coordinate{}, fmt.Errorf("%w: empty address", drivequiz.ErrRouteNotFound)
	}
	ctx, cancel := c.call(ctx)
	defer cancel()
	res, err := c.api.Geocode(ctx, &maps.GeocodingRequest{
		Address:  address,
		Language: c.opts.Language,
	})
	if err != nil {
		metrics.ProviderFailures.WithLabelValues("maps", "geocode").Inc()
		return drivequiz.Coordinate{}, fmt.Errorf("%w: geocoding %q: %v", drivequiz.ErrRouteNotFound, address, err)
	}
	if len(res) == 0 {
		return drivequiz.Coordinate{}, fmt.Errorf("%w: no match for %q", drivequiz.ErrRouteNotFound, address)
	}
	return coord(res[0].Geometry.Location), nil
}

// FormatDuration renders d the way the directions UI shows it, e.g.
// "1時間 15分" or "12分".
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%d時間 %d分", h, m)
	case h > 0:
		return fmt.Sprintf("%d時間", h)
	default:
		return fmt.Sprintf("%d分", m)
	}
}

// Nearby runs a keyword Nearby Search around q.Location.
func (c *Client) Nearby(ctx context.Context, q places.NearbyQuery) ([]places.Candidate, error) {
	ctx, cancel := c.call(ctx)
	defer cancel()
	resp, err := c.api.NearbySearch(ctx, &maps.NearbySearchRequest{
		Location: &maps.LatLng{Lat: q.Location.Lat, Lng: q.Location.Lng},
		Radius:   uint(q.RadiusMeters),
		Keyword:  q.Keyword,
		Language: c.opts.Language,
	})
	if err != nil {
		return nil, fmt.Errorf("nearby search: %w", err)
	}

	out := make([]places.Candidate, 0, len(resp.Results))
	for _, r := range resp.Results {
		out = append(out, places.Candidate{
			PlaceID:  r.PlaceID,
			Name:     r.Name,
			Location: coord(r.Geometry.Location),
			Types:    r.Types,
			Vicinity: r.Vicinity,
		})
	}
	return out, nil
}

var detailFields = []maps.PlaceDetailsFieldMask{
	maps.PlaceDetailsFieldMaskName,
	maps.PlaceDetailsFieldMaskFormattedAddress,
	maps.PlaceDetailsFieldMaskGeometry,
	maps.PlaceDetailsFieldMaskTypes,
}

// Details fetches name, address, geometry and types for one place.
func (c *Client) Details(ctx context.Context, placeID string) (places.Details, error) {
	ctx, cancel := c.call(ctx)
	defer cancel()
	r, err := c.api.PlaceDetails(ctx, &maps.PlaceDetailsRequest{
		PlaceID:  placeID,
		Language: c.opts.Language,
		Fields:   detailFields,
	})
	if err != nil {
		return places.Details{}, fmt.Errorf("place details %s: %w", placeID, err)
	}
	return places.Details{
		Name:             r.Name,
		FormattedAddress: r.FormattedAddress,
		Location:         coord(r.Geometry.Location),
		Types:            r.Types,
	}, nil
}
