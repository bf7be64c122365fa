// Package kmlexport renders a route and its spots as a KML document that
// mapping applications can open.
package kmlexport

import (
	"fmt"
	"io"

	"github.com/twpayne/go-kml/v2"

	"github.com/famolydrive/drivequiz/internal/drivequiz"
	"github.com/famolydrive/drivequiz/internal/route"
)

const ContentType = "application/vnd.google-earth.kml+xml"

// Write renders r as a line placemark followed by one point placemark per
// spot. A route whose polyline cannot be decoded is drawn straight from
// origin to destination.
func Write(w io.Writer, r drivequiz.Route, spots []drivequiz.HistoricalSpot) error {
	path, err := route.Decode(r.Polyline)
	if err != nil || len(path) == 0 {
		path = []drivequiz.Coordinate{r.OriginCoords, r.DestCoords}
	}

	line := make([]kml.Coordinate, len(path))
	for i, c := range path {
		line[i] = kml.Coordinate{Lon: c.Lng, Lat: c.Lat}
	}

	title := fmt.Sprintf("%s → %s", r.Origin, r.Destination)
	children := []kml.Element{
		kml.Name(title),
		kml.Placemark(
			kml.Name(title),
			kml.Description(fmt.Sprintf("%s / %s", r.Distance, r.Duration)),
			kml.LineString(
				kml.Tessellate(true),
				kml.Coordinates(line...),
			),
		),
	}
	for _, s := range spots {
		children = append(children, kml.Placemark(
			kml.Name(s.Name),
			kml.Description(fmt.Sprintf("%s\n%s (%s)", s.Description, s.Address, s.Difficulty.Label())),
			kml.Point(
				kml.Coordinates(kml.Coordinate{Lon: s.Location.Lng, Lat: s.Location.Lat}),
			),
		))
	}

	return kml.KML(kml.Document(children...)).WriteIndent(w, "", "  ")
}
