// Package kmlexport renders the route catalog as a KML document.
package kmlexport

import (
	"fmt"
	"io"
	"strings"

	"github.com/twpayne/go-kml"

	"github.com/samirrijal/ridematch/internal/core/domain"
)

// Encode writes an XML header and one Placemark per route. Routes with a single coordinate are
// emitted as Points, longer ones as tessellated LineStrings.
func Encode(w io.Writer, name string, routes []domain.Route) error {
	doc := kml.Document(kml.Name(name))
	for i := range routes {
		doc.Add(placemark(&routes[i]))
	}
	if err := kml.KML(doc).WriteIndent(w, "", "  "); err != nil {
		return fmt.Errorf("write kml: %w", err)
	}
	return nil
}

func placemark(r *domain.Route) kml.Element {
	coords := make([]kml.Coordinate, 0, len(r.Coordinates))
	for _, p := range r.Coordinates {
		coords = append(coords, kml.Coordinate{Lon: p.Lon, Lat: p.Lat})
	}

	var geom kml.Element
	if len(coords) == 1 {
		geom = kml.Point(kml.Coordinates(coords...))
	} else {
		geom = kml.LineString(kml.Tessellate(true), kml.Coordinates(coords...))
	}

	return kml.Placemark(
		kml.Name(r.Name),
		kml.Description(describe(r)),
		geom,
	)
}

func describe(r *domain.Route) string {
	parts := []string{"id: " + r.ID}
	if r.Direction != "" {
		parts = append(parts, "direction: "+r.Direction)
	}
	if r.District != "" {
		parts = append(parts, "district: "+r.District)
	}
	return strings.Join(parts, "\n")
}
