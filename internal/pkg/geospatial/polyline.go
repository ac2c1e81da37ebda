package geospatial

import (
	"fmt"
	"math"

	"github.com/twpayne/go-polyline"

	"github.com/samirrijal/ridematch/internal/core/domain"
)

// DistanceToSegment returns the great-circle distance from p to the closest
// point of segment [a,b].
//
// The projection parameter is computed on raw (lon, lat) degrees, treating the
// segment as locally planar. That is accurate enough for short urban segments
// but drifts near the poles and on segments spanning many degrees.
func DistanceToSegment(p, a, b domain.GeoPoint) float64 {
	return Distance(p, ClosestPointOnSegment(p, a, b))
}

// ClosestPointOnSegment returns the point of [a,b] selected by the clamped
// planar projection of p.
func ClosestPointOnSegment(p, a, b domain.GeoPoint) domain.GeoPoint {
	if a.Equal(b) {
		return a
	}

	dx := b.Lon - a.Lon
	dy := b.Lat - a.Lat
	t := ((p.Lon-a.Lon)*dx + (p.Lat-a.Lat)*dy) / (dx*dx + dy*dy)

	switch {
	case t <= 0:
		return a
	case t >= 1:
		return b
	default:
		return domain.GeoPoint{Lat: a.Lat + t*dy, Lon: a.Lon + t*dx}
	}
}

// DistanceToPolyline returns the minimum distance from p to any segment of
// line. Lines with fewer than two points have no segments and yield +Inf, so
// they never fall inside a finite threshold.
func DistanceToPolyline(p domain.GeoPoint, line []domain.GeoPoint) float64 {
	minDist := math.Inf(1)
	for i := 0; i+1 < len(line); i++ {
		if d := DistanceToSegment(p, line[i], line[i+1]); d < minDist {
			minDist = d
		}
	}
	return minDist
}

// PolylineBounds returns the bounding box of line. ok is false for an empty line.
func PolylineBounds(line []domain.GeoPoint) (b domain.Bounds, ok bool) {
	if len(line) == 0 {
		return domain.Bounds{}, false
	}
	b = domain.Bounds{MinLat: line[0].Lat, MaxLat: line[0].Lat, MinLon: line[0].Lon, MaxLon: line[0].Lon}
	for _, p := range line[1:] {
		b.MinLat = math.Min(b.MinLat, p.Lat)
		b.MaxLat = math.Max(b.MaxLat, p.Lat)
		b.MinLon = math.Min(b.MinLon, p.Lon)
		b.MaxLon = math.Max(b.MaxLon, p.Lon)
	}
	return b, true
}

// DecodePolyline decodes a Google encoded polyline string.
func DecodePolyline(encoded string) ([]domain.GeoPoint, error) {
	if encoded == "" {
		return nil, fmt.Errorf("encoded polyline is empty")
	}

	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("decode polyline: %w", err)
	}

	points := make([]domain.GeoPoint, len(coords))
	for i, c := range coords {
		points[i] = domain.GeoPoint{Lat: c[0], Lon: c[1]}
	}
	return points, nil
}

// EncodePolyline encodes points with the Google polyline algorithm.
func EncodePolyline(points []domain.GeoPoint) string {
	coords := make([][]float64, len(points))
	for i, p := range points {
		coords[i] = []float64{p.Lat, p.Lon}
	}
	return string(polyline.EncodeCoords(coords))
}
