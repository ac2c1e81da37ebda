// Package matcher answers whether one route, or a transfer between two
// routes, connects an origin to a destination.
//
// Every function is pure: it reads the catalog snapshot it is given and never
// mutates it, so a single snapshot may be shared by concurrent queries. The
// search is first-match-wins in catalog order; it does not look for the
// closest or shortest plan.
package matcher

import (
	"github.com/samirrijal/ridematch/internal/core/domain"
	"github.com/samirrijal/ridematch/internal/pkg/geospatial"
)

// Match runs the matching protocol: a single ride first, then a double ride.
// found is false when neither search succeeds. A threshold <= 0 selects
// domain.DefaultThresholdMeters.
func Match(origin, destination domain.GeoPoint, catalog []domain.Route, threshold float64) (plan domain.MatchPlan, found bool) {
	threshold = normalize(threshold)

	if plan, ok := FindSingleRide(origin, destination, catalog, threshold); ok {
		return plan, true
	}
	return FindDoubleRide(origin, destination, catalog, threshold)
}

// FindSingleRide returns the first route whose polyline lies within threshold
// of both origin and destination.
func FindSingleRide(origin, destination domain.GeoPoint, catalog []domain.Route, threshold float64) (domain.MatchPlan, bool) {
	threshold = normalize(threshold)

	for i := range catalog {
		line := catalog[i].Coordinates
		if geospatial.DistanceToPolyline(origin, line) > threshold {
			continue
		}
		if geospatial.DistanceToPolyline(destination, line) > threshold {
			continue
		}
		return domain.MatchPlan{Kind: domain.PlanSingle, Routes: []domain.Route{catalog[i]}}, true
	}
	return domain.MatchPlan{}, false
}

// FindDoubleRide looks for a first leg R near the origin and a second leg T
// near the destination, joined at one of three samples of R: its first,
// middle (by index) and last point. Search order is R in catalog order, then
// samples first/mid/last, then T in catalog order; the first hit wins.
//
// Only those three samples are tried, not the true closest approach between
// the two polylines, so some feasible transfers are missed.
func FindDoubleRide(origin, destination domain.GeoPoint, catalog []domain.Route, threshold float64) (domain.MatchPlan, bool) {
	threshold = normalize(threshold)

	// Destination distances do not depend on the first leg; compute once.
	toDest := make([]float64, len(catalog))
	for i := range catalog {
		toDest[i] = geospatial.DistanceToPolyline(destination, catalog[i].Coordinates)
	}

	for i := range catalog {
		first := &catalog[i]
		if geospatial.DistanceToPolyline(origin, first.Coordinates) > threshold {
			continue
		}

		for _, sample := range TransferSamples(first.Coordinates) {
			for j := range catalog {
				second := &catalog[j]
				if second.ID == first.ID || toDest[j] > threshold {
					continue
				}
				if geospatial.DistanceToPolyline(sample, second.Coordinates) > threshold {
					continue
				}
				transfer := sample
				return domain.MatchPlan{
					Kind:     domain.PlanDouble,
					Routes:   []domain.Route{*first, *second},
					Transfer: &transfer,
				}, true
			}
		}
	}
	return domain.MatchPlan{}, false
}

// TransferSamples returns the first, middle and last point of line, in that
// order. The middle point is line[len/2]. Short lines repeat points.
func TransferSamples(line []domain.GeoPoint) []domain.GeoPoint {
	if len(line) == 0 {
		return nil
	}
	return []domain.GeoPoint{line[0], line[len(line)/2], line[len(line)-1]}
}

func normalize(threshold float64) float64 {
	if threshold <= 0 {
		return domain.DefaultThresholdMeters
	}
	return threshold
}
