package domain

import (
	"time"
)

// DefaultThresholdMeters is the maximum distance between a query point and a
// route polyline for the route to count as serving that point.
const DefaultThresholdMeters = 300.0

// Route is a fixed transit line described by an ordered polyline.
type Route struct {
	ID          string     `json:"id" validate:"max=128"`
	Name        string     `json:"name" validate:"required,max=200"`
	Direction   string     `json:"direction" validate:"max=200"`
	District    string     `json:"district,omitempty" validate:"max=200"`
	Coordinates []GeoPoint `json:"coordinates" validate:"required,min=1,dive"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Matchable reports whether the polyline has at least one segment.
func (r *Route) Matchable() bool {
	return len(r.Coordinates) >= 2
}

// PlanKind tags a MatchPlan.
type PlanKind string

const (
	PlanSingle PlanKind = "single"
	PlanDouble PlanKind = "double"
)

// MatchPlan is the answer to a match query. Single plans carry one route,
// double plans carry the first and second leg plus the transfer sample.
type MatchPlan struct {
	Kind     PlanKind  `json:"kind"`
	Routes   []Route   `json:"routes"`
	Transfer *GeoPoint `json:"transfer,omitempty"`
}

// MatchQuery is one origin/destination request. A zero Threshold means the
// configured default.
type MatchQuery struct {
	Origin      GeoPoint `json:"origin"`
	Destination GeoPoint `json:"destination"`
	Threshold   float64  `json:"threshold,omitempty" validate:"gte=0"`
}

// RouteEventType names a catalog mutation.
type RouteEventType string

const (
	RouteCreated RouteEventType = "created"
	RouteUpdated RouteEventType = "updated"
	RouteDeleted RouteEventType = "deleted"
)

// RouteEvent is broadcast after every catalog mutation.
type RouteEvent struct {
	Type    RouteEventType `json:"type"`
	RouteID string         `json:"route_id"`
	Route   *Route         `json:"route,omitempty"`
	Time    time.Time      `json:"time"`
}

// MatchEvent records the outcome of one match query.
type MatchEvent struct {
	Query    MatchQuery `json:"query"`
	Found    bool       `json:"found"`
	Kind     PlanKind   `json:"kind,omitempty"`
	RouteIDs []string   `json:"route_ids,omitempty"`
	Time     time.Time  `json:"time"`
}

// RouteInput is the payload accepted when creating or replacing a route.
// EncodedPolyline (Google polyline format) is used when Coordinates is empty.
type RouteInput struct {
	ID              string     `json:"id,omitempty"`
	Name            string     `json:"name"`
	Direction       string     `json:"direction"`
	District        string     `json:"district,omitempty"`
	Coordinates     []GeoPoint `json:"coordinates,omitempty"`
	EncodedPolyline string     `json:"encoded_polyline,omitempty"`
}

// RouteDistance pairs a route with its distance from a query point.
type RouteDistance struct {
	Route          Route   `json:"route"`
	DistanceMeters float64 `json:"distance_meters"`
}

// MatchResult is what a match query returns to the boundary layer. Plan is
// nil when Found is false.
type MatchResult struct {
	Found     bool       `json:"found"`
	Threshold float64    `json:"threshold"`
	Plan      *MatchPlan `json:"plan"`
}
