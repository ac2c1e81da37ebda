package usecases

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/ridematch/internal/core/domain"
	"github.com/samirrijal/ridematch/internal/core/ports"
	"github.com/samirrijal/ridematch/internal/pkg/geospatial"
	"github.com/samirrijal/ridematch/internal/pkg/kmlexport"
	"github.com/samirrijal/ridematch/internal/pkg/metrics"
)

// catalogCacheKey holds the serialized catalog snapshot used by MatchService.
const catalogCacheKey = "routes:catalog"

const (
	defaultNearbyLimit = 10
	maxNearbyLimit     = 50
	maxNearbyRadius    = 50000.0
)

// RouteService handles route catalog business logic.
type RouteService struct {
	routes    ports.RouteRepository
	cache     ports.CacheService
	publisher ports.EventPublisher
	now       func() time.Time
}

// NewRouteService creates a new RouteService. cache and publisher may be nil.
func NewRouteService(routes ports.RouteRepository, cache ports.CacheService, publisher ports.EventPublisher) *RouteService {
	return &RouteService{routes: routes, cache: cache, publisher: publisher, now: time.Now}
}

// List returns the whole catalog in insertion order.
func (s *RouteService) List(ctx context.Context) ([]domain.Route, error) {
	return s.routes.List(ctx)
}

// ListPage returns one page of the catalog together with the total count.
func (s *RouteService) ListPage(ctx context.Context, offset, limit int) ([]domain.Route, int, error) {
	all, err := s.routes.List(ctx)
	if err != nil {
		return nil, 0, err
	}
	total := len(all)
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []domain.Route{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return all[offset:end], total, nil
}

// GetByID returns a route by ID.
func (s *RouteService) GetByID(ctx context.Context, id string) (*domain.Route, error) {
	return s.routes.GetByID(ctx, id)
}

// Create validates the input and appends a new route to the catalog. An empty
// ID is replaced with a random UUID.
func (s *RouteService) Create(ctx context.Context, in domain.RouteInput) (*domain.Route, error) {
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	route, err := buildRoute(in)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	route.CreatedAt, route.UpdatedAt = now, now

	if err := s.routes.Create(ctx, route); err != nil {
		return nil, fmt.Errorf("create route %s: %w", route.ID, err)
	}
	s.afterMutation(ctx, domain.RouteCreated, route.ID, route)
	return route, nil
}

// Update replaces the route with the given ID. Its catalog position and
// creation time are kept.
func (s *RouteService) Update(ctx context.Context, id string, in domain.RouteInput) (*domain.Route, error) {
	existing, err := s.routes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	in.ID = id
	route, err := buildRoute(in)
	if err != nil {
		return nil, err
	}
	route.CreatedAt = existing.CreatedAt
	route.UpdatedAt = s.now().UTC()

	if err := s.routes.Update(ctx, route); err != nil {
		return nil, fmt.Errorf("update route %s: %w", id, err)
	}
	s.afterMutation(ctx, domain.RouteUpdated, id, route)
	return route, nil
}

// Upsert creates the route when its ID is unknown and replaces it otherwise.
func (s *RouteService) Upsert(ctx context.Context, in domain.RouteInput) (*domain.Route, bool, error) {
	if in.ID != "" {
		_, err := s.routes.GetByID(ctx, in.ID)
		switch {
		case err == nil:
			r, err := s.Update(ctx, in.ID, in)
			return r, false, err
		case !errors.Is(err, domain.ErrNotFound):
			return nil, false, err
		}
	}
	r, err := s.Create(ctx, in)
	return r, true, err
}

// Delete removes a route from the catalog.
func (s *RouteService) Delete(ctx context.Context, id string) error {
	if err := s.routes.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete route %s: %w", id, err)
	}
	s.afterMutation(ctx, domain.RouteDeleted, id, nil)
	return nil
}

// FindNearby returns routes whose polyline passes within radiusMeters of p,
// closest first. Routes at equal distance keep catalog order.
func (s *RouteService) FindNearby(ctx context.Context, p domain.GeoPoint, radiusMeters float64, limit int) ([]domain.RouteDistance, error) {
	if radiusMeters <= 0 || radiusMeters > maxNearbyRadius {
		return nil, fmt.Errorf("%w: radius must be in (0, %.0f]", domain.ErrValidation, maxNearbyRadius)
	}
	if limit <= 0 || limit > maxNearbyLimit {
		limit = defaultNearbyLimit
	}
	catalog, err := s.routes.List(ctx)
	if err != nil {
		return nil, err
	}

	// Padded: BoundingBox uses a flat 111.32 km per degree.
	box := geospatial.BoundsAround(p, radiusMeters*1.1)
	out := make([]domain.RouteDistance, 0)
	for _, r := range catalog {
		if !r.Matchable() {
			continue
		}
		if b, ok := geospatial.PolylineBounds(r.Coordinates); !ok || !box.Intersects(b) {
			continue
		}
		if d := geospatial.DistanceToPolyline(p, r.Coordinates); d <= radiusMeters {
			out = append(out, domain.RouteDistance{Route: r, DistanceMeters: d})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceMeters < out[j].DistanceMeters
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ExportKML writes the catalog as a KML document.
func (s *RouteService) ExportKML(ctx context.Context, w io.Writer) error {
	catalog, err := s.routes.List(ctx)
	if err != nil {
		return err
	}
	return kmlexport.Encode(w, "ridematch routes", catalog)
}

func (s *RouteService) afterMutation(ctx context.Context, typ domain.RouteEventType, id string, route *domain.Route) {
	metrics.CatalogMutations.WithLabelValues(string(typ)).Inc()
	if s.cache != nil {
		if err := s.cache.Delete(ctx, catalogCacheKey); err != nil {
			slog.Warn("catalog cache invalidation failed", "error", err)
		}
	}
	if s.publisher == nil {
		return
	}
	ev := &domain.RouteEvent{Type: typ, RouteID: id, Route: route, Time: s.now().UTC()}
	if err := s.publisher.PublishRouteEvent(ctx, ev); err != nil {
		slog.Warn("route event publish failed", "route_id", id, "type", typ, "error", err)
	}
}

func buildRoute(in domain.RouteInput) (*domain.Route, error) {
	coords := in.Coordinates
	if len(coords) == 0 && in.EncodedPolyline != "" {
		decoded, err := geospatial.DecodePolyline(in.EncodedPolyline)
		if err != nil {
			return nil, fmt.Errorf("%w: encoded_polyline: %v", domain.ErrValidation, err)
		}
		coords = decoded
	}
	route := &domain.Route{
		ID:          in.ID,
		Name:        in.Name,
		Direction:   in.Direction,
		District:    in.District,
		Coordinates: coords,
	}
	if err := validateStruct(route); err != nil {
		return nil, err
	}
	return route, nil
}
