package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/ridematch/internal/core/domain"
	"github.com/samirrijal/ridematch/internal/core/matcher"
	"github.com/samirrijal/ridematch/internal/core/ports"
	"github.com/samirrijal/ridematch/internal/pkg/metrics"
)

var tracer = otel.Tracer("github.com/samirrijal/ridematch/internal/core/usecases")

// MatchOptions tunes MatchService.
type MatchOptions struct {
	// DefaultThreshold applies when a query carries no threshold.
	DefaultThreshold float64
	// MaxThreshold rejects queries asking for more. Zero disables the cap.
	MaxThreshold float64
	// CatalogTTL is how long, in seconds, the cached catalog snapshot lives.
	CatalogTTL int
}

// MatchService answers origin/destination queries against the route catalog.
type MatchService struct {
	routes    ports.RouteRepository
	cache     ports.CacheService
	publisher ports.EventPublisher
	opts      MatchOptions
	now       func() time.Time
}

// NewMatchService creates a new MatchService. cache and publisher may be nil.
func NewMatchService(routes ports.RouteRepository, cache ports.CacheService, publisher ports.EventPublisher, opts MatchOptions) *MatchService {
	if opts.DefaultThreshold <= 0 {
		opts.DefaultThreshold = domain.DefaultThresholdMeters
	}
	if opts.CatalogTTL <= 0 {
		opts.CatalogTTL = 60
	}
	return &MatchService{routes: routes, cache: cache, publisher: publisher, opts: opts, now: time.Now}
}

// Plan finds a single-ride or two-ride plan for the query. Not finding one is
// not an error: the result has Found set to false and a nil Plan.
func (s *MatchService) Plan(ctx context.Context, q domain.MatchQuery) (domain.MatchResult, error) {
	ctx, span := tracer.Start(ctx, "MatchService.Plan")
	defer span.End()

	if err := validateStruct(q); err != nil {
		span.SetStatus(codes.Error, "invalid query")
		return domain.MatchResult{}, err
	}
	threshold, err := s.threshold(q.Threshold)
	if err != nil {
		span.SetStatus(codes.Error, "invalid threshold")
		return domain.MatchResult{}, err
	}

	catalog, err := s.catalog(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "catalog load failed")
		return domain.MatchResult{}, fmt.Errorf("load catalog: %w", err)
	}

	start := time.Now()
	plan, found := matcher.Match(q.Origin, q.Destination, catalog, threshold)
	metrics.MatchDuration.Observe(time.Since(start).Seconds())

	kind := "none"
	if found {
		kind = string(plan.Kind)
	}
	metrics.MatchRequests.WithLabelValues(kind).Inc()
	span.SetAttributes(
		attribute.Int("catalog.routes", len(catalog)),
		attribute.Float64("match.threshold", threshold),
		attribute.String("match.kind", kind),
	)

	q.Threshold = threshold
	s.publish(ctx, q, plan, found)

	res := domain.MatchResult{Found: found, Threshold: threshold}
	if found {
		res.Plan = &plan
	}
	return res, nil
}

// InvalidateCatalog drops the cached catalog snapshot so the next query
// reloads it from the repository.
func (s *MatchService) InvalidateCatalog(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, catalogCacheKey)
}

func (s *MatchService) threshold(requested float64) (float64, error) {
	t := requested
	if t <= 0 {
		t = s.opts.DefaultThreshold
	}
	if s.opts.MaxThreshold > 0 && t > s.opts.MaxThreshold {
		return 0, fmt.Errorf("%w: threshold %.0f exceeds maximum %.0f", domain.ErrValidation, t, s.opts.MaxThreshold)
	}
	return t, nil
}

// catalog returns a read-only snapshot, through the cache when configured.
func (s *MatchService) catalog(ctx context.Context) ([]domain.Route, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, catalogCacheKey); err == nil {
			var routes []domain.Route
			if err := json.Unmarshal(data, &routes); err == nil {
				metrics.CacheHits.WithLabelValues("catalog").Inc()
				return routes, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("catalog").Inc()
	}

	routes, err := s.routes.List(ctx)
	if err != nil {
		return nil, err
	}
	metrics.CatalogRoutes.Set(float64(len(routes)))

	if s.cache != nil {
		if data, err := json.Marshal(routes); err == nil {
			_ = s.cache.Set(ctx, catalogCacheKey, data, s.opts.CatalogTTL)
		}
	}
	return routes, nil
}

func (s *MatchService) publish(ctx context.Context, q domain.MatchQuery, plan domain.MatchPlan, found bool) {
	if s.publisher == nil {
		return
	}
	ev := &domain.MatchEvent{Query: q, Found: found, Time: s.now().UTC()}
	if found {
		ev.Kind = plan.Kind
		for _, r := range plan.Routes {
			ev.RouteIDs = append(ev.RouteIDs, r.ID)
		}
	}
	if err := s.publisher.PublishMatch(ctx, ev); err != nil {
		slog.Warn("match event publish failed", "error", err)
	}
}
