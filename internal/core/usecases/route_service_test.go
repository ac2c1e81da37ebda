package usecases_test

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/samirrijal/ridematch/internal/core/domain"
	"github.com/samirrijal/ridematch/internal/core/usecases"
)

func line(pts ...[2]float64) []domain.GeoPoint {
	out := make([]domain.GeoPoint, len(pts))
	for i, p := range pts {
		out[i] = domain.GeoPoint{Lon: p[0], Lat: p[1]}
	}
	return out
}

func TestRouteService_Create_GeneratesID(t *testing.T) {
	var stored *domain.Route
	repo := &mockRouteRepo{
		createFn: func(ctx context.Context, r *domain.Route) error {
			stored = r
			return nil
		},
	}
	cache := newMockCache()
	pub := &mockPublisher{}

	svc := usecases.NewRouteService(repo, cache, pub)
	route, err := svc.Create(context.Background(), domain.RouteInput{
		Name:        "Ruta 1",
		Direction:   "Centro",
		Coordinates: line([2]float64{0, 0}, [2]float64{0, 1}),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if route.ID == "" {
		t.Fatal("expected generated ID")
	}
	if stored == nil || stored.ID != route.ID {
		t.Fatalf("expected repository to receive route %s", route.ID)
	}
	if route.CreatedAt.IsZero() || !route.CreatedAt.Equal(route.UpdatedAt) {
		t.Errorf("expected matching timestamps, got %v / %v", route.CreatedAt, route.UpdatedAt)
	}
	if len(cache.deleted) != 1 || cache.deleted[0] != "routes:catalog" {
		t.Errorf("expected catalog invalidation, got %v", cache.deleted)
	}
	if len(pub.routeEvents) != 1 || pub.routeEvents[0].Type != domain.RouteCreated {
		t.Fatalf("expected one created event, got %+v", pub.routeEvents)
	}
}

func TestRouteService_Create_EncodedPolyline(t *testing.T) {
	svc := usecases.NewRouteService(&mockRouteRepo{}, nil, nil)
	route, err := svc.Create(context.Background(), domain.RouteInput{
		ID:              "poly",
		Name:            "Encoded",
		EncodedPolyline: "_p~iF~ps|U_ulLnnqC_mqNvxq`@",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(route.Coordinates) != 3 {
		t.Fatalf("expected 3 decoded points, got %d", len(route.Coordinates))
	}
	if math.Abs(route.Coordinates[0].Lat-38.5) > 1e-9 || math.Abs(route.Coordinates[0].Lon+120.2) > 1e-9 {
		t.Errorf("unexpected first point %+v", route.Coordinates[0])
	}
}

func TestRouteService_Create_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   domain.RouteInput
	}{
		{"missing name", domain.RouteInput{Coordinates: line([2]float64{0, 0})}},
		{"no coordinates", domain.RouteInput{Name: "x"}},
		{"latitude out of range", domain.RouteInput{Name: "x", Coordinates: []domain.GeoPoint{{Lat: 91, Lon: 0}}}},
		{"bad polyline", domain.RouteInput{Name: "x", EncodedPolyline: "_"}},
	}

	svc := usecases.NewRouteService(&mockRouteRepo{
		createFn: func(ctx context.Context, r *domain.Route) error {
			t.Fatal("repository must not be called for invalid input")
			return nil
		},
	}, nil, nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.in)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestRouteService_Create_Conflict(t *testing.T) {
	repo := &mockRouteRepo{
		createFn: func(ctx context.Context, r *domain.Route) error { return domain.ErrConflict },
	}
	pub := &mockPublisher{}
	svc := usecases.NewRouteService(repo, nil, pub)

	_, err := svc.Create(context.Background(), domain.RouteInput{ID: "dup", Name: "x", Coordinates: line([2]float64{0, 0})})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if len(pub.routeEvents) != 0 {
		t.Errorf("expected no event on failure, got %d", len(pub.routeEvents))
	}
}

func TestRouteService_Update_KeepsCreatedAt(t *testing.T) {
	existing := &domain.Route{
		ID:          "r1",
		Name:        "Old",
		Coordinates: line([2]float64{0, 0}, [2]float64{0, 1}),
		CreatedAt:   time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
	}

	var updated *domain.Route
	repo := &mockRouteRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Route, error) { return existing, nil },
		updateFn: func(ctx context.Context, r *domain.Route) error {
			updated = r
			return nil
		},
	}
	pub := &mockPublisher{}
	svc := usecases.NewRouteService(repo, nil, pub)

	route, err := svc.Update(context.Background(), "r1", domain.RouteInput{ID: "ignored", Name: "New", Coordinates: existing.Coordinates})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if route.ID != "r1" || updated.ID != "r1" {
		t.Errorf("expected path ID to win, got %s", route.ID)
	}
	if !route.CreatedAt.Equal(existing.CreatedAt) {
		t.Errorf("expected created_at preserved")
	}
	if len(pub.routeEvents) != 1 || pub.routeEvents[0].Type != domain.RouteUpdated {
		t.Errorf("expected one updated event, got %+v", pub.routeEvents)
	}
}

func TestRouteService_Update_NotFound(t *testing.T) {
	svc := usecases.NewRouteService(&mockRouteRepo{}, nil, nil)
	_, err := svc.Update(context.Background(), "missing", domain.RouteInput{Name: "x", Coordinates: line([2]float64{0, 0})})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRouteService_Upsert(t *testing.T) {
	known := map[string]*domain.Route{"a": {ID: "a", Name: "A"}}
	var created, updated int
	repo := &mockRouteRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Route, error) {
			if r, ok := known[id]; ok {
				return r, nil
			}
			return nil, domain.ErrNotFound
		},
		createFn: func(ctx context.Context, r *domain.Route) error { created++; return nil },
		updateFn: func(ctx context.Context, r *domain.Route) error { updated++; return nil },
	}
	svc := usecases.NewRouteService(repo, nil, nil)
	coords := line([2]float64{0, 0}, [2]float64{1, 1})

	_, isNew, err := svc.Upsert(context.Background(), domain.RouteInput{ID: "a", Name: "A2", Coordinates: coords})
	if err != nil || isNew {
		t.Fatalf("expected update of a, got new=%v err=%v", isNew, err)
	}
	_, isNew, err = svc.Upsert(context.Background(), domain.RouteInput{ID: "b", Name: "B", Coordinates: coords})
	if err != nil || !isNew {
		t.Fatalf("expected create of b, got new=%v err=%v", isNew, err)
	}
	if created != 1 || updated != 1 {
		t.Errorf("expected 1 create and 1 update, got %d/%d", created, updated)
	}
}

func TestRouteService_Delete(t *testing.T) {
	var deleted string
	repo := &mockRouteRepo{
		deleteFn: func(ctx context.Context, id string) error {
			deleted = id
			return nil
		},
	}
	cache := newMockCache()
	pub := &mockPublisher{}
	svc := usecases.NewRouteService(repo, cache, pub)

	if err := svc.Delete(context.Background(), "r9"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != "r9" {
		t.Errorf("expected r9 deleted, got %q", deleted)
	}
	if len(pub.routeEvents) != 1 || pub.routeEvents[0].Type != domain.RouteDeleted || pub.routeEvents[0].Route != nil {
		t.Errorf("unexpected events %+v", pub.routeEvents)
	}
	if len(cache.deleted) != 1 {
		t.Errorf("expected cache invalidation")
	}
}

func TestRouteService_Delete_PublishFailureIsNotFatal(t *testing.T) {
	pub := &mockPublisher{err: errors.New("broker down")}
	svc := usecases.NewRouteService(&mockRouteRepo{}, nil, pub)
	if err := svc.Delete(context.Background(), "r1"); err != nil {
		t.Fatalf("expected publish failure to be swallowed, got %v", err)
	}
}

func TestRouteService_ListPage(t *testing.T) {
	catalog := []domain.Route{{ID: "1"}, {ID: "2"}, {ID: "3"}, {ID: "4"}, {ID: "5"}}
	repo := &mockRouteRepo{
		listFn: func(ctx context.Context) ([]domain.Route, error) { return catalog, nil },
	}
	svc := usecases.NewRouteService(repo, nil, nil)

	tests := []struct {
		offset, limit int
		want          []string
	}{
		{0, 2, []string{"1", "2"}},
		{3, 2, []string{"4", "5"}},
		{4, 10, []string{"5"}},
		{5, 2, nil},
		{-1, 0, []string{"1", "2", "3", "4", "5"}},
	}
	for _, tt := range tests {
		page, total, err := svc.ListPage(context.Background(), tt.offset, tt.limit)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if total != 5 {
			t.Errorf("expected total 5, got %d", total)
		}
		var got []string
		for _, r := range page {
			got = append(got, r.ID)
		}
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("offset=%d limit=%d: got %v, want %v", tt.offset, tt.limit, got, tt.want)
		}
	}
}

func TestRouteService_FindNearby(t *testing.T) {
	catalog := []domain.Route{
		{ID: "far", Name: "Far", Coordinates: line([2]float64{1, 1}, [2]float64{1, 2})},
		{ID: "mid", Name: "Mid", Coordinates: line([2]float64{0.002, -1}, [2]float64{0.002, 1})},
		{ID: "near", Name: "Near", Coordinates: line([2]float64{0.001, -1}, [2]float64{0.001, 1})},
		{ID: "stub", Name: "Stub", Coordinates: line([2]float64{0, 0})},
	}
	repo := &mockRouteRepo{
		listFn: func(ctx context.Context) ([]domain.Route, error) { return catalog, nil },
	}
	svc := usecases.NewRouteService(repo, nil, nil)

	got, err := svc.FindNearby(context.Background(), domain.GeoPoint{}, 500, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 routes, got %d", len(got))
	}
	if got[0].Route.ID != "near" || got[1].Route.ID != "mid" {
		t.Errorf("expected near then mid, got %s then %s", got[0].Route.ID, got[1].Route.ID)
	}
	if got[0].DistanceMeters < 110 || got[0].DistanceMeters > 112 {
		t.Errorf("expected ~111 m, got %f", got[0].DistanceMeters)
	}

	got, err = svc.FindNearby(context.Background(), domain.GeoPoint{}, 500, 1)
	if err != nil || len(got) != 1 {
		t.Fatalf("expected limit 1 to apply, got %d (%v)", len(got), err)
	}
}

func TestRouteService_FindNearby_BadRadius(t *testing.T) {
	svc := usecases.NewRouteService(&mockRouteRepo{}, nil, nil)
	for _, r := range []float64{0, -5, 1e9} {
		if _, err := svc.FindNearby(context.Background(), domain.GeoPoint{}, r, 5); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("radius %v: expected ErrValidation, got %v", r, err)
		}
	}
}

func TestRouteService_ExportKML(t *testing.T) {
	repo := &mockRouteRepo{
		listFn: func(ctx context.Context) ([]domain.Route, error) {
			return []domain.Route{{ID: "r1", Name: "Ruta", Coordinates: line([2]float64{0, 0}, [2]float64{0, 1})}}, nil
		},
	}
	svc := usecases.NewRouteService(repo, nil, nil)

	var buf bytes.Buffer
	if err := svc.ExportKML(context.Background(), &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "<name>Ruta</name>") {
		t.Errorf("expected placemark for Ruta, got %s", buf.String())
	}
}
