package ports

import (
	"context"

	"github.com/samirrijal/ridematch/internal/core/domain"
)

// RouteRepository persists the route catalog.
//
// List returns routes in insertion order. The returned slice is a snapshot:
// implementations never modify it after returning, so callers may read it
// without further locking while other goroutines mutate the catalog.
type RouteRepository interface {
	List(ctx context.Context) ([]domain.Route, error)
	GetByID(ctx context.Context, id string) (*domain.Route, error)
	Create(ctx context.Context, route *domain.Route) error
	Update(ctx context.Context, route *domain.Route) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}
