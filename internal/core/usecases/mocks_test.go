package usecases_test

import (
	"context"
	"errors"
	"sync"

	"github.com/samirrijal/ridematch/internal/core/domain"
)

// --- Mock RouteRepository ---

type mockRouteRepo struct {
	listFn    func(ctx context.Context) ([]domain.Route, error)
	getByIDFn func(ctx context.Context, id string) (*domain.Route, error)
	createFn  func(ctx context.Context, r *domain.Route) error
	updateFn  func(ctx context.Context, r *domain.Route) error
	deleteFn  func(ctx context.Context, id string) error

	listCalls int
}

func (m *mockRouteRepo) List(ctx context.Context) ([]domain.Route, error) {
	m.listCalls++
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockRouteRepo) GetByID(ctx context.Context, id string) (*domain.Route, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockRouteRepo) Create(ctx context.Context, r *domain.Route) error {
	if m.createFn != nil {
		return m.createFn(ctx, r)
	}
	return nil
}

func (m *mockRouteRepo) Update(ctx context.Context, r *domain.Route) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, r)
	}
	return nil
}

func (m *mockRouteRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockRouteRepo) Count(ctx context.Context) (int, error) {
	routes, err := m.List(ctx)
	return len(routes), err
}

// --- Mock CacheService ---

var errCacheMiss = errors.New("cache miss")

type mockCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	deleted []string
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte)}
}

func (c *mockCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, errCacheMiss
	}
	return v, nil
}

func (c *mockCache) Set(_ context.Context, key string, value []byte, _ int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *mockCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	c.deleted = append(c.deleted, key)
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	routeEvents []domain.RouteEvent
	matchEvents []domain.MatchEvent
	err         error
}

func (p *mockPublisher) PublishRouteEvent(_ context.Context, ev *domain.RouteEvent) error {
	p.routeEvents = append(p.routeEvents, *ev)
	return p.err
}

func (p *mockPublisher) PublishMatch(_ context.Context, ev *domain.MatchEvent) error {
	p.matchEvents = append(p.matchEvents, *ev)
	return p.err
}
