// Package memory keeps the route catalog in process memory, optionally
// persisted to a JSON file.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/samirrijal/ridematch/internal/core/domain"
)

// RouteStore implements ports.RouteRepository.
//
// Writers build a new slice and swap it in, so a slice returned by List is
// never modified afterwards.
type RouteStore struct {
	mu     sync.RWMutex
	routes []domain.Route
	index  map[string]int
	file   string
}

// NewRouteStore loads the catalog from file when it exists. An empty file
// path keeps the catalog in memory only.
func NewRouteStore(file string) (*RouteStore, error) {
	s := &RouteStore{file: file, index: map[string]int{}}
	if file == "" {
		return s, nil
	}

	data, err := os.ReadFile(file)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", file, err)
	}

	var routes []domain.Route
	if len(data) > 0 {
		if err := json.Unmarshal(data, &routes); err != nil {
			return nil, fmt.Errorf("decode catalog %s: %w", file, err)
		}
	}
	for i, r := range routes {
		if _, dup := s.index[r.ID]; dup {
			return nil, fmt.Errorf("catalog %s: duplicate route id %q", file, r.ID)
		}
		s.index[r.ID] = i
	}
	s.routes = routes
	return s, nil
}

// List returns the current snapshot in insertion order.
func (s *RouteStore) List(_ context.Context) ([]domain.Route, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.routes, nil
}

// GetByID returns a copy of the route.
func (s *RouteStore) GetByID(_ context.Context, id string) (*domain.Route, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return nil, fmt.Errorf("route %s: %w", id, domain.ErrNotFound)
	}
	r := s.routes[i]
	return &r, nil
}

// Create appends a route. The ID must be unused.
func (s *RouteStore) Create(_ context.Context, route *domain.Route) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[route.ID]; ok {
		return fmt.Errorf("route %s: %w", route.ID, domain.ErrConflict)
	}

	next := make([]domain.Route, len(s.routes), len(s.routes)+1)
	copy(next, s.routes)
	next = append(next, cloneRoute(route))
	if err := s.persist(next); err != nil {
		return err
	}
	s.index[route.ID] = len(next) - 1
	s.routes = next
	return nil
}

// Update replaces a route in place, keeping its catalog position.
func (s *RouteStore) Update(_ context.Context, route *domain.Route) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[route.ID]
	if !ok {
		return fmt.Errorf("route %s: %w", route.ID, domain.ErrNotFound)
	}

	next := slices.Clone(s.routes)
	next[i] = cloneRoute(route)
	if err := s.persist(next); err != nil {
		return err
	}
	s.routes = next
	return nil
}

// Delete removes a route. Later routes move up one position.
func (s *RouteStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("route %s: %w", id, domain.ErrNotFound)
	}

	next := make([]domain.Route, 0, len(s.routes)-1)
	next = append(next, s.routes[:i]...)
	next = append(next, s.routes[i+1:]...)
	if err := s.persist(next); err != nil {
		return err
	}

	index := make(map[string]int, len(next))
	for j, r := range next {
		index[r.ID] = j
	}
	s.routes, s.index = next, index
	return nil
}

// Count returns the number of routes.
func (s *RouteStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.routes), nil
}

// persist writes routes to a temp file next to the target and renames it
// over the target. Must be called with mu held.
func (s *RouteStore) persist(routes []domain.Route) error {
	if s.file == "" {
		return nil
	}
	if routes == nil {
		routes = []domain.Route{}
	}
	data, err := json.MarshalIndent(routes, "", "  ")
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}

	dir := filepath.Dir(s.file)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create catalog dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.file)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp catalog: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp catalog: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp catalog: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp catalog: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.file); err != nil {
		return fmt.Errorf("replace catalog: %w", err)
	}
	return nil
}

func cloneRoute(r *domain.Route) domain.Route {
	c := *r
	c.Coordinates = slices.Clone(r.Coordinates)
	return c
}
