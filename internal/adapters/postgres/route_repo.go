package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/ridematch/internal/core/domain"
)

var tracer = otel.Tracer("github.com/samirrijal/ridematch/internal/adapters/postgres")

const uniqueViolation = "23505"

const routeColumns = `id, name, direction, district, coordinates, created_at, updated_at`

// RouteRepo implements ports.RouteRepository. Coordinates are stored as a
// JSONB array and catalog order follows the seq column.
type RouteRepo struct {
	db *DB
}

func NewRouteRepo(db *DB) *RouteRepo { return &RouteRepo{db: db} }

func (r *RouteRepo) List(ctx context.Context) ([]domain.Route, error) {
	ctx, span := tracer.Start(ctx, "RouteRepo.List")
	defer span.End()

	rows, err := r.db.Pool.Query(ctx, `SELECT `+routeColumns+` FROM routes ORDER BY seq`)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	defer rows.Close()

	routes := make([]domain.Route, 0)
	for rows.Next() {
		rt, err := scanRoute(rows)
		if err != nil {
			return nil, err
		}
		routes = append(routes, rt)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("routes", len(routes)))
	return routes, nil
}

func (r *RouteRepo) GetByID(ctx context.Context, id string) (*domain.Route, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+routeColumns+` FROM routes WHERE id = $1`, id)
	rt, err := scanRoute(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("route %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

func (r *RouteRepo) Create(ctx context.Context, route *domain.Route) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO routes (id, name, direction, district, coordinates, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, route.ID, route.Name, route.Direction, route.District, route.Coordinates,
		route.CreatedAt, route.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("route %s: %w", route.ID, domain.ErrConflict)
	}
	return err
}

func (r *RouteRepo) Update(ctx context.Context, route *domain.Route) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE routes
		SET name = $2, direction = $3, district = $4, coordinates = $5, updated_at = $6
		WHERE id = $1
	`, route.ID, route.Name, route.Direction, route.District, route.Coordinates, route.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("route %s: %w", route.ID, domain.ErrNotFound)
	}
	return nil
}

func (r *RouteRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM routes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("route %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *RouteRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM routes`).Scan(&n)
	return n, err
}

func scanRoute(row pgx.Row) (domain.Route, error) {
	var rt domain.Route
	err := row.Scan(&rt.ID, &rt.Name, &rt.Direction, &rt.District, &rt.Coordinates,
		&rt.CreatedAt, &rt.UpdatedAt)
	return rt, err
}
