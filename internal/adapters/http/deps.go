package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/ridematch/internal/core/usecases"
)

// Pinger is a dependency whose reachability is reported by /v1/ready.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Routes  *usecases.RouteService
	Matches *usecases.MatchService
	NATS    *nats.Conn
	DB      Pinger
	Cache   Pinger
	// AdminToken guards catalog mutations. Empty leaves them open.
	AdminToken string
}
