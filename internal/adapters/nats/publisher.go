package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/ridematch/internal/core/domain"
)

const (
	// StreamName is the JetStream stream holding every ridematch event.
	StreamName = "RIDEMATCH_EVENTS"
	// SubjectAll matches every subject published by this package.
	SubjectAll = "ridematch.>"
	// SubjectRoutes matches route catalog mutations.
	SubjectRoutes = "ridematch.routes.>"
	// SubjectMatches matches match outcomes.
	SubjectMatches = "ridematch.matches.>"
)

// RouteSubject returns the subject a route event is published on.
func RouteSubject(t domain.RouteEventType) string {
	return "ridematch.routes." + string(t)
}

// MatchSubject returns the subject a match event is published on. Misses go
// to ridematch.matches.none.
func MatchSubject(ev *domain.MatchEvent) string {
	if !ev.Found || ev.Kind == "" {
		return "ridematch.matches.none"
	}
	return "ridematch.matches." + string(ev.Kind)
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and ensures the event stream exists.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := &nats.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{SubjectAll},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(cfg); err != nil {
			conn.Close()
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

func (p *Publisher) PublishRouteEvent(ctx context.Context, event *domain.RouteEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(RouteSubject(event.Type), data, nats.Context(ctx))
	return err
}

func (p *Publisher) PublishMatch(ctx context.Context, event *domain.MatchEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(MatchSubject(event), data, nats.Context(ctx))
	return err
}

// Ping reports whether the connection is up.
func (p *Publisher) Ping(_ context.Context) error {
	if !p.conn.IsConnected() {
		return fmt.Errorf("nats status %s", p.conn.Status())
	}
	return nil
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("ridematch"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
