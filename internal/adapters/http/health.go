package http

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

const readyTimeout = 3 * time.Second

// HealthHandler returns a basic liveness check.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).Round(time.Second).String(),
			"version": apiVersion,
		})
	}
}

// readinessCheck reports "ok..." on success. A nil probe means the
// dependency is not configured, which never fails readiness.
type readinessCheck struct {
	name  string
	probe func(ctx context.Context) (string, error)
}

func pingCheck(name string, p Pinger) readinessCheck {
	if p == nil {
		return readinessCheck{name: name}
	}
	return readinessCheck{name: name, probe: func(ctx context.Context) (string, error) {
		return "ok", p.Ping(ctx)
	}}
}

func readinessChecks(deps *Dependencies) []readinessCheck {
	checks := []readinessCheck{
		{name: "catalog", probe: func(ctx context.Context) (string, error) {
			_, total, err := deps.Routes.ListPage(ctx, 0, 1)
			return fmt.Sprintf("ok (%d routes)", total), err
		}},
		pingCheck("database", deps.DB),
		pingCheck("cache", deps.Cache),
	}

	nats := readinessCheck{name: "nats"}
	if deps.NATS != nil {
		nats.probe = func(context.Context) (string, error) {
			if !deps.NATS.IsConnected() {
				return "", fmt.Errorf("disconnected")
			}
			return "ok", nil
		}
	}
	return append(checks, nats)
}

// ReadyHandler runs every readiness check and answers 503 if any fails.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), readyTimeout)
		defer cancel()

		results := make(map[string]string)
		ready := true
		for _, chk := range readinessChecks(deps) {
			if chk.probe == nil {
				results[chk.name] = "not configured"
				continue
			}
			msg, err := chk.probe(ctx)
			if err != nil {
				results[chk.name] = "error: " + err.Error()
				ready = false
				continue
			}
			results[chk.name] = msg
		}

		if !ready {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "not ready",
				"checks": results,
			})
		}
		return c.JSON(fiber.Map{"status": "ready", "checks": results})
	}
}
