package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/ridematch/internal/adapters/http"
	natsadapter "github.com/samirrijal/ridematch/internal/adapters/nats"
	"github.com/samirrijal/ridematch/internal/adapters/storage"
	"github.com/samirrijal/ridematch/internal/adapters/valkey"
	"github.com/samirrijal/ridematch/internal/core/domain"
	"github.com/samirrijal/ridematch/internal/core/ports"
	"github.com/samirrijal/ridematch/internal/core/usecases"
	"github.com/samirrijal/ridematch/internal/pkg/config"
	"github.com/samirrijal/ridematch/internal/pkg/logging"
	"github.com/samirrijal/ridematch/internal/pkg/metrics"
	"github.com/samirrijal/ridematch/internal/pkg/telemetry"
)

const serviceName = "ridematch-api"

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logging.Setup(cfg.Log.Level, cfg.Log.Format, serviceName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Catalog store
	store, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer store.Close()

	deps := &http.Dependencies{AdminToken: cfg.Admin.Token}
	if store.DB != nil {
		go store.DB.ReportPoolStats(ctx, 15*time.Second)
		deps.DB = store.DB
	}
	if n, err := store.Routes.Count(ctx); err == nil {
		metrics.CatalogRoutes.Set(float64(n))
	}

	// Cache
	var cache ports.CacheService
	if cfg.Valkey.Enabled {
		c, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.KeyPrefix)
		if err != nil {
			slog.Warn("valkey unavailable", "error", err)
		} else {
			defer c.Close()
			cache = c
			deps.Cache = c
		}
	}

	// NATS
	var publisher ports.EventPublisher
	var subscriber *natsadapter.Subscriber
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
		} else {
			defer pub.Close()
			publisher = pub
		}

		sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats subscriber unavailable", "error", err)
		} else {
			defer sub.Close()
			subscriber = sub
		}

		// Raw NATS connection for WebSocket relay
		natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats ws conn unavailable", "error", err)
		} else {
			defer natsConn.Close()
			deps.NATS = natsConn
		}
	}

	// Use cases
	routeSvc := usecases.NewRouteService(store.Routes, cache, publisher)
	matchSvc := usecases.NewMatchService(store.Routes, cache, publisher, usecases.MatchOptions{
		DefaultThreshold: cfg.Matching.ThresholdMeters,
		MaxThreshold:     cfg.Matching.MaxThresholdMeters,
		CatalogTTL:       cfg.Matching.CatalogCacheTTL,
	})
	deps.Routes = routeSvc
	deps.Matches = matchSvc

	// Mutations made by other instances or the importer.
	if subscriber != nil {
		err := subscriber.SubscribeRouteEvents(ctx, func(ctx context.Context, ev *domain.RouteEvent) error {
			slog.Debug("route event received", "type", ev.Type, "route_id", ev.RouteID)
			return matchSvc.InvalidateCatalog(ctx)
		})
		if err != nil {
			slog.Warn("route event subscription failed", "error", err)
		}
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    4 * 1024 * 1024, // route polylines can be long
		AppName:      "ridematch API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, If-None-Match",
		ExposeHeaders:    "ETag, Link, X-Total-Count, X-Request-ID",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "storage", cfg.Storage.Driver)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
