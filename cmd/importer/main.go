// Command importer loads a JSON or YAML route catalog into the configured
// store.
//
//	importer [-replace] routes.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	natsadapter "github.com/samirrijal/ridematch/internal/adapters/nats"
	"github.com/samirrijal/ridematch/internal/adapters/storage"
	"github.com/samirrijal/ridematch/internal/core/domain"
	"github.com/samirrijal/ridematch/internal/core/ports"
	"github.com/samirrijal/ridematch/internal/core/usecases"
	"github.com/samirrijal/ridematch/internal/pkg/config"
	"github.com/samirrijal/ridematch/internal/pkg/logging"
)

func main() {
	replace := flag.Bool("replace", false, "delete every existing route before importing")
	dryRun := flag.Bool("dry-run", false, "parse and validate the file without writing")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: importer [-replace] [-dry-run] <catalog.json|catalog.yaml>\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	cfg, err := config.Load("ridematch-importer")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format, "ridematch-importer")

	inputs, err := loadCatalog(path)
	if err != nil {
		log.Fatalf("read %s: %v", path, err)
	}
	slog.Info("catalog parsed", "file", path, "routes", len(inputs))
	if *dryRun {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer store.Close()

	// API instances drop their cached catalog when they see these events.
	var publisher ports.EventPublisher
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable, importing without events", "error", err)
		} else {
			defer pub.Close()
			publisher = pub
		}
	}

	svc := usecases.NewRouteService(store.Routes, nil, publisher)
	stats, err := importRoutes(ctx, svc, inputs, *replace)
	if err != nil {
		log.Fatalf("import: %v", err)
	}
	slog.Info("import complete",
		"created", stats.created,
		"updated", stats.updated,
		"deleted", stats.deleted,
	)
}

type importStats struct {
	created, updated, deleted int
}

// importRoutes upserts inputs in file order. With replace set the catalog is
// emptied first so the stored order matches the file.
func importRoutes(ctx context.Context, svc *usecases.RouteService, inputs []domain.RouteInput, replace bool) (importStats, error) {
	var stats importStats

	if replace {
		existing, err := svc.List(ctx)
		if err != nil {
			return stats, err
		}
		for _, r := range existing {
			if err := svc.Delete(ctx, r.ID); err != nil {
				return stats, err
			}
			stats.deleted++
		}
	}

	for i, in := range inputs {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		r, created, err := svc.Upsert(ctx, in)
		if err != nil {
			return stats, fmt.Errorf("route %d (%s): %w", i, in.ID, err)
		}
		if created {
			stats.created++
		} else {
			stats.updated++
		}
		slog.Debug("route imported", "id", r.ID, "created", created)
	}
	return stats, nil
}
