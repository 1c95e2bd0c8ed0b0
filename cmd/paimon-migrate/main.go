package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/leoyy0316/incubator-paimon/internal/audit"
	"github.com/leoyy0316/incubator-paimon/internal/catalog"
	"github.com/leoyy0316/incubator-paimon/internal/config"
	"github.com/leoyy0316/incubator-paimon/internal/fsio"
	"github.com/leoyy0316/incubator-paimon/internal/logging"
	"github.com/leoyy0316/incubator-paimon/internal/metrics"
	"github.com/leoyy0316/incubator-paimon/internal/migrate"
	"github.com/leoyy0316/incubator-paimon/internal/table"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg := config.MustLoad(*configPath)
	logging.Setup(cfg.Logging)

	log := logging.Component("main")
	log.Info("paimon-migrate starting", "version", migrate.Version, "git_sha", migrate.GitSHA)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		sig := <-ch
		log.Info("shutdown signal received", "signal", sig.String())
		cancel()
	}()

	if cfg.Metrics.Enabled {
		metrics.Init("table_migrate")
		go func() {
			if err := metrics.StartServer(cfg.Metrics.Address); err != nil {
				log.Error("metrics server stopped", "error", err)
			}
		}()
	}

	fs, warehouseRoot, cleanup, err := openWarehouseFS(ctx, cfg.Warehouse)
	if err != nil {
		log.Error("open warehouse storage", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	cat, catClose, err := openCatalog(cfg.Catalog)
	if err != nil {
		log.Error("open catalog", "error", err)
		os.Exit(1)
	}
	defer catClose()

	emitter, err := audit.New(cfg.Audit, logging.Component("audit"))
	if err != nil {
		log.Error("configure audit", "error", err)
		os.Exit(1)
	}
	defer emitter.Close()

	source := catalog.Identifier{Database: cfg.Source.Database, Table: cfg.Source.Table}
	target := catalog.Identifier{Database: cfg.Target.Database, Table: cfg.Target.Table}

	m := migrate.New(cat, table.NewWarehouse(fs, warehouseRoot), fs, source, target, migrate.Options{
		Workers:      cfg.Migration.Workers,
		TableOptions: cfg.Migration.TableOptions,
		KeepSource:   cfg.Migration.KeepSource,
		Audit:        emitter,
	})

	result, err := m.Execute(ctx)
	if err != nil && !errors.Is(err, migrate.ErrDropSourceFailed) {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	if err != nil {
		log.Warn("migration committed but source cleanup failed", "error", err)
	}
	log.Info("migration finished",
		"snapshot_id", result.Snapshot.ID,
		"partitions", result.Partitions,
		"files", result.Files,
		"target_created", result.TargetCreated,
	)
}

func openWarehouseFS(ctx context.Context, cfg config.WarehouseConfig) (fsio.FileIO, string, func(), error) {
	switch cfg.Backend {
	case "blob":
		b, err := fsio.OpenBlob(ctx, cfg.BucketURL)
		if err != nil {
			return nil, "", nil, err
		}
		return b, cfg.Root, func() { b.Close() }, nil
	default:
		return fsio.NewLocal(), cfg.Root, func() {}, nil
	}
}

func openCatalog(cfg config.CatalogConfig) (catalog.Catalog, func(), error) {
	switch cfg.Backend {
	case "memory":
		return catalog.NewMemory(), func() {}, nil
	default:
		pg, err := catalog.NewPostgres(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return pg, pg.Close, nil
	}
}
