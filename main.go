// Package main is the entry point for the FixRx data-access service.
// It opens the datastore, starts the health monitor and serves the HTTP API.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/yash-surviantllc/FixRx-sub003/src/app/server"
	"github.com/yash-surviantllc/FixRx-sub003/src/core/ports"
	"github.com/yash-surviantllc/FixRx-sub003/src/core/usecase"
	"github.com/yash-surviantllc/FixRx-sub003/src/infra/config"
	"github.com/yash-surviantllc/FixRx-sub003/src/infra/datastore"
	"github.com/yash-surviantllc/FixRx-sub003/src/infra/db"
	"github.com/yash-surviantllc/FixRx-sub003/src/infra/logger"
	"github.com/yash-surviantllc/FixRx-sub003/src/infra/metrics"
)

func main() {
	if err := run(); err != nil {
		log.Printf("fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize logger
	log := logger.New(cfg.Log)
	log.Info("starting application",
		"port", cfg.Server.Port,
		"log_level", cfg.Log.Level,
		"cache_driver", cfg.Cache.Driver,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector := metrics.NewCollector("fixrx")

	store, err := datastore.Open(ctx, cfg, log, db.WithQueryObserver(collector))
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := store.Shutdown(shutdownCtx); err != nil {
			log.Error("datastore shutdown failed", "error", err)
		}
	}()

	var host ports.HostSampler
	if cfg.Health.SampleHost {
		host = metrics.HostSampler{}
	}
	monitor := usecase.NewHealthMonitor(
		store,
		store.Cache(),
		host,
		usecase.HealthMonitorConfig{Interval: cfg.Health.Interval, ProbeTTL: cfg.Health.ProbeTTL},
		logger.WithComponent(log, "health"),
		usecase.NewLogObserver(logger.WithComponent(log, "health")),
		collector,
	)

	vendors := usecase.NewVendorSearchService(store, store.Cache(), cfg.Cache.TTLDefault, logger.WithComponent(log, "vendors"))

	srv := server.New(cfg, log, server.Deps{
		Health:  store,
		Monitor: monitor,
		Vendors: vendors,
		Metrics: collector.Handler(),
	})

	// Either task failing cancels the other; the datastore closes last.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error { return monitor.Run(gctx) })

	err = g.Wait()
	log.Info("services stopped, closing datastore")
	return err
}
