package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/stationtrail/api/internal/config"
	"github.com/stationtrail/api/internal/database"
	"github.com/stationtrail/api/internal/migrations"
	"github.com/stationtrail/api/internal/quest"
	"github.com/stationtrail/api/internal/server"
	"github.com/stationtrail/api/internal/store"
	"github.com/stationtrail/api/internal/usecase"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	bounds := quest.RadiusBounds{MinM: cfg.LocationRadiusMin, MaxM: cfg.LocationRadiusMax}
	stores := store.New(db, bounds)

	if err := server.EnsureAdmin(ctx, logger, stores, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return fmt.Errorf("bootstrapping admin: %w", err)
	}
	if cfg.SeedDemo {
		if err := server.SeedDemo(ctx, logger, stores, bounds); err != nil {
			return fmt.Errorf("seeding demo data: %w", err)
		}
	}

	// --- Quest engine ---
	svc := usecase.New(usecase.Config{
		Routes:            stores.Routes,
		Locations:         stores.Locations,
		Runs:              stores.Runs,
		Checkins:          stores.Checkins,
		Clock:             usecase.SystemClock{},
		GPSBaseToleranceM: cfg.GPSBaseToleranceM,
		QRTokenMinLen:     cfg.QRTokenMinLen,
		QRTokenMaxLen:     cfg.QRTokenMaxLen,
		AnswerBypass:      cfg.AnswerBypassPhrase,
		Profiles:          cfg.Profiles(),
	})

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, server.Deps{
		Logger: logger,
		Quest:  svc,
		Stores: stores,
		Broker: server.NewBroker(),
		Bounds: bounds,
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}
