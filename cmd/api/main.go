package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/srgjo27/ticketchief/internal/adapter/catalog"
	"github.com/srgjo27/ticketchief/internal/adapter/handler"
	"github.com/srgjo27/ticketchief/internal/adapter/repository/memory"
	"github.com/srgjo27/ticketchief/internal/adapter/repository/postgres"
	"github.com/srgjo27/ticketchief/internal/adapter/repository/redis"
	"github.com/srgjo27/ticketchief/internal/core/domain"
	"github.com/srgjo27/ticketchief/internal/core/ports"
	"github.com/srgjo27/ticketchief/internal/core/services"
	"github.com/srgjo27/ticketchief/internal/platform/config"
	"github.com/srgjo27/ticketchief/internal/platform/database"
	"github.com/srgjo27/ticketchief/internal/platform/httpwire"
	"github.com/srgjo27/ticketchief/internal/platform/logger"
	"github.com/srgjo27/ticketchief/internal/platform/metrics"
	"github.com/srgjo27/ticketchief/internal/platform/tracing"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "ticketchief: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load(args, os.Stderr)
	if err != nil {
		return err
	}

	log := logger.New(cfg.Log, cfg.Tracing.ServiceName)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.JaegerEndpoint != "" {
		tp, err := tracing.InitTracerProvider(cfg.Tracing.ServiceName, cfg.Tracing.JaegerEndpoint)
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("tracer provider shutdown failed")
			}
		}()
		log.Info().Str("endpoint", cfg.Tracing.JaegerEndpoint).Msg("tracing enabled")
	}

	events, err := loadEvents(ctx, cfg, log)
	if err != nil {
		return err
	}
	inventory := memory.NewEventRepository(events)
	log.Info().Int("events", len(events)).Str("source", cfg.Catalog.Source).Msg("catalog loaded")

	nonceStore, closeStore, err := newNonceStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	guard := services.NewNonceGuard(nonceStore, log)
	purchases := services.NewPurchaseService(inventory, log,
		services.WithAdmissionDelay(services.Delay(cfg.Queue.Admission)),
		services.WithFulfilmentDelay(services.Delay(cfg.Queue.Fulfilment)),
	)
	defer purchases.Close()

	router := httpwire.NewRouter(httpwire.StaticFiles(cfg.Server.DocumentRoot))
	handler.Register(router,
		handler.NewTicketHandler(inventory, guard),
		handler.NewQueueHandler(purchases, inventory, guard),
	)

	server := httpwire.NewServer(router, log,
		httpwire.WithReadTimeout(cfg.Server.ReadTimeout),
		httpwire.WithWriteTimeout(cfg.Server.WriteTimeout),
		httpwire.WithMaxBodyBytes(cfg.Server.MaxBodyBytes),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.ListenAndServe(gctx, cfg.Server.Addr)
	})
	g.Go(func() error {
		return purchases.Run(gctx)
	})
	if cfg.Metrics.Addr != "" {
		g.Go(func() error {
			return metrics.Serve(gctx, cfg.Metrics.Addr, log)
		})
	}

	err = g.Wait()
	log.Info().Msg("shutting down")
	return err
}

func loadEvents(ctx context.Context, cfg *config.Config, log zerolog.Logger) ([]domain.Event, error) {
	var source ports.EventCatalog

	switch cfg.Catalog.Source {
	case config.CatalogPostgres:
		db, err := database.NewPostgresDB(ctx, cfg.Database, log)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		source = postgres.NewEventCatalog(db)
	default:
		source = catalog.NewFileCatalog(cfg.Catalog.Path)
	}

	events, err := source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return events, nil
}

func newNonceStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ports.NonceStore, func(), error) {
	if !cfg.Redis.Enabled {
		return memory.NewNonceStore(), func() {}, nil
	}

	log.Info().Str("addr", cfg.Redis.Addr()).Msg("connecting to redis")

	client := goredis.NewClient(&goredis.Options{
		Addr: cfg.Redis.Addr(),
		DB:   0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	log.Info().Dur("nonce_ttl", cfg.Redis.NonceTTL).Msg("redis connected")

	closeClient := func() {
		if err := client.Close(); err != nil {
			log.Warn().Err(err).Msg("closing redis client")
		}
	}
	return redis.NewNonceStore(client, cfg.Redis.NonceTTL), closeClient, nil
}
