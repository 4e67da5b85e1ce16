// Package main is the entry point for the board engine. It wires all
// dependencies using samber/do v2, starts the HTTP server, and handles
// graceful shutdown on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/do/v2"
	"gorm.io/gorm"

	adapthttp "github.com/Aidzix/Monday/internal/adapters/http"
	"github.com/Aidzix/Monday/internal/adapters/http/handlers"
	"github.com/Aidzix/Monday/internal/adapters/http/middleware"

	"github.com/Aidzix/Monday/internal/adapters/clients/acl"
	"github.com/Aidzix/Monday/internal/adapters/pubsub"
	"github.com/Aidzix/Monday/internal/adapters/repository"
	"github.com/Aidzix/Monday/internal/adapters/repository/memory"
	"github.com/Aidzix/Monday/internal/adapters/repository/redisstore"
	"github.com/Aidzix/Monday/internal/adapters/repository/sqlstore"
	"github.com/Aidzix/Monday/internal/app"
	"github.com/Aidzix/Monday/internal/domain/access"
	"github.com/Aidzix/Monday/internal/platform/auth"
	"github.com/Aidzix/Monday/internal/platform/config"
	"github.com/Aidzix/Monday/internal/platform/health"
	"github.com/Aidzix/Monday/internal/platform/httpclient"
	"github.com/Aidzix/Monday/internal/platform/logging"
	"github.com/Aidzix/Monday/internal/platform/telemetry"
	"github.com/Aidzix/Monday/internal/ports"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const (
	serverShutdownTimeout = 15 * time.Second
	otelShutdownTimeout   = 5 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	profile := os.Getenv("APP_PROFILE")
	if profile == "" {
		return errors.New("APP_PROFILE environment variable is required (e.g. local, dev, qa, prod)")
	}

	// Bootstrap: config, logger, telemetry.
	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr, slog.String("service", cfg.Telemetry.ServiceName))

	ctx := context.Background()
	otel, err := initTelemetry(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	// DI container.
	injector := do.New()

	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, logger)
	do.ProvideValue(injector, otel.metrics)

	registerDependencies(injector, cfg, logger)

	// Resolve the server (eagerly wires the full graph).
	server, err := do.Invoke[*adapthttp.Server](injector)
	if err != nil {
		return fmt.Errorf("resolving server: %w", err)
	}

	// Register health checkers after the graph is wired.
	registry := do.MustInvoke[ports.HealthRegistry](injector)
	if checker, ok := do.MustInvoke[ports.BoardRepository](injector).(ports.HealthChecker); ok {
		registry.Register(checker)
	}
	if relay, err := do.Invoke[*pubsub.RedisRelay](injector); err == nil {
		registry.Register(relay)
	}
	if cfg.Identity.Enabled {
		registry.Register(do.MustInvoke[*httpclient.Client](injector))
	}

	// Event streams outlive ordinary requests; end them when shutdown starts
	// so the server can drain.
	broker := do.MustInvoke[*pubsub.Broker](injector)
	server.OnShutdown(func() {
		broker.Shutdown(context.Background())
	})

	// Start server in background.
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	// Wait for shutdown signal or server error.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	// Graceful shutdown: drain HTTP requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
	}

	// Wait for Start() goroutine to return.
	<-serverErr

	// Release the change relay and store connections.
	if err := closeBackends(injector); err != nil {
		logger.Error("backend shutdown error", slog.Any("error", err))
	}

	// Flush telemetry.
	otelCtx, otelCancel := context.WithTimeout(context.Background(), otelShutdownTimeout)
	defer otelCancel()

	if err := otel.Shutdown(otelCtx); err != nil {
		logger.Error("telemetry shutdown error", slog.Any("error", err))
	}

	logger.Info("shutdown complete")
	return nil
}

// otelProviders bundles OpenTelemetry provider lifecycle. All fields are nil
// when telemetry is disabled.
type otelProviders struct {
	tracer  *sdktrace.TracerProvider
	meter   *sdkmetric.MeterProvider
	metrics *telemetry.Metrics
}

// Shutdown flushes both providers. Nil-safe.
func (o *otelProviders) Shutdown(ctx context.Context) error {
	var errs []error
	if o.tracer != nil {
		if err := o.tracer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
		}
	}
	if o.meter != nil {
		if err := o.meter.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}

func initTelemetry(ctx context.Context, cfg *config.Config) (*otelProviders, error) {
	if !cfg.Telemetry.Enabled {
		return &otelProviders{}, nil
	}

	tp, err := telemetry.InitTracer(ctx,
		cfg.Telemetry.ServiceName,
		cfg.Telemetry.Exporter,
		cfg.Telemetry.Endpoint,
	)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	mp, err := telemetry.InitMeter(ctx,
		cfg.Telemetry.ServiceName,
		cfg.Telemetry.Exporter,
		cfg.Telemetry.Endpoint,
	)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("init meter: %w", err)
	}

	metrics, err := telemetry.NewMetrics(mp, cfg.Telemetry.ServiceName)
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return nil, fmt.Errorf("creating metrics: %w", err)
	}

	return &otelProviders{
		tracer:  tp,
		meter:   mp,
		metrics: metrics,
	}, nil
}

func registerDependencies(injector *do.RootScope, cfg *config.Config, logger *slog.Logger) {
	// Identity service client.
	do.Provide(injector, func(i do.Injector) (*httpclient.Client, error) {
		metrics := do.MustInvoke[*telemetry.Metrics](i)
		return httpclient.New(&cfg.Client, cfg.Identity.ServiceName, metrics, logger), nil
	})

	do.Provide(injector, func(i do.Injector) (ports.IdentityClient, error) {
		client := do.MustInvoke[*httpclient.Client](i)
		return acl.NewIdentityClient(client, logger), nil
	})

	// Storage and change propagation.
	if cfg.RedisNeeded() {
		do.Provide(injector, func(_ do.Injector) (*redis.Client, error) {
			return redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			}), nil
		})
	}

	if cfg.Store.Driver == config.StoreSQL {
		do.Provide(injector, func(_ do.Injector) (*gorm.DB, error) {
			return sqlstore.Open(cfg.Store.DSN, logger)
		})
	}

	do.Provide(injector, func(i do.Injector) (ports.BoardRepository, error) {
		switch cfg.Store.Driver {
		case config.StoreMemory, "":
			return memory.New(), nil
		case config.StoreRedis:
			rdb := do.MustInvoke[*redis.Client](i)
			return repository.NewGuarded(redisstore.New(rdb, cfg.Store.KeyPrefix), cfg.Store.CircuitBreaker, logger), nil
		case config.StoreSQL:
			db, err := do.Invoke[*gorm.DB](i)
			if err != nil {
				return nil, err
			}
			return repository.NewGuarded(sqlstore.New(db), cfg.Store.CircuitBreaker, logger), nil
		default:
			return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
		}
	})

	do.Provide(injector, func(i do.Injector) (*pubsub.Broker, error) {
		metrics := do.MustInvoke[*telemetry.Metrics](i)
		return pubsub.NewBroker(cfg.PubSub.SubscriberBuffer, metrics, logger), nil
	})

	if cfg.PubSub.Driver == config.PubSubRedis {
		do.Provide(injector, func(i do.Injector) (*pubsub.RedisRelay, error) {
			rdb := do.MustInvoke[*redis.Client](i)
			broker := do.MustInvoke[*pubsub.Broker](i)
			relay := pubsub.NewRedisRelay(rdb, cfg.PubSub.Channel, broker, logger)
			if err := relay.Start(context.Background()); err != nil {
				return nil, fmt.Errorf("starting change relay: %w", err)
			}
			return relay, nil
		})
	}

	do.Provide(injector, func(i do.Injector) (ports.ChangePropagator, error) {
		switch cfg.PubSub.Driver {
		case config.PubSubLocal, "":
			return do.MustInvoke[*pubsub.Broker](i), nil
		case config.PubSubRedis:
			return do.Invoke[*pubsub.RedisRelay](i)
		default:
			return nil, fmt.Errorf("unknown pubsub driver %q", cfg.PubSub.Driver)
		}
	})

	// Application service.
	do.Provide(injector, func(i do.Injector) (ports.BoardService, error) {
		repo, err := do.Invoke[ports.BoardRepository](i)
		if err != nil {
			return nil, err
		}
		propagator, err := do.Invoke[ports.ChangePropagator](i)
		if err != nil {
			return nil, err
		}
		metrics := do.MustInvoke[*telemetry.Metrics](i)
		opts := []app.Option{
			app.WithGuard(access.NewGuard(access.RoleElevation(cfg.Auth.AdminRoles...))),
			app.WithMetrics(metrics),
		}
		// Instances sharing a redis store serialize each board through a
		// lease next to the board document.
		if cfg.Store.Driver == config.StoreRedis {
			rdb := do.MustInvoke[*redis.Client](i)
			opts = append(opts, app.WithLocker(redisstore.NewLeases(rdb, cfg.Store.KeyPrefix, cfg.Engine.LeaseTTL, logger)))
		}
		return app.NewBoardService(repo, propagator, cfg.Engine, logger, opts...), nil
	})

	do.Provide(injector, func(_ do.Injector) (ports.HealthRegistry, error) {
		return health.New(), nil
	})

	// HTTP layer.
	do.Provide(injector, func(i do.Injector) (*handlers.BoardHandler, error) {
		svc := do.MustInvoke[ports.BoardService](i)
		return handlers.NewBoardHandler(svc), nil
	})

	do.Provide(injector, func(i do.Injector) (*handlers.ItemHandler, error) {
		svc := do.MustInvoke[ports.BoardService](i)
		return handlers.NewItemHandler(svc), nil
	})

	do.Provide(injector, func(i do.Injector) (*handlers.EventsHandler, error) {
		svc := do.MustInvoke[ports.BoardService](i)
		return handlers.NewEventsHandler(svc, cfg.PubSub.Heartbeat), nil
	})

	do.Provide(injector, func(i do.Injector) (*handlers.HealthHandler, error) {
		registry := do.MustInvoke[ports.HealthRegistry](i)
		// Role enrichment falls back to token roles, so identity outages
		// only degrade readiness.
		return handlers.NewHealthHandler(registry, cfg.Identity.ServiceName), nil
	})

	do.Provide(injector, func(i do.Injector) (nethttp.Handler, error) {
		metrics := do.MustInvoke[*telemetry.Metrics](i)

		// A nil interface, not a nil *acl.IdentityClient, disables enrichment.
		var identity ports.IdentityClient
		if cfg.Identity.Enabled {
			identity = do.MustInvoke[ports.IdentityClient](i)
		}
		authenticate := middleware.Authenticate(auth.NewVerifier(cfg.Auth), identity)

		return adapthttp.NewRouter(adapthttp.Handlers{
			Boards: do.MustInvoke[*handlers.BoardHandler](i),
			Items:  do.MustInvoke[*handlers.ItemHandler](i),
			Events: do.MustInvoke[*handlers.EventsHandler](i),
			Health: do.MustInvoke[*handlers.HealthHandler](i),
		}, authenticate, cfg.Server.WriteTimeout,
			middleware.Recovery(logger),
			middleware.RequestID(),
			middleware.CorrelationID(),
			middleware.OpenTelemetry(metrics),
			middleware.Logging(logger),
		), nil
	})

	do.Provide(injector, func(i do.Injector) (*adapthttp.Server, error) {
		handler := do.MustInvoke[nethttp.Handler](i)
		return adapthttp.NewServer(cfg.Server, handler, logger), nil
	})
}

// closeBackends stops the change relay and closes whichever store
// connections were opened.
func closeBackends(injector do.Injector) error {
	var errs []error
	if relay, err := do.Invoke[*pubsub.RedisRelay](injector); err == nil {
		if err := relay.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing change relay: %w", err))
		}
	}
	if rdb, err := do.Invoke[*redis.Client](injector); err == nil {
		if err := rdb.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing redis: %w", err))
		}
	}
	if db, err := do.Invoke[*gorm.DB](injector); err == nil {
		if sqlDB, err := db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("closing database: %w", err))
			}
		}
	}
	return errors.Join(errs...)
}
