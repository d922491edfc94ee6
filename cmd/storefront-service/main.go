package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/fjod/storefront/internal/cache"
	"github.com/fjod/storefront/internal/config"
	storefrontgrpc "github.com/fjod/storefront/internal/grpc"
	"github.com/fjod/storefront/internal/metrics"
	"github.com/fjod/storefront/internal/publisher"
	"github.com/fjod/storefront/internal/repository"
	"github.com/fjod/storefront/internal/service"
	"github.com/fjod/storefront/internal/store"
	pb "github.com/fjod/storefront/pkg/api"
	"github.com/fjod/storefront/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	log := logger.New("storefront-service", cfg.LogLevel)
	slog.SetDefault(log)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, outbox, err := openBackend(cfg, log)
	if err != nil {
		log.Error("failed to open storage", slog.Any("error", err))
		os.Exit(1)
	}
	defer backend.Close()

	sessions, closeSessions, err := openSessions(ctx, cfg, backend, log)
	if err != nil {
		log.Error("failed to open session store", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeSessions()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	orderMetrics := metrics.NewOrderMetrics(reg)

	engine := service.NewOrderEngine(service.EngineDeps{
		Tx:       backend,
		Sessions: sessions,
		Metrics:  orderMetrics,
		Logger:   log,
	}, service.Options{
		Timeout:         cfg.OrderTimeout,
		Precision:       cfg.CurrencyPrecision,
		ValidateSession: cfg.ValidateSession,
	})
	aggregator := service.NewAggregator(sessions, backend, log)
	catalog := service.NewCatalogService(backend, sessions)

	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(storefrontgrpc.UnaryServerInterceptor(log, orderMetrics)),
	)
	pb.RegisterStorefrontServiceServer(grpcServer, storefrontgrpc.NewStorefrontServer(engine, aggregator, catalog, cfg.CurrencyPrecision))

	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCPort))
	if err != nil {
		log.Error("failed to listen", slog.Any("error", err))
		os.Exit(1)
	}

	metricsServer := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           metrics.Handler(reg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("storefront service listening", slog.String("port", cfg.GRPCPort))
		return grpcServer.Serve(lis)
	})

	g.Go(func() error {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})

	if outbox != nil && len(cfg.KafkaBrokers) > 0 {
		poller := publisher.NewOutboxPoller(outbox, publisher.NewKafkaWriter(cfg.KafkaTopic, cfg.KafkaBrokers...), log)
		g.Go(func() error {
			log.Info("outbox poller started", slog.String("topic", cfg.KafkaTopic))
			poller.Run(gctx)
			return poller.Close()
		})
	}

	// Graceful shutdown on signal or when any component fails
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down storefront service")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-shutdownCtx.Done():
			grpcServer.Stop()
		}
		return metricsServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("storefront service exited with error", slog.Any("error", err))
	}
	log.Info("storefront service stopped")
}

// openBackend returns the configured storage backend and, for SQL backends, its outbox
func openBackend(cfg *config.Config, log *slog.Logger) (store.Backend, repository.OutboxRepository, error) {
	var (
		repo *repository.Repository
		err  error
	)
	switch cfg.StorageBackend {
	case config.BackendMemory:
		log.Info("using in-memory storage")
		return store.NewMemoryStore(), nil, nil
	case config.BackendSQLite:
		repo, err = repository.NewSQLiteRepository(cfg.SQLitePath)
	default:
		repo, err = repository.NewRepository(&repository.Credentials{
			Dialect:  repository.Dialect(cfg.StorageBackend),
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			User:     cfg.DBUser,
			Password: cfg.DBPassword,
			DBName:   cfg.DBName,
		})
	}
	if err != nil {
		return nil, nil, err
	}

	repo.SetLogger(log)

	if err := repo.RunMigrations(cfg.Migrations()); err != nil {
		repo.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	log.Info("database migrations completed", slog.String("backend", cfg.StorageBackend))
	return repo, repo, nil
}

// openSessions returns the session store used by the services, cached in redis when configured
func openSessions(ctx context.Context, cfg *config.Config, backend store.Backend, log *slog.Logger) (store.SessionStore, func(), error) {
	var (
		sessions store.SessionStore = backend
		closers  []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.SessionBackend == config.SessionsFromMongo {
		db, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = db.Client().Disconnect(disconnectCtx)
		})

		mongoSessions := repository.NewMongoSessionStore(db)
		if err := mongoSessions.CreateIndexes(ctx); err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("create session indexes: %w", err)
		}
		sessions = mongoSessions
		log.Info("sessions stored in mongodb", slog.String("database", cfg.MongoDatabase))
	}

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			closeAll()
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		closers = append(closers, func() { _ = client.Close() })

		sessions = cache.NewCachedSessionStore(sessions, cache.NewRedisCache(client), log)
		log.Info("session cache enabled", slog.String("addr", cfg.RedisAddr))
	}

	return sessions, closeAll, nil
}
