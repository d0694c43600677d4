package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"

	"github.com/iliyamo/restaurant-chatbot/internal/catalog"
	"github.com/iliyamo/restaurant-chatbot/internal/chat"
	"github.com/iliyamo/restaurant-chatbot/internal/config"
	"github.com/iliyamo/restaurant-chatbot/internal/database"
	"github.com/iliyamo/restaurant-chatbot/internal/handler"
	"github.com/iliyamo/restaurant-chatbot/internal/housekeeping"
	"github.com/iliyamo/restaurant-chatbot/internal/logger"
	"github.com/iliyamo/restaurant-chatbot/internal/metrics"
	"github.com/iliyamo/restaurant-chatbot/internal/queue"
	"github.com/iliyamo/restaurant-chatbot/internal/repository"
	"github.com/iliyamo/restaurant-chatbot/internal/router"
	"github.com/iliyamo/restaurant-chatbot/internal/service"
)

const serviceName = "restaurant-chatbot"

// orderStore is what both store implementations offer to the engine, the
// HTTP API and housekeeping.
type orderStore interface {
	chat.OrderStore
	PurgeSessionsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})
	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithField(ctx, "env", cfg.Env)

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "server stopped", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logg *logger.Logger) (err error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	store, db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer func() { err = multierr.Append(err, db.Close()) }()
	}

	rdb := config.NewRedisClient(ctx)
	if rdb != nil {
		defer func() { err = multierr.Append(err, rdb.Close()) }()
	} else {
		logg.Warn(ctx, "redis unavailable; rate limiting, caching and distributed locking disabled")
	}

	params := chat.Params{
		Catalog:     catalog.Default(),
		Store:       store,
		Logger:      logg,
		Metrics:     metrics.NewChatMetrics(reg),
		Debounce:    cfg.ChatDebounce,
		MaxSessions: cfg.ChatMaxSessions,
	}
	if cfg.OrderEventsEnabled {
		params.Events = service.NewOrderPublisher(cfg.AMQPURL, logg)
		go func() {
			if err := queue.StartOrderConsumer(ctx, queue.ConsumerParams{URL: cfg.AMQPURL, Logger: logg}); err != nil && !errors.Is(err, context.Canceled) {
				logg.Error(ctx, "order consumer stopped", err)
			}
		}()
	}
	engine, err := chat.NewEngine(params)
	if err != nil {
		return err
	}

	hk, err := newHousekeeping(cfg, logg, store, rdb, metrics.NewJobMetrics(reg))
	if err != nil {
		return err
	}
	go func() { _ = hk.Run(ctx) }()

	health := &handler.HealthHandler{}
	if db != nil {
		health.DB = db
	}
	e := router.New(router.Deps{
		Logger:      logg,
		Redis:       rdb,
		RateLimit:   config.LoadRateLimitConfig(),
		Cache:       config.LoadCacheConfig(),
		TokenSecret: cfg.DeviceTokenSecret,
		Gatherer:    reg,
		Health:      health,
		Menu:        &handler.MenuHandler{Catalog: params.Catalog},
		Orders:      &handler.OrderHandler{Store: store, Logger: logg},
		Chat:        handler.NewChatSocket(engine, logg, cfg.DeviceTokenSecret, cfg.DeviceTokenTTL),
	})

	addr := ":" + cfg.Port
	logg.Info(logg.WithFields(ctx, map[string]any{"addr": addr, "store": cfg.StoreDriver}), "starting chat server")

	errc := make(chan error, 1)
	go func() { errc <- e.Start(addr) }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	logg.Info(ctx, "shutting down")
	return e.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg config.Config) (orderStore, *sql.DB, error) {
	if cfg.StoreDriver == config.StoreMemory {
		return repository.NewMemoryOrderStore(), nil, nil
	}
	db, err := database.Open(ctx, database.Options{
		User: cfg.DBUser,
		Pass: cfg.DBPass,
		Host: cfg.DBHost,
		Port: cfg.DBPort,
		Name: cfg.DBName,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(ctx, db, database.MySQL); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return repository.NewOrderRepo(db), db, nil
}

func newHousekeeping(cfg config.Config, logg *logger.Logger, store orderStore, rdb *redis.Client, m *metrics.JobMetrics) (*housekeeping.Service, error) {
	var lock housekeeping.Lock = &housekeeping.LocalLock{}
	if rdb != nil {
		rl, err := housekeeping.NewRedisLock(rdb, serviceName+":housekeeping:lock", cfg.HousekeepingInterval)
		if err != nil {
			return nil, err
		}
		lock = rl
	}
	purge, err := housekeeping.NewSessionPurgeJob(housekeeping.SessionPurgeJobParams{
		Logger:    logg,
		Store:     store,
		Retention: cfg.SessionRetention,
	})
	if err != nil {
		return nil, err
	}
	return housekeeping.NewService(housekeeping.ServiceParams{
		Logger:   logg,
		Registry: housekeeping.NewRegistry(purge),
		Lock:     lock,
		Metrics:  m,
		Interval: cfg.HousekeepingInterval,
	})
}
