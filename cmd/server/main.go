package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mamadbah2/stocklive/internal/config"
	"github.com/mamadbah2/stocklive/internal/repository"
	"github.com/mamadbah2/stocklive/internal/repository/memory"
	"github.com/mamadbah2/stocklive/internal/repository/mongodb"
	"github.com/mamadbah2/stocklive/internal/repository/rediscache"
	"github.com/mamadbah2/stocklive/internal/scheduler"
	"github.com/mamadbah2/stocklive/internal/server/handlers"
	"github.com/mamadbah2/stocklive/internal/server/router"
	"github.com/mamadbah2/stocklive/internal/service/broadcast"
	"github.com/mamadbah2/stocklive/internal/service/ledger"
	"github.com/mamadbah2/stocklive/internal/service/notifier"
	"github.com/mamadbah2/stocklive/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	var store repository.RecordStore
	var journal repository.MovementJournal

	switch cfg.Store.Backend {
	case config.BackendMongo:
		repo, err := mongodb.NewRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := repo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		store, journal = repo, repo
	case config.BackendMemory:
		store, journal = memory.NewStore(), memory.NewJournal()
		baseLogger.Warn("using in-memory store backend, state is not durable")
	}

	hub := broadcast.NewHub(baseLogger.Named("hub"))
	hub.Start()
	defer hub.Stop()

	dispatchers := ledger.MultiDispatcher{hub}
	if len(cfg.Notifier.WebhookURLs) > 0 {
		forwarder := notifier.New(cfg.Notifier.WebhookURLs, cfg.Notifier.Timeout, baseLogger.Named("notifier"))
		dispatchers = append(dispatchers, forwarder)
		baseLogger.Info("collaborator webhook forwarder enabled",
			zap.Int("endpoints", len(cfg.Notifier.WebhookURLs)))
	}

	opts := []ledger.Option{
		ledger.WithDispatcher(dispatchers),
		ledger.WithBaseDelay(cfg.Ledger.RetryBaseDelay),
	}
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		opts = append(opts, ledger.WithSnapshotCache(rediscache.New(redisClient, cfg.Redis.TTL)))
		baseLogger.Info("redis snapshot cache enabled", zap.String("addr", cfg.Redis.Addr))
	}

	ledgerSvc := ledger.NewService(store, journal, baseLogger.Named("svc.ledger"), opts...)

	inventoryHandler := handlers.NewInventoryHandler(ledgerSvc, baseLogger.Named("handlers.inventory"))
	liveHandler := handlers.NewLiveHandler(hub, baseLogger.Named("handlers.live"))
	engine := router.New(inventoryHandler, liveHandler, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(cfg.Sweep.CronSchedule, store, hub, baseLogger.Named("scheduler"))
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
