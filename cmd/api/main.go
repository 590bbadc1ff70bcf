package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/roster-service/internal/api/http"
	"github.com/spec-kit/roster-service/internal/api/http/handlers"
	"github.com/spec-kit/roster-service/internal/auth"
	"github.com/spec-kit/roster-service/internal/bulk"
	"github.com/spec-kit/roster-service/internal/config"
	"github.com/spec-kit/roster-service/internal/events"
	"github.com/spec-kit/roster-service/internal/membership"
	"github.com/spec-kit/roster-service/internal/observability"
	"github.com/spec-kit/roster-service/internal/persistence"
	"github.com/spec-kit/roster-service/internal/roster"
	"github.com/spec-kit/roster-service/internal/service"
	"github.com/spec-kit/roster-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations && pg.PoolHandle() != nil {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var store persistence.Store
	switch cfg.Store.Backend {
	case "postgres":
		if pg.PoolHandle() == nil {
			logger.Fatal("STORE_BACKEND=postgres requires POSTGRES_DSN")
		}
		store = persistence.NewPostgresStore(pg.PoolHandle())
	default:
		store = persistence.NewRedisStore(redis)
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	notifications := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	notifications.RegisterHandlers()

	client := membership.NewRESTClient(cfg.Membership, logger)

	orchestrator, err := roster.NewOrchestrator(roster.Dependencies{
		Client:   client,
		Notifier: notifications,
		Config:   cfg.Roster,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatal("failed to build roster orchestrator", zap.Error(err))
	}

	jobStore := bulk.NewJobStore(store, cfg.Bulk.RetentionCap, logger)
	scheduler := worker.NewBatchScheduler(logger)

	engine := bulk.NewEngine(bulk.EngineDependencies{
		Jobs:         jobStore,
		Orchestrator: orchestrator,
		Client:       client,
		Scheduler:    scheduler,
		Dispatcher:   dispatcher,
		Metrics:      metrics,
		BulkConfig:   cfg.Bulk,
		RosterConfig: cfg.Roster,
		Logger:       logger,
	})

	scheduler.Bind(func(jobID string) {
		batchCtx, batchCancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer batchCancel()
		if err := engine.ProcessBatch(batchCtx, jobID); err != nil {
			logger.Error("batch processing failed", zap.String("job_id", jobID), zap.Error(err))
		}
	})

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokenManager, cfg.Auth.SchedulerToken)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Roster:         handlers.NewRosterHandler(orchestrator, client, store, logger),
		Uploads:        handlers.NewUploadsHandler(engine, jobStore, logger),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
