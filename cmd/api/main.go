package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/contacts-service/internal/api/http"
	"github.com/spec-kit/contacts-service/internal/api/http/handlers"
	"github.com/spec-kit/contacts-service/internal/auth"
	"github.com/spec-kit/contacts-service/internal/cache"
	"github.com/spec-kit/contacts-service/internal/config"
	"github.com/spec-kit/contacts-service/internal/events"
	"github.com/spec-kit/contacts-service/internal/notify"
	"github.com/spec-kit/contacts-service/internal/observability"
	"github.com/spec-kit/contacts-service/internal/persistence"
	"github.com/spec-kit/contacts-service/internal/repository"
	"github.com/spec-kit/contacts-service/internal/service"
	"github.com/spec-kit/contacts-service/internal/storage"
	"github.com/spec-kit/contacts-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(registry)

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var (
		userRepo    repository.UserRepository
		contactRepo repository.ContactRepository
	)
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.Pool, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		userRepo = repository.NewUserRepository(pg.Pool)
		contactRepo = repository.NewContactRepository(pg.Pool)
	} else {
		userRepo = repository.NewMemoryUserRepository()
		contactRepo = repository.NewMemoryContactRepository()
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	codec, err := auth.NewCodec(cfg.Auth.JWTSecret, cfg.Auth.JWTAlgorithm)
	if err != nil {
		logger.Fatal("invalid token settings", zap.Error(err))
	}
	issuer := auth.NewIssuer(codec, cfg.Auth.AccessTTL(), cfg.Auth.RefreshTTL())
	resolver := auth.NewResolver(issuer, userRepo)

	dispatcher := events.NewInMemoryDispatcher(logger)
	service.NewNotificationService(dispatcher, notify.NewSender(cfg.SMTP, logger), logger, metrics).RegisterHandlers()
	queue := worker.NewQueue(dispatcher, worker.DefaultQueueSize, logger, metrics)

	var workers sync.WaitGroup
	workerCtx, stopWorkers := context.WithCancel(ctx)
	workers.Add(1)
	go func() {
		defer workers.Done()
		queue.Run(workerCtx)
	}()

	var avatars service.AvatarUploader
	avatarStore, err := storage.NewS3AvatarStore(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("failed to init avatar storage", zap.Error(err))
	}
	if avatarStore != nil {
		avatars = avatarStore
	} else {
		logger.Warn("S3 storage not configured; avatar uploads disabled")
	}

	authService := service.NewAuthService(cfg.App, service.AuthDependencies{
		UserRepo:  userRepo,
		Hasher:    auth.NewHasher(cfg.Auth.BcryptCost),
		Issuer:    issuer,
		Publisher: queue,
		Logger:    logger,
		Metrics:   metrics,
	})
	userService := service.NewUserService(userRepo, cache.NewUserCache(redis.Client, logger), avatars, logger)
	contactService := service.NewContactService(contactRepo)

	app := httptransport.NewApp(cfg.App, logger, metrics)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:   handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:     handlers.NewAuthHandler(authService),
		Users:    handlers.NewUsersHandler(userService),
		Contacts: handlers.NewContactsHandler(contactService),
		Resolver: resolver,
		Limiter:  httptransport.NewRateLimiter(redis.Client, logger),
		Gatherer: registry,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.Shutdown(); err != nil {
		logger.Warn("fiber shutdown", zap.Error(err))
	}
	stopWorkers()
	workers.Wait()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
