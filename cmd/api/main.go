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

	httptransport "github.com/spec-kit/helpdesk-service/internal/api/http"
	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/ratelimit"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/repository/memory"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/internal/worker"
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

	metrics := observability.NewMetrics()
	deps := map[string]handlers.Pinger{}

	var (
		userRepo   repository.UserRepository
		ticketRepo repository.TicketRepository
	)
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		logger.Warn("using in-memory storage; data is lost on restart")
		store := memory.NewStore()
		userRepo, ticketRepo = store.Users(), store.Tickets()
	default:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()

		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.Pool, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		deps["postgres"] = pg
		metrics.RegisterDBPool(func() (int32, int32, int32) {
			stats := pg.Stats()
			return stats.Acquired, stats.Idle, stats.Total
		})
		userRepo = repository.NewUserRepository(pg.Pool)
		ticketRepo = repository.NewTicketRepository(pg.Pool)
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	if redis != nil {
		defer redis.Close()
		deps["redis"] = redis
	}

	dispatcher := events.NewInMemoryDispatcher(logger)
	metrics.SubscribeTo(dispatcher)

	notifications := worker.NewNotificationWorker(service.NewNotificationService(logger, cfg.Notification), logger, 256)
	notifications.Subscribe(dispatcher)
	notifications.Start(ctx)

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		logger.Fatal("failed to init token manager", zap.Error(err))
	}

	authService := service.NewAuthService(userRepo, tokens, cfg.Auth, logger)
	userService := service.NewUserService(userRepo, authService, dispatcher, logger)
	statsService := service.NewStatsService(userRepo, ticketRepo)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		UserRepo:   userRepo,
		Dispatcher: dispatcher,
		Policy:     cfg.Tickets,
		Logger:     logger,
	})

	if err := authService.EnsureAdmin(ctx, cfg.Admin); err != nil {
		logger.Fatal("failed to bootstrap admin", zap.Error(err))
	}

	var resolver auth.IdentityResolver
	if cfg.Auth.VerifyIdentity {
		resolver = authService
	}
	authMiddleware := auth.NewAuthMiddleware(tokens, resolver)

	app := httptransport.NewApp(cfg.App.Name)
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:      logger,
		Metrics:     metrics,
		Timeout:     cfg.App.RequestTimeout(),
		CORSOrigins: cfg.App.CORSOrigins,
	})

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps),
		Users:          handlers.NewUsersHandler(authService, userService, statsService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		AuthMiddleware: authMiddleware,
		AuthLimiter:    authLimiter(cfg.RateLimit, redis, metrics, logger),
		Metrics:        metrics.Handler(),
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("storage", cfg.Storage.Driver))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
	dispatcher.Close()
	cancel()
	notifications.Wait()
}

func authLimiter(cfg config.RateLimitConfig, redis *persistence.Redis, metrics *observability.Metrics, logger *zap.Logger) fiber.Handler {
	if !cfg.Enabled {
		return nil
	}

	var limiter ratelimit.Limiter
	if cfg.Backend == config.RateLimitBackendRedis && redis != nil {
		limiter = ratelimit.NewRedisLimiter(redis.Client, cfg.RedisKeyPrefix, cfg.AuthPerMinute, time.Minute)
	} else {
		if cfg.Backend == config.RateLimitBackendRedis {
			logger.Warn("redis not configured; falling back to in-memory rate limiting")
		}
		limiter = ratelimit.NewMemoryLimiter(cfg.AuthPerMinute, time.Minute)
	}

	return ratelimit.Middleware(limiter, logger, ratelimit.Options{
		Scope:    "auth",
		FailOpen: cfg.FailOpenOnErrors,
		OnReject: metrics.RateLimitRejected,
	})
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
