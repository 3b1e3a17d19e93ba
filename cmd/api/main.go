package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/sessionkit/cookie-session/internal/api/http"
	"github.com/sessionkit/cookie-session/internal/api/http/handlers"
	"github.com/sessionkit/cookie-session/internal/auth"
	"github.com/sessionkit/cookie-session/internal/config"
	"github.com/sessionkit/cookie-session/internal/events"
	"github.com/sessionkit/cookie-session/internal/observability"
	"github.com/sessionkit/cookie-session/internal/persistence"
	"github.com/sessionkit/cookie-session/internal/repository"
	"github.com/sessionkit/cookie-session/internal/service"
	"github.com/sessionkit/cookie-session/internal/worker"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer() error {
	cfg, cfgErr := config.Load()

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	if cfgErr != nil {
		logConfigErrors(logger, cfgErr)
		return cfgErr
	}
	if _, err := auth.ParseDuration(cfg.Auth.TokenTTL); err != nil {
		logger.Error("invalid environment variable", zap.String("key", config.KeyAuthTokenTTL), zap.Error(err))
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	datastore, err := persistence.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect datastore", zap.Error(err))
		return err
	}
	defer datastore.Close(context.Background())

	users, err := userRepository(ctx, cfg, datastore, logger)
	if err != nil {
		return err
	}

	redis, err := persistence.NewRedis(cfg.Redis, logger)
	if err != nil {
		logger.Error("invalid redis configuration", zap.Error(err))
		return err
	}
	defer redis.Close()

	var denylist auth.Denylist
	if redis != nil {
		denylist = persistence.NewTokenDenylist(redis.Client)
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(dispatcher, logger, metrics)

	sessionService := service.NewSessionService(cfg.Auth.BcryptCost, service.SessionDependencies{
		UserRepo:   users,
		Denylist:   denylist,
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	sessions, err := auth.NewSessions(cfg,
		auth.WithLogger(logger),
		auth.WithDenylist(denylist),
		auth.WithRejectHook(func(c *fiber.Ctx, cookieName string, reason error) {
			sessionService.SessionRejected(c.UserContext(), cookieName, c.Path(), reason)
		}),
	)
	if err != nil {
		logger.Error("failed to init sessions", zap.Error(err))
		return err
	}

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		BodyLimit:             cfg.App.BodyLimit,
		DisableStartupMessage: cfg.App.IsProduction(),
	})
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:         logger,
		Metrics:        metrics,
		Timeout:        cfg.App.RequestTimeout(),
		AllowedOrigins: cfg.Frontend.URLs,
	})

	deps := map[string]handlers.Pinger{string(datastore.Backend): datastore}
	if redis != nil {
		deps["redis"] = redis
	}

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:     handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps, metrics),
		Sessions:   handlers.NewSessionHandler(sessionService, sessions, cfg.Auth.CookieName, cfg.Auth.TokenTTL, logger),
		Auth:       sessions,
		CookieName: cfg.Auth.CookieName,
	})

	go func() {
		logger.Info("server listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	return app.Shutdown()
}

func userRepository(ctx context.Context, cfg *config.Config, ds *persistence.Datastore, logger *zap.Logger) (repository.UserRepository, error) {
	switch ds.Backend {
	case persistence.BackendMongo:
		if err := repository.EnsureUserIndexes(ctx, ds.Mongo.Database); err != nil {
			logger.Error("failed to create indexes", zap.Error(err))
			return nil, err
		}
		return repository.NewMongoUserRepository(ds.Mongo.Database), nil
	default:
		if cfg.Database.RunMigrations {
			if err := persistence.RunMigrations(ctx, ds.Postgres.PoolHandle(), logger); err != nil {
				logger.Error("failed to run migrations", zap.Error(err))
				return nil, err
			}
		}
		return repository.NewUserRepository(ds.Postgres.PoolHandle()), nil
	}
}

func logConfigErrors(logger *zap.Logger, err error) {
	var verrs config.ValidationErrors
	if !errors.As(err, &verrs) {
		logger.Error("failed to load config", zap.Error(err))
		return
	}
	for _, fe := range verrs {
		logger.Error("invalid environment variable",
			zap.String("key", fe.Key),
			zap.String("rule", string(fe.Rule)),
			zap.String("message", fe.Message),
		)
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
