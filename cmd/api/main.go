// @title           Role Service API
// @version         1.0
// @description     Role assignment and role-scoped access for the lead management platform.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	_ "github.com/leadflow/role-service/docs"
	"github.com/leadflow/role-service/internal/api"
	"github.com/leadflow/role-service/internal/api/handler"
	"github.com/leadflow/role-service/internal/api/metrics"
	"github.com/leadflow/role-service/internal/core/access"
	"github.com/leadflow/role-service/internal/core/service"
	"github.com/leadflow/role-service/internal/infrastructure/auth"
	"github.com/leadflow/role-service/internal/infrastructure/config"
	"github.com/leadflow/role-service/internal/infrastructure/db/mongo"
	"github.com/leadflow/role-service/internal/infrastructure/db/redis"
	"github.com/leadflow/role-service/internal/infrastructure/queue"
	"github.com/leadflow/role-service/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		log := logger.Get()
		log.Error().Err(err).Msg("role service stopped")
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		logger.Init(logger.Options{Service: "role-service"})
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "role-service",
	})

	// --- Storage ---
	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer disconnectMongo(mongoClient, log)

	redisClient, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error().Err(err).Msg("redis close")
		}
	}()

	accounts := mongo.NewAccountRepository(db)
	profiles := mongo.NewProfileRepository(db)
	roleEvents := mongo.NewRoleEventRepository(db)
	if err := mongo.EnsureIndexes(ctx, accounts, roleEvents); err != nil {
		return err
	}

	revocations := redis.NewRevocationStore(redisClient)
	limiter := metrics.InstrumentLimiter(redis.NewRateLimiter(redisClient, cfg.RateLimit.Max, cfg.RateLimit.Window))
	issuer := auth.NewJWTIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)

	// --- Role change audit trail ---
	processor := service.NewRoleEventService(roleEvents, redis.NewDedupChecker(redisClient), logger.Component("role-events"))
	dispatcher := queue.NewDispatcher(cfg.Dispatch.Workers, processor, queue.Metrics{
		Depth:   metrics.EventsQueueDepth,
		Dropped: metrics.EventsDroppedTotal,
	}, logger.Component("dispatcher"))
	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	dispatcher.Start(dispatchCtx)
	defer func() {
		stopDispatch()
		dispatcher.Wait()
	}()

	// --- Services ---
	resolver := access.NewResolver(profiles, revocations, logger.Component("access"))
	authService := service.NewAuthService(accounts, profiles, issuer, revocations, resolver, logger.Component("auth"))
	roleService := service.NewRoleService(profiles, accounts, limiter, dispatcher, logger.Component("roles"))
	userService := service.NewUserService(profiles, accounts, logger.Component("users"))

	if cfg.Bootstrap.AdminEmail != "" {
		if err := authService.EnsureAdmin(ctx, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword); err != nil {
			return err
		}
	}

	e := api.NewRouter(api.Dependencies{
		Log:         logger.Component("http"),
		CORSOrigin:  cfg.CORSOrigin,
		Verifier:    issuer,
		Revocations: revocations,
		Resolver:    resolver,
		AuthService: authService,
		RoleService: roleService,
		UserService: userService,
		ReadinessChecks: map[string]handler.PingFunc{
			"mongodb": func(ctx context.Context) error { return mongoClient.Ping(ctx, readpref.Primary()) },
			"redis":   func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}

func disconnectMongo(client *mongodriver.Client, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		log.Error().Err(err).Msg("mongo disconnect")
	}
}
