package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/iho/dochub/internal/adapter/http"
	"github.com/iho/dochub/internal/adapter/http/handler"
	apimiddleware "github.com/iho/dochub/internal/adapter/http/middleware"
	memoryRepo "github.com/iho/dochub/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/dochub/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/dochub/internal/adapter/repository/redis"
	"github.com/iho/dochub/internal/domain"
	"github.com/iho/dochub/internal/infrastructure/auditlog"
	"github.com/iho/dochub/internal/infrastructure/auth"
	"github.com/iho/dochub/internal/infrastructure/config"
	"github.com/iho/dochub/internal/infrastructure/logger"
	"github.com/iho/dochub/internal/infrastructure/metrics"
	"github.com/iho/dochub/internal/infrastructure/postgres"
	"github.com/iho/dochub/internal/infrastructure/redis"
	"github.com/iho/dochub/internal/infrastructure/storage"
	"github.com/iho/dochub/internal/usecase"
)

const limiterIdleTimeout = 10 * time.Minute

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if err := cfg.Validate(); err != nil {
		appLogger.Fatal().Err(err).Msg("invalid configuration")
	}

	if err := run(cfg, appLogger); err != nil {
		appLogger.Fatal().Err(err).Msg("server failed")
	}
}

func run(cfg *config.Config, appLogger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)

	// Migrations
	if cfg.RunMigrations {
		if err := postgres.NewMigrator(cfg.DatabaseURL, cfg.MigrationsPath, appLogger).Up(); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	appLogger.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	appLogger.Info().Msg("connected to redis")

	// Repositories
	txManager := postgresRepo.NewTxManager(pool, postgresRepo.WithIsolation(pgx.Serializable))
	roleRepo := postgresRepo.NewRoleRepository(pool)
	actorRepo := postgresRepo.NewActorRepository(pool)
	documentRepo := postgresRepo.NewDocumentRepository(pool)
	auditRepo := postgresRepo.NewAuditRepository(pool)
	retrier := postgresRepo.NewRetrier(appLogger, postgresRepo.RetrierConfig{
		MaxRetries: cfg.TxMaxRetries,
		Observer:   appMetrics,
	})
	idGen := postgresRepo.NewULIDGenerator()
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	roleCache := newRoleCache(cfg, redisClient, appLogger)

	// Audit pipeline
	auditWriter := auditlog.NewWriter(auditlog.Config{
		Repo:       auditRepo,
		Logger:     appLogger,
		Recorder:   appMetrics,
		BufferSize: cfg.AuditBufferSize,
	})
	auditDone := make(chan struct{})
	go func() {
		defer close(auditDone)
		_ = auditWriter.Start(ctx)
	}()

	// Tokens and storage
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration,
		auth.WithIssuer(cfg.JWTIssuer),
		auth.WithDownloadDuration(cfg.DownloadURLTTL),
	)
	fileStore, err := storage.NewLocal(cfg.StorageRoot)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}

	// Use cases
	roleUC := usecase.NewRoleUseCase(txManager, roleRepo, retrier, roleCache, idGen, auditWriter, appMetrics)
	actorUC := usecase.NewActorUseCase(actorRepo, roleRepo, idGen, auditWriter)
	tokenService := usecase.NewTokenService(jwtManager, actorRepo, appMetrics)
	accessResolver := usecase.NewAccessResolver(roleRepo, roleCache, auditWriter, appMetrics, appLogger)
	documentUC := usecase.NewDocumentUseCase(documentRepo, idGen, jwtManager, fileStore, auditWriter)
	auditUC := usecase.NewAuditUseCase(auditRepo)

	if err := bootstrapAdmin(ctx, cfg, roleUC, actorUC); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	// Handlers
	healthHandler := handler.NewHealthHandler(map[string]handler.Pinger{
		"postgres": pool,
		"redis": handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}),
	})

	rateLimiter := apimiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, func() {
		appMetrics.RateLimited("global")
	})
	go cleanupLimiters(ctx, rateLimiter)

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		Logger:           appLogger,
		AuthHandler:      handler.NewAuthHandler(actorUC, tokenService, auditWriter, appMetrics),
		RoleHandler:      handler.NewRoleHandler(roleUC),
		ActorHandler:     handler.NewActorHandler(actorUC),
		DocumentHandler:  handler.NewDocumentHandler(documentUC),
		AuditHandler:     handler.NewAuditHandler(auditUC),
		HealthHandler:    healthHandler,
		Tokens:           tokenService,
		Access:           accessResolver,
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		RateLimiter:      rateLimiter,
		LoginLimiter: apimiddleware.LoginLimiter(cfg.LoginRateLimit, cfg.LoginRateWindow, func() {
			appMetrics.RateLimited("login")
		}),
		SecureHeaders:  apimiddleware.SecureHeaders(cfg.SecureHeadersDev),
		HTTPMetrics:    apimiddleware.NewHTTPMetrics(registry),
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		appLogger.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			stop()
			<-auditDone
			return err
		}
	case <-ctx.Done():
	}

	appLogger.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error().Err(err).Msg("server forced to shutdown")
	}

	// The writer drains its buffer once ctx is done.
	<-auditDone
	appLogger.Info().Msg("server stopped")
	return nil
}

// newRoleCache selects the role cache backend. A nil result disables caching.
func newRoleCache(cfg *config.Config, client *goredis.Client, appLogger zerolog.Logger) usecase.RoleCache {
	switch cfg.RoleCacheBackend {
	case config.CacheRedis:
		if client == nil {
			return nil
		}
		return redisRepo.NewRoleCache(client, cfg.RoleCacheTTL, appLogger)
	case config.CacheMemory:
		return memoryRepo.NewRoleCache(cfg.RoleCacheSize, cfg.RoleCacheTTL)
	default:
		return nil
	}
}

type superRoleEnsurer interface {
	EnsureSuperRole(ctx context.Context, name string) (*domain.Role, error)
}

type actorEnsurer interface {
	EnsureActor(ctx context.Context, input usecase.CreateActorInput) (*domain.Actor, error)
}

// bootstrapAdmin creates the super role and the first administrator when a
// bootstrap password is configured.
func bootstrapAdmin(ctx context.Context, cfg *config.Config, roles superRoleEnsurer, actors actorEnsurer) error {
	if cfg.BootstrapAdminPassword == "" {
		return nil
	}

	role, err := roles.EnsureSuperRole(ctx, cfg.BootstrapAdminRole)
	if err != nil {
		return err
	}

	_, err = actors.EnsureActor(ctx, usecase.CreateActorInput{
		Username: cfg.BootstrapAdminUsername,
		Password: cfg.BootstrapAdminPassword,
		RoleID:   role.ID,
	})
	return err
}

func cleanupLimiters(ctx context.Context, rl *apimiddleware.RateLimiter) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.CleanupLimiters(limiterIdleTimeout)
		}
	}
}
