package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/tahfidz-api/api/swagger"
	"github.com/noah-isme/tahfidz-api/internal/handler"
	"github.com/noah-isme/tahfidz-api/internal/repository"
	"github.com/noah-isme/tahfidz-api/internal/service"
	"github.com/noah-isme/tahfidz-api/pkg/cache"
	"github.com/noah-isme/tahfidz-api/pkg/config"
	"github.com/noah-isme/tahfidz-api/pkg/database"
	"github.com/noah-isme/tahfidz-api/pkg/logger"
	"github.com/noah-isme/tahfidz-api/pkg/roster"
	"github.com/noah-isme/tahfidz-api/pkg/tracing"
)

// @title Tahfidz API
// @version 0.1.0
// @description Quran memorization progress and recheck tracking
// @BasePath /api/v1
// @schemes http

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	shutdownTracing, err := tracing.Setup(ctx, cfg, logr)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logr.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Roster.CacheEnabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, roster cache disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
		}
	}

	deps, err := buildDependencies(cfg, db, redisClient, logr)
	if err != nil {
		return err
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	router := newRouter(cfg, logr, deps)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		_ = srv.Close()
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

type dependencies struct {
	metrics  *service.MetricsService
	tokens   *service.TokenService
	roster   *handler.RosterHandler
	hafalan  *handler.HafalanHandler
	rechecks *handler.RecheckHandler
	partials *handler.PartialHandler
	health   *handler.MetricsHandler
}

func buildDependencies(cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, logr *zap.Logger) (*dependencies, error) {
	validate := validator.New()
	metrics := service.NewMetricsService()

	source, err := rosterSource(cfg, db)
	if err != nil {
		return nil, err
	}

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, "tahfidz")
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Roster.CacheTTL, logr, redisClient != nil)
	rosterSvc := service.NewRosterService(source, cacheSvc, cfg.Roster.CacheTTL, logr)

	records := repository.NewHafalanRepository(db)
	history := repository.NewHistoryRepository(db)
	rechecks := repository.NewRecheckRepository(db)
	partials := repository.NewPartialHafalanRepository(db)

	ayatSvc := service.NewAyatService(records, history, rosterSvc, db, metrics, validate, logr,
		service.AyatServiceConfig{ConflictRetries: cfg.Hafalan.ConflictRetries})
	recheckSvc := service.NewRecheckService(records, rechecks, history, rosterSvc, db, metrics, logr)
	partialSvc := service.NewPartialService(partials, ayatSvc, rosterSvc, db, metrics, validate, logr)
	hafalanSvc := service.NewHafalanService(records, history, db, metrics, validate, logr)
	historySvc := service.NewHistoryService(records, history)

	checks := map[string]handler.ReadinessCheck{"postgres": db.PingContext}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	return &dependencies{
		metrics:  metrics,
		tokens:   service.NewTokenService(cfg.JWT.Secret),
		roster:   handler.NewRosterHandler(rosterSvc),
		hafalan:  handler.NewHafalanHandler(ayatSvc, hafalanSvc, historySvc),
		rechecks: handler.NewRecheckHandler(recheckSvc),
		partials: handler.NewPartialHandler(partialSvc),
		health:   handler.NewMetricsHandler(metrics, checks),
	}, nil
}

func rosterSource(cfg *config.Config, db *sqlx.DB) (service.RosterSource, error) {
	if cfg.Roster.Source == config.RosterSourceDatabase {
		return repository.NewVerseRosterRepository(db), nil
	}
	r, err := roster.Load(cfg.Roster.File)
	if err != nil {
		return nil, fmt.Errorf("load roster %s: %w", cfg.Roster.File, err)
	}
	return r, nil
}
