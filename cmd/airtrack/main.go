package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/airtrack/airtrack/cmd/airtrack/cli"
	"github.com/airtrack/airtrack/internal/airquality"
	"github.com/airtrack/airtrack/internal/app"
	"github.com/airtrack/airtrack/internal/auth"
	"github.com/airtrack/airtrack/internal/cities"
	"github.com/airtrack/airtrack/internal/observability"
	"github.com/airtrack/airtrack/internal/platform/cache"
	"github.com/airtrack/airtrack/internal/platform/db"
	"github.com/airtrack/airtrack/internal/users"
	"github.com/airtrack/airtrack/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if len(os.Args) > 1 && os.Args[1] == "jobs" {
		jobsCLI := cli.NewJobsCLI(cfg.RedisAddr)
		defer func() {
			_ = jobsCLI.Close()
		}()
		if err := jobsCLI.Run(ctx, os.Args[2:], os.Stdout); err != nil {
			logger.Error("jobs command", slog.Any("error", err))
			os.Exit(1)
		}
		return
	}

	if cfg.DBAutoMigrate {
		if err := db.Migrate(ctx, cfg.PGDSN); err != nil {
			logger.Error("run migrations", slog.Any("error", err))
			os.Exit(1)
		}
	}

	dbpool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		// The API keeps serving without Redis; readiness reports it down.
		logger.Warn("redis unavailable", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	usersRepo := users.NewRepository(dbpool)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiresIn)
	authService := auth.NewService(usersRepo, tokens, cfg.BcryptCost, logger)
	authMiddleware := auth.Middleware{Tokens: tokens, Logger: logger}
	authHandler := auth.NewHandler(logger, authService, authMiddleware)

	provider := airquality.NewClient(airquality.ClientConfig{
		GeocodingURL:  cfg.GeocodingURL,
		AirQualityURL: cfg.AirQualityURL,
		Timeout:       cfg.ProviderTimeout,
	})
	airQualityHandler := airquality.NewHandler(logger, airquality.NewService(provider))

	citiesService := cities.NewService(usersRepo, provider, cfg.MaxSavedCities, logger)
	citiesHandler := cities.NewHandler(logger, citiesService)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		_ = inspector.Close()
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	var rdb redis.UniversalClient
	if redisClient != nil {
		rdb = redisClient
	}
	readiness := app.NewReadiness(dbpool, rdb, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		AuthHandler:       authHandler,
		AuthMiddleware:    authMiddleware,
		CitiesHandler:     citiesHandler,
		AirQualityHandler: airQualityHandler,
		JobHandler:        jobHandler,
		Readiness:         readiness,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
