package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/angelmondragon/mealtime-backend/api/routes"
	"github.com/angelmondragon/mealtime-backend/internal/mealplans"
	"github.com/angelmondragon/mealtime-backend/internal/shoppinglists"
	"github.com/angelmondragon/mealtime-backend/pkg/config"
	"github.com/angelmondragon/mealtime-backend/pkg/db"
	"github.com/angelmondragon/mealtime-backend/pkg/instance"
	"github.com/angelmondragon/mealtime-backend/pkg/lock"
	"github.com/angelmondragon/mealtime-backend/pkg/logger"
	"github.com/angelmondragon/mealtime-backend/pkg/metrics"
	"github.com/angelmondragon/mealtime-backend/pkg/migrate"
	"github.com/angelmondragon/mealtime-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       cfg.App.LogLevel,
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	var (
		redisClient *redis.Client
		locker      lock.Locker
	)
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		redisLocker, err := lock.NewRedisLocker(redisClient)
		if err != nil {
			logg.Error(context.Background(), "failed to create period locker", err)
			os.Exit(1)
		}
		locker = redisLocker
	} else {
		logg.Warn(context.Background(), "redis not configured; period locking and idempotent replays disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	shoppingListMetrics := metrics.NewShoppingListMetrics(registry)

	mealPlanRepo := mealplans.NewRepository(dbClient.DB())
	mealPlanService, err := mealplans.NewService(mealPlanRepo, cfg.ShoppingList.MaxPeriodDays)
	if err != nil {
		logg.Error(context.Background(), "failed to create meal plan service", err)
		os.Exit(1)
	}

	shoppingListService, err := shoppinglists.NewService(shoppinglists.ServiceParams{
		Repo:          shoppinglists.NewRepository(dbClient.DB()),
		MealPlans:     mealPlanRepo,
		TxRunner:      dbClient,
		Locker:        locker,
		Logger:        logg,
		Metrics:       shoppingListMetrics,
		LockTTL:       cfg.ShoppingList.LockTTL,
		HistoryDays:   cfg.ShoppingList.HistoryDays,
		MaxPeriodDays: cfg.ShoppingList.MaxPeriodDays,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create shopping list service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.ID(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Params{
			Config:         cfg,
			Logger:         logg,
			DB:             dbClient,
			Redis:          redisClient,
			ShoppingLists:  shoppingListService,
			MealPlans:      mealPlanService,
			HTTPMetrics:    metrics.NewHTTPMetrics(registry),
			MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	exitCode := 0
	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			exitCode = 1
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			exitCode = 1
		}
		cancel()
	}

	var closeErr error
	if redisClient != nil {
		closeErr = multierr.Append(closeErr, redisClient.Close())
	}
	closeErr = multierr.Append(closeErr, dbClient.Close())
	if closeErr != nil {
		logg.Error(ctx, "error closing resources", closeErr)
		exitCode = 1
	}
	os.Exit(exitCode)
}
