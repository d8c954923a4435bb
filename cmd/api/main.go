package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/radityapw/eggmart-backend/api/routes"
	"github.com/radityapw/eggmart-backend/internal/dashboard"
	"github.com/radityapw/eggmart-backend/internal/ledger"
	"github.com/radityapw/eggmart-backend/internal/listings"
	"github.com/radityapw/eggmart-backend/internal/orders"
	"github.com/radityapw/eggmart-backend/internal/scans"
	"github.com/radityapw/eggmart-backend/pkg/config"
	"github.com/radityapw/eggmart-backend/pkg/db"
	"github.com/radityapw/eggmart-backend/pkg/logger"
	"github.com/radityapw/eggmart-backend/pkg/metrics"
	"github.com/radityapw/eggmart-backend/pkg/midtrans"
	"github.com/radityapw/eggmart-backend/pkg/migrate"
	"github.com/radityapw/eggmart-backend/pkg/outbox"
	"github.com/radityapw/eggmart-backend/pkg/redis"
)

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
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	var dbClient *db.Client
	if cfg.FeatureFlags.UseSQLite {
		dbClient, err = db.NewSQLite("eggmart.db")
	} else {
		dbClient, err = db.New(context.Background(), cfg.DB, logg)
	}
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	snapClient, err := midtrans.NewClient(context.Background(), cfg.Midtrans, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create midtrans client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	orderMetrics := metrics.NewOrderMetrics(registry)

	gormDB := dbClient.DB()
	ledgerRepo := ledger.NewRepository(gormDB)
	listingsRepo := listings.NewRepository(gormDB)
	ordersRepo := orders.NewRepository(gormDB)
	outboxSvc := outbox.NewService(outbox.NewRepository(gormDB), logg)

	scansSvc, err := scans.NewService(dbClient, ledgerRepo, outboxSvc, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create scans service", err)
		os.Exit(1)
	}

	listingsSvc, err := listings.NewService(dbClient, listingsRepo, ledgerRepo, outboxSvc, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create listings service", err)
		os.Exit(1)
	}

	ordersSvc, err := orders.NewService(dbClient, ordersRepo, listingsRepo, ledgerRepo, outboxSvc, redisClient, snapClient, orderMetrics, cfg.Orders, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	dashboardSvc, err := dashboard.NewService(dashboard.NewRepository(gormDB), ledgerRepo, listingsSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create dashboard service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:    cfg,
			Logger:    logg,
			DB:        dbClient,
			Redis:     redisClient,
			Scans:     scansSvc,
			Listings:  listingsSvc,
			Orders:    ordersSvc,
			Dashboard: dashboardSvc,
			Registry:  registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
