package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/swiftdropng/swiftdrop-backend/api/controllers"
	"github.com/swiftdropng/swiftdrop-backend/api/routes"
	"github.com/swiftdropng/swiftdrop-backend/internal/address"
	"github.com/swiftdropng/swiftdrop-backend/internal/bids"
	"github.com/swiftdropng/swiftdrop-backend/internal/payments"
	"github.com/swiftdropng/swiftdrop-backend/internal/requests"
	"github.com/swiftdropng/swiftdrop-backend/pkg/config"
	"github.com/swiftdropng/swiftdrop-backend/pkg/db"
	"github.com/swiftdropng/swiftdrop-backend/pkg/logger"
	"github.com/swiftdropng/swiftdrop-backend/pkg/maps"
	"github.com/swiftdropng/swiftdrop-backend/pkg/migrate"
	"github.com/swiftdropng/swiftdrop-backend/pkg/outbox"
	"github.com/swiftdropng/swiftdrop-backend/pkg/redis"
	"github.com/swiftdropng/swiftdrop-backend/pkg/square"
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

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
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

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	squareClient, err := square.NewClient(context.Background(), cfg.Square, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap square", err)
		os.Exit(1)
	}

	var mapsClient *maps.Client
	if cfg.GoogleMaps.APIKey != "" {
		mapsClient, err = maps.NewClient(cfg.GoogleMaps.APIKey)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap maps client", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "maps api key missing, address endpoints degraded")
	}

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	requestsService, err := requests.NewService(requests.NewRepository(dbClient.DB()), dbClient, outboxService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create requests service", err)
		os.Exit(1)
	}
	bidsService, err := bids.NewService(bids.NewRepository(dbClient.DB()), dbClient, outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create bids service", err)
		os.Exit(1)
	}
	paymentsService, err := payments.NewService(payments.NewRepository(dbClient.DB()), dbClient, outboxService, squareClient, redisClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}
	addressService := address.NewService(mapsClient)

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
		Handler: routes.NewRouter(cfg, logg, routes.Deps{
			Requests: requestsService,
			Bids:     bidsService,
			Payments: paymentsService,
			Address:  addressService,
			Square:   squareClient,
			Limiter:  redisClient,
			Readiness: map[string]controllers.Pinger{
				"database": dbClient,
				"redis":    redisClient,
			},
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
