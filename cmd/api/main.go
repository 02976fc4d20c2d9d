package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hmoralesdev/retailpoint-backend/api/routes"
	"github.com/hmoralesdev/retailpoint-backend/internal/auth"
	"github.com/hmoralesdev/retailpoint-backend/internal/cart"
	"github.com/hmoralesdev/retailpoint-backend/internal/checkout"
	"github.com/hmoralesdev/retailpoint-backend/internal/orders"
	"github.com/hmoralesdev/retailpoint-backend/internal/products"
	"github.com/hmoralesdev/retailpoint-backend/internal/stockrequests"
	"github.com/hmoralesdev/retailpoint-backend/internal/tasks"
	"github.com/hmoralesdev/retailpoint-backend/internal/users"
	"github.com/hmoralesdev/retailpoint-backend/pkg/auth/session"
	"github.com/hmoralesdev/retailpoint-backend/pkg/config"
	"github.com/hmoralesdev/retailpoint-backend/pkg/db"
	"github.com/hmoralesdev/retailpoint-backend/pkg/logger"
	"github.com/hmoralesdev/retailpoint-backend/pkg/metrics"
	"github.com/hmoralesdev/retailpoint-backend/pkg/migrate"
	"github.com/hmoralesdev/retailpoint-backend/pkg/redis"
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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	usersRepo := users.NewRepository(dbClient.DB())
	productsRepo := products.NewRepository(dbClient.DB())
	cartRepo := cart.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())
	tasksRepo := tasks.NewRepository(dbClient.DB())
	stockRequestsRepo := stockrequests.NewRepository(dbClient.DB())

	authService, err := auth.NewService(usersRepo, sessionManager, cfg.JWT, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}
	usersService, err := users.NewService(usersRepo, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}
	productsService, err := products.NewService(
		productsRepo,
		products.NewCategoryRepository(dbClient.DB()),
		products.NewSupplierRepository(dbClient.DB()),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create products service", err)
		os.Exit(1)
	}
	cartService, err := cart.NewService(cartRepo, productsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}
	ordersService, err := orders.NewService(ordersRepo, productsRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}
	checkoutService, err := checkout.NewService(dbClient, cartRepo, ordersRepo, productsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}
	tasksService, err := tasks.NewService(tasksRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create tasks service", err)
		os.Exit(1)
	}
	stockRequestsService, err := stockrequests.NewService(stockRequestsRepo, productsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create stock requests service", err)
		os.Exit(1)
	}

	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)

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
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			httpMetrics,
			sessionManager,
			authService,
			usersService,
			productsService,
			cartService,
			checkoutService,
			ordersService,
			tasksService,
			stockRequestsService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
