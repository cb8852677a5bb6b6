package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"fashionhub/internal/cache"
	"fashionhub/internal/config"
	"fashionhub/internal/database"
	"fashionhub/internal/handlers"
	"fashionhub/internal/repositories"
	"fashionhub/internal/seed"
	"fashionhub/internal/server"
	"fashionhub/internal/services"
	"fashionhub/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	// --- Database ---
	db, err := database.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		slog.Error("failed to open database", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}

	// --- Optional Redis product cache ---
	var productCache cache.ProductCache
	checks := map[string]handlers.Checker{
		"database": func(ctx context.Context) error { return database.Ping(ctx, db) },
	}
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		redisCache := cache.NewRedisProductCache(redisClient, cfg.ProductCacheTTL)
		productCache = redisCache
		checks["redis"] = redisCache.Ping
	}

	// --- Optional RabbitMQ order events ---
	var publisher services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			slog.Warn("RabbitMQ unavailable, order events disabled", "error", err)
		} else {
			defer mqClient.Close()
			publisher = mqClient
			checks["rabbitmq"] = func(context.Context) error {
				if !mqClient.Connected() {
					return rabbitmq.ErrNotConnected
				}
				return nil
			}
			if err := mqClient.ConsumeOrderEvents(rabbitmq.LogOrderEvent); err != nil {
				slog.Warn("failed to start order event consumer", "error", err)
			}
		}
	}

	// --- Repositories and services ---
	store := repositories.NewGORMStore(db)
	userRepo := repositories.NewGORMUserRepository(db)

	authService := services.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpiration)
	productService := services.NewProductService(store.Products(), productCache)
	cartService := services.NewCartService(store.Carts(), store.Products())
	orderService := services.NewOrderService(store, publisher, productCache)

	bootstrap(store, authService, cfg)

	// --- HTTP server ---
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	app := server.New(server.Services{
		Auth:     authService,
		Products: productService,
		Carts:    cartService,
		Orders:   orderService,
		Health:   checks,
	}, server.Options{
		CORSOrigins:     cfg.CORSOrigins,
		RateLimitMax:    cfg.RateLimitMax,
		RateLimitWindow: cfg.RateLimitWindow,
		UploadsDir:      cfg.UploadsDir,
		RequestLog:      true,
	}, registry, registry)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", cfg.AppPort)
		if err := app.Listen(cfg.AppPort); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("error during shutdown", "error", err)
	}
	slog.Info("server gracefully stopped")
}

// bootstrap creates the admin account and the starter catalog when
// configured to.
func bootstrap(store *repositories.GORMStore, authService *services.AuthService, cfg *config.Config) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if err := authService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			slog.Error("failed to ensure admin account", "error", err)
		}
	}
	if cfg.SeedProducts {
		if _, err := seed.Products(ctx, store.Products(), seed.DefaultCatalog); err != nil {
			slog.Error("failed to seed products", "error", err)
		}
	}
}
