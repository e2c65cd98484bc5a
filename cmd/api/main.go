package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dashmart/internal/config"
	"dashmart/internal/events"
	"dashmart/internal/handler"
	"dashmart/internal/notify"
	"dashmart/internal/repository"
	"dashmart/internal/router"
	"dashmart/internal/service"

	"github.com/redis/go-redis/v9"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting dashmart API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := repository.NewPool(ctx, cfg.Database.ConnectionString(), &repository.DBConfig{
		MaxOpenConns:    int32(cfg.Database.MaxConnections),
		MaxIdleConns:    int32(cfg.Database.MinConnections),
		ConnMaxLifetime: time.Duration(cfg.Database.MaxConnLifetime) * time.Second,
		ConnMaxIdleTime: 30 * time.Minute,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	// Initialize repositories
	userRepo := repository.NewUserRepository(pool, logger)
	shopRepo := repository.NewShopRepository(pool, logger)
	productRepo := repository.NewProductRepository(pool, logger)
	cartRepo := repository.NewCartRepository(pool, logger)
	couponRepo := repository.NewCouponRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	partnerRepo := repository.NewPartnerRepository(pool, logger)

	// Initialize the realtime notifier; fall back to a no-op when Redis
	// is disabled
	var notifier notify.Notifier = notify.NopNotifier{}
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Msg("redis unreachable, realtime notifications disabled")
		} else {
			notifier = notify.NewRedisNotifier(redisClient, logger)
		}
	} else {
		logger.Info().Msg("redis disabled, realtime notifications off")
	}
	defer notifier.Close()

	// Initialize the order event stream; fall back to a no-op when Kafka
	// is disabled
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Kafka.Enabled {
		publisher = events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
	} else {
		logger.Info().Msg("kafka disabled, order event stream off")
	}
	defer publisher.Close()

	// Initialize services
	shopService := service.NewShopService(shopRepo, logger)
	productService := service.NewProductService(productRepo, shopRepo, logger)
	cartService := service.NewCartService(cartRepo, productRepo, shopRepo, couponRepo, logger)
	couponService := service.NewCouponService(couponRepo, logger)
	orderService := service.NewOrderService(
		orderRepo, productRepo, shopRepo, cartRepo, couponRepo, userRepo, partnerRepo,
		notifier, publisher, logger,
	)
	deliveryService := service.NewDeliveryService(partnerRepo, orderRepo, notifier, publisher, logger)

	// Initialize HTTP handlers
	handlers := router.Handlers{
		Shop:     handler.NewShopHandler(shopService, logger),
		Product:  handler.NewProductHandler(productService, logger),
		Cart:     handler.NewCartHandler(cartService, logger),
		Order:    handler.NewOrderHandler(orderService, logger),
		Delivery: handler.NewDeliveryHandler(deliveryService, logger),
		Coupon:   handler.NewCouponHandler(couponService, logger),
	}

	// Initialize router
	mux := router.New(handlers, cfg.Auth.GatewayKey, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}
