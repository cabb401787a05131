package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	c "github.com/pittas-dairy/storefront/internal/cache"
	"github.com/pittas-dairy/storefront/internal/catalog"
	"github.com/pittas-dairy/storefront/internal/checkout"
	"github.com/pittas-dairy/storefront/internal/config"
	h "github.com/pittas-dairy/storefront/internal/http"
	"github.com/pittas-dairy/storefront/internal/logging"
	"github.com/pittas-dairy/storefront/internal/payment"
	"github.com/pittas-dairy/storefront/internal/publisher"
	"github.com/pittas-dairy/storefront/internal/repository"
	s "github.com/pittas-dairy/storefront/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := logging.New(cfg.LogLevel)

	ctx := context.Background()

	// Plan catalog
	plans, err := catalog.NewRepository(cfg.CatalogDBPath)
	if err != nil {
		fatal(logger, "failed to open catalog", err)
	}
	defer plans.Close()
	if err := plans.RunMigrations(); err != nil {
		fatal(logger, "failed to migrate catalog", err)
	}

	// Set up MongoDB connection
	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		fatal(logger, "failed to connect to MongoDB", err)
	}
	logger.Info("connected to MongoDB", "database", cfg.MongoDBName)

	users := repository.NewMongoRepository(mongoDB)
	ledger := repository.NewLedgerRepository(mongoDB)
	if err := ledger.CreateIndexes(ctx); err != nil {
		fatal(logger, "failed to create ledger indexes", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		fatal(logger, "redis connection failed", err)
	}
	logger.Info("redis ping succeeded", "addr", cfg.RedisAddr)

	cartStore := s.NewCartStore(users, c.NewRedisCache(redisClient), plans, logger)
	dashboard := s.NewDashboard(ledger)

	// Payment gateway
	widget := payment.NewHostedWidget()
	sdk := payment.NewSDKLoader(cfg.GatewayScriptURL, &http.Client{
		Timeout:   cfg.PaymentTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	})
	gateway := payment.NewGateway(payment.NewClient(cfg.PaymentAPIURL, cfg.PaymentTimeout), sdk, widget, logger)

	locker := c.NewRedisLocker(redisClient, cfg.CheckoutLockTTL)
	orchestrator := checkout.NewOrchestrator(cartStore, users, gateway, ledger, locker, logger)

	// Checkout runs and the outbox poller live until shutdown.
	runCtx, stopRuns := context.WithCancel(ctx)
	defer stopRuns()

	poller := publisher.NewOutboxPoller(ledger, cartStore, publisher.Config{
		Brokers:          cfg.KafkaBrokers,
		Topic:            cfg.LedgerTopic,
		RecoveryInterval: cfg.RecoveryInterval,
		RecoveryGrace:    cfg.RecoveryGrace,
	}, logger.With("component", "outbox"))
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Run(runCtx)
	}()

	validate := validator.New(validator.WithRequiredStructEnabled())
	router := h.NewRouter(h.Handlers{
		Plans:     h.NewPlanHandler(plans, cfg.RequestTimeout),
		Cart:      h.NewCartHandler(cartStore, validate, cfg.RequestTimeout),
		Delivery:  h.NewDeliveryHandler(users, cfg.RequestTimeout),
		Checkout:  h.NewCheckoutHandler(runCtx, orchestrator, widget, sdk, validate, cfg.RequestTimeout),
		Dashboard: h.NewDashboardHandler(dashboard, cfg.RequestTimeout),
	}, h.RouterConfig{
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	}, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("storefront starting", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(logger, "server error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	stopRuns()
	wg.Wait()
	if err := poller.Close(); err != nil {
		logger.Warn("failed to close ledger publisher", "error", err)
	}
	if err := mongoDB.Client().Disconnect(shutdownCtx); err != nil {
		logger.Warn("failed to disconnect MongoDB", "error", err)
	}

	logger.Info("server exited")
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
