package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pricecheck/backend/config"
	httpDelivery "github.com/pricecheck/backend/internal/delivery/http"
	"github.com/pricecheck/backend/internal/domain"
	"github.com/pricecheck/backend/internal/infrastructure/cache"
	"github.com/pricecheck/backend/internal/infrastructure/keepa"
	"github.com/pricecheck/backend/internal/infrastructure/redirect"
	"github.com/pricecheck/backend/internal/infrastructure/storage"
	"github.com/pricecheck/backend/internal/logger"
	"github.com/pricecheck/backend/internal/metrics"
	"github.com/pricecheck/backend/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "pricecheck: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting PriceCheck backend",
		logger.String("environment", cfg.Server.Environment),
		logger.String("port", cfg.Server.Port),
		logger.String("cache_type", cfg.Cache.Type),
		logger.Duration("cache_ttl", cfg.Cache.TTL),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Initialize infrastructure dependencies
	resultCache, closeCache, err := newCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	keepaClient := keepa.NewClient(keepa.Config{
		APIKey:            cfg.Keepa.APIKey,
		BaseURL:           cfg.Keepa.BaseURL,
		Domain:            cfg.Keepa.Domain,
		Timeout:           cfg.Keepa.Timeout,
		RequestsPerMinute: cfg.RateLimit.Pricing,
	}, log, m)

	// Enable debug mode in development environment
	if cfg.Server.Environment == "development" {
		keepaClient.SetDebug(true)
		log.Debug("Keepa client debug mode enabled")
	}

	if keepaClient.Configured() {
		log.Info("Keepa API configured", logger.String("base_url", cfg.Keepa.BaseURL), logger.Int("domain", cfg.Keepa.Domain))
	} else {
		log.Warn("Keepa API key not configured, lookups will fail", logger.String("base_url", cfg.Keepa.BaseURL))
	}

	resolver := redirect.NewResolver(&http.Client{}, redirect.Config{
		MaxHops:    cfg.Resolver.MaxHops,
		HopTimeout: cfg.Resolver.HopTimeout,
		UserAgent:  cfg.Resolver.UserAgent,
	}, log.With(logger.String("component", "resolver")), m)

	subscriberFile := storage.NewSubscriberFile(cfg.Storage.SubscribersFile)
	if err := subscriberFile.Init(); err != nil {
		return err
	}
	log.Info("Subscriber storage ready", logger.String("path", subscriberFile.Path()))

	// Initialize usecase layer
	lookupService := usecase.NewLookupService(resultCache, keepaClient, resolver, usecase.LookupServiceConfig{
		MarketplaceDomain: cfg.Marketplace.Domain,
		PartnerTag:        cfg.Marketplace.PartnerTag,
		CacheTTL:          cfg.Cache.TTL,
	}, log.With(logger.String("component", "lookup")), m)

	subscriptionService := usecase.NewSubscriptionService(subscriberFile, log.With(logger.String("component", "subscriptions")))

	analyticsService, err := usecase.NewAnalyticsService(ctx,
		storage.NewAnalyticsFile(cfg.Storage.AnalyticsFile),
		log.With(logger.String("component", "analytics")),
	)
	if err != nil {
		return err
	}

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(lookupService, subscriptionService, analyticsService, log)
	router := httpDelivery.SetupRouter(cfg, handler, log, m)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server listening", logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	log.Info("Server stopped")
	return nil
}

// newCache builds the configured result cache and its cleanup function
func newCache(ctx context.Context, cfg *config.Config) (domain.CacheRepository, func(), error) {
	if cfg.Cache.Type == "redis" {
		rdb, err := cache.NewRedisClient(ctx, cfg.Cache.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		rc := cache.NewRedisCache(rdb, "pricecheck")
		return rc, func() { _ = rc.Close() }, nil
	}

	mc := cache.NewMemoryCache()
	return mc, func() { _ = mc.Close() }, nil
}
