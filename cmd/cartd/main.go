package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/schoolmart/schoolmart-cart/api/routes"
	"github.com/schoolmart/schoolmart-cart/internal/cart"
	"github.com/schoolmart/schoolmart-cart/internal/gateway"
	"github.com/schoolmart/schoolmart-cart/internal/session"
	"github.com/schoolmart/schoolmart-cart/pkg/config"
	"github.com/schoolmart/schoolmart-cart/pkg/logger"
	"github.com/schoolmart/schoolmart-cart/pkg/metrics"
	"github.com/schoolmart/schoolmart-cart/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cartd"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cartd",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	gatewayClient, err := gateway.NewClient(cfg.Gateway, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build gateway client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	cartMetrics := metrics.NewCartMetrics(registry)

	sessions, err := session.NewRegistry(session.RegistryParams{
		Gateway:    gatewayClient,
		Normalizer: cart.NewNormalizer(cfg.Cart.PlaceholderImage, cfg.Cart.DefaultCategory),
		Notifier:   cart.LogNotifier{Logg: logg},
		Logger:     logg,
		Metrics:    cartMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build session registry", err)
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
	logg.Info(ctx, "starting cartd server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewSessionRouter(cfg, logg, redisClient, sessions, registry),
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "cartd server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		logg.Info(ctx, "shutting down cartd")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := multierr.Combine(server.Shutdown(shutdownCtx), redisClient.Close()); err != nil {
			logg.Error(ctx, "error during shutdown", err)
			os.Exit(1)
		}
	}
}
