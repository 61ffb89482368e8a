package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/schoolmart/schoolmart-cart/api/routes"
	"github.com/schoolmart/schoolmart-cart/internal/cartstore"
	"github.com/schoolmart/schoolmart-cart/pkg/config"
	"github.com/schoolmart/schoolmart-cart/pkg/db"
	"github.com/schoolmart/schoolmart-cart/pkg/logger"
	"github.com/schoolmart/schoolmart-cart/pkg/migrate"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cartstore"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = "sqlite"
	}

	logg = logger.New(logger.Options{
		ServiceName: "cartstore",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
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

	svc, err := cartstore.NewService(cartstore.NewRepository(dbClient.DB()), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to build cart service", err)
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
	logg.Info(ctx, "starting cartstore server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewStoreRouter(cfg, logg, dbClient, svc),
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
			logg.Error(ctx, "cartstore server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		logg.Info(ctx, "shutting down cartstore")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := multierr.Combine(server.Shutdown(shutdownCtx), dbClient.Close()); err != nil {
			logg.Error(ctx, "error during shutdown", err)
			os.Exit(1)
		}
	}
}
