package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"jiopay/internal/bootstrap"
	"jiopay/internal/config"
	cronpkg "jiopay/internal/cron"
	"jiopay/internal/handler"
	"jiopay/internal/payment"
	"jiopay/internal/reconcile"
	"jiopay/internal/repository"
	"jiopay/internal/router"
)

func main() {
	// --- Logger ---
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// --- Config ---
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// --- Database ---
	db, err := config.NewDatabase(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := bootstrap.MigrateAndSeed(db); err != nil {
		logger.Fatal("Failed to bootstrap database schema", zap.Error(err))
	}

	// --- Order lock (Redis with in-memory fallback) ---
	locker, lockErr := reconcile.NewOrderLocker(cfg.Redis.Addr, cfg.Redis.Pass, cfg.Redis.DB)
	if lockErr != nil {
		logger.Warn("Redis unavailable for order locks, using in-memory fallback", zap.Error(lockErr))
	}

	// --- Repositories ---
	orders := repository.NewOrderRepository(db, cfg.Server.PublicURL)
	sessions := repository.NewCheckoutSessionRepository(db)
	callbackLogs := repository.NewCallbackLogRepository(db)

	// --- Gateway client and reconciliation ---
	gateway := payment.NewClient(cfg.Gateway, logger)
	locator := reconcile.NewLocator(orders, logger)
	reconciler := reconcile.NewReconciler(orders, locator, locker, cfg.Gateway.PaymentMethod, logger)

	// --- Echo ---
	e := echo.New()
	e.HideBanner = true

	checkout := handler.NewCheckoutHandler(
		reconciler,
		locator,
		sessions,
		callbackLogs,
		gateway,
		cfg.Session.TTL,
		cfg.Server.PublicURL+"/checkout",
		logger,
	)
	router.Setup(e, checkout, sessions, logger)

	// --- Cron Scheduler ---
	scheduler := cronpkg.New(sessions, callbackLogs, logger)
	scheduler.Start()

	// --- Start Server ---
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	go func() {
		logger.Info("Starting Jio Pay checkout server", zap.String("addr", addr))
		if err := e.Start(addr); err != nil {
			logger.Info("Server stopped", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
