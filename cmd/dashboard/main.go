package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bankdash/bankdash/internal/app"
	"github.com/bankdash/bankdash/internal/bank"
	"github.com/bankdash/bankdash/internal/dashboard"
	"github.com/bankdash/bankdash/internal/gateway"
	"github.com/bankdash/bankdash/internal/observability"
	"github.com/bankdash/bankdash/internal/platform/cache"
	"github.com/bankdash/bankdash/internal/shared"
	"github.com/bankdash/bankdash/internal/view"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping dashboard startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err == nil {
		err = cfg.RequireSessionSecrets()
	}
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	metrics := observability.NewMetrics()

	redisClient, err := cache.New(ctx, cfg.Redis())
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "bankdash_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	client := gateway.New(cfg.BankAPIURL,
		gateway.WithTimeout(cfg.BankAPITimeout),
		gateway.WithLogger(logger),
		gateway.WithObserver(metrics),
	)
	validator := bank.NewValidator()
	notifier := dashboard.NewSessionNotifier(logger)
	registry := dashboard.NewRegistry(func() *dashboard.Controller {
		return dashboard.NewController(client, notifier, validator, logger)
	}, cfg.ControllerIdleTTL, logger)
	go registry.Run(ctx)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		DashboardHandler: dashboard.NewHandler(logger, registry, templates, csrfManager),
		Metrics:          metrics,
		Ready:            cache.Probe(redisClient, 2*time.Second),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting dashboard", slog.String("addr", cfg.AppAddr), slog.String("bank_api", client.BaseURL()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
