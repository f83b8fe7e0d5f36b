package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/bankdash/bankdash/internal/app"
	"github.com/bankdash/bankdash/internal/bank"
	"github.com/bankdash/bankdash/internal/bankapi"
	"github.com/bankdash/bankdash/internal/bankapi/migrations"
	"github.com/bankdash/bankdash/internal/observability"
	"github.com/bankdash/bankdash/internal/platform/db"
	"github.com/bankdash/bankdash/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping bankd startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	metrics := observability.NewMetrics()

	repo, closeStore, err := openRepository(ctx, cfg)
	if err != nil {
		logger.Error("open bank store", slog.String("driver", cfg.StoreDriver), slog.Any("error", err))
		os.Exit(1)
	}
	defer closeStore()

	var (
		opts       []bankapi.ServiceOption
		jobHandler *jobs.Handler
	)
	if cfg.AuditEnabled {
		redisOpts := cfg.AsynqRedis()
		jobClient := jobs.NewClient(redisOpts)
		defer func() {
			if err := jobClient.Close(); err != nil {
				logger.Warn("asynq client close", slog.Any("error", err))
			}
		}()
		inspector := asynq.NewInspector(redisOpts)
		defer inspector.Close()
		opts = append(opts, bankapi.WithEvents(jobClient))
		jobHandler = jobs.NewHandler(inspector, logger)
	}

	service := bankapi.NewService(repo, bank.NewValidator(), logger, opts...)
	router := app.NewAPIRouter(app.APIRouterParams{
		Logger:      logger,
		Config:      cfg,
		BankHandler: bankapi.NewHandler(service, logger),
		JobHandler:  jobHandler,
		Metrics:     metrics,
	})

	server := &http.Server{
		Addr:         cfg.APIAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting bank api",
			slog.String("addr", cfg.APIAddr),
			slog.String("driver", cfg.StoreDriver),
			slog.Bool("audit", cfg.AuditEnabled))
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

// openRepository migrates and opens the configured store.
func openRepository(ctx context.Context, cfg *app.Config) (bankapi.Repository, func(), error) {
	switch cfg.StoreDriver {
	case app.StoreDriverPostgres:
		if err := db.MigratePostgres(migrations.Postgres(), cfg.PGDSN); err != nil {
			return nil, nil, err
		}
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			return nil, nil, err
		}
		return bankapi.NewPostgresRepository(pool), pool.Close, nil
	case app.StoreDriverSQLite:
		sqlDB, err := db.OpenSQLite(ctx, cfg.SQLiteDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := db.MigrateSQLite(migrations.SQLite(), sqlDB); err != nil {
			_ = sqlDB.Close()
			return nil, nil, err
		}
		return bankapi.NewSQLiteRepository(sqlDB), func() { _ = sqlDB.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
}
