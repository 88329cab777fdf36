package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-erp/meridian-erp/internal/accounts"
	"github.com/meridian-erp/meridian-erp/internal/app"
	"github.com/meridian-erp/meridian-erp/internal/assets"
	"github.com/meridian-erp/meridian-erp/internal/invoicing"
	"github.com/meridian-erp/meridian-erp/internal/ledger"
	"github.com/meridian-erp/meridian-erp/internal/observability"
	"github.com/meridian-erp/meridian-erp/internal/payments"
	"github.com/meridian-erp/meridian-erp/internal/platform/cache"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/reporting"
	"github.com/meridian-erp/meridian-erp/internal/shared"
	"github.com/meridian-erp/meridian-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.NewClient(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, reports served uncached", slog.Any("error", err))
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(dbpool)
	metrics := observability.NewMetrics()
	reportCache := cache.New(redisClient, cfg.ReportCacheTTL)

	accountsRepo := accounts.NewRepository(dbpool)
	accountsService := accounts.NewService(accountsRepo, auditLogger)

	ledgerRepo := ledger.NewRepository(dbpool)
	ledgerService := ledger.NewService(ledgerRepo, auditLogger, logger)
	ledgerService.WithMetrics(metrics)
	ledgerService.WithCacheInvalidator(reportCache)

	invoicingRepo := invoicing.NewRepository(dbpool)
	invoicingService := invoicing.NewService(invoicingRepo, ledgerService, accountsService, auditLogger, logger)

	paymentsRepo := payments.NewRepository(dbpool)
	paymentsService := payments.NewService(paymentsRepo, ledgerService, invoicingService, accountsService, auditLogger, logger)

	reportingRepo := reporting.NewRepository(dbpool)
	reportingService := reporting.NewService(reportingRepo, accountsService, invoicingService, reportCache)

	assetsRepo := assets.NewRepository(dbpool)
	assetsService := assets.NewService(assetsRepo, auditLogger, logger)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		AccountsHandler:  accounts.NewHandler(logger, accountsService),
		LedgerHandler:    ledger.NewHandler(logger, ledgerService),
		InvoicingHandler: invoicing.NewHandler(logger, invoicingService),
		PaymentsHandler:  payments.NewHandler(logger, paymentsService),
		ReportingHandler: reporting.NewHandler(logger, reportingService),
		AssetsHandler:    assets.NewHandler(logger, assetsService),
		JobsHandler:      jobs.NewHandler(inspector, logger),
		Pool:             dbpool,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
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
