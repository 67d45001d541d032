package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/templategenius/revenue-intel-backend/internal/app"
	redisclient "github.com/templategenius/revenue-intel-backend/internal/clients/redis"
	"github.com/templategenius/revenue-intel-backend/internal/data/db"
	clientrepo "github.com/templategenius/revenue-intel-backend/internal/data/repos/client"
	contentrepo "github.com/templategenius/revenue-intel-backend/internal/data/repos/content"
	paymentrepo "github.com/templategenius/revenue-intel-backend/internal/data/repos/payment"
	internalhttp "github.com/templategenius/revenue-intel-backend/internal/http"
	httpH "github.com/templategenius/revenue-intel-backend/internal/http/handlers"
	"github.com/templategenius/revenue-intel-backend/internal/jobs/worker"
	"github.com/templategenius/revenue-intel-backend/internal/platform/logger"
	"github.com/templategenius/revenue-intel-backend/internal/services"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Config
	cfg, err := app.LoadConfig(log)
	if err != nil {
		log.Fatal("Config load failed", "error", err)
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	thePG := postgresService.DB()
	if err := db.AutoMigrateAll(thePG); err != nil {
		log.Fatal("Auto migration failed", "error", err)
	}
	if err := db.EnsureRevenueIndexes(thePG); err != nil {
		log.Fatal("Index migration failed", "error", err)
	}

	// Repos
	log.Info("Setting up Repos from main...")
	clientRepo := clientrepo.NewClientRepo(thePG, log)
	versionRepo := contentrepo.NewContentVersionRepo(thePG, log)
	snapshotRepo := contentrepo.NewContentSnapshotRepo(thePG, log)
	eventRepo := paymentrepo.NewPaymentEventRepo(thePG, log)
	correlationRepo := paymentrepo.NewCorrelationRepo(thePG, log)
	failureRepo := paymentrepo.NewWebhookFailureRepo(thePG, log)

	// Metrics cache (optional; dashboard reads fall through to the DB)
	var cache redisclient.MetricsCache
	if cfg.RedisAddr != "" {
		cache, err = redisclient.NewMetricsCache(log, cfg.RedisAddr, cfg.MetricsCacheTTL)
		if err != nil {
			log.Warn("Redis init failed, running without metrics cache", "error", err)
			cache = redisclient.NoopMetricsCache{}
		}
	} else {
		cache = redisclient.NoopMetricsCache{}
	}
	defer cache.Close()

	// Services
	log.Info("Setting up Services from main...")
	clientService := services.NewClientService(thePG, log, clientRepo)
	outcomeService := services.NewOutcomeService(thePG, log, cfg.MinHypothesisLength, clientRepo, versionRepo, cache)
	snapshotService := services.NewSnapshotService(thePG, log, clientRepo, versionRepo, snapshotRepo)
	webhookService := services.NewWebhookIngestService(thePG, log, cfg.WebhookSecret, cfg.WebhookTolerance, eventRepo, failureRepo, clientRepo)
	correlationService := services.NewCorrelationService(thePG, log, cfg.SnapshotMaxAge, correlationRepo, snapshotRepo, versionRepo, cache)
	dashboardService := services.NewDashboardService(thePG, log, correlationRepo, eventRepo, cache)

	// Correlation worker
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := worker.NewWorker(thePG, log, eventRepo, correlationService, worker.Config{
		Concurrency:  cfg.WorkerConcurrency,
		MaxAttempts:  cfg.WorkerMaxAttempts,
		RetryDelay:   cfg.WorkerRetryDelay,
		StaleRunning: cfg.WorkerStaleRunning,
	})
	w.Start(ctx)

	// Handlers
	log.Info("Setting up Handlers from main...")
	router := internalhttp.NewRouter(internalhttp.RouterConfig{
		Log:                log,
		ClientHandler:      httpH.NewClientHandler(clientService, outcomeService, snapshotService),
		WebhookHandler:     httpH.NewWebhookHandler(webhookService),
		CorrelationHandler: httpH.NewCorrelationHandler(correlationService, clientService),
		DashboardHandler:   httpH.NewDashboardHandler(dashboardService, webhookService),
		HealthHandler:      httpH.NewHealthHandler(),
	})

	log.Info("Starting HTTP server", "port", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("HTTP server exited", "error", err)
	}
}
