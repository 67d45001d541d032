package worker

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	paymentrepo "github.com/templategenius/revenue-intel-backend/internal/data/repos/payment"
	types "github.com/templategenius/revenue-intel-backend/internal/domain"
	"github.com/templategenius/revenue-intel-backend/internal/pkg/dbctx"
	"github.com/templategenius/revenue-intel-backend/internal/platform/logger"
	"github.com/templategenius/revenue-intel-backend/internal/services"
)

// Worker drains the correlation queue: payment events ingested by the
// webhook path are claimed here and correlated out of band, so the provider
// ack never waits on correlation and a correlation bug never surfaces as a
// webhook error. Retries are bounded; an event that exhausts its attempts
// stays failed and visible rather than looping forever.
type Worker struct {
	db           *gorm.DB
	log          *logger.Logger
	eventRepo    paymentrepo.PaymentEventRepo
	correlations services.CorrelationService

	concurrency  int
	maxAttempts  int
	retryDelay   time.Duration
	staleRunning time.Duration
	pollInterval time.Duration
}

type Config struct {
	Concurrency  int
	MaxAttempts  int
	RetryDelay   time.Duration
	StaleRunning time.Duration
	PollInterval time.Duration
}

func NewWorker(
	db *gorm.DB,
	baseLog *logger.Logger,
	eventRepo paymentrepo.PaymentEventRepo,
	correlations services.CorrelationService,
	cfg Config,
) *Worker {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 5
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 30 * time.Second
	}
	if cfg.StaleRunning <= 0 {
		cfg.StaleRunning = 30 * time.Minute
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 1 * time.Second
	}
	return &Worker{
		db:           db,
		log:          baseLog.With("component", "CorrelationWorker"),
		eventRepo:    eventRepo,
		correlations: correlations,
		concurrency:  cfg.Concurrency,
		maxAttempts:  cfg.MaxAttempts,
		retryDelay:   cfg.RetryDelay,
		staleRunning: cfg.StaleRunning,
		pollInterval: cfg.PollInterval,
	}
}

func (w *Worker) Start(ctx context.Context) {
	w.log.Info("Starting correlation worker pool", "concurrency", w.concurrency)
	for i := 0; i < w.concurrency; i++ {
		workerID := i + 1
		go w.runLoop(ctx, workerID)
	}
}

func (w *Worker) runLoop(ctx context.Context, workerID int) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Worker loop stopped", "worker_id", workerID)
			return
		case <-ticker.C:
			event, err := w.eventRepo.ClaimNextCorrelatable(dbctx.Context{Ctx: ctx}, w.maxAttempts, w.retryDelay, w.staleRunning)
			if err != nil {
				w.log.Warn("ClaimNextCorrelatable failed", "worker_id", workerID, "error", err)
				continue
			}
			if event == nil {
				continue
			}
			w.process(ctx, workerID, event)
		}
	}
}

func (w *Worker) process(ctx context.Context, workerID int, event *types.PaymentEvent) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("Correlation panic",
				"worker_id", workerID,
				"payment_event_id", event.ID,
				"panic", r,
			)
			w.finish(ctx, event, types.CorrelationErrored, fmt.Sprintf("panic: %v", r))
		}
	}()

	if _, err := w.correlations.Correlate(ctx, event); err != nil {
		w.log.Warn("Correlation attempt failed",
			"worker_id", workerID,
			"payment_event_id", event.ID,
			"attempt", event.CorrelationAttempts,
			"error", err,
		)
		w.finish(ctx, event, types.CorrelationErrored, err.Error())
		return
	}
	w.finish(ctx, event, types.CorrelationDone, "")
}

func (w *Worker) finish(ctx context.Context, event *types.PaymentEvent, status, errMsg string) {
	if err := w.eventRepo.MarkCorrelation(dbctx.Context{Ctx: ctx}, event.ID, status, errMsg); err != nil {
		w.log.Error("Failed to update correlation status",
			"payment_event_id", event.ID,
			"status", status,
			"error", err,
		)
	}
}
