package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	redisclient "github.com/templategenius/revenue-intel-backend/internal/clients/redis"
	paymentrepo "github.com/templategenius/revenue-intel-backend/internal/data/repos/payment"
	types "github.com/templategenius/revenue-intel-backend/internal/domain"
	"github.com/templategenius/revenue-intel-backend/internal/pkg/dbctx"
	pkgerr "github.com/templategenius/revenue-intel-backend/internal/pkg/errors"
	"github.com/templategenius/revenue-intel-backend/internal/platform/logger"
)

// DashboardMetrics is the aggregated read model: derived on demand from
// correlations and payment events, cached with explicit invalidation,
// never authoritative.
type DashboardMetrics struct {
	Period            string                     `json:"period"`
	TotalCorrelations int64                      `json:"total_correlations"`
	PaidCorrelations  int64                      `json:"paid_correlations"`
	ConversionRate    float64                    `json:"conversion_rate"`
	RevenueCents      int64                      `json:"revenue_cents"`
	Patterns          []*paymentrepo.PatternStat `json:"patterns"`
	GeneratedAt       time.Time                  `json:"generated_at"`
}

type DashboardService interface {
	Metrics(ctx context.Context, period string) (*DashboardMetrics, error)
}

type dashboardService struct {
	db              *gorm.DB
	log             *logger.Logger
	correlationRepo paymentrepo.CorrelationRepo
	eventRepo       paymentrepo.PaymentEventRepo
	cache           redisclient.MetricsCache
}

func NewDashboardService(
	db *gorm.DB,
	baseLog *logger.Logger,
	correlationRepo paymentrepo.CorrelationRepo,
	eventRepo paymentrepo.PaymentEventRepo,
	cache redisclient.MetricsCache,
) DashboardService {
	return &dashboardService{
		db:              db,
		log:             baseLog.With("service", "DashboardService"),
		correlationRepo: correlationRepo,
		eventRepo:       eventRepo,
		cache:           cache,
	}
}

func periodStart(period string, now time.Time) (time.Time, error) {
	switch period {
	case "day":
		return now.AddDate(0, 0, -1), nil
	case "week":
		return now.AddDate(0, 0, -7), nil
	case "month":
		return now.AddDate(0, -1, 0), nil
	case "all":
		return time.Time{}, nil
	default:
		return time.Time{}, fmt.Errorf("unknown period %q: %w", period, pkgerr.ErrValidation)
	}
}

func (s *dashboardService) Metrics(ctx context.Context, period string) (*DashboardMetrics, error) {
	if period == "" {
		period = "all"
	}
	since, err := periodStart(period, time.Now())
	if err != nil {
		return nil, err
	}

	key := redisclient.MetricsKey(period)
	if raw, ok := s.cache.Get(ctx, key); ok {
		var cached DashboardMetrics
		if jErr := json.Unmarshal(raw, &cached); jErr == nil {
			return &cached, nil
		}
		s.log.Warn("Discarding undecodable cached metrics", "key", key)
	}

	dbc := dbctx.Context{Ctx: ctx}
	total, err := s.correlationRepo.CountAll(dbc)
	if err != nil {
		return nil, fmt.Errorf("count correlations: %w", err)
	}
	paid, err := s.correlationRepo.CountByOutcome(dbc, types.CorrelationPaid)
	if err != nil {
		return nil, fmt.Errorf("count paid correlations: %w", err)
	}
	revenue, err := s.eventRepo.SumAmountByStatusSince(dbc, types.PaymentSucceeded, since)
	if err != nil {
		return nil, fmt.Errorf("sum revenue: %w", err)
	}
	patterns, err := s.correlationRepo.PatternStats(dbc, 1)
	if err != nil {
		return nil, fmt.Errorf("pattern stats: %w", err)
	}

	m := &DashboardMetrics{
		Period:            period,
		TotalCorrelations: total,
		PaidCorrelations:  paid,
		RevenueCents:      revenue,
		Patterns:          patterns,
		GeneratedAt:       time.Now(),
	}
	if total > 0 {
		m.ConversionRate = float64(paid) / float64(total)
	}

	if raw, jErr := json.Marshal(m); jErr == nil {
		s.cache.Set(ctx, key, raw)
	}
	return m, nil
}
