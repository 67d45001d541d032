package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	clientrepo "github.com/templategenius/revenue-intel-backend/internal/data/repos/client"
	contentrepo "github.com/templategenius/revenue-intel-backend/internal/data/repos/content"
	types "github.com/templategenius/revenue-intel-backend/internal/domain"
	"github.com/templategenius/revenue-intel-backend/internal/pkg/dbctx"
	pkgerr "github.com/templategenius/revenue-intel-backend/internal/pkg/errors"
	"github.com/templategenius/revenue-intel-backend/internal/platform/logger"
)

// currentFlipAttempts bounds retry-on-conflict for the deactivate/activate
// transaction when two saves race on the same page.
const currentFlipAttempts = 3

// bulkOutcomeParallelism caps concurrent per-client updates in the bulk
// path.
const bulkOutcomeParallelism = 4

// BulkOutcomeResult reports one client's result in a bulk outcome call.
// Bulk marking is atomic per client: one failure neither rolls back nor
// blocks the others.
type BulkOutcomeResult struct {
	ClientToken string `json:"client_token"`
	OK          bool   `json:"ok"`
	Error       string `json:"error,omitempty"`
}

type OutcomeService interface {
	// RecordHypothesis appends a new current ContentVersion. The
	// hypothesis gate is the one business rule enforced precisely: edits
	// without a non-trivial rationale are rejected, never saved.
	RecordHypothesis(ctx context.Context, clientToken, pageType, contentBody, hypothesis, iterationNotes, createdBy string) (*types.ContentVersion, error)
	MarkOutcome(ctx context.Context, clientToken, outcome, notes string) (*types.Client, error)
	MarkOutcomesBulk(ctx context.Context, clientTokens []string, outcome, notes string) []BulkOutcomeResult
	GetHistory(ctx context.Context, clientToken, pageType string) ([]*types.ContentVersion, error)
}

type outcomeService struct {
	db            *gorm.DB
	log           *logger.Logger
	minHypothesis int
	clientRepo    clientrepo.ClientRepo
	versionRepo   contentrepo.ContentVersionRepo
	cache         MetricsInvalidator
}

func NewOutcomeService(
	db *gorm.DB,
	baseLog *logger.Logger,
	minHypothesisLength int,
	clientRepo clientrepo.ClientRepo,
	versionRepo contentrepo.ContentVersionRepo,
	cache MetricsInvalidator,
) OutcomeService {
	return &outcomeService{
		db:            db,
		log:           baseLog.With("service", "OutcomeService"),
		minHypothesis: minHypothesisLength,
		clientRepo:    clientRepo,
		versionRepo:   versionRepo,
		cache:         cache,
	}
}

func (s *outcomeService) RecordHypothesis(ctx context.Context, clientToken, pageType, contentBody, hypothesis, iterationNotes, createdBy string) (*types.ContentVersion, error) {
	hypothesis = strings.TrimSpace(hypothesis)
	if len(hypothesis) < s.minHypothesis {
		return nil, fmt.Errorf("hypothesis must be at least %d characters: %w", s.minHypothesis, pkgerr.ErrValidation)
	}
	if !types.ValidPageType(pageType) {
		return nil, fmt.Errorf("unknown page type %q: %w", pageType, pkgerr.ErrValidation)
	}

	dbc := dbctx.Context{Ctx: ctx}
	c, err := lookupClientByToken(s.clientRepo, dbc, clientToken)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < currentFlipAttempts; attempt++ {
		v := &types.ContentVersion{
			ID:             uuid.New(),
			ClientID:       c.ID,
			PageType:       pageType,
			Content:        contentBody,
			Hypothesis:     hypothesis,
			IterationNotes: iterationNotes,
			Outcome:        types.VersionOutcomePending,
			CreatedBy:      createdBy,
			CreatedAt:      time.Now(),
		}
		created, err := s.versionRepo.CreateNewCurrent(dbc, v)
		if err == nil {
			s.log.Info("Hypothesis recorded",
				"client_id", c.ID,
				"page_type", pageType,
				"version_number", created.VersionNumber,
			)
			return created, nil
		}
		if !errors.Is(err, pkgerr.ErrConflict) {
			return nil, fmt.Errorf("save content version: %w", err)
		}
		lastErr = err
		s.log.Debug("Concurrent save detected, retrying", "client_id", c.ID, "page_type", pageType, "attempt", attempt+1)
	}
	return nil, fmt.Errorf("save content version after %d attempts: %w", currentFlipAttempts, lastErr)
}

func (s *outcomeService) MarkOutcome(ctx context.Context, clientToken, outcome, notes string) (*types.Client, error) {
	if !types.ValidClientOutcome(outcome) {
		return nil, fmt.Errorf("invalid outcome %q: %w", outcome, pkgerr.ErrValidation)
	}

	dbc := dbctx.Context{Ctx: ctx}
	c, err := lookupClientByToken(s.clientRepo, dbc, clientToken)
	if err != nil {
		return nil, err
	}

	// Terminal labels may be relabeled (a ghosted client can later pay)
	// but never drop back to pending outside the audited override path.
	if outcome == types.OutcomePending && types.TerminalClientOutcome(c.Outcome) {
		return nil, fmt.Errorf("cannot reset %s outcome to pending: %w", c.Outcome, pkgerr.ErrValidation)
	}

	if err := s.clientRepo.UpdateOutcome(dbc, c.ID, outcome, notes); err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.InvalidateMetrics(ctx)
	}
	c.Outcome = outcome
	c.OutcomeNotes = notes
	s.log.Info("Client outcome marked", "client_id", c.ID, "outcome", outcome)
	return c, nil
}

func (s *outcomeService) MarkOutcomesBulk(ctx context.Context, clientTokens []string, outcome, notes string) []BulkOutcomeResult {
	results := make([]BulkOutcomeResult, len(clientTokens))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bulkOutcomeParallelism)
	for i, token := range clientTokens {
		g.Go(func() error {
			_, err := s.MarkOutcome(gctx, token, outcome, notes)
			res := BulkOutcomeResult{ClientToken: token, OK: err == nil}
			if err != nil {
				res.Error = err.Error()
			}
			results[i] = res
			// Per-client independence: never abort the group.
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (s *outcomeService) GetHistory(ctx context.Context, clientToken, pageType string) ([]*types.ContentVersion, error) {
	if !types.ValidPageType(pageType) {
		return nil, fmt.Errorf("unknown page type %q: %w", pageType, pkgerr.ErrValidation)
	}
	dbc := dbctx.Context{Ctx: ctx}
	c, err := lookupClientByToken(s.clientRepo, dbc, clientToken)
	if err != nil {
		return nil, err
	}
	return s.versionRepo.GetHistory(dbc, c.ID, pageType)
}
