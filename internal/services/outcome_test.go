package services

import (
	"context"
	"errors"
	"testing"

	clientrepo "github.com/templategenius/revenue-intel-backend/internal/data/repos/client"
	contentrepo "github.com/templategenius/revenue-intel-backend/internal/data/repos/content"
	"github.com/templategenius/revenue-intel-backend/internal/data/repos/testutil"
	types "github.com/templategenius/revenue-intel-backend/internal/domain"
	pkgerr "github.com/templategenius/revenue-intel-backend/internal/pkg/errors"
)

func newOutcomeService(t *testing.T) OutcomeService {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	return NewOutcomeService(
		db, log, 10,
		clientrepo.NewClientRepo(db, log),
		contentrepo.NewContentVersionRepo(db, log),
		nil,
	)
}

func TestRecordHypothesisGate(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	svc := newOutcomeService(t)

	testutil.SeedClient(t, ctx, db, "O6001")

	// Too short, including after trimming.
	for _, h := range []string{"", "short", "   padded   "} {
		if _, err := svc.RecordHypothesis(ctx, "O6001", types.PageActivation, "body", h, "", "admin"); !errors.Is(err, pkgerr.ErrValidation) {
			t.Fatalf("RecordHypothesis (%q): expected ErrValidation, got %v", h, err)
		}
	}

	if _, err := svc.RecordHypothesis(ctx, "O6001", "landing", "body", "a perfectly fine hypothesis", "", "admin"); !errors.Is(err, pkgerr.ErrValidation) {
		t.Fatalf("RecordHypothesis (bad page): expected ErrValidation, got %v", err)
	}

	v, err := svc.RecordHypothesis(ctx, "O6001", types.PageActivation, "body", "lead with the outcome not the process", "", "admin")
	if err != nil {
		t.Fatalf("RecordHypothesis: %v", err)
	}
	if v.VersionNumber != 1 || !v.IsCurrent {
		t.Fatalf("RecordHypothesis: expected v1 current, got %+v", v)
	}

	v2, err := svc.RecordHypothesis(ctx, "O6001", types.PageActivation, "body 2", "tighter agreement copy reduces hesitation", "", "admin")
	if err != nil {
		t.Fatalf("RecordHypothesis (second): %v", err)
	}
	if v2.VersionNumber != 2 {
		t.Fatalf("RecordHypothesis (second): expected v2, got v%d", v2.VersionNumber)
	}

	history, err := svc.GetHistory(ctx, "O6001", types.PageActivation)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(history) != 2 || history[0].VersionNumber != 2 {
		t.Fatalf("GetHistory: unexpected result: %+v", history)
	}
}

func TestMarkOutcome(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	svc := newOutcomeService(t)

	testutil.SeedClient(t, ctx, db, "O6002")

	if _, err := svc.MarkOutcome(ctx, "O6002", "converted", ""); !errors.Is(err, pkgerr.ErrValidation) {
		t.Fatalf("MarkOutcome (bad enum): expected ErrValidation, got %v", err)
	}
	if _, err := svc.MarkOutcome(ctx, "bad-token", types.OutcomePaid, ""); !errors.Is(err, pkgerr.ErrValidation) {
		t.Fatalf("MarkOutcome (bad token): expected ErrValidation, got %v", err)
	}

	c, err := svc.MarkOutcome(ctx, "O6002", types.OutcomePaid, "signed after the second call")
	if err != nil {
		t.Fatalf("MarkOutcome: %v", err)
	}
	if c.Outcome != types.OutcomePaid {
		t.Fatalf("MarkOutcome: expected paid, got %q", c.Outcome)
	}

	// Terminal outcomes can be relabeled but never reset to pending.
	if _, err := svc.MarkOutcome(ctx, "O6002", types.OutcomePending, ""); !errors.Is(err, pkgerr.ErrValidation) {
		t.Fatalf("MarkOutcome (reset): expected ErrValidation, got %v", err)
	}
	if _, err := svc.MarkOutcome(ctx, "O6002", types.OutcomeGhosted, "went quiet after invoice"); err != nil {
		t.Fatalf("MarkOutcome (relabel): %v", err)
	}
}

func TestMarkOutcomesBulkPartialFailure(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	svc := newOutcomeService(t)

	testutil.SeedClient(t, ctx, db, "O6003")
	testutil.SeedClient(t, ctx, db, "O6004")

	results := svc.MarkOutcomesBulk(ctx, []string{"O6003", "Z9999", "O6004"}, types.OutcomeGhosted, "no reply in 14 days")
	if len(results) != 3 {
		t.Fatalf("MarkOutcomesBulk: expected 3 results, got %d", len(results))
	}
	if !results[0].OK || !results[2].OK {
		t.Fatalf("MarkOutcomesBulk: valid clients failed: %+v", results)
	}
	if results[1].OK || results[1].Error == "" {
		t.Fatalf("MarkOutcomesBulk: expected failure for unknown token: %+v", results[1])
	}
	if results[1].ClientToken != "Z9999" {
		t.Fatalf("MarkOutcomesBulk: result order not preserved: %+v", results)
	}

	// The failures must not have blocked the successes.
	c, err := svc.MarkOutcome(ctx, "O6003", types.OutcomeGhosted, "no reply in 14 days")
	if err != nil {
		t.Fatalf("MarkOutcome after bulk: %v", err)
	}
	if c.Outcome != types.OutcomeGhosted {
		t.Fatalf("bulk update did not land: %q", c.Outcome)
	}
}
