package content

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/templategenius/revenue-intel-backend/internal/data/repos/testutil"
	types "github.com/templategenius/revenue-intel-backend/internal/domain"
	"github.com/templategenius/revenue-intel-backend/internal/pkg/dbctx"
	pkgerr "github.com/templategenius/revenue-intel-backend/internal/pkg/errors"
)

func TestContentVersionRepoVersioning(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewContentVersionRepo(db, testutil.Logger(t))
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	c := testutil.SeedClient(t, ctx, tx, "V3001")

	first, err := repo.CreateNewCurrent(dbc, &types.ContentVersion{
		ClientID:   c.ID,
		PageType:   types.PageActivation,
		Content:    "original copy",
		Hypothesis: "baseline for this client",
		CreatedBy:  "admin",
	})
	if err != nil {
		t.Fatalf("CreateNewCurrent (first): %v", err)
	}
	if first.VersionNumber != 1 || !first.IsCurrent {
		t.Fatalf("first version: expected v1 current, got v%d current=%v", first.VersionNumber, first.IsCurrent)
	}

	second, err := repo.CreateNewCurrent(dbc, &types.ContentVersion{
		ClientID:   c.ID,
		PageType:   types.PageActivation,
		Content:    "revised copy",
		Hypothesis: "shorter intro converts better",
		CreatedBy:  "admin",
	})
	if err != nil {
		t.Fatalf("CreateNewCurrent (second): %v", err)
	}
	if second.VersionNumber != 2 {
		t.Fatalf("second version: expected v2, got v%d", second.VersionNumber)
	}

	// Exactly one current row per (client, page).
	current, err := repo.GetCurrent(dbc, c.ID, types.PageActivation)
	if err != nil {
		t.Fatalf("GetCurrent: %v", err)
	}
	if current.ID != second.ID {
		t.Fatalf("GetCurrent: got %s, want %s", current.ID, second.ID)
	}

	history, err := repo.GetHistory(dbc, c.ID, types.PageActivation)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("GetHistory: expected 2 versions, got %d", len(history))
	}
	if history[0].VersionNumber != 2 || history[1].VersionNumber != 1 {
		t.Fatalf("GetHistory: expected newest first, got v%d, v%d", history[0].VersionNumber, history[1].VersionNumber)
	}

	currentCount := 0
	for _, v := range history {
		if v.IsCurrent {
			currentCount++
		}
	}
	if currentCount != 1 {
		t.Fatalf("expected exactly one current version, got %d", currentCount)
	}

	// Other pages are independent.
	if _, err := repo.GetCurrent(dbc, c.ID, types.PageAgreement); !errors.Is(err, pkgerr.ErrNotFound) {
		t.Fatalf("GetCurrent (other page): expected ErrNotFound, got %v", err)
	}
}

func TestContentVersionRepoSetOutcome(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewContentVersionRepo(db, testutil.Logger(t))
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	c := testutil.SeedClient(t, ctx, tx, "V3002")
	v := testutil.SeedContentVersion(t, ctx, tx, c.ID, types.PageAgreement, 1, true)

	if err := repo.SetOutcome(dbc, v.ID, types.VersionOutcomeSuccess); err != nil {
		t.Fatalf("SetOutcome: %v", err)
	}
	got, err := repo.GetCurrent(dbc, c.ID, types.PageAgreement)
	if err != nil {
		t.Fatalf("GetCurrent: %v", err)
	}
	if got.Outcome != types.VersionOutcomeSuccess {
		t.Fatalf("SetOutcome: expected success, got %q", got.Outcome)
	}

	if err := repo.SetOutcome(dbc, uuid.New(), types.VersionOutcomeFailure); !errors.Is(err, pkgerr.ErrNotFound) {
		t.Fatalf("SetOutcome (missing): expected ErrNotFound, got %v", err)
	}
}
