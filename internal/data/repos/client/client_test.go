package client

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

func TestClientRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewClientRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	created, err := repo.Create(dbc, []*types.Client{
		{
			ID:      uuid.New(),
			Token:   "K1001",
			Name:    "Acme Co",
			Email:   "owner@example.com",
			Outcome: types.OutcomePending,
			Status:  types.ClientActive,
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("Create: expected 1 client, got %d", len(created))
	}

	got, err := repo.GetByToken(dbc, "K1001")
	if err != nil {
		t.Fatalf("GetByToken: %v", err)
	}
	if got.ID != created[0].ID {
		t.Fatalf("GetByToken: got %s, want %s", got.ID, created[0].ID)
	}

	if _, err := repo.GetByToken(dbc, "K9999"); !errors.Is(err, pkgerr.ErrNotFound) {
		t.Fatalf("GetByToken (missing): expected ErrNotFound, got %v", err)
	}

	if err := repo.UpdateOutcome(dbc, created[0].ID, types.OutcomePaid, "signed same day"); err != nil {
		t.Fatalf("UpdateOutcome: %v", err)
	}
	got, err = repo.GetByToken(dbc, "K1001")
	if err != nil {
		t.Fatalf("GetByToken after outcome: %v", err)
	}
	if got.Outcome != types.OutcomePaid || got.OutcomeNotes != "signed same day" {
		t.Fatalf("UpdateOutcome: unexpected state: %+v", got)
	}

	if err := repo.UpdateStatus(dbc, created[0].ID, types.ClientArchived); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if err := repo.UpdateStatus(dbc, uuid.New(), types.ClientArchived); !errors.Is(err, pkgerr.ErrNotFound) {
		t.Fatalf("UpdateStatus (missing): expected ErrNotFound, got %v", err)
	}
}

func TestClientRepoTokenConflict(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewClientRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	testutil.SeedClient(t, dbc.Ctx, tx, "K2002")

	_, err := repo.Create(dbc, []*types.Client{
		{ID: uuid.New(), Token: "K2002", Name: "Other", Outcome: types.OutcomePending, Status: types.ClientActive},
	})
	if !errors.Is(err, pkgerr.ErrConflict) {
		t.Fatalf("Create (duplicate token): expected ErrConflict, got %v", err)
	}
}
