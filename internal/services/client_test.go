package services

import (
	"context"
	"errors"
	"testing"

	clientrepo "github.com/templategenius/revenue-intel-backend/internal/data/repos/client"
	"github.com/templategenius/revenue-intel-backend/internal/data/repos/testutil"
	types "github.com/templategenius/revenue-intel-backend/internal/domain"
	pkgerr "github.com/templategenius/revenue-intel-backend/internal/pkg/errors"
)

func newClientService(t *testing.T) ClientService {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	return NewClientService(db, log, clientrepo.NewClientRepo(db, log))
}

func TestCreateClient(t *testing.T) {
	ctx := context.Background()
	svc := newClientService(t)

	if _, err := svc.CreateClient(ctx, "", "x@example.com", ""); !errors.Is(err, pkgerr.ErrValidation) {
		t.Fatalf("CreateClient (no name): expected ErrValidation, got %v", err)
	}

	c, err := svc.CreateClient(ctx, "Acme Co", "owner@example.com", "they buy when pricing is upfront")
	if err != nil {
		t.Fatalf("CreateClient: %v", err)
	}
	if !types.ClientTokenPattern.MatchString(c.Token) {
		t.Fatalf("CreateClient: token %q does not match pattern", c.Token)
	}
	if c.Outcome != types.OutcomePending || c.Status != types.ClientActive {
		t.Fatalf("CreateClient: unexpected defaults: %+v", c)
	}

	got, err := svc.GetByToken(ctx, c.Token)
	if err != nil {
		t.Fatalf("GetByToken: %v", err)
	}
	if got.ID != c.ID {
		t.Fatalf("GetByToken: got %s, want %s", got.ID, c.ID)
	}
}

func TestGetByTokenValidation(t *testing.T) {
	ctx := context.Background()
	svc := newClientService(t)

	for _, token := range []string{"", "a1234", "A123", "A12345", "1A234"} {
		if _, err := svc.GetByToken(ctx, token); !errors.Is(err, pkgerr.ErrValidation) {
			t.Fatalf("GetByToken (%q): expected ErrValidation, got %v", token, err)
		}
	}
	if _, err := svc.GetByToken(ctx, "B0000"); !errors.Is(err, pkgerr.ErrNotFound) {
		t.Fatalf("GetByToken (unknown): expected ErrNotFound, got %v", err)
	}
}

func TestArchiveClient(t *testing.T) {
	ctx := context.Background()
	svc := newClientService(t)

	c, err := svc.CreateClient(ctx, "Archive Me", "", "")
	if err != nil {
		t.Fatalf("CreateClient: %v", err)
	}
	archived, err := svc.Archive(ctx, c.Token)
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if archived.Status != types.ClientArchived {
		t.Fatalf("Archive: expected archived, got %q", archived.Status)
	}
}
