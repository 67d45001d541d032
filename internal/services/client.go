package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	clientrepo "github.com/templategenius/revenue-intel-backend/internal/data/repos/client"
	types "github.com/templategenius/revenue-intel-backend/internal/domain"
	"github.com/templategenius/revenue-intel-backend/internal/pkg/dbctx"
	pkgerr "github.com/templategenius/revenue-intel-backend/internal/pkg/errors"
	"github.com/templategenius/revenue-intel-backend/internal/platform/logger"
)

// tokenGenAttempts bounds collision retries during token generation; with
// 260k possible tokens a handful of attempts is plenty.
const tokenGenAttempts = 5

type ClientService interface {
	CreateClient(ctx context.Context, name, email, journeyHypothesis string) (*types.Client, error)
	GetByToken(ctx context.Context, token string) (*types.Client, error)
	List(ctx context.Context, limit, offset int) ([]*types.Client, error)
	Archive(ctx context.Context, token string) (*types.Client, error)
}

type clientService struct {
	db         *gorm.DB
	log        *logger.Logger
	clientRepo clientrepo.ClientRepo
}

func NewClientService(db *gorm.DB, baseLog *logger.Logger, clientRepo clientrepo.ClientRepo) ClientService {
	return &clientService{
		db:         db,
		log:        baseLog.With("service", "ClientService"),
		clientRepo: clientRepo,
	}
}

func (s *clientService) CreateClient(ctx context.Context, name, email, journeyHypothesis string) (*types.Client, error) {
	if name == "" {
		return nil, fmt.Errorf("client name required: %w", pkgerr.ErrValidation)
	}
	dbc := dbctx.Context{Ctx: ctx}

	var lastErr error
	for attempt := 0; attempt < tokenGenAttempts; attempt++ {
		c := &types.Client{
			ID:                uuid.New(),
			Token:             generateToken(),
			Name:              name,
			Email:             email,
			JourneyHypothesis: journeyHypothesis,
			Outcome:           types.OutcomePending,
			Status:            types.ClientActive,
			CreatedAt:         time.Now(),
			UpdatedAt:         time.Now(),
		}
		created, err := s.clientRepo.Create(dbc, []*types.Client{c})
		if err == nil {
			s.log.Info("Client created", "client_id", c.ID, "token", c.Token)
			return created[0], nil
		}
		if !errors.Is(err, pkgerr.ErrConflict) {
			return nil, fmt.Errorf("create client: %w", err)
		}
		lastErr = err
		s.log.Debug("Token collision, regenerating", "attempt", attempt+1)
	}
	return nil, fmt.Errorf("token generation exhausted after %d attempts: %w", tokenGenAttempts, lastErr)
}

func (s *clientService) GetByToken(ctx context.Context, token string) (*types.Client, error) {
	return lookupClientByToken(s.clientRepo, dbctx.Context{Ctx: ctx}, token)
}

func (s *clientService) List(ctx context.Context, limit, offset int) ([]*types.Client, error) {
	return s.clientRepo.List(dbctx.Context{Ctx: ctx}, limit, offset)
}

func (s *clientService) Archive(ctx context.Context, token string) (*types.Client, error) {
	dbc := dbctx.Context{Ctx: ctx}
	c, err := lookupClientByToken(s.clientRepo, dbc, token)
	if err != nil {
		return nil, err
	}
	if err := s.clientRepo.UpdateStatus(dbc, c.ID, types.ClientArchived); err != nil {
		return nil, err
	}
	c.Status = types.ClientArchived
	return c, nil
}

// lookupClientByToken validates the token format before touching storage;
// malformed tokens are a validation failure, not a not-found.
func lookupClientByToken(repo clientrepo.ClientRepo, dbc dbctx.Context, token string) (*types.Client, error) {
	if !types.ClientTokenPattern.MatchString(token) {
		return nil, fmt.Errorf("malformed client token %q: %w", token, pkgerr.ErrValidation)
	}
	return repo.GetByToken(dbc, token)
}

func generateToken() string {
	letter := byte('A' + rand.IntN(26))
	return fmt.Sprintf("%c%04d", letter, rand.IntN(10000))
}
