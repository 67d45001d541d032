package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	clientrepo "github.com/templategenius/revenue-intel-backend/internal/data/repos/client"
	contentrepo "github.com/templategenius/revenue-intel-backend/internal/data/repos/content"
	types "github.com/templategenius/revenue-intel-backend/internal/domain"
	"github.com/templategenius/revenue-intel-backend/internal/pkg/dbctx"
	"github.com/templategenius/revenue-intel-backend/internal/platform/logger"
)

type SnapshotService interface {
	// StartPaymentSession creates a payment session reference for the
	// client and freezes the content live at that moment. Snapshot
	// problems degrade to a minimal snapshot; they never fail session
	// creation. Availability over completeness: a missing snapshot
	// degrades analytics, not revenue.
	StartPaymentSession(ctx context.Context, clientToken string) (string, *types.ContentSnapshot, error)
	Capture(ctx context.Context, clientID uuid.UUID, paymentSessionRef string) (*types.ContentSnapshot, error)
	GetBySessionRef(ctx context.Context, paymentSessionRef string) (*types.ContentSnapshot, error)
}

type snapshotService struct {
	db           *gorm.DB
	log          *logger.Logger
	clientRepo   clientrepo.ClientRepo
	versionRepo  contentrepo.ContentVersionRepo
	snapshotRepo contentrepo.ContentSnapshotRepo
}

func NewSnapshotService(
	db *gorm.DB,
	baseLog *logger.Logger,
	clientRepo clientrepo.ClientRepo,
	versionRepo contentrepo.ContentVersionRepo,
	snapshotRepo contentrepo.ContentSnapshotRepo,
) SnapshotService {
	return &snapshotService{
		db:           db,
		log:          baseLog.With("service", "SnapshotService"),
		clientRepo:   clientRepo,
		versionRepo:  versionRepo,
		snapshotRepo: snapshotRepo,
	}
}

func (s *snapshotService) StartPaymentSession(ctx context.Context, clientToken string) (string, *types.ContentSnapshot, error) {
	c, err := lookupClientByToken(s.clientRepo, dbctx.Context{Ctx: ctx}, clientToken)
	if err != nil {
		return "", nil, err
	}

	sessionRef := "ps_" + uuid.NewString()
	snap, err := s.Capture(ctx, c.ID, sessionRef)
	if err != nil {
		// The session ref is still valid; correlation will run
		// null-content if the snapshot never landed.
		s.log.Error("Snapshot capture failed, payment session continues",
			"client_id", c.ID, "payment_session_ref", sessionRef, "error", err)
		return sessionRef, nil, nil
	}
	return sessionRef, snap, nil
}

func (s *snapshotService) Capture(ctx context.Context, clientID uuid.UUID, paymentSessionRef string) (*types.ContentSnapshot, error) {
	dbc := dbctx.Context{Ctx: ctx}
	snap := &types.ContentSnapshot{
		ID:                uuid.New(),
		ClientID:          clientID,
		PaymentSessionRef: paymentSessionRef,
		CapturedContent:   datatypes.JSON([]byte(`{}`)),
		CapturedAt:        time.Now(),
	}

	versions, err := s.versionRepo.GetCurrentForClient(dbc, clientID)
	if err != nil {
		s.log.Warn("Current-content read failed, writing minimal snapshot",
			"client_id", clientID, "payment_session_ref", paymentSessionRef, "error", err)
		snap.Degraded = true
	} else {
		pages := make(map[string]types.CapturedPage, len(versions))
		for _, v := range versions {
			pages[v.PageType] = types.CapturedPage{
				ContentVersionID: v.ID,
				VersionNumber:    v.VersionNumber,
				Content:          v.Content,
				Hypothesis:       v.Hypothesis,
			}
		}
		raw, mErr := json.Marshal(pages)
		if mErr != nil {
			return nil, fmt.Errorf("marshal captured content: %w", mErr)
		}
		snap.CapturedContent = datatypes.JSON(raw)
		snap.ContentHash = contentHash(versions)
	}

	stored, err := s.snapshotRepo.CreateIfAbsent(dbc, snap)
	if err != nil {
		return nil, fmt.Errorf("persist content snapshot: %w", err)
	}
	return stored, nil
}

func (s *snapshotService) GetBySessionRef(ctx context.Context, paymentSessionRef string) (*types.ContentSnapshot, error) {
	return s.snapshotRepo.GetByPaymentSessionRef(dbctx.Context{Ctx: ctx}, paymentSessionRef)
}

// contentHash identifies a content combination across clients: same pages,
// same bodies, same hash. Version IDs are deliberately excluded so the same
// copy tested on two clients lands in one pattern bucket.
func contentHash(versions []*types.ContentVersion) string {
	if len(versions) == 0 {
		return ""
	}
	sorted := make([]*types.ContentVersion, len(versions))
	copy(sorted, versions)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].PageType < sorted[j].PageType })

	h := sha256.New()
	for _, v := range sorted {
		h.Write([]byte(v.PageType))
		h.Write([]byte{0})
		h.Write([]byte(v.Content))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
