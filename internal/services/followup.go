package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/starbound-health/navigator-backend/internal/decide"
	"github.com/starbound-health/navigator-backend/internal/pkg/logger"
	followuprepo "github.com/starbound-health/navigator-backend/internal/repos/followup"
	"github.com/starbound-health/navigator-backend/internal/types"
)

// FollowUpStatus is what the UI shows on the follow-up surface.
type FollowUpStatus struct {
	Open          []*types.PendingFollowUp `json:"open"`
	AskedToday    int                      `json:"asked_today"`
	DailyCap      int                      `json:"daily_cap"`
	BudgetReached bool                     `json:"budget_reached"`
}

type FollowUpService interface {
	Status(ctx context.Context, userID uuid.UUID) (*FollowUpStatus, error)
	Resolve(ctx context.Context, userID, followUpID uuid.UUID) error
}

type followUpService struct {
	db     *gorm.DB
	log    *logger.Logger
	fuRepo followuprepo.FollowUpRepo
}

func NewFollowUpService(db *gorm.DB, log *logger.Logger, fuRepo followuprepo.FollowUpRepo) FollowUpService {
	serviceLog := log.With("service", "FollowUpService")
	return &followUpService{db: db, log: serviceLog, fuRepo: fuRepo}
}

func (fs *followUpService) Status(ctx context.Context, userID uuid.UUID) (*FollowUpStatus, error) {
	open, err := fs.fuRepo.ListOpenByUser(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	asked, err := fs.fuRepo.CountCreatedToday(ctx, nil, userID, time.Now())
	if err != nil {
		return nil, err
	}
	return &FollowUpStatus{
		Open:          open,
		AskedToday:    int(asked),
		DailyCap:      decide.DefaultDailyFollowUpCap,
		BudgetReached: int(asked) >= decide.DefaultDailyFollowUpCap,
	}, nil
}

func (fs *followUpService) Resolve(ctx context.Context, userID, followUpID uuid.UUID) error {
	return fs.fuRepo.MarkResolved(ctx, nil, followUpID, time.Now().UTC())
}
