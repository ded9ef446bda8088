package engage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/starbound-health/navigator-backend/internal/pkg/logger"
	"github.com/starbound-health/navigator-backend/internal/types"
)

type NudgeRepo interface {
	Create(ctx context.Context, tx *gorm.DB, nudge *types.Nudge) (*types.Nudge, error)
	ListUnseenByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Nudge, error)
	MarkSeen(ctx context.Context, tx *gorm.DB, nudgeID uuid.UUID, at time.Time) error
	MarkActed(ctx context.Context, tx *gorm.DB, nudgeID uuid.UUID, at time.Time) error
}

type nudgeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNudgeRepo(db *gorm.DB, baseLog *logger.Logger) NudgeRepo {
	repoLog := baseLog.With("repo", "NudgeRepo")
	return &nudgeRepo{db: db, log: repoLog}
}

func (nr *nudgeRepo) Create(ctx context.Context, tx *gorm.DB, nudge *types.Nudge) (*types.Nudge, error) {
	transaction := tx
	if transaction == nil {
		transaction = nr.db
	}
	if err := transaction.WithContext(ctx).Create(nudge).Error; err != nil {
		return nil, err
	}
	return nudge, nil
}

func (nr *nudgeRepo) ListUnseenByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Nudge, error) {
	transaction := tx
	if transaction == nil {
		transaction = nr.db
	}

	var results []*types.Nudge
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND seen_at IS NULL", userID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (nr *nudgeRepo) MarkSeen(ctx context.Context, tx *gorm.DB, nudgeID uuid.UUID, at time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = nr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Nudge{}).
		Where("id = ?", nudgeID).
		Update("seen_at", at).Error
}

func (nr *nudgeRepo) MarkActed(ctx context.Context, tx *gorm.DB, nudgeID uuid.UUID, at time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = nr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Nudge{}).
		Where("id = ?", nudgeID).
		Update("acted_at", at).Error
}
