package followup

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/starbound-health/navigator-backend/internal/pkg/logger"
	"github.com/starbound-health/navigator-backend/internal/types"
)

type FollowUpRepo interface {
	// CreateIdempotent inserts the follow-up unless one already exists for
	// the same (parent event, missing-info key). The second return value
	// reports whether a row was actually created, so retries never burn
	// extra follow-up budget.
	CreateIdempotent(ctx context.Context, tx *gorm.DB, fu *types.PendingFollowUp) (*types.PendingFollowUp, bool, error)
	GetByParentAndKey(ctx context.Context, tx *gorm.DB, parentEventID uuid.UUID, key string) (*types.PendingFollowUp, error)
	ListOpenByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.PendingFollowUp, error)
	CountCreatedToday(ctx context.Context, tx *gorm.DB, userID uuid.UUID, now time.Time) (int64, error)
	MarkResolved(ctx context.Context, tx *gorm.DB, followUpID uuid.UUID, at time.Time) error
}

type followUpRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFollowUpRepo(db *gorm.DB, baseLog *logger.Logger) FollowUpRepo {
	repoLog := baseLog.With("repo", "FollowUpRepo")
	return &followUpRepo{db: db, log: repoLog}
}

func (fr *followUpRepo) CreateIdempotent(ctx context.Context, tx *gorm.DB, fu *types.PendingFollowUp) (*types.PendingFollowUp, bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}

	res := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "parent_event_id"}, {Name: "missing_info_key"}},
			DoNothing: true,
		}).
		Create(fu)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		existing, err := fr.GetByParentAndKey(ctx, transaction, fu.ParentEventID, fu.MissingInfoKey)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	return fu, true, nil
}

func (fr *followUpRepo) GetByParentAndKey(ctx context.Context, tx *gorm.DB, parentEventID uuid.UUID, key string) (*types.PendingFollowUp, error) {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}

	var result types.PendingFollowUp
	if err := transaction.WithContext(ctx).
		Where("parent_event_id = ? AND missing_info_key = ?", parentEventID, key).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (fr *followUpRepo) ListOpenByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.PendingFollowUp, error) {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}

	var results []*types.PendingFollowUp
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, types.FollowUpStatusOpen).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// CountCreatedToday counts follow-ups created since the start of the
// current UTC calendar day. The daily cap resets at midnight UTC, not on a
// rolling 24h window.
func (fr *followUpRepo) CountCreatedToday(ctx context.Context, tx *gorm.DB, userID uuid.UUID, now time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}

	dayStart := now.UTC().Truncate(24 * time.Hour)
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.PendingFollowUp{}).
		Where("user_id = ? AND created_at >= ?", userID, dayStart).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (fr *followUpRepo) MarkResolved(ctx context.Context, tx *gorm.DB, followUpID uuid.UUID, at time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.PendingFollowUp{}).
		Where("id = ?", followUpID).
		Updates(map[string]any{
			"status":      types.FollowUpStatusResolved,
			"resolved_at": at,
		}).Error
}
