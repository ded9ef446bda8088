package snapshot

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "github.com/starbound-health/navigator-backend/internal/pkg/errors"
	"github.com/starbound-health/navigator-backend/internal/pkg/logger"
	"github.com/starbound-health/navigator-backend/internal/types"
)

type SnapshotRepo interface {
	// Create writes the snapshot for an event. Reprocessing the same event
	// keeps the first snapshot; the decision trail never rewrites itself.
	Create(ctx context.Context, tx *gorm.DB, snap *types.StateSnapshot) (*types.StateSnapshot, error)
	GetByEventID(ctx context.Context, tx *gorm.DB, eventID uuid.UUID) (*types.StateSnapshot, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.StateSnapshot, error)
}

type snapshotRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSnapshotRepo(db *gorm.DB, baseLog *logger.Logger) SnapshotRepo {
	repoLog := baseLog.With("repo", "SnapshotRepo")
	return &snapshotRepo{db: db, log: repoLog}
}

func (sr *snapshotRepo) Create(ctx context.Context, tx *gorm.DB, snap *types.StateSnapshot) (*types.StateSnapshot, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).
		Create(snap).Error; err != nil {
		return nil, err
	}
	return snap, nil
}

func (sr *snapshotRepo) GetByEventID(ctx context.Context, tx *gorm.DB, eventID uuid.UUID) (*types.StateSnapshot, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	var result types.StateSnapshot
	if err := transaction.WithContext(ctx).
		Where("event_id = ?", eventID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &result, nil
}

func (sr *snapshotRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.StateSnapshot, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	if limit <= 0 {
		limit = 50
	}

	var results []*types.StateSnapshot
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
