package profilestate

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "github.com/starbound-health/navigator-backend/internal/pkg/errors"
	"github.com/starbound-health/navigator-backend/internal/pkg/logger"
	"github.com/starbound-health/navigator-backend/internal/types"
)

type ProfileStateRepo interface {
	Get(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.ProfileState, error)
	Upsert(ctx context.Context, tx *gorm.DB, state *types.ProfileState) (*types.ProfileState, error)
	// UpdateVersioned writes the state only if the stored version still
	// matches expectedVersion, returning ErrConflict otherwise. This is
	// the optimistic half of per-user serialization.
	UpdateVersioned(ctx context.Context, tx *gorm.DB, state *types.ProfileState, expectedVersion int64) error
	// StampLatestEvent records the newest accepted event for the user.
	StampLatestEvent(ctx context.Context, tx *gorm.DB, userID, eventID uuid.UUID) error
}

type profileStateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProfileStateRepo(db *gorm.DB, baseLog *logger.Logger) ProfileStateRepo {
	repoLog := baseLog.With("repo", "ProfileStateRepo")
	return &profileStateRepo{db: db, log: repoLog}
}

func (pr *profileStateRepo) Get(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.ProfileState, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var result types.ProfileState
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &result, nil
}

func (pr *profileStateRepo) Upsert(ctx context.Context, tx *gorm.DB, state *types.ProfileState) (*types.ProfileState, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	state.UpdatedAt = time.Now().UTC()
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(state).Error; err != nil {
		return nil, err
	}
	return state, nil
}

func (pr *profileStateRepo) UpdateVersioned(ctx context.Context, tx *gorm.DB, state *types.ProfileState, expectedVersion int64) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	state.UpdatedAt = time.Now().UTC()
	res := transaction.WithContext(ctx).
		Model(&types.ProfileState{}).
		Where("user_id = ? AND version = ?", state.UserID, expectedVersion).
		Updates(map[string]any{
			"version":         state.Version,
			"latest":          state.Latest,
			"coverage":        state.Coverage,
			"top_constraints": state.TopConstraints,
			"updated_at":      state.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrConflict
	}
	return nil
}

func (pr *profileStateRepo) StampLatestEvent(ctx context.Context, tx *gorm.DB, userID, eventID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.ProfileState{}).
		Where("user_id = ?", userID).
		Update("latest_event_id", eventID).Error
}
