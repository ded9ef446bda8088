// Package engage holds the repos for the lighter engagement surfaces:
// habits, nudges, chat threads and feedback.
package engage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/starbound-health/navigator-backend/internal/pkg/logger"
	"github.com/starbound-health/navigator-backend/internal/types"
)

type HabitRepo interface {
	Create(ctx context.Context, tx *gorm.DB, habit *types.Habit) (*types.Habit, error)
	GetByID(ctx context.Context, tx *gorm.DB, habitID uuid.UUID) (*types.Habit, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, includeArchived bool) ([]*types.Habit, error)
	RecordCheckin(ctx context.Context, tx *gorm.DB, habitID uuid.UUID, at time.Time, streak int) error
	SetArchived(ctx context.Context, tx *gorm.DB, habitID uuid.UUID, archived bool) error
}

type habitRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewHabitRepo(db *gorm.DB, baseLog *logger.Logger) HabitRepo {
	repoLog := baseLog.With("repo", "HabitRepo")
	return &habitRepo{db: db, log: repoLog}
}

func (hr *habitRepo) Create(ctx context.Context, tx *gorm.DB, habit *types.Habit) (*types.Habit, error) {
	transaction := tx
	if transaction == nil {
		transaction = hr.db
	}
	if err := transaction.WithContext(ctx).Create(habit).Error; err != nil {
		return nil, err
	}
	return habit, nil
}

func (hr *habitRepo) GetByID(ctx context.Context, tx *gorm.DB, habitID uuid.UUID) (*types.Habit, error) {
	transaction := tx
	if transaction == nil {
		transaction = hr.db
	}

	var result types.Habit
	if err := transaction.WithContext(ctx).
		Where("id = ?", habitID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (hr *habitRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, includeArchived bool) ([]*types.Habit, error) {
	transaction := tx
	if transaction == nil {
		transaction = hr.db
	}

	q := transaction.WithContext(ctx).Where("user_id = ?", userID)
	if !includeArchived {
		q = q.Where("archived = false")
	}

	var results []*types.Habit
	if err := q.Order("created_at ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (hr *habitRepo) RecordCheckin(ctx context.Context, tx *gorm.DB, habitID uuid.UUID, at time.Time, streak int) error {
	transaction := tx
	if transaction == nil {
		transaction = hr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Habit{}).
		Where("id = ?", habitID).
		Updates(map[string]any{
			"last_checkin": at,
			"streak":       streak,
		}).Error
}

func (hr *habitRepo) SetArchived(ctx context.Context, tx *gorm.DB, habitID uuid.UUID, archived bool) error {
	transaction := tx
	if transaction == nil {
		transaction = hr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Habit{}).
		Where("id = ?", habitID).
		Update("archived", archived).Error
}
