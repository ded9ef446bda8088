package event

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/starbound-health/navigator-backend/internal/pkg/logger"
	"github.com/starbound-health/navigator-backend/internal/types"
)

type EventRepo interface {
	Create(ctx context.Context, tx *gorm.DB, event *types.Event) (*types.Event, error)
	GetByID(ctx context.Context, tx *gorm.DB, eventID uuid.UUID) (*types.Event, error)
	ListByUserSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time) ([]*types.Event, error)
}

type eventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEventRepo(db *gorm.DB, baseLog *logger.Logger) EventRepo {
	repoLog := baseLog.With("repo", "EventRepo")
	return &eventRepo{db: db, log: repoLog}
}

func (er *eventRepo) Create(ctx context.Context, tx *gorm.DB, event *types.Event) (*types.Event, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}
	if err := transaction.WithContext(ctx).Create(event).Error; err != nil {
		return nil, err
	}
	return event, nil
}

func (er *eventRepo) GetByID(ctx context.Context, tx *gorm.DB, eventID uuid.UUID) (*types.Event, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}

	var result types.Event
	if err := transaction.WithContext(ctx).
		Where("id = ?", eventID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (er *eventRepo) ListByUserSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time) ([]*types.Event, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}

	var results []*types.Event
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
