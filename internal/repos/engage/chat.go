package engage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/starbound-health/navigator-backend/internal/pkg/logger"
	"github.com/starbound-health/navigator-backend/internal/types"
)

type ChatThreadRepo interface {
	Create(ctx context.Context, tx *gorm.DB, thread *types.ChatThread) (*types.ChatThread, error)
	GetByID(ctx context.Context, tx *gorm.DB, threadID uuid.UUID) (*types.ChatThread, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.ChatThread, error)
	TouchActivity(ctx context.Context, tx *gorm.DB, threadID, lastEventID uuid.UUID, at time.Time) error
	Rename(ctx context.Context, tx *gorm.DB, threadID uuid.UUID, title string) error
	Delete(ctx context.Context, tx *gorm.DB, threadID uuid.UUID) error
}

type chatThreadRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatThreadRepo(db *gorm.DB, baseLog *logger.Logger) ChatThreadRepo {
	repoLog := baseLog.With("repo", "ChatThreadRepo")
	return &chatThreadRepo{db: db, log: repoLog}
}

func (cr *chatThreadRepo) Create(ctx context.Context, tx *gorm.DB, thread *types.ChatThread) (*types.ChatThread, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if err := transaction.WithContext(ctx).Create(thread).Error; err != nil {
		return nil, err
	}
	return thread, nil
}

func (cr *chatThreadRepo) GetByID(ctx context.Context, tx *gorm.DB, threadID uuid.UUID) (*types.ChatThread, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var result types.ChatThread
	if err := transaction.WithContext(ctx).
		Where("id = ?", threadID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (cr *chatThreadRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.ChatThread, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var results []*types.ChatThread
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_activity DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *chatThreadRepo) TouchActivity(ctx context.Context, tx *gorm.DB, threadID, lastEventID uuid.UUID, at time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.ChatThread{}).
		Where("id = ?", threadID).
		Updates(map[string]any{
			"last_event_id": lastEventID,
			"last_activity": at,
		}).Error
}

func (cr *chatThreadRepo) Rename(ctx context.Context, tx *gorm.DB, threadID uuid.UUID, title string) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.ChatThread{}).
		Where("id = ?", threadID).
		Update("title", title).Error
}

func (cr *chatThreadRepo) Delete(ctx context.Context, tx *gorm.DB, threadID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", threadID).
		Delete(&types.ChatThread{}).Error
}
