package insight

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

type InsightRepo interface {
	// UpsertDetected writes recomputed insights in place by their
	// deterministic ids. Dismissed and bookmarked are user state and are
	// deliberately left out of the update set.
	UpsertDetected(ctx context.Context, tx *gorm.DB, insights []*types.PatternInsight) error
	GetByID(ctx context.Context, tx *gorm.DB, insightID uuid.UUID) (*types.PatternInsight, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.PatternInsight, error)
	SetDismissed(ctx context.Context, tx *gorm.DB, insightID uuid.UUID, dismissed bool) error
	SetBookmarked(ctx context.Context, tx *gorm.DB, insightID uuid.UUID, bookmarked bool) error
}

type insightRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInsightRepo(db *gorm.DB, baseLog *logger.Logger) InsightRepo {
	repoLog := baseLog.With("repo", "InsightRepo")
	return &insightRepo{db: db, log: repoLog}
}

func (ir *insightRepo) UpsertDetected(ctx context.Context, tx *gorm.DB, insights []*types.PatternInsight) error {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}

	if len(insights) == 0 {
		return nil
	}

	now := time.Now().UTC()
	for _, i := range insights {
		i.UpdatedAt = now
	}

	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"symptom_key", "start_date", "end_date",
				"occurrence_count", "day_span",
				"insight", "connection",
				"co_occurrences", "suggestions", "source_entry_ids",
				"updated_at",
			}),
		}).
		Create(&insights).Error
}

func (ir *insightRepo) GetByID(ctx context.Context, tx *gorm.DB, insightID uuid.UUID) (*types.PatternInsight, error) {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}

	var result types.PatternInsight
	if err := transaction.WithContext(ctx).
		Where("id = ?", insightID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &result, nil
}

func (ir *insightRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.PatternInsight, error) {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}

	var results []*types.PatternInsight
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("end_date DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ir *insightRepo) SetDismissed(ctx context.Context, tx *gorm.DB, insightID uuid.UUID, dismissed bool) error {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}
	return transaction.WithContext(ctx).
		Model(&types.PatternInsight{}).
		Where("id = ?", insightID).
		Update("dismissed", dismissed).Error
}

func (ir *insightRepo) SetBookmarked(ctx context.Context, tx *gorm.DB, insightID uuid.UUID, bookmarked bool) error {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}
	return transaction.WithContext(ctx).
		Model(&types.PatternInsight{}).
		Where("id = ?", insightID).
		Update("bookmarked", bookmarked).Error
}
