package factor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/starbound-health/navigator-backend/internal/pkg/logger"
	"github.com/starbound-health/navigator-backend/internal/types"
)

// FactorRepo exposes append and read only. The factor log has no update
// and no delete path on purpose.
type FactorRepo interface {
	Append(ctx context.Context, tx *gorm.DB, factors []*types.Factor) ([]*types.Factor, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Factor, error)
	ListByUserSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time) ([]*types.Factor, error)
	ListByEvent(ctx context.Context, tx *gorm.DB, eventID uuid.UUID) ([]*types.Factor, error)
	// ListActiveUserIDs returns the distinct users with factors recorded
	// since the given time; the pattern sweep iterates over these.
	ListActiveUserIDs(ctx context.Context, tx *gorm.DB, since time.Time) ([]uuid.UUID, error)
}

type factorRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFactorRepo(db *gorm.DB, baseLog *logger.Logger) FactorRepo {
	repoLog := baseLog.With("repo", "FactorRepo")
	return &factorRepo{db: db, log: repoLog}
}

func (fr *factorRepo) Append(ctx context.Context, tx *gorm.DB, factors []*types.Factor) ([]*types.Factor, error) {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}

	if len(factors) == 0 {
		return []*types.Factor{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&factors).Error; err != nil {
		return nil, err
	}
	return factors, nil
}

func (fr *factorRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Factor, error) {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}

	var results []*types.Factor
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (fr *factorRepo) ListByUserSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time) ([]*types.Factor, error) {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}

	var results []*types.Factor
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Order("created_at ASC, id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (fr *factorRepo) ListActiveUserIDs(ctx context.Context, tx *gorm.DB, since time.Time) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}

	var results []uuid.UUID
	if err := transaction.WithContext(ctx).
		Model(&types.Factor{}).
		Where("created_at >= ?", since).
		Distinct("user_id").
		Pluck("user_id", &results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (fr *factorRepo) ListByEvent(ctx context.Context, tx *gorm.DB, eventID uuid.UUID) ([]*types.Factor, error) {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}

	var results []*types.Factor
	if err := transaction.WithContext(ctx).
		Where("source_event_id = ?", eventID).
		Order("created_at ASC, id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
