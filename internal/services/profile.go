package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/starbound-health/navigator-backend/internal/pkg/errors"
	"github.com/starbound-health/navigator-backend/internal/pkg/logger"
	"github.com/starbound-health/navigator-backend/internal/profile"
	factorrepo "github.com/starbound-health/navigator-backend/internal/repos/factor"
	profilestaterepo "github.com/starbound-health/navigator-backend/internal/repos/profilestate"
	"github.com/starbound-health/navigator-backend/internal/taxonomy"
	"github.com/starbound-health/navigator-backend/internal/types"
)

// ProfileView is the normalized read model returned to the UI.
type ProfileView struct {
	UserID         uuid.UUID                                    `json:"user_id"`
	UpdatedAt      time.Time                                    `json:"updated_at"`
	Version        int64                                        `json:"version"`
	Latest         map[taxonomy.FactorCode]profile.FactorRecord `json:"latest"`
	Coverage       map[taxonomy.Domain]profile.Coverage         `json:"coverage"`
	TopConstraints []profile.FactorRecord                       `json:"top_constraints"`
}

type ProfileService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*ProfileView, error)
	// RebuildProfile replays the full factor log and overwrites the
	// cached state. The result is identical to the incremental folds.
	RebuildProfile(ctx context.Context, userID uuid.UUID) (*ProfileView, error)
	// FactorAudit returns the append-only log for review.
	FactorAudit(ctx context.Context, userID uuid.UUID) ([]*types.Factor, error)
}

type profileService struct {
	db         *gorm.DB
	log        *logger.Logger
	factorRepo factorrepo.FactorRepo
	stateRepo  profilestaterepo.ProfileStateRepo
}

func NewProfileService(
	db *gorm.DB,
	log *logger.Logger,
	factorRepo factorrepo.FactorRepo,
	stateRepo profilestaterepo.ProfileStateRepo,
) ProfileService {
	serviceLog := log.With("service", "ProfileService")
	return &profileService{
		db:         db,
		log:        serviceLog,
		factorRepo: factorRepo,
		stateRepo:  stateRepo,
	}
}

func (ps *profileService) GetProfile(ctx context.Context, userID uuid.UUID) (*ProfileView, error) {
	state, err := ps.stateRepo.Get(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// No submissions yet: an empty profile, not an error.
			empty := profile.New(userID)
			return viewFromProfile(empty, 0), nil
		}
		return nil, err
	}

	view := &ProfileView{
		UserID:    state.UserID,
		UpdatedAt: state.UpdatedAt,
		Version:   state.Version,
		Latest:    map[taxonomy.FactorCode]profile.FactorRecord{},
		Coverage:  map[taxonomy.Domain]profile.Coverage{},
	}
	if len(state.Latest) > 0 {
		if err := json.Unmarshal(state.Latest, &view.Latest); err != nil {
			return nil, fmt.Errorf("decode latest index: %w", err)
		}
	}
	if len(state.Coverage) > 0 {
		if err := json.Unmarshal(state.Coverage, &view.Coverage); err != nil {
			return nil, fmt.Errorf("decode coverage: %w", err)
		}
	}
	if len(state.TopConstraints) > 0 {
		if err := json.Unmarshal(state.TopConstraints, &view.TopConstraints); err != nil {
			return nil, fmt.Errorf("decode top constraints: %w", err)
		}
	}
	return view, nil
}

func (ps *profileService) RebuildProfile(ctx context.Context, userID uuid.UUID) (*ProfileView, error) {
	var view *ProfileView
	err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all, err := ps.factorRepo.ListByUser(ctx, tx, userID)
		if err != nil {
			return fmt.Errorf("list factors: %w", err)
		}
		prof := profile.Rebuild(userID, factorRecords(all))

		state, err := encodeProfileState(prof)
		if err != nil {
			return err
		}
		existing, err := ps.stateRepo.Get(ctx, tx, userID)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		state.Version = stateVersion(existing) + 1
		if _, err := ps.stateRepo.Upsert(ctx, tx, state); err != nil {
			return fmt.Errorf("store rebuilt state: %w", err)
		}
		view = viewFromProfile(prof, state.Version)
		return nil
	})
	if err != nil {
		return nil, err
	}
	ps.log.Info("profile rebuilt from factor log", "user_id", userID, "version", view.Version)
	return view, nil
}

func (ps *profileService) FactorAudit(ctx context.Context, userID uuid.UUID) ([]*types.Factor, error) {
	return ps.factorRepo.ListByUser(ctx, nil, userID)
}

func viewFromProfile(p *profile.Profile, version int64) *ProfileView {
	return &ProfileView{
		UserID:         p.UserID,
		UpdatedAt:      time.Now().UTC(),
		Version:        version,
		Latest:         p.Latest,
		Coverage:       p.Coverage,
		TopConstraints: p.TopConstraints(profile.DefaultTopK),
	}
}
