package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/starbound-health/navigator-backend/internal/pkg/errors"
	"github.com/starbound-health/navigator-backend/internal/pkg/logger"
	userrepo "github.com/starbound-health/navigator-backend/internal/repos/user"
	"github.com/starbound-health/navigator-backend/internal/types"
)

type UserService interface {
	GetUser(ctx context.Context, userID uuid.UUID) (*types.User, error)
	UpdateName(ctx context.Context, userID uuid.UUID, firstName, lastName string) error
}

type userService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo userrepo.UserRepo
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo userrepo.UserRepo) UserService {
	serviceLog := log.With("service", "UserService")
	return &userService{db: db, log: serviceLog, userRepo: userRepo}
}

func (us *userService) GetUser(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	users, err := us.userRepo.GetByIDs(ctx, nil, []uuid.UUID{userID})
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if len(users) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return users[0], nil
}

func (us *userService) UpdateName(ctx context.Context, userID uuid.UUID, firstName, lastName string) error {
	return us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return us.userRepo.UpdateName(ctx, tx, userID, firstName, lastName)
	})
}
