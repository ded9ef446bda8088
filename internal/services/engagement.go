package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/starbound-health/navigator-backend/internal/pkg/errors"
	"github.com/starbound-health/navigator-backend/internal/pkg/logger"
	engagerepo "github.com/starbound-health/navigator-backend/internal/repos/engage"
	"github.com/starbound-health/navigator-backend/internal/types"
)

type HabitService interface {
	Create(ctx context.Context, userID uuid.UUID, title, cadence string, sourceKey *string) (*types.Habit, error)
	List(ctx context.Context, userID uuid.UUID, includeArchived bool) ([]*types.Habit, error)
	Checkin(ctx context.Context, userID, habitID uuid.UUID) (*types.Habit, error)
	Archive(ctx context.Context, userID, habitID uuid.UUID) error
}

type habitService struct {
	db        *gorm.DB
	log       *logger.Logger
	habitRepo engagerepo.HabitRepo
}

func NewHabitService(db *gorm.DB, log *logger.Logger, habitRepo engagerepo.HabitRepo) HabitService {
	serviceLog := log.With("service", "HabitService")
	return &habitService{db: db, log: serviceLog, habitRepo: habitRepo}
}

func (hs *habitService) Create(ctx context.Context, userID uuid.UUID, title, cadence string, sourceKey *string) (*types.Habit, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: habit title required", apperrors.ErrInvalidArgument)
	}
	if cadence == "" {
		cadence = "daily"
	}
	habit := &types.Habit{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Cadence:   cadence,
		SourceKey: sourceKey,
	}
	return hs.habitRepo.Create(ctx, nil, habit)
}

func (hs *habitService) List(ctx context.Context, userID uuid.UUID, includeArchived bool) ([]*types.Habit, error) {
	return hs.habitRepo.ListByUser(ctx, nil, userID, includeArchived)
}

// Checkin advances the streak. Consecutive-day checkins extend it; a gap
// resets it to one; a second checkin on the same day is a no-op.
func (hs *habitService) Checkin(ctx context.Context, userID, habitID uuid.UUID) (*types.Habit, error) {
	habit, err := hs.habitRepo.GetByID(ctx, nil, habitID)
	if err != nil {
		return nil, err
	}
	if habit.UserID != userID {
		return nil, apperrors.ErrUnauthorized
	}

	now := time.Now().UTC()
	today := now.Truncate(24 * time.Hour)
	streak := 1
	if habit.LastCheckin != nil {
		last := habit.LastCheckin.UTC().Truncate(24 * time.Hour)
		switch {
		case last.Equal(today):
			return habit, nil
		case last.Equal(today.AddDate(0, 0, -1)):
			streak = habit.Streak + 1
		}
	}
	if err := hs.habitRepo.RecordCheckin(ctx, nil, habitID, now, streak); err != nil {
		return nil, err
	}
	habit.LastCheckin = &now
	habit.Streak = streak
	return habit, nil
}

func (hs *habitService) Archive(ctx context.Context, userID, habitID uuid.UUID) error {
	habit, err := hs.habitRepo.GetByID(ctx, nil, habitID)
	if err != nil {
		return err
	}
	if habit.UserID != userID {
		return apperrors.ErrUnauthorized
	}
	return hs.habitRepo.SetArchived(ctx, nil, habitID, true)
}

type NudgeService interface {
	ListUnseen(ctx context.Context, userID uuid.UUID) ([]*types.Nudge, error)
	MarkSeen(ctx context.Context, userID, nudgeID uuid.UUID) error
	MarkActed(ctx context.Context, userID, nudgeID uuid.UUID) error
}

type nudgeService struct {
	db        *gorm.DB
	log       *logger.Logger
	nudgeRepo engagerepo.NudgeRepo
}

func NewNudgeService(db *gorm.DB, log *logger.Logger, nudgeRepo engagerepo.NudgeRepo) NudgeService {
	serviceLog := log.With("service", "NudgeService")
	return &nudgeService{db: db, log: serviceLog, nudgeRepo: nudgeRepo}
}

func (ns *nudgeService) ListUnseen(ctx context.Context, userID uuid.UUID) ([]*types.Nudge, error) {
	return ns.nudgeRepo.ListUnseenByUser(ctx, nil, userID)
}

func (ns *nudgeService) MarkSeen(ctx context.Context, userID, nudgeID uuid.UUID) error {
	return ns.nudgeRepo.MarkSeen(ctx, nil, nudgeID, time.Now().UTC())
}

func (ns *nudgeService) MarkActed(ctx context.Context, userID, nudgeID uuid.UUID) error {
	return ns.nudgeRepo.MarkActed(ctx, nil, nudgeID, time.Now().UTC())
}

type ChatThreadService interface {
	Create(ctx context.Context, userID uuid.UUID, title string) (*types.ChatThread, error)
	List(ctx context.Context, userID uuid.UUID) ([]*types.ChatThread, error)
	Rename(ctx context.Context, userID, threadID uuid.UUID, title string) error
	Delete(ctx context.Context, userID, threadID uuid.UUID) error
}

type chatThreadService struct {
	db       *gorm.DB
	log      *logger.Logger
	chatRepo engagerepo.ChatThreadRepo
}

func NewChatThreadService(db *gorm.DB, log *logger.Logger, chatRepo engagerepo.ChatThreadRepo) ChatThreadService {
	serviceLog := log.With("service", "ChatThreadService")
	return &chatThreadService{db: db, log: serviceLog, chatRepo: chatRepo}
}

func (cs *chatThreadService) Create(ctx context.Context, userID uuid.UUID, title string) (*types.ChatThread, error) {
	thread := &types.ChatThread{
		ID:           uuid.New(),
		UserID:       userID,
		Title:        strings.TrimSpace(title),
		LastActivity: time.Now().UTC(),
	}
	return cs.chatRepo.Create(ctx, nil, thread)
}

func (cs *chatThreadService) List(ctx context.Context, userID uuid.UUID) ([]*types.ChatThread, error) {
	return cs.chatRepo.ListByUser(ctx, nil, userID)
}

func (cs *chatThreadService) Rename(ctx context.Context, userID, threadID uuid.UUID, title string) error {
	thread, err := cs.chatRepo.GetByID(ctx, nil, threadID)
	if err != nil {
		return err
	}
	if thread.UserID != userID {
		return apperrors.ErrUnauthorized
	}
	return cs.chatRepo.Rename(ctx, nil, threadID, strings.TrimSpace(title))
}

func (cs *chatThreadService) Delete(ctx context.Context, userID, threadID uuid.UUID) error {
	thread, err := cs.chatRepo.GetByID(ctx, nil, threadID)
	if err != nil {
		return err
	}
	if thread.UserID != userID {
		return apperrors.ErrUnauthorized
	}
	return cs.chatRepo.Delete(ctx, nil, threadID)
}

type FeedbackService interface {
	Submit(ctx context.Context, fb *types.Feedback) (*types.Feedback, error)
	List(ctx context.Context, userID uuid.UUID) ([]*types.Feedback, error)
}

type feedbackService struct {
	db     *gorm.DB
	log    *logger.Logger
	fbRepo engagerepo.FeedbackRepo
}

func NewFeedbackService(db *gorm.DB, log *logger.Logger, fbRepo engagerepo.FeedbackRepo) FeedbackService {
	serviceLog := log.With("service", "FeedbackService")
	return &feedbackService{db: db, log: serviceLog, fbRepo: fbRepo}
}

func (fs *feedbackService) Submit(ctx context.Context, fb *types.Feedback) (*types.Feedback, error) {
	if fb.Rating == nil && strings.TrimSpace(fb.Body) == "" {
		return nil, fmt.Errorf("%w: feedback needs a rating or a note", apperrors.ErrInvalidArgument)
	}
	if fb.Rating != nil && (*fb.Rating < 1 || *fb.Rating > 5) {
		return nil, fmt.Errorf("%w: rating must be 1..5", apperrors.ErrInvalidArgument)
	}
	fb.ID = uuid.New()
	return fs.fbRepo.Create(ctx, nil, fb)
}

func (fs *feedbackService) List(ctx context.Context, userID uuid.UUID) ([]*types.Feedback, error) {
	return fs.fbRepo.ListByUser(ctx, nil, userID, 50)
}
