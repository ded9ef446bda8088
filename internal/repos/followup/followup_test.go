package followup

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/starbound-health/navigator-backend/internal/repos/testutil"
	"github.com/starbound-health/navigator-backend/internal/types"
)

func TestCreateIdempotentSecondInsertIsNoop(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewFollowUpRepo(db, testutil.Logger(t))
	ctx := context.Background()

	userID := uuid.New()
	parentEventID := uuid.New()

	first := &types.PendingFollowUp{
		ID:             uuid.New(),
		UserID:         userID,
		ParentEventID:  parentEventID,
		MissingInfoKey: "symptom_duration",
		QuestionText:   "How long has this been going on?",
		Status:         types.FollowUpStatusOpen,
	}
	created, inserted, err := repo.CreateIdempotent(ctx, tx, first)
	if err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if !inserted {
		t.Fatalf("first insert must report inserted=true")
	}

	retry := &types.PendingFollowUp{
		ID:             uuid.New(),
		UserID:         userID,
		ParentEventID:  parentEventID,
		MissingInfoKey: "symptom_duration",
		QuestionText:   "How long has this been going on?",
		Status:         types.FollowUpStatusOpen,
	}
	got, inserted, err := repo.CreateIdempotent(ctx, tx, retry)
	if err != nil {
		t.Fatalf("retry insert: %v", err)
	}
	if inserted {
		t.Fatalf("retry must not insert a second row")
	}
	if got.ID != created.ID {
		t.Fatalf("retry must return the original row, got %s want %s", got.ID, created.ID)
	}

	count, err := repo.CountCreatedToday(ctx, tx, userID, time.Now())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("daily count=%d, want 1 after an idempotent retry", count)
	}
}

func TestCountCreatedTodayIgnoresOtherUsersAndKeys(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewFollowUpRepo(db, testutil.Logger(t))
	ctx := context.Background()

	userID := uuid.New()
	otherID := uuid.New()

	for i, key := range []string{"symptom_duration", "symptom_severity"} {
		fu := &types.PendingFollowUp{
			ID:             uuid.New(),
			UserID:         userID,
			ParentEventID:  uuid.New(),
			MissingInfoKey: key,
			QuestionText:   "q",
			Status:         types.FollowUpStatusOpen,
		}
		if _, inserted, err := repo.CreateIdempotent(ctx, tx, fu); err != nil || !inserted {
			t.Fatalf("insert %d: inserted=%v err=%v", i, inserted, err)
		}
	}
	foreign := &types.PendingFollowUp{
		ID:             uuid.New(),
		UserID:         otherID,
		ParentEventID:  uuid.New(),
		MissingInfoKey: "symptom_duration",
		QuestionText:   "q",
		Status:         types.FollowUpStatusOpen,
	}
	if _, _, err := repo.CreateIdempotent(ctx, tx, foreign); err != nil {
		t.Fatalf("foreign insert: %v", err)
	}

	count, err := repo.CountCreatedToday(ctx, tx, userID, time.Now())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("count=%d, want 2", count)
	}
}

func TestMarkResolvedLeavesOpenListClean(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewFollowUpRepo(db, testutil.Logger(t))
	ctx := context.Background()

	userID := uuid.New()
	fu := &types.PendingFollowUp{
		ID:             uuid.New(),
		UserID:         userID,
		ParentEventID:  uuid.New(),
		MissingInfoKey: "medication_name",
		QuestionText:   "Which medication is this about?",
		Status:         types.FollowUpStatusOpen,
	}
	if _, _, err := repo.CreateIdempotent(ctx, tx, fu); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := repo.MarkResolved(ctx, tx, fu.ID, time.Now().UTC()); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	open, err := repo.ListOpenByUser(ctx, tx, userID)
	if err != nil {
		t.Fatalf("list open: %v", err)
	}
	if len(open) != 0 {
		t.Fatalf("resolved follow-up still listed as open: %+v", open)
	}
}
