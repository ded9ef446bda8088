package insight

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/starbound-health/navigator-backend/internal/repos/testutil"
	"github.com/starbound-health/navigator-backend/internal/types"
)

func TestUpsertDetectedPreservesUserState(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewInsightRepo(db, testutil.Logger(t))
	ctx := context.Background()

	userID := uuid.New()
	insightID := uuid.New()
	now := time.Now().UTC()

	original := &types.PatternInsight{
		ID:              insightID,
		UserID:          userID,
		SymptomKey:      "symptom_headache",
		StartDate:       now.AddDate(0, 0, -10),
		EndDate:         now.AddDate(0, 0, -3),
		OccurrenceCount: 3,
		DaySpan:         8,
		Insight:         "Headaches came up 3 times across 8 days.",
	}
	if err := repo.UpsertDetected(ctx, tx, []*types.PatternInsight{original}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	if err := repo.SetDismissed(ctx, tx, insightID, true); err != nil {
		t.Fatalf("dismiss: %v", err)
	}

	// Recompute produced one more occurrence for the same pattern id.
	recomputed := &types.PatternInsight{
		ID:              insightID,
		UserID:          userID,
		SymptomKey:      "symptom_headache",
		StartDate:       now.AddDate(0, 0, -10),
		EndDate:         now.AddDate(0, 0, -1),
		OccurrenceCount: 4,
		DaySpan:         10,
		Insight:         "Headaches came up 4 times across 10 days.",
	}
	if err := repo.UpsertDetected(ctx, tx, []*types.PatternInsight{recomputed}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := repo.GetByID(ctx, tx, insightID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.OccurrenceCount != 4 {
		t.Fatalf("occurrence count not updated: %d", got.OccurrenceCount)
	}
	if !got.Dismissed {
		t.Fatalf("recompute must not reset the user's dismissal")
	}

	all, err := repo.ListByUser(ctx, tx, userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("recompute created a duplicate row: %d", len(all))
	}
}
