package factor

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/starbound-health/navigator-backend/internal/repos/testutil"
	"github.com/starbound-health/navigator-backend/internal/taxonomy"
	"github.com/starbound-health/navigator-backend/internal/types"
)

func TestAppendAndListByUser(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewFactorRepo(db, testutil.Logger(t))
	ctx := context.Background()

	userID := uuid.New()
	eventID := uuid.New()
	now := time.Now().UTC()

	factors := []*types.Factor{
		{
			ID:            uuid.New(),
			UserID:        userID,
			Domain:        taxonomy.DomainSymptomsBodySignals,
			Type:          taxonomy.FactorChance,
			Code:          taxonomy.CodeSymptomHeadache,
			Value:         datatypes.JSON([]byte(`{"note":"afternoon"}`)),
			Confidence:    0.8,
			TimeHorizon:   taxonomy.HorizonAcute,
			Modifiability: taxonomy.ModifiabilityMedium,
			SourceEventID: eventID,
			CreatedAt:     now,
		},
		{
			ID:            uuid.New(),
			UserID:        userID,
			Domain:        taxonomy.DomainMentalEmotionalState,
			Type:          taxonomy.FactorChance,
			Code:          taxonomy.CodeStressLoad,
			Confidence:    0.6,
			TimeHorizon:   taxonomy.HorizonChronic,
			Modifiability: taxonomy.ModifiabilityMedium,
			SourceEventID: eventID,
			CreatedAt:     now.Add(time.Second),
		},
	}

	if _, err := repo.Append(ctx, tx, factors); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := repo.ListByUser(ctx, tx, userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len=%d, want 2", len(got))
	}
	if got[0].Code != taxonomy.CodeSymptomHeadache || got[1].Code != taxonomy.CodeStressLoad {
		t.Fatalf("ordering by created_at broken: %v, %v", got[0].Code, got[1].Code)
	}

	byEvent, err := repo.ListByEvent(ctx, tx, eventID)
	if err != nil {
		t.Fatalf("list by event: %v", err)
	}
	if len(byEvent) != 2 {
		t.Fatalf("byEvent len=%d, want 2", len(byEvent))
	}
}

func TestListByUserSinceFiltersOldRows(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewFactorRepo(db, testutil.Logger(t))
	ctx := context.Background()

	userID := uuid.New()
	now := time.Now().UTC()

	rows := []*types.Factor{
		{
			ID: uuid.New(), UserID: userID,
			Domain: taxonomy.DomainSymptomsBodySignals, Type: taxonomy.FactorChance,
			Code: taxonomy.CodeSymptomFatigue, Confidence: 0.5,
			TimeHorizon: taxonomy.HorizonAcute, Modifiability: taxonomy.ModifiabilityMedium,
			SourceEventID: uuid.New(), CreatedAt: now.AddDate(0, 0, -30),
		},
		{
			ID: uuid.New(), UserID: userID,
			Domain: taxonomy.DomainSymptomsBodySignals, Type: taxonomy.FactorChance,
			Code: taxonomy.CodeSymptomFatigue, Confidence: 0.7,
			TimeHorizon: taxonomy.HorizonAcute, Modifiability: taxonomy.ModifiabilityMedium,
			SourceEventID: uuid.New(), CreatedAt: now.AddDate(0, 0, -2),
		},
	}
	if _, err := repo.Append(ctx, tx, rows); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := repo.ListByUserSince(ctx, tx, userID, now.AddDate(0, 0, -14))
	if err != nil {
		t.Fatalf("list since: %v", err)
	}
	if len(got) != 1 || got[0].Confidence != 0.7 {
		t.Fatalf("window filter wrong: %+v", got)
	}
}
