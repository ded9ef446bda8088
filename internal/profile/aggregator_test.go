package profile

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/starbound-health/navigator-backend/internal/taxonomy"
)

func factorAt(code taxonomy.FactorCode, confidence float64, createdAt time.Time) FactorRecord {
	return FactorRecord{
		ID:            uuid.New(),
		Domain:        code.Domain(),
		Type:          taxonomy.FactorChance,
		Code:          code,
		Confidence:    confidence,
		TimeHorizon:   taxonomy.HorizonAcute,
		Modifiability: taxonomy.ModifiabilityUnknown,
		CreatedAt:     createdAt,
	}
}

func TestFoldRepointsLatestAndKeepsHistorySemantics(t *testing.T) {
	now := time.Now().UTC()
	p := New(uuid.New())

	old := factorAt(taxonomy.CodeSymptomHeadache, 0.5, now.Add(-time.Hour))
	newer := factorAt(taxonomy.CodeSymptomHeadache, 0.8, now)

	p.Fold([]FactorRecord{old})
	p.Fold([]FactorRecord{newer})

	if got := p.Latest[taxonomy.CodeSymptomHeadache]; got.ID != newer.ID {
		t.Fatalf("latest-by-code should point at the newer factor, got %v", got.ID)
	}
	// Both foldings count toward coverage: history is never rewritten.
	if cov := p.Coverage[taxonomy.DomainSymptomsBodySignals]; cov.Acute != 2 {
		t.Fatalf("acute coverage=%d, want 2", cov.Acute)
	}
}

func TestFoldOutOfOrderDoesNotRepointBackwards(t *testing.T) {
	now := time.Now().UTC()
	p := New(uuid.New())

	newer := factorAt(taxonomy.CodeSymptomHeadache, 0.8, now)
	old := factorAt(taxonomy.CodeSymptomHeadache, 0.5, now.Add(-time.Hour))

	p.Fold([]FactorRecord{newer, old})

	if got := p.Latest[taxonomy.CodeSymptomHeadache]; got.ID != newer.ID {
		t.Fatalf("stale factor must not displace the newer one, got %v", got.ID)
	}
}

func TestFoldIdempotentOnFactorID(t *testing.T) {
	now := time.Now().UTC()
	p := New(uuid.New())
	f := factorAt(taxonomy.CodeStressLoad, 0.6, now)

	if applied := p.Fold([]FactorRecord{f}); applied != 1 {
		t.Fatalf("first fold applied=%d", applied)
	}
	if applied := p.Fold([]FactorRecord{f}); applied != 0 {
		t.Fatalf("refold applied=%d, want 0", applied)
	}
	if cov := p.Coverage[taxonomy.DomainMentalEmotionalState]; cov.Acute != 1 {
		t.Fatalf("coverage double-counted: %+v", cov)
	}
}

func TestCoverageHorizons(t *testing.T) {
	now := time.Now().UTC()
	p := New(uuid.New())

	acute := factorAt(taxonomy.CodeSymptomPain, 0.6, now)
	chronic := factorAt(taxonomy.CodeChronicCondition, 0.6, now)
	chronic.TimeHorizon = taxonomy.HorizonChronic
	lifeCourse := factorAt(taxonomy.CodeRecentDiagnosis, 0.6, now)
	lifeCourse.TimeHorizon = taxonomy.HorizonLifeCourse
	unknown := factorAt(taxonomy.CodeSymptomFatigue, 0.6, now)
	unknown.TimeHorizon = taxonomy.HorizonUnknown

	p.Fold([]FactorRecord{acute, chronic, lifeCourse, unknown})

	if cov := p.Coverage[taxonomy.DomainMedicalContext]; cov.Chronic != 2 || cov.Acute != 0 {
		t.Fatalf("medical coverage=%+v, want chronic=2 (life_course counts as chronic)", cov)
	}
	if cov := p.Coverage[taxonomy.DomainSymptomsBodySignals]; cov.Acute != 1 || cov.Chronic != 0 {
		t.Fatalf("symptoms coverage=%+v; unknown horizon must be excluded", cov)
	}
}

func TestTopConstraintsCapAndOrder(t *testing.T) {
	now := time.Now().UTC()
	p := New(uuid.New())

	var records []FactorRecord
	codes := []taxonomy.FactorCode{
		taxonomy.CodeSymptomHeadache,
		taxonomy.CodeSymptomFatigue,
		taxonomy.CodeSymptomPain,
		taxonomy.CodeStressLoad,
		taxonomy.CodeFinancialStrain,
		taxonomy.CodeTimeScarcity,
		taxonomy.CodeHealthGoal,
	}
	for i, code := range codes {
		f := factorAt(code, 0.4+0.05*float64(i), now.Add(time.Duration(i)*time.Minute))
		if code == taxonomy.CodeHealthGoal || code == taxonomy.CodeTimeScarcity {
			f.Type = taxonomy.FactorChoice
		}
		records = append(records, f)
	}
	p.Fold(records)

	top := p.TopConstraints(DefaultTopK)
	if len(top) > DefaultTopK {
		t.Fatalf("topConstraints=%d, exceeds K=%d", len(top), DefaultTopK)
	}
	for i := 1; i < len(top); i++ {
		if top[i-1].Score() < top[i].Score() {
			t.Fatalf("topConstraints not sorted by score: %v then %v", top[i-1].Score(), top[i].Score())
		}
	}
}

func TestTopConstraintsLowModifiabilityWeighsUp(t *testing.T) {
	now := time.Now().UTC()
	p := New(uuid.New())

	movable := factorAt(taxonomy.CodeSymptomHeadache, 0.6, now)
	movable.Modifiability = taxonomy.ModifiabilityHigh
	stuck := factorAt(taxonomy.CodeSymptomFatigue, 0.6, now)
	stuck.Modifiability = taxonomy.ModifiabilityLow

	p.Fold([]FactorRecord{movable, stuck})

	top := p.TopConstraints(2)
	if top[0].Code != taxonomy.CodeSymptomFatigue {
		t.Fatalf("low-modifiability constraint should rank first, got %s", top[0].Code)
	}
}

func TestRebuildReproducesFold(t *testing.T) {
	now := time.Now().UTC()
	userID := uuid.New()

	log := []FactorRecord{
		factorAt(taxonomy.CodeSymptomHeadache, 0.5, now.Add(-3*time.Hour)),
		factorAt(taxonomy.CodeSymptomHeadache, 0.8, now.Add(-1*time.Hour)),
		factorAt(taxonomy.CodeFinancialStrain, 0.7, now.Add(-2*time.Hour)),
	}

	incremental := New(userID)
	for _, f := range log {
		incremental.Fold([]FactorRecord{f})
	}
	replayed := Rebuild(userID, []FactorRecord{log[2], log[0], log[1]})

	if len(replayed.Latest) != len(incremental.Latest) {
		t.Fatalf("replay index size=%d, fold=%d", len(replayed.Latest), len(incremental.Latest))
	}
	for code, want := range incremental.Latest {
		got, ok := replayed.Latest[code]
		if !ok || got.ID != want.ID {
			t.Fatalf("replay latest[%s]=%v, want %v", code, got.ID, want.ID)
		}
	}
	for domain, want := range incremental.Coverage {
		if got := replayed.Coverage[domain]; got != want {
			t.Fatalf("replay coverage[%s]=%+v, want %+v", domain, got, want)
		}
	}
}
