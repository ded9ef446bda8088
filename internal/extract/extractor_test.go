package extract

import (
	"testing"

	"github.com/starbound-health/navigator-backend/internal/classify"
	"github.com/starbound-health/navigator-backend/internal/taxonomy"
)

func neutralResult() classify.Result {
	return classify.Result{
		Primary:  classify.DomainTag{Domain: taxonomy.DomainUnknownOther, Confidence: 0.2},
		RiskFlag: taxonomy.RiskNone,
	}
}

func TestExtractCommitFloor(t *testing.T) {
	registry := taxonomy.DefaultRegistry()
	candidates := []Candidate{
		{Code: taxonomy.CodeSymptomHeadache, Type: taxonomy.FactorChance, Confidence: 0.8},
		{Code: taxonomy.CodeStressLoad, Type: taxonomy.FactorChance, Confidence: 0.2},
	}

	payload := Extract(neutralResult(), "", candidates, registry)

	if len(payload.Factors) != 1 || payload.Factors[0].Code != taxonomy.CodeSymptomHeadache {
		t.Fatalf("factors=%+v, want only symptom_headache", payload.Factors)
	}
	if len(payload.Missing) != 1 || payload.Missing[0].Key != string(taxonomy.CodeStressLoad) {
		t.Fatalf("missing=%+v, want stress_load prompt", payload.Missing)
	}
	if payload.Missing[0].Question == "" {
		t.Fatalf("missing info must carry question text")
	}
}

func TestExtractDuplicateCodesKeepMaxConfidence(t *testing.T) {
	registry := taxonomy.DefaultRegistry()
	candidates := []Candidate{
		{Code: taxonomy.CodeSymptomFatigue, Type: taxonomy.FactorChance, Confidence: 0.4},
		{Code: taxonomy.CodeSymptomFatigue, Type: taxonomy.FactorChance, Confidence: 0.7},
		{Code: taxonomy.CodeSymptomFatigue, Type: taxonomy.FactorChance, Confidence: 0.5},
	}

	payload := Extract(neutralResult(), "", candidates, registry)

	if len(payload.Factors) != 1 {
		t.Fatalf("expected one factor per code per event, got %d", len(payload.Factors))
	}
	if payload.Factors[0].Confidence != 0.7 {
		t.Fatalf("confidence=%v, want max 0.7", payload.Factors[0].Confidence)
	}
}

func TestExtractRejectsOutOfVocabularyCodes(t *testing.T) {
	registry := taxonomy.DefaultRegistry()
	candidates := []Candidate{
		{Code: taxonomy.FactorCode("made_up_code"), Type: taxonomy.FactorChance, Confidence: 0.9},
	}

	payload := Extract(neutralResult(), "", candidates, registry)

	if len(payload.Factors) != 0 {
		t.Fatalf("out-of-vocabulary code must not commit: %+v", payload.Factors)
	}
	if len(payload.Rejected) != 1 || payload.Rejected[0].Code != "made_up_code" {
		t.Fatalf("rejected=%+v, want quarantined made_up_code", payload.Rejected)
	}
}

func TestExtractRejectsDisallowedFactorType(t *testing.T) {
	registry := taxonomy.DefaultRegistry()
	// health_goal only allows choice.
	candidates := []Candidate{
		{Code: taxonomy.CodeHealthGoal, Type: taxonomy.FactorChance, Confidence: 0.9},
	}

	payload := Extract(neutralResult(), "", candidates, registry)

	if len(payload.Factors) != 0 {
		t.Fatalf("disallowed type must not commit: %+v", payload.Factors)
	}
	if len(payload.Rejected) != 1 {
		t.Fatalf("rejected=%+v", payload.Rejected)
	}
}

func TestExtractSafetyOverrideCommitsSafetyFactor(t *testing.T) {
	registry := taxonomy.DefaultRegistry()
	result := classify.Result{
		Primary:        classify.DomainTag{Domain: taxonomy.DomainSafetyRisk, Confidence: 1.0},
		SafetyOverride: true,
		RiskFlag:       taxonomy.RiskSelfHarm,
	}

	payload := Extract(result, "", nil, registry)

	if len(payload.Factors) != 1 || payload.Factors[0].Code != taxonomy.CodeSelfHarmRisk {
		t.Fatalf("factors=%+v, want self_harm_risk", payload.Factors)
	}
	if payload.Factors[0].Confidence != 1.0 {
		t.Fatalf("safety factor confidence=%v, want 1.0", payload.Factors[0].Confidence)
	}
}

func TestExtractLocalCuesWithoutOracle(t *testing.T) {
	registry := taxonomy.DefaultRegistry()
	payload := Extract(neutralResult(), "money is tight and I barely sleep", nil, registry)

	codes := map[taxonomy.FactorCode]bool{}
	for _, f := range payload.Factors {
		codes[f.Code] = true
	}
	if !codes[taxonomy.CodeFinancialStrain] || !codes[taxonomy.CodeSymptomSleepIssue] {
		t.Fatalf("local cues missing, factors=%+v", payload.Factors)
	}
}

func TestExtractMissingInfoOrderedByDomainPriority(t *testing.T) {
	registry := taxonomy.DefaultRegistry()
	candidates := []Candidate{
		{Code: taxonomy.CodeFinancialStrain, Type: taxonomy.FactorChance, Confidence: 0.1},
		{Code: taxonomy.CodeSymptomPain, Type: taxonomy.FactorChance, Confidence: 0.1},
	}

	payload := Extract(neutralResult(), "", candidates, registry)

	if len(payload.Missing) != 2 {
		t.Fatalf("missing=%+v", payload.Missing)
	}
	if payload.Missing[0].Key != string(taxonomy.CodeSymptomPain) {
		t.Fatalf("symptom prompt should outrank resource prompt: %+v", payload.Missing)
	}
}
