package decide

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/starbound-health/navigator-backend/internal/classify"
	"github.com/starbound-health/navigator-backend/internal/extract"
	"github.com/starbound-health/navigator-backend/internal/profile"
	"github.com/starbound-health/navigator-backend/internal/taxonomy"
)

func baseInput() Input {
	return Input{
		EventID:   uuid.New(),
		CreatedAt: time.Now().UTC(),
		Intent:    taxonomy.IntentAsk,
		SaveMode:  taxonomy.SaveJournal,
		Classification: classify.Result{
			Primary:  classify.DomainTag{Domain: taxonomy.DomainSymptomsBodySignals, Confidence: 0.8},
			RiskFlag: taxonomy.RiskNone,
		},
		Profile: profile.New(uuid.New()),
	}
}

func committedFactor(code taxonomy.FactorCode, confidence float64) extract.Candidate {
	return extract.Candidate{
		Code:          code,
		Type:          taxonomy.FactorChance,
		Confidence:    confidence,
		TimeHorizon:   taxonomy.HorizonAcute,
		Modifiability: taxonomy.ModifiabilityUnknown,
	}
}

func TestSafetyShortCircuitBeatsEverySignal(t *testing.T) {
	cases := []struct {
		name  string
		tweak func(*Input)
	}{
		{
			name: "safety_primary",
			tweak: func(in *Input) {
				in.Classification = classify.Result{
					Primary:        classify.DomainTag{Domain: taxonomy.DomainSafetyRisk, Confidence: 1},
					SafetyOverride: true,
					RiskFlag:       taxonomy.RiskSelfHarm,
				}
			},
		},
		{
			name: "safety_flagged_factor_without_safety_primary",
			tweak: func(in *Input) {
				in.Extracted.Factors = []extract.Candidate{committedFactor(taxonomy.CodeImminentDangerRisk, 1)}
			},
		},
		{
			name: "safety_primary_with_log_only_intent",
			tweak: func(in *Input) {
				in.Intent = taxonomy.IntentLogOnly
				in.Classification = classify.Result{
					Primary:        classify.DomainTag{Domain: taxonomy.DomainSafetyRisk, Confidence: 1},
					SafetyOverride: true,
					RiskFlag:       taxonomy.RiskImminentDanger,
				}
			},
		},
		{
			name: "safety_primary_with_open_missing_info",
			tweak: func(in *Input) {
				in.Classification = classify.Result{
					Primary:        classify.DomainTag{Domain: taxonomy.DomainSafetyRisk, Confidence: 1},
					SafetyOverride: true,
					RiskFlag:       taxonomy.RiskImminentDanger,
				}
				in.Extracted.Missing = []extract.MissingInfo{{Key: "stress_load", Question: "q"}}
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := baseInput()
			tc.tweak(&in)
			snap := Decide(in)
			if snap.NextActionKind != taxonomy.ActionSafetyEscalation {
				t.Fatalf("nextAction=%s, want safety_escalation", snap.NextActionKind)
			}
			if snap.RiskBand != taxonomy.BandUrgent {
				t.Fatalf("riskBand=%s, want urgent", snap.RiskBand)
			}
			if snap.SafetyCopy == "" {
				t.Fatalf("safety copy must be attached")
			}
		})
	}
}

func TestAskFollowUpWhenUncertainAndUnderCap(t *testing.T) {
	in := baseInput()
	in.Extracted.Missing = []extract.MissingInfo{
		{Key: "symptom_duration", Question: "How long has this been going on?", Domain: taxonomy.DomainDurationPattern, Priority: 5},
	}

	snap := Decide(in)

	if snap.NextActionKind != taxonomy.ActionAskFollowUp {
		t.Fatalf("nextAction=%s, want ask_followup", snap.NextActionKind)
	}
	if snap.FollowUpQuestion == "" || snap.MissingInfoKey != "symptom_duration" {
		t.Fatalf("snapshot missing follow-up payload: %+v", snap)
	}
	if snap.FollowUpCount != 1 {
		t.Fatalf("followUpCount=%d, want 1", snap.FollowUpCount)
	}
}

func TestFollowUpCapFallsBackToAnswer(t *testing.T) {
	// Scenario D: three consecutive low-confidence events with cap=2.
	for i, wantAction := range []taxonomy.NextActionKind{
		taxonomy.ActionAskFollowUp,
		taxonomy.ActionAskFollowUp,
		taxonomy.ActionAnswer,
	} {
		in := baseInput()
		in.FollowUpCount = i
		in.DailyFollowUpCap = 2
		in.Extracted.Missing = []extract.MissingInfo{{Key: "stress_load", Question: "q"}}

		snap := Decide(in)
		if snap.NextActionKind != wantAction {
			t.Fatalf("event %d: nextAction=%s, want %s", i+1, snap.NextActionKind, wantAction)
		}
		if snap.FollowUpCount > 2 {
			t.Fatalf("event %d: followUpCount=%d exceeds cap", i+1, snap.FollowUpCount)
		}
	}
}

func TestLogOnlyIntentAndSaveMode(t *testing.T) {
	in := baseInput()
	in.Intent = taxonomy.IntentLogOnly
	in.Extracted.Factors = []extract.Candidate{committedFactor(taxonomy.CodeSymptomHeadache, 0.8)}
	if snap := Decide(in); snap.NextActionKind != taxonomy.ActionLogOnly {
		t.Fatalf("log_only intent: nextAction=%s", snap.NextActionKind)
	}

	in = baseInput()
	in.SaveMode = taxonomy.SaveFactorsOnly
	in.Extracted.Factors = []extract.Candidate{committedFactor(taxonomy.CodeSymptomHeadache, 0.8)}
	if snap := Decide(in); snap.NextActionKind != taxonomy.ActionLogOnly {
		t.Fatalf("save_factors_only: nextAction=%s", snap.NextActionKind)
	}
}

func TestOracleUnavailableRaisesUncertaintyAndAvoidsAnswer(t *testing.T) {
	in := baseInput()
	in.OracleUnavailable = true
	in.Extracted.Factors = []extract.Candidate{committedFactor(taxonomy.CodeSymptomHeadache, 0.9)}

	snap := Decide(in)
	if snap.UncertaintyBand != taxonomy.BandHigh {
		t.Fatalf("uncertainty=%s, want high when oracle is down", snap.UncertaintyBand)
	}

	// Nothing committed at all: log instead of answering on nothing.
	in = baseInput()
	in.OracleUnavailable = true
	snap = Decide(in)
	if snap.NextActionKind != taxonomy.ActionLogOnly {
		t.Fatalf("nextAction=%s, want log_only with no committed factors", snap.NextActionKind)
	}
}

func TestBandsFromProfileConstraints(t *testing.T) {
	now := time.Now().UTC()
	in := baseInput()
	in.Profile.Fold([]profile.FactorRecord{
		{
			ID: uuid.New(), Domain: taxonomy.DomainSymptomsBodySignals,
			Code: taxonomy.CodeSymptomPain, Confidence: 0.8,
			TimeHorizon: taxonomy.HorizonChronic, Modifiability: taxonomy.ModifiabilityLow,
			CreatedAt: now,
		},
		{
			ID: uuid.New(), Domain: taxonomy.DomainAccessToCare,
			Code: taxonomy.CodeCareAccessBarrier, Confidence: 0.7,
			TimeHorizon: taxonomy.HorizonChronic, Modifiability: taxonomy.ModifiabilityLow,
			CreatedAt: now,
		},
	})
	in.Extracted.Factors = []extract.Candidate{committedFactor(taxonomy.CodeSymptomPain, 0.8)}

	snap := Decide(in)
	if snap.RiskBand != taxonomy.BandHigh {
		t.Fatalf("riskBand=%s, want high", snap.RiskBand)
	}
	if snap.FrictionBand == taxonomy.BandLow {
		t.Fatalf("frictionBand=%s, want at least medium with an access constraint", snap.FrictionBand)
	}
	if snap.NextActionKind != taxonomy.ActionAnswer {
		t.Fatalf("nextAction=%s, want answer", snap.NextActionKind)
	}
}

func TestWhatMattersDedupedAndCapped(t *testing.T) {
	now := time.Now().UTC()
	in := baseInput()
	codes := []taxonomy.FactorCode{
		taxonomy.CodeSymptomPain,
		taxonomy.CodeSymptomHeadache,
		taxonomy.CodeStressLoad,
		taxonomy.CodeFinancialStrain,
		taxonomy.CodeSocialIsolation,
	}
	var records []profile.FactorRecord
	for i, code := range codes {
		records = append(records, profile.FactorRecord{
			ID: uuid.New(), Domain: code.Domain(), Code: code,
			Confidence: 0.8, TimeHorizon: taxonomy.HorizonChronic,
			Modifiability: taxonomy.ModifiabilityLow,
			CreatedAt:     now.Add(time.Duration(i) * time.Second),
		})
	}
	in.Profile.Fold(records)
	in.Extracted.Factors = []extract.Candidate{committedFactor(taxonomy.CodeSymptomPain, 0.8)}

	snap := Decide(in)
	if len(snap.WhatMatters) > 3 {
		t.Fatalf("whatMatters=%v exceeds 3", snap.WhatMatters)
	}
	seen := map[string]bool{}
	for _, h := range snap.WhatMatters {
		if seen[h] {
			t.Fatalf("whatMatters contains duplicate %q", h)
		}
		seen[h] = true
	}
}

func TestUsedFactorsListsActiveConstraints(t *testing.T) {
	now := time.Now().UTC()
	in := baseInput()
	ids := []uuid.UUID{uuid.New(), uuid.New()}
	in.Profile.Fold([]profile.FactorRecord{
		{
			ID: ids[0], Domain: taxonomy.DomainSymptomsBodySignals,
			Code: taxonomy.CodeSymptomPain, Confidence: 0.8,
			TimeHorizon: taxonomy.HorizonChronic, Modifiability: taxonomy.ModifiabilityLow,
			CreatedAt: now,
		},
		{
			ID: ids[1], Domain: taxonomy.DomainResourcesConstraints,
			Code: taxonomy.CodeFinancialStrain, Confidence: 0.7,
			TimeHorizon: taxonomy.HorizonChronic, Modifiability: taxonomy.ModifiabilityLow,
			CreatedAt: now,
		},
	})

	snap := Decide(in)
	got := map[uuid.UUID]bool{}
	for _, id := range snap.UsedFactors {
		if got[id] {
			t.Fatalf("usedFactors contains duplicate %s", id)
		}
		got[id] = true
	}
	for _, id := range ids {
		if !got[id] {
			t.Fatalf("active constraint %s missing from usedFactors: %v", id, snap.UsedFactors)
		}
	}
}

func TestSymptomKeyPicksStrongestSymptom(t *testing.T) {
	in := baseInput()
	in.Extracted.Factors = []extract.Candidate{
		committedFactor(taxonomy.CodeSymptomHeadache, 0.6),
		committedFactor(taxonomy.CodeSymptomSleepIssue, 0.8),
		committedFactor(taxonomy.CodeStressLoad, 0.9),
	}

	snap := Decide(in)
	if snap.SymptomKey != string(taxonomy.CodeSymptomSleepIssue) {
		t.Fatalf("symptomKey=%q, want symptom_sleep_issue", snap.SymptomKey)
	}
}
