package classify

import (
	"testing"

	"github.com/starbound-health/navigator-backend/internal/taxonomy"
)

func TestScanForDanger(t *testing.T) {
	cases := []struct {
		name     string
		text     string
		upstream bool
		want     taxonomy.RiskFlag
	}{
		{
			name: "breathing_emergency",
			text: "can't breathe, chest hurts",
			want: taxonomy.RiskImminentDanger,
		},
		{
			name: "self_harm",
			text: "I keep thinking about hurting myself",
			want: taxonomy.RiskSelfHarm,
		},
		{
			name: "harm_to_others",
			text: "I am scared I will hurt someone",
			want: taxonomy.RiskHarmToOthers,
		},
		{
			name:     "upstream_flag_without_local_match",
			text:     "everything is fine",
			upstream: true,
			want:     taxonomy.RiskImminentDanger,
		},
		{
			name: "benign_text",
			text: "I slept badly and have a headache",
			want: taxonomy.RiskNone,
		},
		{
			name: "empty_text",
			text: "",
			want: taxonomy.RiskNone,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			scan := ScanForDanger(tc.text, tc.upstream)
			if scan.Flag != tc.want {
				t.Fatalf("ScanForDanger(%q) flag=%s, want %s", tc.text, scan.Flag, tc.want)
			}
			if scan.Triggered != (tc.want != taxonomy.RiskNone) {
				t.Fatalf("ScanForDanger(%q) triggered=%v, flag=%s", tc.text, scan.Triggered, scan.Flag)
			}
		})
	}
}

func TestClassifySafetyOverridesEverything(t *testing.T) {
	// Even with a high-confidence oracle tag for another domain, danger
	// language wins the primary slot.
	oracle := []DomainTag{{Domain: taxonomy.DomainGoalsIntent, Confidence: 0.99}}
	got := Classify("chest pain and I can't breathe", oracle, false)
	if got.Primary.Domain != taxonomy.DomainSafetyRisk {
		t.Fatalf("primary=%s, want safety_risk", got.Primary.Domain)
	}
	if !got.SafetyOverride {
		t.Fatalf("expected SafetyOverride")
	}
	if got.RiskFlag == taxonomy.RiskNone {
		t.Fatalf("expected a risk flag")
	}
}

func TestClassifyOracleCannotAssertSafetyRisk(t *testing.T) {
	oracle := []DomainTag{{Domain: taxonomy.DomainSafetyRisk, Confidence: 0.95}}
	got := Classify("thinking about my sleep schedule", oracle, false)
	if got.Primary.Domain == taxonomy.DomainSafetyRisk {
		t.Fatalf("oracle alone must not set safety_risk; got primary=%s", got.Primary.Domain)
	}
}

func TestClassifyTieBreakPrefersLowerPriorityNumber(t *testing.T) {
	// Two oracle tags within the 0.05 window: symptoms (priority 2) must
	// beat goals_intent (priority 12) even though goals scored higher.
	oracle := []DomainTag{
		{Domain: taxonomy.DomainGoalsIntent, Confidence: 0.80},
		{Domain: taxonomy.DomainSymptomsBodySignals, Confidence: 0.76},
	}
	got := Classify("", oracle, false)
	if got.Primary.Domain != taxonomy.DomainSymptomsBodySignals {
		t.Fatalf("primary=%s, want symptoms_body_signals", got.Primary.Domain)
	}

	// Outside the window the higher score wins.
	oracle[1].Confidence = 0.70
	got = Classify("", oracle, false)
	if got.Primary.Domain != taxonomy.DomainGoalsIntent {
		t.Fatalf("primary=%s, want goals_intent", got.Primary.Domain)
	}
}

func TestClassifyTieWindowAnchorsAtMaximum(t *testing.T) {
	// A chain of tags each within 0.05 of the previous one must not drag
	// the window downward: 0.72 is outside 0.80's window and cannot win,
	// even though it is within 0.05 of 0.76.
	oracle := []DomainTag{
		{Domain: taxonomy.DomainDurationPattern, Confidence: 0.80},
		{Domain: taxonomy.DomainMedicalContext, Confidence: 0.76},
		{Domain: taxonomy.DomainSymptomsBodySignals, Confidence: 0.72},
	}
	got := Classify("", oracle, false)
	if got.Primary.Domain != taxonomy.DomainMedicalContext {
		t.Fatalf("primary=%s conf=%.2f, want medical_context", got.Primary.Domain, got.Primary.Confidence)
	}
}

func TestClassifySecondaryFloorAndCap(t *testing.T) {
	oracle := []DomainTag{
		{Domain: taxonomy.DomainSymptomsBodySignals, Confidence: 0.9},
		{Domain: taxonomy.DomainMedicalContext, Confidence: 0.6},
		{Domain: taxonomy.DomainMentalEmotionalState, Confidence: 0.5},
		{Domain: taxonomy.DomainDurationPattern, Confidence: 0.4},
		{Domain: taxonomy.DomainCapacityEnergy, Confidence: 0.35},
		{Domain: taxonomy.DomainGoalsIntent, Confidence: 0.29},
	}
	got := Classify("", oracle, false)
	if got.Primary.Domain != taxonomy.DomainSymptomsBodySignals {
		t.Fatalf("primary=%s", got.Primary.Domain)
	}
	if len(got.Secondary) != 3 {
		t.Fatalf("secondary count=%d, want 3", len(got.Secondary))
	}
	for i := 1; i < len(got.Secondary); i++ {
		if got.Secondary[i-1].Confidence < got.Secondary[i].Confidence {
			t.Fatalf("secondary not confidence-descending: %+v", got.Secondary)
		}
	}
	for _, tag := range got.Secondary {
		if tag.Confidence < 0.3 {
			t.Fatalf("secondary below floor: %+v", tag)
		}
		if tag.Domain == taxonomy.DomainGoalsIntent {
			t.Fatalf("tag under the floor leaked into secondary: %+v", tag)
		}
	}
}

func TestClassifyUnknownFallback(t *testing.T) {
	got := Classify("xyzzy", nil, false)
	if got.Primary.Domain != taxonomy.DomainUnknownOther {
		t.Fatalf("primary=%s, want unknown_other", got.Primary.Domain)
	}
}

func TestLocalLexiconScoring(t *testing.T) {
	got := Classify("I've been anxious and overwhelmed for weeks", nil, false)
	if got.Primary.Domain != taxonomy.DomainMentalEmotionalState {
		t.Fatalf("primary=%s, want mental_emotional_state", got.Primary.Domain)
	}
	found := false
	for _, tag := range got.Secondary {
		if tag.Domain == taxonomy.DomainDurationPattern {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected duration_pattern among secondary tags: %+v", got.Secondary)
	}
}
