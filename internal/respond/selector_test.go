package respond

import (
	"testing"

	"github.com/starbound-health/navigator-backend/internal/taxonomy"
)

func calmSignals() Signals {
	return Signals{
		IntentType:    taxonomy.IntentTypeReflection,
		EmotionalLoad: taxonomy.LoadLow,
		TimePressure:  taxonomy.PressureLow,
		Complexity:    taxonomy.ComplexitySimple,
		Agency:        taxonomy.AgencyLimited,
		RiskFlag:      taxonomy.RiskNone,
		Recurrence:    taxonomy.RecurrenceNone,
	}
}

func TestCrisisTierBeatsEverything(t *testing.T) {
	for _, flag := range []taxonomy.RiskFlag{
		taxonomy.RiskSelfHarm, taxonomy.RiskHarmToOthers, taxonomy.RiskImminentDanger,
	} {
		sig := calmSignals()
		sig.RiskFlag = flag
		sig.LogOnly = true // even a log-only entry can contain crisis language
		sig.ReflectiveContent = true

		m := Select(sig)
		if m.Mode != taxonomy.ShapeEscalationSupport {
			t.Fatalf("flag %s: mode=%s, want escalation_support", flag, m.Mode)
		}
		if m.EscalationTier != taxonomy.TierCrisis {
			t.Fatalf("flag %s: tier=%d, want 3", flag, m.EscalationTier)
		}
		if len(m.Chips) != 1 || m.Chips[0] != taxonomy.ChipGetSupport {
			t.Fatalf("flag %s: non-safety chips must be suppressed, got %v", flag, m.Chips)
		}
		if m.SafetyNet == "" {
			t.Fatalf("flag %s: crisis flow needs a safety net", flag)
		}
	}
}

func TestTier2Gates(t *testing.T) {
	sig := calmSignals()
	sig.EmotionalLoad = taxonomy.LoadHigh
	sig.Agency = taxonomy.AgencyBlocked
	m := Select(sig)
	if m.EscalationTier != taxonomy.TierSupport || m.Mode != taxonomy.ShapeEscalationSupport {
		t.Fatalf("high load + blocked agency: tier=%d mode=%s", m.EscalationTier, m.Mode)
	}
	if len(m.SupportOptions) == 0 {
		t.Fatalf("tier 2 must present trusted-person and professional options")
	}

	sig = calmSignals()
	sig.IsolationLanguage = true
	sig.TimePressure = taxonomy.PressureHigh
	m = Select(sig)
	if m.EscalationTier != taxonomy.TierSupport {
		t.Fatalf("isolation + time pressure: tier=%d, want 2", m.EscalationTier)
	}
}

func TestTier1KeepsBaseShapeAndAddsPrompt(t *testing.T) {
	sig := calmSignals()
	sig.EmotionalLoad = taxonomy.LoadHigh
	sig.Agency = taxonomy.AgencyLimited
	m := Select(sig)
	if m.EscalationTier != taxonomy.TierSoft {
		t.Fatalf("tier=%d, want 1", m.EscalationTier)
	}
	if m.Mode != taxonomy.ShapeGentleReflection {
		t.Fatalf("tier 1 must keep the tier-0 shape, got %s", m.Mode)
	}
	if m.SupportPrompt == "" {
		t.Fatalf("tier 1 must append a soft support prompt")
	}

	sig = calmSignals()
	sig.Recurrence = taxonomy.RecurrenceFrequent
	sig.StucknessLanguage = true
	m = Select(sig)
	if m.EscalationTier != taxonomy.TierSoft {
		t.Fatalf("frequent recurrence + stuckness: tier=%d, want 1", m.EscalationTier)
	}
}

func TestTier0ShapeMapping(t *testing.T) {
	cases := []struct {
		name  string
		tweak func(*Signals)
		want  taxonomy.ResponseShape
	}{
		{
			name:  "question_maps_to_clarifying",
			tweak: func(s *Signals) { s.IntentType = taxonomy.IntentTypeQuestion },
			want:  taxonomy.ShapeClarifyingQuestion,
		},
		{
			name: "question_with_alternatives_maps_to_comparison",
			tweak: func(s *Signals) {
				s.IntentType = taxonomy.IntentTypeQuestion
				s.AlternativesCount = 2
			},
			want: taxonomy.ShapeOptionComparison,
		},
		{
			name:  "uncertainty_maps_to_clarifying",
			tweak: func(s *Signals) { s.IntentType = taxonomy.IntentTypeUncertainty },
			want:  taxonomy.ShapeClarifyingQuestion,
		},
		{
			name: "uncertainty_with_medium_load_maps_to_reflection",
			tweak: func(s *Signals) {
				s.IntentType = taxonomy.IntentTypeUncertainty
				s.EmotionalLoad = taxonomy.LoadMedium
			},
			want: taxonomy.ShapeGentleReflection,
		},
		{
			name:  "reflection_maps_to_gentle_reflection",
			tweak: func(s *Signals) { s.IntentType = taxonomy.IntentTypeReflection },
			want:  taxonomy.ShapeGentleReflection,
		},
		{
			name:  "request_maps_to_next_step",
			tweak: func(s *Signals) { s.IntentType = taxonomy.IntentTypeRequest },
			want:  taxonomy.ShapeConcreteNextStep,
		},
		{
			name: "systemic_request_maps_to_comparison",
			tweak: func(s *Signals) {
				s.IntentType = taxonomy.IntentTypeRequest
				s.Complexity = taxonomy.ComplexitySystemic
			},
			want: taxonomy.ShapeOptionComparison,
		},
		{
			name: "otherwise_unhandled_blocked_agency_maps_to_comparison",
			tweak: func(s *Signals) {
				s.IntentType = taxonomy.IntentTypeLogOnly
				s.Agency = taxonomy.AgencyBlocked
			},
			want: taxonomy.ShapeOptionComparison,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sig := calmSignals()
			tc.tweak(&sig)
			m := Select(sig)
			if m.Mode != tc.want {
				t.Fatalf("mode=%s, want %s", m.Mode, tc.want)
			}
			if m.EscalationTier != taxonomy.TierNone {
				t.Fatalf("tier=%d, want 0", m.EscalationTier)
			}
		})
	}
}

func TestFollowUpShapeCarriesClarifyChip(t *testing.T) {
	sig := calmSignals()
	sig.AskFollowUp = true
	sig.FollowUpQuestion = "How long has the headache been going on?"

	m := Select(sig)
	if m.Mode != taxonomy.ShapeClarifyingQuestion {
		t.Fatalf("mode=%s, want clarifying_question", m.Mode)
	}
	if m.Answer != sig.FollowUpQuestion {
		t.Fatalf("answer=%q, want the follow-up question", m.Answer)
	}
	clarify := false
	for _, c := range m.Chips {
		if c == taxonomy.ChipClarify {
			clarify = true
		}
	}
	if !clarify {
		t.Fatalf("chips=%v, want Clarify included for the clarifying shape", m.Chips)
	}
}

func TestTier2OutranksFollowUpShape(t *testing.T) {
	sig := calmSignals()
	sig.AskFollowUp = true
	sig.FollowUpQuestion = "What did the doctor say?"
	sig.EmotionalLoad = taxonomy.LoadHigh
	sig.Agency = taxonomy.AgencyBlocked

	m := Select(sig)
	if m.EscalationTier != taxonomy.TierSupport {
		t.Fatalf("tier=%d, want 2", m.EscalationTier)
	}
	if m.Mode != taxonomy.ShapeEscalationSupport {
		t.Fatalf("mode=%s, the follow-up must not downgrade escalation_support", m.Mode)
	}
	for _, c := range m.Chips {
		if c == taxonomy.ChipClarify {
			t.Fatalf("chips=%v, Clarify belongs to the clarifying shape only", m.Chips)
		}
	}
}

func TestScenarioBReflectionWithActionableAgency(t *testing.T) {
	sig := calmSignals()
	sig.IntentType = taxonomy.IntentTypeReflection
	sig.EmotionalLoad = taxonomy.LoadMedium
	sig.Agency = taxonomy.AgencyCanActNow
	sig.ReflectiveContent = true

	m := Select(sig)
	if m.Mode != taxonomy.ShapeGentleReflection {
		t.Fatalf("mode=%s, want gentle_reflection", m.Mode)
	}
	appended := false
	for _, s := range m.Appended {
		if s == taxonomy.ShapeConcreteNextStep {
			appended = true
		}
	}
	if !appended {
		t.Fatalf("concrete_next_step should be appended when agency=can_act_now: %+v", m.Appended)
	}
	if m.EscalationTier != taxonomy.TierNone {
		t.Fatalf("tier=%d, want 0", m.EscalationTier)
	}
	hasSave := false
	for _, c := range m.Chips {
		if c == taxonomy.ChipSave {
			hasSave = true
		}
	}
	if !hasSave {
		t.Fatalf("chips=%v, want Save included", m.Chips)
	}
}

func TestScenarioCPatternRecall(t *testing.T) {
	sig := calmSignals()
	sig.Recurrence = taxonomy.RecurrenceFrequent
	sig.MemoryUsed = true
	sig.RememberedSummary = "Headaches have shown up 4 times in the last two weeks."

	m := Select(sig)
	recall := false
	for _, s := range m.Appended {
		if s == taxonomy.ShapePatternRecall {
			recall = true
		}
	}
	if !recall {
		t.Fatalf("pattern_recall add-on missing: %+v", m.Appended)
	}
	if m.RememberedSummary == "" {
		t.Fatalf("rememberedSummary must be populated")
	}
	if !m.MemoryFooter {
		t.Fatalf("memory footer must be present when memory was used")
	}
}

func TestStatusLines(t *testing.T) {
	sig := calmSignals()
	sig.ExplicitSave = true
	sig.HealthTopic = true
	m := Select(sig)

	want := map[string]bool{"saved": false, "not medical advice": false}
	for _, line := range m.StatusLines {
		if _, ok := want[line]; ok {
			want[line] = true
		}
	}
	for line, seen := range want {
		if !seen {
			t.Fatalf("status line %q missing: %v", line, m.StatusLines)
		}
	}
}

func TestLogOnlyShortCircuit(t *testing.T) {
	sig := calmSignals()
	sig.LogOnly = true
	sig.IntentType = taxonomy.IntentTypeLogOnly
	m := Select(sig)

	if m.EscalationTier != taxonomy.TierNone {
		t.Fatalf("tier=%d, want 0", m.EscalationTier)
	}
	if m.Confirmation == "" {
		t.Fatalf("log-only needs a minimal acknowledgement")
	}
	saved := false
	for _, line := range m.StatusLines {
		if line == "saved" {
			saved = true
		}
	}
	if !saved {
		t.Fatalf("log-only must carry the saved status line: %v", m.StatusLines)
	}
}

func TestChipBudgetNeverExceeded(t *testing.T) {
	// Sweep every combination that can mint chips.
	for _, tier1 := range []bool{false, true} {
		for _, clarify := range []bool{false, true} {
			for _, save := range []bool{false, true} {
				sig := calmSignals()
				if tier1 {
					sig.EmotionalLoad = taxonomy.LoadHigh
					sig.Agency = taxonomy.AgencyLimited
				}
				if clarify {
					sig.IntentType = taxonomy.IntentTypeQuestion
				}
				if save {
					sig.ReflectiveContent = true
				}
				m := Select(sig)
				if len(m.Chips) > taxonomy.MaxChips {
					t.Fatalf("chips=%v exceeds budget", m.Chips)
				}
			}
		}
	}
}
