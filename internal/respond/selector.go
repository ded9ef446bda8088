// Package respond maps situational signals onto the home-facing response
// contract: one of six response shapes, an escalation tier, bounded action
// chips and status lines. Tier evaluation is top-down with first-match
// terminal semantics; the Tier 3 safety check can never be bypassed.
package respond

import (
	"github.com/starbound-health/navigator-backend/internal/taxonomy"
)

// Signals is the selector input. It is distinct from, but informed by, the
// decision engine's bands; the ingest service assembles it per event.
type Signals struct {
	IntentType         taxonomy.IntentType
	EmotionalLoad      taxonomy.EmotionalLoad
	TimePressure       taxonomy.TimePressure
	Complexity         taxonomy.Complexity
	Agency             taxonomy.Agency
	SocialDeterminants bool
	RiskFlag           taxonomy.RiskFlag
	Recurrence         taxonomy.Recurrence
	MemoryUsed         bool

	// Text-derived cues, computed by the classify lexicons.
	IsolationLanguage bool
	StucknessLanguage bool

	LogOnly           bool
	ExplicitSave      bool
	ReflectiveContent bool
	HealthTopic       bool

	// AskFollowUp is set when the decision engine chose to ask a
	// clarifying follow-up; FollowUpQuestion carries its text. Tier 2
	// and above still outrank the clarifying shape.
	AskFollowUp      bool
	FollowUpQuestion string
	// AlternativesCount is the number of distinguishable alternatives the
	// submission names; two or more turn a question into a comparison.
	AlternativesCount int

	RememberedSummary string
	WhatMatters       []string
	NextStep          string
}

// FactorChip is one transparency chip showing a factor the response used.
type FactorChip struct {
	Code       string  `json:"code"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Model is the outward response contract. Field names and enumeration
// values bind directly into the UI and are a stability contract.
type Model struct {
	Mode              taxonomy.ResponseShape   `json:"mode"`
	Appended          []taxonomy.ResponseShape `json:"appended,omitempty"`
	EscalationTier    taxonomy.EscalationTier  `json:"escalation_tier"`
	Confirmation      string                   `json:"confirmation"`
	Answer            string                   `json:"answer,omitempty"`
	NextSteps         []string                 `json:"next_steps,omitempty"`
	FollowUpPlan      string                   `json:"follow_up_plan,omitempty"`
	SafetyNet         string                   `json:"safety_net,omitempty"`
	SupportPrompt     string                   `json:"support_prompt,omitempty"`
	SupportOptions    []string                 `json:"support_options,omitempty"`
	Chips             []taxonomy.ChipKind      `json:"chips"`
	StatusLines       []string                 `json:"status_lines,omitempty"`
	FactorChips       []FactorChip             `json:"factor_chips,omitempty"`
	MemoryFooter      bool                     `json:"memory_footer"`
	RememberedSummary string                   `json:"remembered_summary,omitempty"`
	WhatMatters       []string                 `json:"what_matters,omitempty"`
	NextStep          string                   `json:"next_step,omitempty"`
}

const (
	crisisSafetyNet = "If you are in immediate danger, contact local emergency services now. " +
		"A crisis line can stay with you while you do."
	tier2SafetyNet = "You don't have to carry this alone. Reaching out to one trusted person, " +
		"or a professional support line, is a solid next move."
	softSupportPrompt = "If this keeps weighing on you, talking it through with someone you trust could help."
	statusSaved       = "saved"
	statusNotAdvice   = "not medical advice"
)

// Select runs the escalation ladder, then shape mapping, then the
// independent add-ons and the chip budget.
func Select(sig Signals) Model {
	// Tier 3 runs before everything, including the log-only short-circuit:
	// a log-only entry can still contain crisis language.
	if sig.RiskFlag.Crisis() {
		m := Model{
			Mode:           taxonomy.ShapeEscalationSupport,
			EscalationTier: taxonomy.TierCrisis,
			Confirmation:   "This sounds serious, and it matters that you said it.",
			SafetyNet:      crisisSafetyNet,
			WhatMatters:    sig.WhatMatters,
		}
		// Non-safety chips are suppressed in the crisis flow.
		m.Chips = []taxonomy.ChipKind{taxonomy.ChipGetSupport}
		return m
	}

	if sig.LogOnly {
		m := Model{
			Mode:           taxonomy.ShapeGentleReflection,
			EscalationTier: taxonomy.TierNone,
			Confirmation:   "Got it - noted.",
			WhatMatters:    sig.WhatMatters,
		}
		applyAddOns(&m, sig)
		m.Chips = budgetChips(&m, sig)
		return m
	}

	m := Model{
		EscalationTier: taxonomy.TierNone,
		Confirmation:   "Thanks for sharing that.",
		WhatMatters:    sig.WhatMatters,
		NextStep:       sig.NextStep,
	}

	switch {
	case sig.EmotionalLoad == taxonomy.LoadHigh && sig.Agency == taxonomy.AgencyBlocked:
		m.EscalationTier = taxonomy.TierSupport
	case sig.IsolationLanguage && sig.TimePressure == taxonomy.PressureHigh && sig.RiskFlag == taxonomy.RiskNone:
		m.EscalationTier = taxonomy.TierSupport
	case sig.EmotionalLoad == taxonomy.LoadHigh && sig.Agency != taxonomy.AgencyCanActNow:
		m.EscalationTier = taxonomy.TierSoft
	case sig.Recurrence == taxonomy.RecurrenceFrequent && sig.StucknessLanguage:
		m.EscalationTier = taxonomy.TierSoft
	}

	if m.EscalationTier == taxonomy.TierSupport {
		m.Mode = taxonomy.ShapeEscalationSupport
		m.Confirmation = "That's a lot to hold at once. Let's keep this steady and simple."
		m.SafetyNet = tier2SafetyNet
		m.SupportOptions = []string{
			"Reach out to one trusted person today",
			"Contact a professional support service",
		}
	} else {
		if sig.AskFollowUp {
			m.Mode = taxonomy.ShapeClarifyingQuestion
			m.Answer = sig.FollowUpQuestion
		} else {
			m.Mode = baseShape(sig)
		}
		if m.EscalationTier == taxonomy.TierSoft {
			m.SupportPrompt = softSupportPrompt
		}
		if sig.IntentType == taxonomy.IntentTypeReflection && sig.Agency == taxonomy.AgencyCanActNow {
			m.Appended = append(m.Appended, taxonomy.ShapeConcreteNextStep)
		}
	}

	applyAddOns(&m, sig)
	m.Chips = budgetChips(&m, sig)
	return m
}

// baseShape is the Tier 0 mapping, in priority order.
func baseShape(sig Signals) taxonomy.ResponseShape {
	switch sig.IntentType {
	case taxonomy.IntentTypeQuestion:
		if sig.AlternativesCount >= 2 {
			return taxonomy.ShapeOptionComparison
		}
		return taxonomy.ShapeClarifyingQuestion
	case taxonomy.IntentTypeUncertainty:
		if sig.EmotionalLoad == taxonomy.LoadMedium || sig.EmotionalLoad == taxonomy.LoadHigh {
			return taxonomy.ShapeGentleReflection
		}
		return taxonomy.ShapeClarifyingQuestion
	case taxonomy.IntentTypeReflection:
		return taxonomy.ShapeGentleReflection
	case taxonomy.IntentTypeRequest:
		if sig.Complexity == taxonomy.ComplexitySystemic {
			return taxonomy.ShapeOptionComparison
		}
		return taxonomy.ShapeConcreteNextStep
	}
	if sig.Complexity == taxonomy.ComplexitySystemic || sig.Agency == taxonomy.AgencyBlocked {
		return taxonomy.ShapeOptionComparison
	}
	return taxonomy.ShapeGentleReflection
}

// applyAddOns attaches the secondary add-ons, which are independent of the
// selected tier and shape.
func applyAddOns(m *Model, sig Signals) {
	if sig.Recurrence == taxonomy.RecurrenceFrequent && sig.MemoryUsed {
		m.Appended = append(m.Appended, taxonomy.ShapePatternRecall)
		m.RememberedSummary = sig.RememberedSummary
	}
	if sig.MemoryUsed {
		m.MemoryFooter = true
	}
	if sig.LogOnly || sig.ExplicitSave {
		m.StatusLines = append(m.StatusLines, statusSaved)
	}
	if sig.HealthTopic {
		m.StatusLines = append(m.StatusLines, statusNotAdvice)
	}
}

// budgetChips assembles action chips under the fixed budget. Priority when
// over budget: Get support, Clarify, Save.
func budgetChips(m *Model, sig Signals) []taxonomy.ChipKind {
	var chips []taxonomy.ChipKind
	if m.EscalationTier >= taxonomy.TierSoft {
		chips = append(chips, taxonomy.ChipGetSupport)
	}
	if m.Mode == taxonomy.ShapeClarifyingQuestion {
		chips = append(chips, taxonomy.ChipClarify)
	}
	if sig.ReflectiveContent || sig.LogOnly || sig.ExplicitSave {
		chips = append(chips, taxonomy.ChipSave)
	}
	if len(chips) > taxonomy.MaxChips {
		chips = chips[:taxonomy.MaxChips]
	}
	return chips
}
