// Package decide computes one immutable state snapshot per event. The
// engine is a pure function evaluated as an ordered guard chain with
// first-match-terminal semantics, so precedence is testable on its own.
package decide

import (
	"time"

	"github.com/google/uuid"

	"github.com/starbound-health/navigator-backend/internal/classify"
	"github.com/starbound-health/navigator-backend/internal/extract"
	"github.com/starbound-health/navigator-backend/internal/profile"
	"github.com/starbound-health/navigator-backend/internal/taxonomy"
)

// DefaultDailyFollowUpCap bounds clarifying questions per profile per
// calendar day. The cap is a correctness requirement: once reached the
// engine answers with best-available information instead of looping.
const DefaultDailyFollowUpCap = 2

// SafetyCopy is the fixed crisis text attached to safety escalations.
const SafetyCopy = "It sounds like you might be in immediate danger or crisis. " +
	"Please contact local emergency services now, or reach a crisis line - " +
	"you deserve support right away."

// Input is everything the engine may read. It never mutates any of it.
type Input struct {
	EventID        uuid.UUID
	CreatedAt      time.Time
	Intent         taxonomy.Intent
	SaveMode       taxonomy.SaveMode
	Classification classify.Result
	Extracted      extract.Payload
	Profile        *profile.Profile

	// FollowUpCount is the number of follow-ups already asked for this
	// profile today, before this event.
	FollowUpCount    int
	DailyFollowUpCap int
	TopK             int

	// OracleUnavailable marks events classified with the local matcher
	// only; confidence must not be fabricated on top of that.
	OracleUnavailable bool
}

// Snapshot is the one immutable decision record per event.
type Snapshot struct {
	EventID          uuid.UUID               `json:"event_id"`
	CreatedAt        time.Time               `json:"created_at"`
	Intent           taxonomy.Intent         `json:"intent"`
	RiskBand         taxonomy.Band           `json:"risk_band"`
	FrictionBand     taxonomy.Band           `json:"friction_band"`
	UncertaintyBand  taxonomy.Band           `json:"uncertainty_band"`
	NextActionKind   taxonomy.NextActionKind `json:"next_action_kind"`
	WhatMatters      []string                `json:"what_matters"`
	FollowUpQuestion string                  `json:"followup_question,omitempty"`
	MissingInfoKey   string                  `json:"missing_info_key,omitempty"`
	SafetyCopy       string                  `json:"safety_copy,omitempty"`
	UsedFactors      []uuid.UUID             `json:"used_factors"`
	SymptomKey       string                  `json:"symptom_key,omitempty"`
	FollowUpCount    int                     `json:"followup_count"`
}

type step func(in Input, snap *Snapshot) bool

// Decide runs the guard chain. Steps run in order; the first step that
// returns true terminates the chain.
func Decide(in Input) Snapshot {
	if in.DailyFollowUpCap <= 0 {
		in.DailyFollowUpCap = DefaultDailyFollowUpCap
	}
	if in.TopK <= 0 {
		in.TopK = profile.DefaultTopK
	}
	if in.Profile == nil {
		in.Profile = profile.New(uuid.Nil)
	}

	snap := Snapshot{
		EventID:       in.EventID,
		CreatedAt:     in.CreatedAt,
		Intent:        in.Intent,
		FollowUpCount: in.FollowUpCount,
	}

	chain := []step{
		safetyShortCircuit,
		computeBands,
		selectNextAction,
	}
	for _, s := range chain {
		if s(in, &snap) {
			break
		}
	}

	snap.WhatMatters = whatMatters(in)
	snap.UsedFactors = usedFactors(in)
	snap.SymptomKey = symptomKey(in)
	return snap
}

// safetyShortCircuit: a safety-risk primary domain or any committed
// safety-flagged factor terminates the chain. No other branch executes.
func safetyShortCircuit(in Input, snap *Snapshot) bool {
	triggered := in.Classification.SafetyOverride ||
		in.Classification.Primary.Domain == taxonomy.DomainSafetyRisk
	if !triggered {
		for _, f := range in.Extracted.Factors {
			if f.Code.SafetyFlagged() {
				triggered = true
				break
			}
		}
	}
	if !triggered {
		return false
	}
	snap.RiskBand = taxonomy.BandUrgent
	snap.FrictionBand = taxonomy.BandLow
	snap.UncertaintyBand = taxonomy.BandLow
	snap.NextActionKind = taxonomy.ActionSafetyEscalation
	snap.SafetyCopy = SafetyCopy
	return true
}

// computeBands fills the three severity axes. Never terminal.
func computeBands(in Input, snap *Snapshot) bool {
	top := in.Profile.TopConstraints(in.TopK)

	snap.RiskBand = riskBand(top)
	snap.FrictionBand = frictionBand(in.Profile)
	snap.UncertaintyBand = uncertaintyBand(in)
	return false
}

func riskBand(top []profile.FactorRecord) taxonomy.Band {
	band := taxonomy.BandLow
	for _, f := range top {
		s := severity(f)
		if s == taxonomy.BandHigh {
			return taxonomy.BandHigh
		}
		if s == taxonomy.BandMedium {
			band = taxonomy.BandMedium
		}
	}
	return band
}

// severity grades one active constraint. High-priority domains with
// confident or chronic evidence grade high.
func severity(f profile.FactorRecord) taxonomy.Band {
	switch f.Domain {
	case taxonomy.DomainSafetyRisk:
		return taxonomy.BandHigh
	case taxonomy.DomainSymptomsBodySignals, taxonomy.DomainMedicalContext:
		if f.Confidence >= 0.6 || f.TimeHorizon.Chronic() {
			return taxonomy.BandHigh
		}
		return taxonomy.BandMedium
	case taxonomy.DomainMentalEmotionalState, taxonomy.DomainDurationPattern:
		return taxonomy.BandMedium
	default:
		return taxonomy.BandLow
	}
}

func frictionBand(p *profile.Profile) taxonomy.Band {
	count := 0
	weight := 0.0
	for _, f := range p.Latest {
		if f.Code.ConstraintCode() {
			count++
			weight += f.Score()
		}
	}
	switch {
	case count >= 3 || weight >= 1.2:
		return taxonomy.BandHigh
	case count >= 1:
		return taxonomy.BandMedium
	default:
		return taxonomy.BandLow
	}
}

func uncertaintyBand(in Input) taxonomy.Band {
	if in.OracleUnavailable {
		return taxonomy.BandHigh
	}
	hasMissing := len(in.Extracted.Missing) > 0

	if len(in.Extracted.Factors) == 0 {
		if hasMissing {
			return taxonomy.BandHigh
		}
		return taxonomy.BandMedium
	}

	sum := 0.0
	for _, f := range in.Extracted.Factors {
		sum += f.Confidence
	}
	avg := sum / float64(len(in.Extracted.Factors))

	switch {
	case avg < 0.45, hasMissing && avg < 0.6:
		return taxonomy.BandHigh
	case avg < 0.7, hasMissing:
		return taxonomy.BandMedium
	default:
		return taxonomy.BandLow
	}
}

// selectNextAction is the terminal step for every non-safety event.
func selectNextAction(in Input, snap *Snapshot) bool {
	if snap.UncertaintyBand == taxonomy.BandHigh &&
		len(in.Extracted.Missing) > 0 &&
		in.FollowUpCount < in.DailyFollowUpCap {
		prompt := in.Extracted.Missing[0]
		snap.NextActionKind = taxonomy.ActionAskFollowUp
		snap.FollowUpQuestion = prompt.Question
		snap.MissingInfoKey = prompt.Key
		snap.FollowUpCount = in.FollowUpCount + 1
		return true
	}

	if in.Intent == taxonomy.IntentLogOnly || in.SaveMode == taxonomy.SaveFactorsOnly {
		snap.NextActionKind = taxonomy.ActionLogOnly
		return true
	}

	// Local-only classification with nothing committed: better to save
	// than to answer on fabricated confidence.
	if in.OracleUnavailable && len(in.Extracted.Factors) == 0 {
		snap.NextActionKind = taxonomy.ActionLogOnly
		return true
	}

	snap.NextActionKind = taxonomy.ActionAnswer
	return true
}

// highlightLabels maps factor codes onto the short "what matters" strings
// surfaced on the home screen.
var highlightLabels = map[taxonomy.FactorCode]string{
	taxonomy.CodeSymptomHeadache:     "Recurring headaches",
	taxonomy.CodeSymptomFatigue:      "Ongoing tiredness",
	taxonomy.CodeSymptomPain:         "Unexplained pain",
	taxonomy.CodeSymptomSleepIssue:   "Sleep trouble",
	taxonomy.CodeSymptomDigestive:    "Stomach issues",
	taxonomy.CodeSymptomBreathing:    "Breathing trouble",
	taxonomy.CodeChronicCondition:    "A long-term condition",
	taxonomy.CodeMedicationRegimen:   "Managing medication",
	taxonomy.CodeRecentDiagnosis:     "A recent diagnosis",
	taxonomy.CodeMoodLow:             "Low mood",
	taxonomy.CodeAnxietyLevel:        "Anxiety",
	taxonomy.CodeStressLoad:          "High stress",
	taxonomy.CodeSymptomDuration:     "How long this has lasted",
	taxonomy.CodeRecurrencePattern:   "A repeating pattern",
	taxonomy.CodeEnergyLevel:         "Low energy",
	taxonomy.CodeSleepQuality:        "Sleep quality",
	taxonomy.CodeCareAccessBarrier:   "Getting access to care",
	taxonomy.CodeInsuranceGap:        "Insurance coverage",
	taxonomy.CodeEnvironmentHazard:   "Something in your environment",
	taxonomy.CodeWorkExposure:        "Work conditions",
	taxonomy.CodeSocialIsolation:     "Limited support around you",
	taxonomy.CodeCaregiverLoad:       "Caring for someone else",
	taxonomy.CodeFinancialStrain:     "Money pressure",
	taxonomy.CodeTimeScarcity:        "Not enough time",
	taxonomy.CodeHealthLiteracy:      "Making sense of the information",
	taxonomy.CodeTreatmentPreference: "Your treatment preferences",
	taxonomy.CodeHealthGoal:          "The goal you're working toward",
}

// whatMatters builds the deduplicated, length-capped highlight list.
func whatMatters(in Input) []string {
	top := in.Profile.TopConstraints(in.TopK)
	out := make([]string, 0, 3)
	seen := map[string]struct{}{}
	for _, f := range top {
		label, ok := highlightLabels[f.Code]
		if !ok {
			continue
		}
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
		if len(out) == 3 {
			break
		}
	}
	return out
}

// usedFactors records provenance: the active constraints the bands and
// highlights were read from. The event's own factors get their ids after
// the snapshot is computed, so they are not listed here.
func usedFactors(in Input) []uuid.UUID {
	seen := map[uuid.UUID]struct{}{}
	var out []uuid.UUID
	for _, f := range in.Profile.TopConstraints(in.TopK) {
		if _, ok := seen[f.ID]; ok {
			continue
		}
		seen[f.ID] = struct{}{}
		out = append(out, f.ID)
	}
	return out
}

// symptomKey picks the strongest symptom-domain code for pattern linkage.
func symptomKey(in Input) string {
	bestConfidence := 0.0
	best := ""
	for _, f := range in.Extracted.Factors {
		if f.Code.Domain() != taxonomy.DomainSymptomsBodySignals {
			continue
		}
		if f.Confidence > bestConfidence {
			bestConfidence = f.Confidence
			best = string(f.Code)
		}
	}
	return best
}
