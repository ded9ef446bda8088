package services

import (
	"strings"

	"github.com/starbound-health/navigator-backend/internal/classify"
	"github.com/starbound-health/navigator-backend/internal/decide"
	"github.com/starbound-health/navigator-backend/internal/extract"
	"github.com/starbound-health/navigator-backend/internal/respond"
	"github.com/starbound-health/navigator-backend/internal/taxonomy"
)

// SignalInput carries everything the builder reads for one event.
type SignalInput struct {
	Text           string
	Intent         taxonomy.Intent
	SaveMode       taxonomy.SaveMode
	Classification classify.Result
	Extracted      extract.Payload
	Snapshot       decide.Snapshot

	// ActiveFactorCount is the size of the profile's latest-by-code index.
	ActiveFactorCount int
	// RecurrentSymptom is true when a significant pattern insight matches
	// the event's symptom key.
	RecurrentSymptom  bool
	RememberedSummary string
	NextStep          string
}

var (
	highLoadCues   = []string{"overwhelmed", "exhausted", "can't cope", "cant cope", "breaking down", "crying", "terrified", "scared", "hopeless", "drowning"}
	mediumLoadCues = []string{"stressed", "worried", "anxious", "frustrated", "tired of", "fed up", "struggling"}
	pressureCues   = []string{"deadline", "no time", "urgent", "right away", "asap", "running out of time", "today or never"}
	blockedCues    = []string{"can't afford", "cant afford", "no way to", "nothing i can do", "not allowed", "no insurance", "waitlist", "turned away", "no options"}
	actNowCues     = []string{"i could", "i can ", "i'll try", "going to try", "planning to", "tomorrow i"}
	requestCues    = []string{"help me", "what should i", "how do i", "can you", "what can i do", "any advice"}
	uncertainCues  = []string{"not sure", "i don't know", "i dont know", "maybe", "confused", "no idea", "uncertain"}
)

func containsAny(text string, cues []string) bool {
	for _, cue := range cues {
		if strings.Contains(text, cue) {
			return true
		}
	}
	return false
}

// BuildSignals derives the selector's situational signals from the text
// and the pipeline outputs. Everything here is a bounded heuristic; the
// selector itself stays a pure mapping.
func BuildSignals(in SignalInput) respond.Signals {
	text := strings.ToLower(in.Text)

	sig := respond.Signals{
		RiskFlag:          in.Classification.RiskFlag,
		IsolationLanguage: classify.ContainsIsolationLanguage(text),
		StucknessLanguage: classify.ContainsStucknessLanguage(text),
		LogOnly:           in.Snapshot.NextActionKind == taxonomy.ActionLogOnly,
		ExplicitSave:      in.SaveMode == taxonomy.SaveJournal || in.SaveMode == taxonomy.SaveFactorsOnly,
		ReflectiveContent: in.Intent == taxonomy.IntentJournal || in.Intent == taxonomy.IntentMixed,
		HealthTopic:       in.Classification.Primary.Domain.HealthTopic(),
		MemoryUsed:        in.ActiveFactorCount > 0 && len(in.Snapshot.UsedFactors) > 0,
		AskFollowUp:       in.Snapshot.NextActionKind == taxonomy.ActionAskFollowUp,
		FollowUpQuestion:  in.Snapshot.FollowUpQuestion,
		RememberedSummary: in.RememberedSummary,
		WhatMatters:       in.Snapshot.WhatMatters,
		NextStep:          in.NextStep,
	}

	sig.IntentType = intentType(text, in.Intent)
	sig.EmotionalLoad = emotionalLoad(text)
	sig.TimePressure = timePressure(text)
	sig.Complexity = complexity(in.Classification)
	sig.Agency = agency(text)
	sig.SocialDeterminants = socialDeterminants(in.Classification)
	sig.Recurrence = recurrence(in)
	sig.AlternativesCount = alternativesCount(text)
	return sig
}

func intentType(text string, declared taxonomy.Intent) taxonomy.IntentType {
	if declared == taxonomy.IntentLogOnly {
		return taxonomy.IntentTypeLogOnly
	}
	switch {
	case containsAny(text, requestCues):
		return taxonomy.IntentTypeRequest
	case strings.Contains(text, "?") || declared == taxonomy.IntentAsk:
		return taxonomy.IntentTypeQuestion
	case containsAny(text, uncertainCues):
		return taxonomy.IntentTypeUncertainty
	default:
		return taxonomy.IntentTypeReflection
	}
}

func emotionalLoad(text string) taxonomy.EmotionalLoad {
	switch {
	case containsAny(text, highLoadCues):
		return taxonomy.LoadHigh
	case containsAny(text, mediumLoadCues):
		return taxonomy.LoadMedium
	default:
		return taxonomy.LoadLow
	}
}

func timePressure(text string) taxonomy.TimePressure {
	if containsAny(text, pressureCues) {
		return taxonomy.PressureHigh
	}
	return taxonomy.PressureLow
}

// complexity grades by how many distinct domains the classifier tagged.
func complexity(result classify.Result) taxonomy.Complexity {
	domains := 1 + len(result.Secondary)
	switch {
	case domains >= 3:
		return taxonomy.ComplexitySystemic
	case domains == 2:
		return taxonomy.ComplexityModerate
	default:
		return taxonomy.ComplexitySimple
	}
}

func agency(text string) taxonomy.Agency {
	switch {
	case containsAny(text, blockedCues):
		return taxonomy.AgencyBlocked
	case containsAny(text, actNowCues):
		return taxonomy.AgencyCanActNow
	default:
		return taxonomy.AgencyLimited
	}
}

func socialDeterminants(result classify.Result) bool {
	check := func(d taxonomy.Domain) bool {
		switch d {
		case taxonomy.DomainAccessToCare,
			taxonomy.DomainSocialSupportContext,
			taxonomy.DomainResourcesConstraints,
			taxonomy.DomainEnvironmentExposures:
			return true
		}
		return false
	}
	if check(result.Primary.Domain) {
		return true
	}
	for _, tag := range result.Secondary {
		if check(tag.Domain) {
			return true
		}
	}
	return false
}

func recurrence(in SignalInput) taxonomy.Recurrence {
	if in.RecurrentSymptom {
		return taxonomy.RecurrenceFrequent
	}
	for _, f := range in.Extracted.Factors {
		if f.Code == taxonomy.CodeRecurrencePattern {
			return taxonomy.RecurrenceOccasional
		}
	}
	return taxonomy.RecurrenceNone
}

// alternativesCount counts distinguishable alternatives in the text. Two
// or more turn a question into a comparison.
func alternativesCount(text string) int {
	count := strings.Count(text, " or ")
	if strings.Contains(text, " versus ") || strings.Contains(text, " vs ") || strings.Contains(text, " vs. ") {
		count++
	}
	if count == 0 {
		return 0
	}
	return count + 1
}
