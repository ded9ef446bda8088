package classify

import (
	"strings"

	"github.com/starbound-health/navigator-backend/internal/taxonomy"
)

// SafetyScan is the local, synchronous danger-language matcher. It runs
// before any oracle call and its verdict can never be suppressed by a
// later stage: a slow or absent oracle must not delay crisis detection.
type SafetyScan struct {
	Triggered bool
	Flag      taxonomy.RiskFlag
	Matched   string
}

var selfHarmPhrases = []string{
	"kill myself",
	"end my life",
	"end it all",
	"hurt myself",
	"hurting myself",
	"harm myself",
	"self harm",
	"self-harm",
	"suicide",
	"suicidal",
	"don't want to be here anymore",
	"no reason to live",
	"better off without me",
	"overdose",
}

var harmToOthersPhrases = []string{
	"hurt someone",
	"hurt somebody",
	"hurt them",
	"kill them",
	"kill him",
	"kill her",
	"harm others",
	"want to hurt",
	"violent thoughts",
}

var imminentDangerPhrases = []string{
	"can't breathe",
	"cannot breathe",
	"cant breathe",
	"chest hurts",
	"chest pain",
	"crushing pain",
	"passing out",
	"losing consciousness",
	"bleeding badly",
	"bleeding a lot",
	"took too many pills",
	"being followed",
	"not safe right now",
	"in danger",
	"he is going to hurt me",
	"she is going to hurt me",
	"they are going to hurt me",
}

// ScanForDanger checks raw text against the danger lexicons.
// upstreamRiskFlag marks events already flagged by a prior layer; the flag
// is trusted even when the local lexicons miss.
func ScanForDanger(text string, upstreamRiskFlag bool) SafetyScan {
	s := strings.ToLower(strings.TrimSpace(text))

	for _, phrase := range selfHarmPhrases {
		if strings.Contains(s, phrase) {
			return SafetyScan{Triggered: true, Flag: taxonomy.RiskSelfHarm, Matched: phrase}
		}
	}
	for _, phrase := range harmToOthersPhrases {
		if strings.Contains(s, phrase) {
			return SafetyScan{Triggered: true, Flag: taxonomy.RiskHarmToOthers, Matched: phrase}
		}
	}
	for _, phrase := range imminentDangerPhrases {
		if strings.Contains(s, phrase) {
			return SafetyScan{Triggered: true, Flag: taxonomy.RiskImminentDanger, Matched: phrase}
		}
	}
	if upstreamRiskFlag {
		return SafetyScan{Triggered: true, Flag: taxonomy.RiskImminentDanger}
	}
	return SafetyScan{Flag: taxonomy.RiskNone}
}

// ContainsIsolationLanguage reports "alone and can't cope" phrasing; the
// response selector uses it for the Tier 2 gate.
func ContainsIsolationLanguage(text string) bool {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return false
	}
	for _, phrase := range []string{
		"no one to turn to",
		"nobody to turn to",
		"all alone",
		"completely alone",
		"no one cares",
		"nobody cares",
		"can't cope",
		"cannot cope",
		"can't handle this",
		"can't do this anymore",
		"falling apart",
	} {
		if strings.Contains(s, phrase) {
			return true
		}
	}
	return false
}

// ContainsStucknessLanguage reports recurring-rut phrasing; the response
// selector uses it for the Tier 1 gate.
func ContainsStucknessLanguage(text string) bool {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return false
	}
	for _, phrase := range []string{
		"stuck",
		"going in circles",
		"same thing again",
		"keeps happening",
		"happening again",
		"never gets better",
		"nothing changes",
		"nothing works",
	} {
		if strings.Contains(s, phrase) {
			return true
		}
	}
	return false
}
