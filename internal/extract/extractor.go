// Package extract turns classified submissions into typed, confidence
// scored factor candidates, or missing-info prompts when confidence is too
// low to commit a fact.
package extract

import (
	"sort"
	"strings"

	"github.com/starbound-health/navigator-backend/internal/classify"
	"github.com/starbound-health/navigator-backend/internal/taxonomy"
)

// commitFloor is the confidence below which a candidate becomes a
// MissingInfo prompt instead of a committed factor.
const commitFloor = 0.35

// Candidate is a proposed factor, from the oracle or the local deriver.
type Candidate struct {
	Code          taxonomy.FactorCode    `json:"code"`
	Type          taxonomy.FactorType    `json:"type"`
	Value         any                    `json:"value"`
	Confidence    float64                `json:"confidence"`
	TimeHorizon   taxonomy.TimeHorizon   `json:"time_horizon"`
	Modifiability taxonomy.Modifiability `json:"modifiability"`
}

// MissingInfo is a candidate clarifying follow-up.
type MissingInfo struct {
	Key      string          `json:"key"`
	Question string          `json:"question"`
	Domain   taxonomy.Domain `json:"domain"`
	Priority int             `json:"priority"`
}

// Rejected records a quarantined candidate. Out-of-vocabulary codes are
// never coerced into a nearby code; they are logged and dropped.
type Rejected struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// Payload is the extractor output for one event.
type Payload struct {
	Factors  []Candidate
	Missing  []MissingInfo
	Rejected []Rejected
}

// followUpQuestions maps factor codes onto the clarifying question asked
// when the candidate is too weak to commit.
var followUpQuestions = map[taxonomy.FactorCode]string{
	taxonomy.CodeSymptomHeadache:   "How often have the headaches been happening, and how long do they last?",
	taxonomy.CodeSymptomFatigue:    "Is the tiredness there most days, or does it come and go?",
	taxonomy.CodeSymptomPain:       "Where is the pain, and when did it start?",
	taxonomy.CodeSymptomSleepIssue: "Roughly how many nights a week is sleep a problem?",
	taxonomy.CodeSymptomDigestive:  "When do the stomach issues tend to show up?",
	taxonomy.CodeSymptomDuration:   "How long has this been going on?",
	taxonomy.CodeStressLoad:        "What part of this feels heaviest right now?",
	taxonomy.CodeCareAccessBarrier: "What's getting in the way of seeing someone about this?",
	taxonomy.CodeFinancialStrain:   "Is cost part of what's making this hard?",
	taxonomy.CodeSocialIsolation:   "Is there anyone around you who can help with this?",
	taxonomy.CodeEnergyLevel:       "How has your energy been over the last week?",
	taxonomy.CodeSleepQuality:      "How has your sleep been lately?",
}

func questionFor(code taxonomy.FactorCode) string {
	if q, ok := followUpQuestions[code]; ok {
		return q
	}
	return "Can you tell me a bit more about that?"
}

// Extract filters candidates through the vocabulary registry and the
// per-domain factor-type filter, commits at most one factor per code per
// event (max confidence wins), and converts weak candidates into
// missing-info prompts.
func Extract(result classify.Result, text string, candidates []Candidate, registry *taxonomy.Registry) Payload {
	merged := append(deriveLocal(result, text), candidates...)

	var payload Payload
	best := map[taxonomy.FactorCode]Candidate{}

	for _, cand := range merged {
		if err := registry.ValidateCode(cand.Code, cand.Type); err != nil {
			payload.Rejected = append(payload.Rejected, Rejected{Code: string(cand.Code), Reason: err.Error()})
			continue
		}
		if !cand.TimeHorizon.Valid() {
			cand.TimeHorizon = taxonomy.HorizonUnknown
		}
		if !cand.Modifiability.Valid() {
			cand.Modifiability = taxonomy.ModifiabilityUnknown
		}
		cand.Confidence = clamp01(cand.Confidence)
		if existing, ok := best[cand.Code]; !ok || cand.Confidence > existing.Confidence {
			best[cand.Code] = cand
		}
	}

	codes := make([]taxonomy.FactorCode, 0, len(best))
	for code := range best {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })

	for _, code := range codes {
		cand := best[code]
		if cand.Confidence < commitFloor {
			payload.Missing = append(payload.Missing, MissingInfo{
				Key:      string(code),
				Question: questionFor(code),
				Domain:   code.Domain(),
				Priority: code.Domain().Priority(),
			})
			continue
		}
		payload.Factors = append(payload.Factors, cand)
	}

	sort.Slice(payload.Missing, func(i, j int) bool {
		if payload.Missing[i].Priority != payload.Missing[j].Priority {
			return payload.Missing[i].Priority < payload.Missing[j].Priority
		}
		return payload.Missing[i].Key < payload.Missing[j].Key
	})

	return payload
}

// localCues lets the extractor commit obvious factors even when the oracle
// is unreachable. Confidence stays modest; the oracle overrides via the
// max-confidence merge when it does answer.
var localCues = []struct {
	phrases       []string
	code          taxonomy.FactorCode
	factorType    taxonomy.FactorType
	horizon       taxonomy.TimeHorizon
	modifiability taxonomy.Modifiability
	confidence    float64
}{
	{[]string{"headache", "migraine"}, taxonomy.CodeSymptomHeadache, taxonomy.FactorChance, taxonomy.HorizonAcute, taxonomy.ModifiabilityUnknown, 0.55},
	{[]string{"tired all the time", "exhausted", "fatigue"}, taxonomy.CodeSymptomFatigue, taxonomy.FactorChance, taxonomy.HorizonUnknown, taxonomy.ModifiabilityUnknown, 0.5},
	{[]string{"can't sleep", "cant sleep", "barely sleep", "sleep badly", "insomnia"}, taxonomy.CodeSymptomSleepIssue, taxonomy.FactorChance, taxonomy.HorizonUnknown, taxonomy.ModifiabilityMedium, 0.55},
	{[]string{"for weeks", "for months", "keeps coming back"}, taxonomy.CodeSymptomDuration, taxonomy.FactorChance, taxonomy.HorizonChronic, taxonomy.ModifiabilityLow, 0.5},
	{[]string{"stressed", "overwhelmed", "burned out", "burnout"}, taxonomy.CodeStressLoad, taxonomy.FactorChance, taxonomy.HorizonAcute, taxonomy.ModifiabilityMedium, 0.5},
	{[]string{"no insurance", "can't afford a doctor", "can't get an appointment", "waitlist"}, taxonomy.CodeCareAccessBarrier, taxonomy.FactorChance, taxonomy.HorizonChronic, taxonomy.ModifiabilityLow, 0.6},
	{[]string{"money is tight", "can't afford", "bills", "broke"}, taxonomy.CodeFinancialStrain, taxonomy.FactorChance, taxonomy.HorizonChronic, taxonomy.ModifiabilityLow, 0.55},
	{[]string{"all alone", "no one to help", "nobody to turn to", "lonely"}, taxonomy.CodeSocialIsolation, taxonomy.FactorChance, taxonomy.HorizonChronic, taxonomy.ModifiabilityMedium, 0.5},
	{[]string{"no energy", "drained", "worn out"}, taxonomy.CodeEnergyLevel, taxonomy.FactorChance, taxonomy.HorizonAcute, taxonomy.ModifiabilityMedium, 0.45},
}

var safetyCodeForFlag = map[taxonomy.RiskFlag]taxonomy.FactorCode{
	taxonomy.RiskSelfHarm:       taxonomy.CodeSelfHarmRisk,
	taxonomy.RiskHarmToOthers:   taxonomy.CodeHarmToOthersRisk,
	taxonomy.RiskImminentDanger: taxonomy.CodeImminentDangerRisk,
}

func deriveLocal(result classify.Result, text string) []Candidate {
	var out []Candidate

	if result.SafetyOverride {
		if code, ok := safetyCodeForFlag[result.RiskFlag]; ok {
			out = append(out, Candidate{
				Code:          code,
				Type:          taxonomy.FactorChance,
				Value:         true,
				Confidence:    1.0,
				TimeHorizon:   taxonomy.HorizonAcute,
				Modifiability: taxonomy.ModifiabilityUnknown,
			})
		}
	}

	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return out
	}
	for _, cue := range localCues {
		for _, phrase := range cue.phrases {
			if strings.Contains(s, phrase) {
				out = append(out, Candidate{
					Code:          cue.code,
					Type:          cue.factorType,
					Value:         true,
					Confidence:    cue.confidence,
					TimeHorizon:   cue.horizon,
					Modifiability: cue.modifiability,
				})
				break
			}
		}
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
