// Package classify maps raw submission text plus oracle candidate tags to
// a primary/secondary domain classification with an unconditional safety
// override.
package classify

import (
	"sort"
	"strings"

	"github.com/starbound-health/navigator-backend/internal/taxonomy"
)

const (
	// tieWindow is the confidence window inside which the domain with the
	// lower priority number wins the primary slot.
	tieWindow = 0.05
	// secondaryFloor is the minimum confidence for a secondary tag.
	secondaryFloor = 0.3
	// maxSecondary caps the secondary tag list.
	maxSecondary = 3
)

// DomainTag is one scored domain candidate.
type DomainTag struct {
	Domain     taxonomy.Domain `json:"domain"`
	Confidence float64         `json:"confidence"`
}

// Result is the classification for exactly one event.
type Result struct {
	Primary        DomainTag   `json:"primary"`
	Secondary      []DomainTag `json:"secondary"`
	Rationale      string      `json:"rationale,omitempty"`
	SafetyOverride bool        `json:"safety_override"`
	RiskFlag       taxonomy.RiskFlag
}

// lexicon maps per-domain cue phrases onto local confidence scores. The
// local matcher is deliberately coarse; the oracle refines it when
// reachable, and the merge keeps the max per domain.
var lexicon = map[taxonomy.Domain][]string{
	taxonomy.DomainSymptomsBodySignals:  {"headache", "migraine", "pain", "nausea", "dizzy", "fatigue", "tired all the time", "rash", "fever", "cough", "sore", "cramp", "ache"},
	taxonomy.DomainMedicalContext:       {"diagnosed", "diagnosis", "medication", "prescription", "doctor said", "my condition", "diabetes", "asthma", "blood pressure", "treatment"},
	taxonomy.DomainMentalEmotionalState: {"anxious", "anxiety", "depressed", "overwhelmed", "stressed", "panic", "worried", "hopeless", "burned out", "burnout", "lonely"},
	taxonomy.DomainDurationPattern:      {"for weeks", "for months", "every day", "every night", "keeps coming back", "since last", "again and again", "on and off"},
	taxonomy.DomainCapacityEnergy:       {"no energy", "exhausted", "can't get out of bed", "drained", "worn out", "barely sleep", "sleep badly"},
	taxonomy.DomainAccessToCare:         {"can't afford a doctor", "no insurance", "waitlist", "no appointment", "can't get an appointment", "clinic is far", "no gp"},
	taxonomy.DomainEnvironmentExposures: {"mold", "pollution", "smoke", "noise at night", "chemicals at work", "damp apartment", "air quality"},
	taxonomy.DomainSocialSupportContext: {"my partner", "my family", "caring for my", "caregiver", "no one to help", "friends", "my kids"},
	taxonomy.DomainResourcesConstraints: {"can't afford", "money is tight", "no time", "two jobs", "rent", "bills", "broke"},
	taxonomy.DomainKnowledgeBeliefs:     {"is it normal", "should i", "i read that", "not sure what", "what does it mean", "don't understand", "confused about"},
	taxonomy.DomainGoalsIntent:          {"i want to", "my goal", "trying to", "i'd like to", "planning to", "hoping to"},
}

// Classify merges the local lexical scan with oracle candidate tags.
// The safety check runs first and unconditionally; when it triggers, the
// primary domain is safety_risk and overrides everything else.
func Classify(text string, oracleTags []DomainTag, upstreamRiskFlag bool) Result {
	if scan := ScanForDanger(text, upstreamRiskFlag); scan.Triggered {
		return Result{
			Primary:        DomainTag{Domain: taxonomy.DomainSafetyRisk, Confidence: 1.0},
			SafetyOverride: true,
			RiskFlag:       scan.Flag,
			Rationale:      "local safety matcher: " + scan.Matched,
		}
	}

	scores := localScores(text)
	for _, tag := range oracleTags {
		if !tag.Domain.Valid() || tag.Confidence <= 0 {
			continue
		}
		// The oracle never gets to assert safety_risk on its own; the
		// local matcher owns that call and re-checks at later stages.
		if tag.Domain == taxonomy.DomainSafetyRisk {
			continue
		}
		if tag.Confidence > scores[tag.Domain] {
			scores[tag.Domain] = clamp01(tag.Confidence)
		}
	}

	tags := make([]DomainTag, 0, len(scores))
	for domain, confidence := range scores {
		tags = append(tags, DomainTag{Domain: domain, Confidence: confidence})
	}
	if len(tags) == 0 {
		return Result{
			Primary:  DomainTag{Domain: taxonomy.DomainUnknownOther, Confidence: 0.2},
			RiskFlag: taxonomy.RiskNone,
		}
	}

	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Confidence != tags[j].Confidence {
			return tags[i].Confidence > tags[j].Confidence
		}
		return tags[i].Domain.Priority() < tags[j].Domain.Priority()
	})

	primary := pickPrimary(tags)

	secondary := make([]DomainTag, 0, maxSecondary)
	for _, tag := range tags {
		if tag.Domain == primary.Domain {
			continue
		}
		if tag.Confidence < secondaryFloor {
			continue
		}
		secondary = append(secondary, tag)
		if len(secondary) == maxSecondary {
			break
		}
	}

	return Result{
		Primary:   primary,
		Secondary: secondary,
		RiskFlag:  taxonomy.RiskNone,
	}
}

// pickPrimary applies the tie-break: among tags whose confidence is within
// tieWindow of the maximum, the lowest priority number wins.
func pickPrimary(sorted []DomainTag) DomainTag {
	// The window anchors at the maximum confidence; a chain of tags each
	// close to the previous one must not drag it downward.
	max := sorted[0].Confidence
	best := sorted[0]
	for _, tag := range sorted[1:] {
		if max-tag.Confidence > tieWindow {
			break
		}
		if tag.Domain.Priority() < best.Domain.Priority() {
			best = tag
		}
	}
	return best
}

func localScores(text string) map[taxonomy.Domain]float64 {
	s := strings.ToLower(strings.TrimSpace(text))
	scores := map[taxonomy.Domain]float64{}
	if s == "" {
		return scores
	}
	for domain, phrases := range lexicon {
		hits := 0
		for _, phrase := range phrases {
			if strings.Contains(s, phrase) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		// One hit gives a cautious 0.45; each extra hit adds 0.15 up to 0.9.
		confidence := 0.45 + 0.15*float64(hits-1)
		if confidence > 0.9 {
			confidence = 0.9
		}
		scores[domain] = clamp01(confidence)
	}
	return scores
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
