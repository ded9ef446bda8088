// Package taxonomy defines the closed vocabularies shared across the
// ingestion pipeline: life/health domains, factor codes, bands, intents and
// response shapes. Every value that crosses a package boundary is one of
// these typed constants; free-form strings are rejected at ingestion.
package taxonomy

// Domain is one of the thirteen fixed life/health categories used to
// classify submission text.
type Domain string

const (
	DomainSafetyRisk           Domain = "safety_risk"
	DomainSymptomsBodySignals  Domain = "symptoms_body_signals"
	DomainMedicalContext       Domain = "medical_context"
	DomainMentalEmotionalState Domain = "mental_emotional_state"
	DomainDurationPattern      Domain = "duration_pattern"
	DomainCapacityEnergy       Domain = "capacity_energy"
	DomainAccessToCare         Domain = "access_to_care"
	DomainEnvironmentExposures Domain = "environment_exposures"
	DomainSocialSupportContext Domain = "social_support_context"
	DomainResourcesConstraints Domain = "resources_constraints"
	DomainKnowledgeBeliefs     Domain = "knowledge_beliefs_preferences"
	DomainGoalsIntent          Domain = "goals_intent"
	DomainUnknownOther         Domain = "unknown_other"
)

// domainPriority fixes the precedence order used for primary-domain
// tie-breaking. 1 is highest priority.
var domainPriority = map[Domain]int{
	DomainSafetyRisk:           1,
	DomainSymptomsBodySignals:  2,
	DomainMedicalContext:       3,
	DomainMentalEmotionalState: 4,
	DomainDurationPattern:      5,
	DomainCapacityEnergy:       6,
	DomainAccessToCare:         7,
	DomainEnvironmentExposures: 8,
	DomainSocialSupportContext: 9,
	DomainResourcesConstraints: 10,
	DomainKnowledgeBeliefs:     11,
	DomainGoalsIntent:          12,
	DomainUnknownOther:         13,
}

func AllDomains() []Domain {
	return []Domain{
		DomainSafetyRisk,
		DomainSymptomsBodySignals,
		DomainMedicalContext,
		DomainMentalEmotionalState,
		DomainDurationPattern,
		DomainCapacityEnergy,
		DomainAccessToCare,
		DomainEnvironmentExposures,
		DomainSocialSupportContext,
		DomainResourcesConstraints,
		DomainKnowledgeBeliefs,
		DomainGoalsIntent,
		DomainUnknownOther,
	}
}

func (d Domain) Valid() bool {
	_, ok := domainPriority[d]
	return ok
}

// Priority returns the fixed precedence number for d; 1 is highest.
// Unknown domains sort last.
func (d Domain) Priority() int {
	if p, ok := domainPriority[d]; ok {
		return p
	}
	return len(domainPriority) + 1
}

// PriorityWeight maps the priority order onto a multiplicative weight for
// constraint ranking: priority 1 weighs 1.0, priority 13 weighs ~0.08.
func (d Domain) PriorityWeight() float64 {
	return float64(len(domainPriority)+1-d.Priority()) / float64(len(domainPriority))
}

// HealthTopic reports whether content classified under d should carry the
// "not medical advice" status line.
func (d Domain) HealthTopic() bool {
	switch d {
	case DomainSymptomsBodySignals, DomainMedicalContext, DomainMentalEmotionalState, DomainAccessToCare:
		return true
	}
	return false
}
