package taxonomy

// Situational signals feed the response shape / escalation selector. They
// are distinct from, but informed by, the decision engine's bands.

// IntentType is the selector-facing reading of what the user is doing,
// which can differ from the submission's declared Intent.
type IntentType string

const (
	IntentTypeQuestion    IntentType = "question"
	IntentTypeUncertainty IntentType = "uncertainty"
	IntentTypeReflection  IntentType = "reflection"
	IntentTypeRequest     IntentType = "request"
	IntentTypeLogOnly     IntentType = "log_only"
)

type EmotionalLoad string

const (
	LoadLow    EmotionalLoad = "low"
	LoadMedium EmotionalLoad = "medium"
	LoadHigh   EmotionalLoad = "high"
)

type TimePressure string

const (
	PressureLow  TimePressure = "low"
	PressureHigh TimePressure = "high"
)

type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexitySystemic Complexity = "systemic"
)

type Agency string

const (
	AgencyCanActNow Agency = "can_act_now"
	AgencyLimited   Agency = "limited"
	AgencyBlocked   Agency = "blocked"
)

type RiskFlag string

const (
	RiskNone           RiskFlag = "none"
	RiskSelfHarm       RiskFlag = "self_harm"
	RiskHarmToOthers   RiskFlag = "harm_to_others"
	RiskImminentDanger RiskFlag = "imminent_danger"
)

// Crisis reports whether the flag triggers the Tier 3 crisis flow.
func (f RiskFlag) Crisis() bool {
	switch f {
	case RiskSelfHarm, RiskHarmToOthers, RiskImminentDanger:
		return true
	}
	return false
}

type Recurrence string

const (
	RecurrenceNone       Recurrence = "none"
	RecurrenceOccasional Recurrence = "occasional"
	RecurrenceFrequent   Recurrence = "frequent"
)

// Canonical recurrence rule, shared with the pattern detector: an
// observation is "frequent" at three or more occurrences inside a
// fourteen-day span.
const (
	RecurrenceMinOccurrences = 3
	RecurrenceWindowDays     = 14
)
