package taxonomy

// FactorType distinguishes how much agency the user has over a factor.
type FactorType string

const (
	FactorChoice            FactorType = "choice"
	FactorChance            FactorType = "chance"
	FactorConstrainedChoice FactorType = "constrained_choice"
)

func (t FactorType) Valid() bool {
	switch t {
	case FactorChoice, FactorChance, FactorConstrainedChoice:
		return true
	}
	return false
}

// TimeHorizon captures how long a factor is expected to hold.
type TimeHorizon string

const (
	HorizonAcute      TimeHorizon = "acute"
	HorizonChronic    TimeHorizon = "chronic"
	HorizonLifeCourse TimeHorizon = "life_course"
	HorizonUnknown    TimeHorizon = "unknown"
)

func (h TimeHorizon) Valid() bool {
	switch h {
	case HorizonAcute, HorizonChronic, HorizonLifeCourse, HorizonUnknown:
		return true
	}
	return false
}

// Chronic reports whether the horizon counts toward chronic coverage.
// Life-course factors are chronic by definition; unknown counts as neither.
func (h TimeHorizon) Chronic() bool {
	return h == HorizonChronic || h == HorizonLifeCourse
}

func (h TimeHorizon) Acute() bool {
	return h == HorizonAcute
}

// Modifiability captures how movable a factor is for the user.
type Modifiability string

const (
	ModifiabilityHigh    Modifiability = "high"
	ModifiabilityMedium  Modifiability = "medium"
	ModifiabilityLow     Modifiability = "low"
	ModifiabilityUnknown Modifiability = "unknown"
)

func (m Modifiability) Valid() bool {
	switch m {
	case ModifiabilityHigh, ModifiabilityMedium, ModifiabilityLow, ModifiabilityUnknown:
		return true
	}
	return false
}

// Weight maps modifiability onto a ranking multiplier. Low-modifiability
// constraints persist, so they weigh up rather than down.
func (m Modifiability) Weight() float64 {
	switch m {
	case ModifiabilityLow:
		return 1.3
	case ModifiabilityMedium:
		return 1.1
	case ModifiabilityHigh:
		return 1.0
	default:
		return 1.0
	}
}
