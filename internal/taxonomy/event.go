package taxonomy

// Intent is the caller-declared purpose of a submission.
type Intent string

const (
	IntentAsk      Intent = "ask"
	IntentJournal  Intent = "journal"
	IntentFollowUp Intent = "follow_up"
	IntentMixed    Intent = "mixed"
	IntentLogOnly  Intent = "log_only"
)

func (i Intent) Valid() bool {
	switch i {
	case IntentAsk, IntentJournal, IntentFollowUp, IntentMixed, IntentLogOnly:
		return true
	}
	return false
}

// SaveMode controls what the submission persists beyond the response.
type SaveMode string

const (
	SaveTransient    SaveMode = "transient"
	SaveJournal      SaveMode = "save_journal"
	SaveFactorsOnly  SaveMode = "save_factors_only"
)

func (m SaveMode) Valid() bool {
	switch m {
	case SaveTransient, SaveJournal, SaveFactorsOnly:
		return true
	}
	return false
}

// NextActionKind is the decision engine's terminal choice for an event.
type NextActionKind string

const (
	ActionAnswer           NextActionKind = "answer"
	ActionAskFollowUp      NextActionKind = "ask_followup"
	ActionLogOnly          NextActionKind = "log_only"
	ActionSafetyEscalation NextActionKind = "safety_escalation"
)

func (k NextActionKind) Valid() bool {
	switch k {
	case ActionAnswer, ActionAskFollowUp, ActionLogOnly, ActionSafetyEscalation:
		return true
	}
	return false
}

// Band is one severity level on the risk/friction/uncertainty axes.
// Urgent is only ever produced by the safety short-circuit on the risk axis.
type Band string

const (
	BandLow    Band = "low"
	BandMedium Band = "medium"
	BandHigh   Band = "high"
	BandUrgent Band = "urgent"
)

func (b Band) Valid() bool {
	switch b {
	case BandLow, BandMedium, BandHigh, BandUrgent:
		return true
	}
	return false
}
