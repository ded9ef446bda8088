package taxonomy

// ResponseShape is one of the six canonical response formats the home
// surface knows how to render. The string values are a UI stability
// contract; renaming one is a breaking change.
type ResponseShape string

const (
	ShapeClarifyingQuestion ResponseShape = "clarifying_question"
	ShapeGentleReflection   ResponseShape = "gentle_reflection"
	ShapeConcreteNextStep   ResponseShape = "concrete_next_step"
	ShapeOptionComparison   ResponseShape = "option_comparison"
	ShapeEscalationSupport  ResponseShape = "escalation_support"
	ShapePatternRecall      ResponseShape = "pattern_recall"
)

func (s ResponseShape) Valid() bool {
	switch s {
	case ShapeClarifyingQuestion, ShapeGentleReflection, ShapeConcreteNextStep,
		ShapeOptionComparison, ShapeEscalationSupport, ShapePatternRecall:
		return true
	}
	return false
}

// EscalationTier is the 0-3 scale from normal response to crisis flow.
type EscalationTier int

const (
	TierNone    EscalationTier = 0
	TierSoft    EscalationTier = 1
	TierSupport EscalationTier = 2
	TierCrisis  EscalationTier = 3
)

func (t EscalationTier) Valid() bool {
	return t >= TierNone && t <= TierCrisis
}

// ChipKind is one of the closed set of action chips the UI can render.
type ChipKind string

const (
	ChipClarify    ChipKind = "clarify"
	ChipSave       ChipKind = "save"
	ChipGetSupport ChipKind = "get_support"
)

// MaxChips bounds every generated response's chip list.
const MaxChips = 3
