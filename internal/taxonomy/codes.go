package taxonomy

// FactorCode is a member of the closed set of canonical factor identifiers.
// New codes must be added here together with their owning domain and the
// factor types allowed for them; extractor and vocabulary validation read
// this table.
type FactorCode string

const (
	CodeSelfHarmRisk        FactorCode = "self_harm_risk"
	CodeHarmToOthersRisk    FactorCode = "harm_to_others_risk"
	CodeImminentDangerRisk  FactorCode = "imminent_danger_risk"
	CodeSymptomHeadache     FactorCode = "symptom_headache"
	CodeSymptomFatigue      FactorCode = "symptom_fatigue"
	CodeSymptomPain         FactorCode = "symptom_pain"
	CodeSymptomSleepIssue   FactorCode = "symptom_sleep_issue"
	CodeSymptomDigestive    FactorCode = "symptom_digestive"
	CodeSymptomBreathing    FactorCode = "symptom_breathing"
	CodeChronicCondition    FactorCode = "chronic_condition"
	CodeMedicationRegimen   FactorCode = "medication_regimen"
	CodeRecentDiagnosis     FactorCode = "recent_diagnosis"
	CodeMoodLow             FactorCode = "mood_low"
	CodeAnxietyLevel        FactorCode = "anxiety_level"
	CodeStressLoad          FactorCode = "stress_load"
	CodeSymptomDuration     FactorCode = "symptom_duration"
	CodeRecurrencePattern   FactorCode = "recurrence_pattern"
	CodeEnergyLevel         FactorCode = "energy_level"
	CodeSleepQuality        FactorCode = "sleep_quality"
	CodeCareAccessBarrier   FactorCode = "care_access_barrier"
	CodeInsuranceGap        FactorCode = "insurance_gap"
	CodeEnvironmentHazard   FactorCode = "environment_hazard"
	CodeWorkExposure        FactorCode = "work_exposure"
	CodeSocialIsolation     FactorCode = "social_isolation"
	CodeCaregiverLoad       FactorCode = "caregiver_load"
	CodeFinancialStrain     FactorCode = "financial_strain"
	CodeTimeScarcity        FactorCode = "time_scarcity"
	CodeHealthLiteracy      FactorCode = "health_literacy"
	CodeTreatmentPreference FactorCode = "treatment_preference"
	CodeHealthGoal          FactorCode = "health_goal"
)

type CodeInfo struct {
	Domain Domain
	Types  []FactorType
}

var codeTable = map[FactorCode]CodeInfo{
	CodeSelfHarmRisk:        {DomainSafetyRisk, []FactorType{FactorChance}},
	CodeHarmToOthersRisk:    {DomainSafetyRisk, []FactorType{FactorChance}},
	CodeImminentDangerRisk:  {DomainSafetyRisk, []FactorType{FactorChance}},
	CodeSymptomHeadache:     {DomainSymptomsBodySignals, []FactorType{FactorChance}},
	CodeSymptomFatigue:      {DomainSymptomsBodySignals, []FactorType{FactorChance}},
	CodeSymptomPain:         {DomainSymptomsBodySignals, []FactorType{FactorChance}},
	CodeSymptomSleepIssue:   {DomainSymptomsBodySignals, []FactorType{FactorChance, FactorConstrainedChoice}},
	CodeSymptomDigestive:    {DomainSymptomsBodySignals, []FactorType{FactorChance}},
	CodeSymptomBreathing:    {DomainSymptomsBodySignals, []FactorType{FactorChance}},
	CodeChronicCondition:    {DomainMedicalContext, []FactorType{FactorChance}},
	CodeMedicationRegimen:   {DomainMedicalContext, []FactorType{FactorConstrainedChoice}},
	CodeRecentDiagnosis:     {DomainMedicalContext, []FactorType{FactorChance}},
	CodeMoodLow:             {DomainMentalEmotionalState, []FactorType{FactorChance}},
	CodeAnxietyLevel:        {DomainMentalEmotionalState, []FactorType{FactorChance}},
	CodeStressLoad:          {DomainMentalEmotionalState, []FactorType{FactorChance, FactorConstrainedChoice}},
	CodeSymptomDuration:     {DomainDurationPattern, []FactorType{FactorChance}},
	CodeRecurrencePattern:   {DomainDurationPattern, []FactorType{FactorChance}},
	CodeEnergyLevel:         {DomainCapacityEnergy, []FactorType{FactorChance, FactorConstrainedChoice}},
	CodeSleepQuality:        {DomainCapacityEnergy, []FactorType{FactorChoice, FactorConstrainedChoice}},
	CodeCareAccessBarrier:   {DomainAccessToCare, []FactorType{FactorChance, FactorConstrainedChoice}},
	CodeInsuranceGap:        {DomainAccessToCare, []FactorType{FactorChance}},
	CodeEnvironmentHazard:   {DomainEnvironmentExposures, []FactorType{FactorChance}},
	CodeWorkExposure:        {DomainEnvironmentExposures, []FactorType{FactorConstrainedChoice}},
	CodeSocialIsolation:     {DomainSocialSupportContext, []FactorType{FactorChance, FactorConstrainedChoice}},
	CodeCaregiverLoad:       {DomainSocialSupportContext, []FactorType{FactorConstrainedChoice}},
	CodeFinancialStrain:     {DomainResourcesConstraints, []FactorType{FactorChance, FactorConstrainedChoice}},
	CodeTimeScarcity:        {DomainResourcesConstraints, []FactorType{FactorConstrainedChoice}},
	CodeHealthLiteracy:      {DomainKnowledgeBeliefs, []FactorType{FactorChoice}},
	CodeTreatmentPreference: {DomainKnowledgeBeliefs, []FactorType{FactorChoice}},
	CodeHealthGoal:          {DomainGoalsIntent, []FactorType{FactorChoice}},
}

func AllCodes() []FactorCode {
	out := make([]FactorCode, 0, len(codeTable))
	for c := range codeTable {
		out = append(out, c)
	}
	return out
}

func (c FactorCode) Valid() bool {
	_, ok := codeTable[c]
	return ok
}

func (c FactorCode) Domain() Domain {
	if info, ok := codeTable[c]; ok {
		return info.Domain
	}
	return DomainUnknownOther
}

// AllowsType reports whether c may be committed with factor type t.
func (c FactorCode) AllowsType(t FactorType) bool {
	info, ok := codeTable[c]
	if !ok {
		return false
	}
	for _, allowed := range info.Types {
		if allowed == t {
			return true
		}
	}
	return false
}

// SafetyFlagged reports whether a committed factor with this code marks the
// event as a safety risk regardless of classification output.
func (c FactorCode) SafetyFlagged() bool {
	return c.Domain() == DomainSafetyRisk
}

// ConstraintCode reports whether the code describes a resource or access
// constraint; the decision engine counts these toward the friction band.
func (c FactorCode) ConstraintCode() bool {
	switch c.Domain() {
	case DomainAccessToCare, DomainResourcesConstraints:
		return true
	}
	return false
}
