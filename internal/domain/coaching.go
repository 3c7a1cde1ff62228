package domain

type Scenario string

const (
	ScenarioPreActivityNutrition Scenario = "pre_activity_nutrition"
	ScenarioPostWorkoutRecovery  Scenario = "post_workout_recovery"
	ScenarioSleepAffected        Scenario = "sleep_affected_training"
	ScenarioWeightPlateau        Scenario = "weight_plateau"
	ScenarioTravelNutrition      Scenario = "travel_nutrition"
	ScenarioGeneral              Scenario = "general"
)

func ValidScenario(s string) bool {
	switch Scenario(s) {
	case ScenarioPreActivityNutrition, ScenarioPostWorkoutRecovery, ScenarioSleepAffected,
		ScenarioWeightPlateau, ScenarioTravelNutrition, ScenarioGeneral:
		return true
	}
	return false
}

// ScenarioConfidence is the orchestrator's coarse routing confidence. It is
// deliberately a distinct type from the rule-card ConfidenceTier: the two
// models overlap but serve different layers and are never merged.
type ScenarioConfidence string

const (
	ScenarioConfidenceHigh   ScenarioConfidence = "high"
	ScenarioConfidenceMedium ScenarioConfidence = "medium"
	ScenarioConfidenceLow    ScenarioConfidence = "low"
)

// CoachingResponse is the advisory output of one request. It is never a
// diagnosis; blocking safety findings replace the message entirely.
type CoachingResponse struct {
	Message            string             `json:"message"`
	Confidence         ConfidenceTier     `json:"confidence"`
	Scenario           Scenario           `json:"scenario"`
	ScenarioConfidence ScenarioConfidence `json:"scenario_confidence"`
	RuleCardID         string             `json:"rule_card_id,omitempty"`
	ClarifyingQuestion string             `json:"clarifying_question,omitempty"`
	ActionItems        []string           `json:"action_items,omitempty"`
	SafetyWarnings     []string           `json:"safety_warnings,omitempty"`
	FollowUpSuggested  bool               `json:"follow_up_suggested"`
}
