package domain

import "time"

type PatternType string

const (
	PatternSleepPerformance  PatternType = "sleep_performance"
	PatternOptimalSleepRange PatternType = "optimal_sleep_range"
	PatternPreWorkoutGap     PatternType = "pre_workout_nutrition_gap"
	PatternPostWorkoutDelay  PatternType = "post_workout_nutrition_delay"
	PatternRecoveryTime      PatternType = "recovery_time"
	PatternOvertrainingRisk  PatternType = "overtraining_risk"
	PatternMoodExercise      PatternType = "mood_exercise_response"
	PatternMoodBooster       PatternType = "mood_boosting_activity"
	PatternLowMoodTrigger    PatternType = "low_mood_trigger"
)

type Significance string

const (
	SignificanceHigh   Significance = "high"
	SignificanceMedium Significance = "medium"
	SignificanceLow    Significance = "low"
)

// DetectedPattern is derived from the current log window on every analysis
// pass; it is never persisted as authoritative.
type DetectedPattern struct {
	Type         PatternType  `json:"type"`
	Description  string       `json:"description"`
	Strength     float64      `json:"strength"` // [0,1]
	SampleCount  int          `json:"sample_count"`
	WindowStart  time.Time    `json:"window_start"`
	WindowEnd    time.Time    `json:"window_end"`
	Correlation  *float64     `json:"correlation,omitempty"`
	Significance Significance `json:"significance"`
}

// JITIntervention is a time-windowed, trigger-conditioned nudge generated
// from a pattern with non-low significance.
type JITIntervention struct {
	PatternType PatternType `json:"pattern_type"`
	Trigger     string      `json:"trigger"`
	// WindowStartHour/WindowEndHour bound the local clock hours in which
	// the nudge should fire.
	WindowStartHour int    `json:"window_start_hour"`
	WindowEndHour   int    `json:"window_end_hour"`
	Message         string `json:"message"`
}

// AdaptiveRecommendation pairs a goal adjustment with a minimal habit and
// an implementation intention ("if situation → then behavior").
type AdaptiveRecommendation struct {
	PatternType             PatternType `json:"pattern_type"`
	GoalAdjustment          string      `json:"goal_adjustment"`
	MinimalHabit            string      `json:"minimal_habit"`
	ImplementationIntention string      `json:"implementation_intention"`
}

// PatternAnalysis is the merged output of the four analyses.
type PatternAnalysis struct {
	Patterns        []DetectedPattern        `json:"patterns"`
	Interventions   []JITIntervention        `json:"interventions"`
	Recommendations []AdaptiveRecommendation `json:"recommendations"`
	Confidence      int                      `json:"confidence"` // 0-100
	DataPoints      int                      `json:"data_points"`
}
