package domain

import (
	"time"

	"github.com/google/uuid"
)

type ActivityCategory string

const (
	CategoryNutrition ActivityCategory = "nutrition"
	CategoryExercise  ActivityCategory = "exercise"
	CategoryWeight    ActivityCategory = "weight"
	CategoryMood      ActivityCategory = "mood"
	CategorySleep     ActivityCategory = "sleep"
)

func ValidActivityCategory(c string) bool {
	switch ActivityCategory(c) {
	case CategoryNutrition, CategoryExercise, CategoryWeight, CategoryMood, CategorySleep:
		return true
	}
	return false
}

type ParseConfidence string

const (
	ParseConfidenceHigh   ParseConfidence = "high"
	ParseConfidenceMedium ParseConfidence = "medium"
	ParseConfidenceLow    ParseConfidence = "low"
	// ParseConfidenceZero marks a log produced after a parser failure;
	// the coaching path treats it as "ask a clarifying question" input.
	ParseConfidenceZero ParseConfidence = "zero"
)

func ValidParseConfidence(p string) bool {
	switch ParseConfidence(p) {
	case ParseConfidenceHigh, ParseConfidenceMedium, ParseConfidenceLow, ParseConfidenceZero:
		return true
	}
	return false
}

// Well-known parsed field keys. The parser collaborator is free to attach
// more; the engine only reads these.
const (
	FieldSleepHours       = "sleep_hours"
	FieldSleepQuality     = "sleep_quality" // 1-10
	FieldActivityType     = "activity_type"
	FieldIntensity        = "intensity" // 1-10
	FieldDurationMinutes  = "duration_minutes"
	FieldMoodScore        = "mood_score" // 1-10
	FieldMealType         = "meal_type"
	FieldDescription      = "description"
	FieldWeightKg         = "weight_kg"
	FieldRestingHeartRate = "resting_heart_rate"
)

// ActivityLog is an immutable, append-only record produced by the external
// parsing collaborator. The engine never mutates one.
type ActivityLog struct {
	ID         uuid.UUID        `json:"id"`
	UserID     uuid.UUID        `json:"user_id"`
	Category   ActivityCategory `json:"category"`
	Fields     map[string]any   `json:"fields,omitempty"`
	Confidence ParseConfidence  `json:"confidence"`
	RawText    string           `json:"raw_text"`
	Notes      string           `json:"notes,omitempty"`
	LoggedAt   time.Time        `json:"logged_at"`
	CreatedAt  time.Time        `json:"created_at"`
}

// FloatField returns a numeric parsed field, tolerating the types JSON and
// the parser actually produce.
func (l *ActivityLog) FloatField(key string) (float64, bool) {
	v, ok := l.Fields[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func (l *ActivityLog) StringField(key string) (string, bool) {
	v, ok := l.Fields[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// SleepHours returns the recorded sleep duration for sleep logs.
func (l *ActivityLog) SleepHours() (float64, bool) {
	if l.Category != CategorySleep {
		return 0, false
	}
	return l.FloatField(FieldSleepHours)
}

// Intensity returns the 1-10 effort rating for exercise logs.
func (l *ActivityLog) Intensity() (float64, bool) {
	if l.Category != CategoryExercise {
		return 0, false
	}
	return l.FloatField(FieldIntensity)
}

// MoodScore returns the 1-10 mood rating for mood logs.
func (l *ActivityLog) MoodScore() (float64, bool) {
	if l.Category != CategoryMood {
		return 0, false
	}
	return l.FloatField(FieldMoodScore)
}
