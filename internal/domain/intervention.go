package domain

import (
	"time"

	"github.com/google/uuid"
)

type InterventionType string

const (
	InterventionHabitNudge      InterventionType = "habit_nudge"
	InterventionRecoveryPrompt  InterventionType = "recovery_prompt"
	InterventionNutritionTiming InterventionType = "nutrition_timing"
	InterventionSleepHygiene    InterventionType = "sleep_hygiene"
	InterventionMotivation      InterventionType = "motivation_boost"
)

// ActionVariant carries a full suggestion and a shorter fallback used
// outside the 08:00-20:00 window.
type ActionVariant struct {
	Full  string `yaml:"full" json:"full"`
	Short string `yaml:"short" json:"short"`
}

// InterventionTemplate is a reusable nudge definition. ContextScorer and
// UserStateScorer name scoring hooks registered in code; the catalog
// references them so the data file stays declarative.
type InterventionTemplate struct {
	ID                string                        `json:"id"`
	Type              InterventionType              `json:"type"`
	ContextScorer     string                        `json:"context_scorer"`
	UserStateScorer   string                        `json:"user_state_scorer"`
	Cooldown          time.Duration                 `json:"cooldown"`
	MaxDailyUses      int                           `json:"max_daily_uses"`
	Messages          map[PersonaType][]string      `json:"messages"`
	Actions           map[PersonaType]ActionVariant `json:"actions"`
	SuccessConditions []string                      `json:"success_conditions,omitempty"`
}

// MessagesFor returns the persona's message variants, falling back to the
// general persona when the catalog has no entry for this one.
func (t *InterventionTemplate) MessagesFor(p PersonaType) []string {
	if msgs, ok := t.Messages[p]; ok && len(msgs) > 0 {
		return msgs
	}
	return t.Messages[PersonaGeneral]
}

// ActionFor returns the persona's action variant with the same fallback.
func (t *InterventionTemplate) ActionFor(p PersonaType) ActionVariant {
	if a, ok := t.Actions[p]; ok {
		return a
	}
	return t.Actions[PersonaGeneral]
}

// InterventionUsage is the per-(user,template) mutable state. Effectiveness
// and SuccessRate are exponential moving averages; they carry no signal
// until OutcomesRecorded is non-zero, since recording an outcome is
// optional.
type InterventionUsage struct {
	UserID           uuid.UUID `json:"user_id"`
	TemplateID       string    `json:"template_id"`
	LastUsedAt       time.Time `json:"last_used_at"`
	UsesToday        int       `json:"uses_today"`
	UsageDay         string    `json:"usage_day"` // local day key, YYYY-MM-DD
	TotalUses        int       `json:"total_uses"`
	OutcomesRecorded int       `json:"outcomes_recorded"`
	Effectiveness    float64   `json:"effectiveness"`
	SuccessRate      float64   `json:"success_rate"`
}

// InterventionOutcome is the observed result of a delivered intervention.
type InterventionOutcome struct {
	Engaged              bool `json:"engaged"`
	ActionTaken          bool `json:"action_taken"`
	SuccessConditionsMet int  `json:"success_conditions_met"`
	Feedback             int  `json:"feedback"` // polarity: -1 negative, 0 neutral, +1 positive
}

// Intervention is a selected, personalized nudge ready for delivery.
type Intervention struct {
	TemplateID string           `json:"template_id"`
	Type       InterventionType `json:"type"`
	Message    string           `json:"message"`
	Action     string           `json:"action"`
	Score      float64          `json:"score"`
}
