package domain

import (
	"time"

	"github.com/google/uuid"
)

type PersonaType string

const (
	PersonaEndurance        PersonaType = "endurance"
	PersonaStrength         PersonaType = "strength"
	PersonaSport            PersonaType = "sport"
	PersonaProfessional     PersonaType = "professional"
	PersonaWeightManagement PersonaType = "weight_management"
	PersonaGeneral          PersonaType = "general"
)

func ValidPersonaType(p string) bool {
	switch PersonaType(p) {
	case PersonaEndurance, PersonaStrength, PersonaSport, PersonaProfessional, PersonaWeightManagement, PersonaGeneral:
		return true
	}
	return false
}

type MotivationalStyle string

const (
	StyleDataDriven  MotivationalStyle = "data_driven"
	StyleEmotional   MotivationalStyle = "emotional"
	StyleCompetitive MotivationalStyle = "competitive"
)

// HabitLevel is the maturity of the user's logging/training habit,
// used by the graduated-intervention ladder.
type HabitLevel string

const (
	HabitNew         HabitLevel = "new"
	HabitDeveloping  HabitLevel = "developing"
	HabitEstablished HabitLevel = "established"
)

// UserProfile is the read-only personalization profile attached to a
// coaching request. The profiler refresh service is the only writer.
type UserProfile struct {
	UserID            uuid.UUID         `json:"user_id"`
	Persona           PersonaType       `json:"persona"`
	PersonaConfidence int               `json:"persona_confidence"` // 0-100
	MotivationalStyle MotivationalStyle `json:"motivational_style"`
	HabitLevel        HabitLevel        `json:"habit_level"`
	DietaryFlags      []string          `json:"dietary_flags,omitempty"`
	Goals             []string          `json:"goals,omitempty"`
	Constraints       []string          `json:"constraints,omitempty"`
	HealthConditions  []string          `json:"health_conditions,omitempty"`
	Medications       []string          `json:"medications,omitempty"`
	MotivationLevel   float64           `json:"motivation_level"` // 0-1, Fogg behavior model
	AbilityLevel      float64           `json:"ability_level"`    // 0-1, Fogg behavior model
	RestingHRBaseline float64           `json:"resting_hr_baseline,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// Context field names used by rule-card confidence tiers. A card's tier
// requirement lists reference these.
const (
	ContextFieldLastMeal         = "last_meal"
	ContextFieldLastWorkout      = "last_workout"
	ContextFieldLastSleep        = "last_sleep"
	ContextFieldPersona          = "persona_type"
	ContextFieldGoals            = "goals"
	ContextFieldDietaryFlags     = "dietary_flags"
	ContextFieldHealthConditions = "health_conditions"
	ContextFieldRecentLogs       = "recent_logs"
)

// MinRecentLogsForContext is the log volume below which "recent_logs" is
// not considered an available context field.
const MinRecentLogsForContext = 5

// UserContext is the per-request snapshot the engine operates on. It is
// read-only; Now is the snapshot time so scoring stays deterministic.
type UserContext struct {
	Profile     UserProfile   `json:"profile"`
	RecentLogs  []ActivityLog `json:"recent_logs,omitempty"`
	LastMeal    *ActivityLog  `json:"last_meal,omitempty"`
	LastWorkout *ActivityLog  `json:"last_workout,omitempty"`
	LastSleep   *ActivityLog  `json:"last_sleep,omitempty"`
	Now         time.Time     `json:"now"`
}

// AvailableFields derives the set of context fields present in this
// snapshot, keyed by the ContextField* names.
func (c *UserContext) AvailableFields() map[string]bool {
	fields := make(map[string]bool)
	if c.LastMeal != nil {
		fields[ContextFieldLastMeal] = true
	}
	if c.LastWorkout != nil {
		fields[ContextFieldLastWorkout] = true
	}
	if c.LastSleep != nil {
		fields[ContextFieldLastSleep] = true
	}
	if c.Profile.Persona != "" && c.Profile.Persona != PersonaGeneral {
		fields[ContextFieldPersona] = true
	}
	if len(c.Profile.Goals) > 0 {
		fields[ContextFieldGoals] = true
	}
	if len(c.Profile.DietaryFlags) > 0 {
		fields[ContextFieldDietaryFlags] = true
	}
	if len(c.Profile.HealthConditions) > 0 {
		fields[ContextFieldHealthConditions] = true
	}
	if len(c.RecentLogs) >= MinRecentLogsForContext {
		fields[ContextFieldRecentLogs] = true
	}
	return fields
}

// LogsSince filters the snapshot window to logs at or after the cutoff.
func (c *UserContext) LogsSince(cutoff time.Time) []ActivityLog {
	var out []ActivityLog
	for _, l := range c.RecentLogs {
		if !l.LoggedAt.Before(cutoff) {
			out = append(out, l)
		}
	}
	return out
}
