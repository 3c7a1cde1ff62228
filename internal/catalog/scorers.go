package catalog

import (
	"strings"
	"time"

	"github.com/kinetichq/kinetic/internal/domain"
)

// FamilyBonusFunc decides whether a card family's domain-heuristic bonus
// applies to this input+context.
type FamilyBonusFunc func(input string, ctx *domain.UserContext) bool

// ContextScoreFunc rates how well the current situation fits a template,
// 0-100.
type ContextScoreFunc func(ctx *domain.UserContext, now time.Time) float64

// UserStateScoreFunc rates how receptive the user is to a template, 0-100.
type UserStateScoreFunc func(profile *domain.UserProfile, recent []domain.ActivityLog, now time.Time) float64

var workoutWords = []string{"workout", "training", "session", "match", "game", "race", "run", "lift"}

var familyBonuses = map[string]FamilyBonusFunc{
	"nutrition_timing": func(input string, ctx *domain.UserContext) bool {
		// Pre-workout phrasing: an upcoming-session word plus timing language.
		hasWorkout := containsAny(input, workoutWords)
		hasTiming := containsAny(input, []string{"before", "pre-", "pre ", "in an hour", "hours", "tonight", "later"})
		return hasWorkout && hasTiming
	},
	"recovery": func(input string, ctx *domain.UserContext) bool {
		return ctx.LastWorkout != nil && ctx.Now.Sub(ctx.LastWorkout.LoggedAt) <= 24*time.Hour
	},
	"sleep": func(input string, ctx *domain.UserContext) bool {
		if ctx.LastSleep == nil {
			return false
		}
		hours, ok := ctx.LastSleep.SleepHours()
		return ok && hours < 6.5
	},
	"weight": func(input string, ctx *domain.UserContext) bool {
		count := 0
		for _, l := range ctx.RecentLogs {
			if l.Category == domain.CategoryWeight {
				count++
			}
		}
		return count >= 2
	},
	"nutrition_environment": func(input string, ctx *domain.UserContext) bool {
		return len(ctx.Profile.DietaryFlags) > 0 || containsAny(input, []string{"travel", "airport", "flight"})
	},
	"hydration": func(input string, ctx *domain.UserContext) bool {
		return ctx.LastWorkout != nil && ctx.Now.Sub(ctx.LastWorkout.LoggedAt) <= 2*time.Hour
	},
}

// FamilyBonus returns the bonus predicate for a family; loading validates
// that every card family has one.
func FamilyBonus(family string) FamilyBonusFunc {
	return familyBonuses[family]
}

var contextScorers = map[string]ContextScoreFunc{
	"morning_window": func(ctx *domain.UserContext, now time.Time) float64 {
		h := now.Hour()
		if h < 6 || h >= 10 {
			return 10
		}
		if hasCategoryOnDay(ctx.RecentLogs, domain.CategoryExercise, now) {
			return 20
		}
		return 90
	},
	"post_workout": func(ctx *domain.UserContext, now time.Time) float64 {
		if ctx.LastWorkout == nil {
			return 5
		}
		since := now.Sub(ctx.LastWorkout.LoggedAt)
		switch {
		case since <= 2*time.Hour:
			return 95
		case since <= 6*time.Hour:
			return 50
		default:
			return 5
		}
	},
	"evening_window": func(ctx *domain.UserContext, now time.Time) float64 {
		h := now.Hour()
		if h >= 20 && h < 23 {
			return 90
		}
		return 10
	},
	"high_load": func(ctx *domain.UserContext, now time.Time) float64 {
		cutoff := now.Add(-4 * 24 * time.Hour)
		hard := 0
		for _, l := range ctx.RecentLogs {
			if l.LoggedAt.Before(cutoff) {
				continue
			}
			if intensity, ok := l.Intensity(); ok && intensity > 7 {
				hard++
			}
		}
		switch {
		case hard >= 3:
			return 95
		case hard == 2:
			return 60
		default:
			return 15
		}
	},
	"streak": func(ctx *domain.UserContext, now time.Time) float64 {
		days := activeDays(ctx.RecentLogs, now, 7)
		switch {
		case days >= 5:
			return 90
		case days >= 3:
			return 55
		default:
			return 20
		}
	},
	"midday": func(ctx *domain.UserContext, now time.Time) float64 {
		h := now.Hour()
		if h >= 11 && h < 15 {
			return 80
		}
		return 15
	},
}

// ContextScorer returns the registered scorer by name.
func ContextScorer(name string) ContextScoreFunc {
	return contextScorers[name]
}

var userStateScorers = map[string]UserStateScoreFunc{
	"habit_forming": func(p *domain.UserProfile, recent []domain.ActivityLog, now time.Time) float64 {
		switch p.HabitLevel {
		case domain.HabitNew:
			return 90
		case domain.HabitDeveloping:
			return 70
		default:
			return 30
		}
	},
	"consistent": func(p *domain.UserProfile, recent []domain.ActivityLog, now time.Time) float64 {
		if activeDays(recent, now, 7) >= 5 {
			return 85
		}
		return 40
	},
	"recovering": func(p *domain.UserProfile, recent []domain.ActivityLog, now time.Time) float64 {
		for _, l := range recent {
			if now.Sub(l.LoggedAt) > 48*time.Hour {
				continue
			}
			if mood, ok := l.MoodScore(); ok && mood < 4 {
				return 85
			}
			if hours, ok := l.SleepHours(); ok && hours < 6 {
				return 85
			}
			if strings.Contains(strings.ToLower(l.RawText), "sore") {
				return 85
			}
		}
		return 35
	},
	"low_motivation": func(p *domain.UserProfile, recent []domain.ActivityLog, now time.Time) float64 {
		switch {
		case p.MotivationLevel < 0.4:
			return 90
		case p.MotivationLevel < 0.6:
			return 65
		default:
			return 25
		}
	},
}

// UserStateScorer returns the registered scorer by name.
func UserStateScorer(name string) UserStateScoreFunc {
	return userStateScorers[name]
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func hasCategoryOnDay(logs []domain.ActivityLog, cat domain.ActivityCategory, day time.Time) bool {
	for _, l := range logs {
		if l.Category == cat && sameDay(l.LoggedAt, day) {
			return true
		}
	}
	return false
}

// activeDays counts distinct days with at least one log in the last n days.
func activeDays(logs []domain.ActivityLog, now time.Time, n int) int {
	cutoff := now.Add(-time.Duration(n) * 24 * time.Hour)
	days := make(map[string]bool)
	for _, l := range logs {
		if l.LoggedAt.Before(cutoff) {
			continue
		}
		days[l.LoggedAt.Format("2006-01-02")] = true
	}
	return len(days)
}
