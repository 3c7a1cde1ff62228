package service

import (
	"fmt"
	"math"
	"time"

	"github.com/kinetichq/kinetic/internal/domain"
)

const (
	// Pre-workout: latest meal within this window before a workout.
	preWorkoutMealWindow = 8 * time.Hour
	// Post-workout: first meal within this window after a workout.
	postWorkoutMealWindow = 4 * time.Hour

	preGapMinHours  = 1.0
	preGapMaxHours  = 4.0
	preGapIdealMid  = 2.5
	postDelayLimitH = 2.0
)

// analyzeNutritionGaps flags pre-workout fueling gaps outside the 1-4 hour
// band and post-workout refueling delays over 2 hours.
func (s *PatternDetectionService) analyzeNutritionGaps(w analysisWindow) []domain.DetectedPattern {
	meals := w.byCategory(domain.CategoryNutrition)
	workouts := w.byCategory(domain.CategoryExercise)

	var preGaps, postDelays []float64
	for _, workout := range workouts {
		if meal := latestMealBefore(meals, workout.LoggedAt, preWorkoutMealWindow); meal != nil {
			preGaps = append(preGaps, workout.LoggedAt.Sub(meal.LoggedAt).Hours())
		}
		if meal := firstMealAfter(meals, workout.LoggedAt, postWorkoutMealWindow); meal != nil {
			postDelays = append(postDelays, meal.LoggedAt.Sub(workout.LoggedAt).Hours())
		}
	}

	var patterns []domain.DetectedPattern

	if len(preGaps) >= MinCorrelationPairs {
		meanGap := mean(preGaps)
		if meanGap < preGapMinHours || meanGap > preGapMaxHours {
			strength := clamp01(math.Abs(meanGap-preGapIdealMid) / preGapIdealMid)
			direction := "too close to"
			if meanGap > preGapMaxHours {
				direction = "too long before"
			}
			patterns = append(patterns, domain.DetectedPattern{
				Type: domain.PatternPreWorkoutGap,
				Description: fmt.Sprintf("You typically eat %.1f hours before training - %s the session for ideal fueling.",
					meanGap, direction),
				Strength:     strength,
				SampleCount:  len(preGaps),
				WindowStart:  w.start,
				WindowEnd:    w.end,
				Significance: gapSignificance(strength),
			})
		}
	}

	if len(postDelays) >= MinCorrelationPairs {
		meanDelay := mean(postDelays)
		if meanDelay > postDelayLimitH {
			strength := clamp01((meanDelay - postDelayLimitH) / postDelayLimitH)
			patterns = append(patterns, domain.DetectedPattern{
				Type: domain.PatternPostWorkoutDelay,
				Description: fmt.Sprintf("You wait an average of %.1f hours to eat after training; under an hour is the target.",
					meanDelay),
				Strength:     strength,
				SampleCount:  len(postDelays),
				WindowStart:  w.start,
				WindowEnd:    w.end,
				Significance: gapSignificance(strength),
			})
		}
	}
	return patterns
}

func gapSignificance(strength float64) domain.Significance {
	switch {
	case strength >= 0.6:
		return domain.SignificanceHigh
	case strength >= 0.3:
		return domain.SignificanceMedium
	default:
		return domain.SignificanceLow
	}
}

func latestMealBefore(meals []domain.ActivityLog, at time.Time, window time.Duration) *domain.ActivityLog {
	var best *domain.ActivityLog
	for i := range meals {
		m := &meals[i]
		if m.LoggedAt.After(at) || at.Sub(m.LoggedAt) > window {
			continue
		}
		if best == nil || m.LoggedAt.After(best.LoggedAt) {
			best = m
		}
	}
	return best
}

func firstMealAfter(meals []domain.ActivityLog, at time.Time, window time.Duration) *domain.ActivityLog {
	var best *domain.ActivityLog
	for i := range meals {
		m := &meals[i]
		if m.LoggedAt.Before(at) || m.LoggedAt.Sub(at) > window {
			continue
		}
		if best == nil || m.LoggedAt.Before(best.LoggedAt) {
			best = m
		}
	}
	return best
}
