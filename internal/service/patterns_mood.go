package service

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/kinetichq/kinetic/internal/domain"
)

const (
	// Mood-activity pairing: mood correlates with mean exercise intensity
	// in the following 24 hours.
	moodFollowWindow = 24 * time.Hour

	// Booster pairing windows around an activity.
	boosterPreWindow  = 6 * time.Hour
	boosterPostWindow = 4 * time.Hour
	boosterMinLift    = 0.5
	boosterMinPairs   = 2

	lowMoodScore        = 3.0
	triggerCooccurrence = 0.3
)

// analyzeMoodActivity correlates mood with subsequent exercise intensity,
// ranks mood-boosting activity types, and identifies recurring low-mood
// triggers.
func (s *PatternDetectionService) analyzeMoodActivity(w analysisWindow) []domain.DetectedPattern {
	moods := w.byCategory(domain.CategoryMood)
	workouts := w.byCategory(domain.CategoryExercise)
	meals := w.byCategory(domain.CategoryNutrition)
	sleeps := w.byCategory(domain.CategorySleep)

	var patterns []domain.DetectedPattern
	if p := moodExerciseCorrelation(moods, workouts, w); p != nil {
		patterns = append(patterns, *p)
	}
	patterns = append(patterns, moodBoosters(moods, workouts, w)...)
	if p := lowMoodTriggers(moods, workouts, meals, sleeps, w); p != nil {
		patterns = append(patterns, *p)
	}
	return patterns
}

func moodExerciseCorrelation(moods, workouts []domain.ActivityLog, w analysisWindow) *domain.DetectedPattern {
	var moodScores, followIntensities []float64
	for _, mood := range moods {
		score, ok := mood.MoodScore()
		if !ok {
			continue
		}
		var intensities []float64
		for _, workout := range workouts {
			if !workout.LoggedAt.After(mood.LoggedAt) {
				continue
			}
			if workout.LoggedAt.Sub(mood.LoggedAt) > moodFollowWindow {
				continue
			}
			if intensity, ok := workout.Intensity(); ok {
				intensities = append(intensities, intensity)
			}
		}
		if len(intensities) == 0 {
			continue
		}
		moodScores = append(moodScores, score)
		followIntensities = append(followIntensities, mean(intensities))
	}

	if len(moodScores) < MinCorrelationPairs {
		return nil
	}
	r := PearsonCorrelation(moodScores, followIntensities)
	sig, keep := correlationSignificance(r)
	if !keep {
		return nil
	}

	corr := r
	relation := "train harder"
	if r < 0 {
		relation = "train lighter"
	}
	return &domain.DetectedPattern{
		Type: domain.PatternMoodExercise,
		Description: fmt.Sprintf("On better-mood days you tend to %s in the following 24 hours (r=%.2f).",
			relation, r),
		Strength:     clamp01(math.Abs(r)),
		SampleCount:  len(moodScores),
		WindowStart:  w.start,
		WindowEnd:    w.end,
		Correlation:  &corr,
		Significance: sig,
	}
}

// moodBoosters finds activity types whose mean post-activity mood exceeds
// the mean pre-activity mood by more than 0.5, ranked by lift.
func moodBoosters(moods, workouts []domain.ActivityLog, w analysisWindow) []domain.DetectedPattern {
	type liftAgg struct {
		pre, post float64
		pairs     int
	}
	byType := make(map[string]*liftAgg)

	for _, workout := range workouts {
		activityType, ok := workout.StringField(domain.FieldActivityType)
		if !ok || activityType == "" {
			continue
		}
		pre := nearestMood(moods, workout.LoggedAt, -boosterPreWindow)
		post := nearestMood(moods, workout.LoggedAt, boosterPostWindow)
		if pre == nil || post == nil {
			continue
		}
		agg := byType[activityType]
		if agg == nil {
			agg = &liftAgg{}
			byType[activityType] = agg
		}
		agg.pre += *pre
		agg.post += *post
		agg.pairs++
	}

	type ranked struct {
		activityType string
		lift         float64
		pairs        int
	}
	var boosters []ranked
	for activityType, agg := range byType {
		if agg.pairs < boosterMinPairs {
			continue
		}
		lift := (agg.post - agg.pre) / float64(agg.pairs)
		if lift > boosterMinLift {
			boosters = append(boosters, ranked{activityType, lift, agg.pairs})
		}
	}
	sort.Slice(boosters, func(i, j int) bool { return boosters[i].lift > boosters[j].lift })

	var patterns []domain.DetectedPattern
	for _, b := range boosters {
		patterns = append(patterns, domain.DetectedPattern{
			Type: domain.PatternMoodBooster,
			Description: fmt.Sprintf("%s reliably lifts your mood by %.1f points on average.",
				b.activityType, b.lift),
			Strength:     clamp01(b.lift / 3),
			SampleCount:  b.pairs,
			WindowStart:  w.start,
			WindowEnd:    w.end,
			Significance: domain.SignificanceMedium,
		})
	}
	return patterns
}

// nearestMood returns the mood score closest to t within the window;
// negative windows look backward.
func nearestMood(moods []domain.ActivityLog, t time.Time, window time.Duration) *float64 {
	var best *float64
	var bestDelta time.Duration
	for _, mood := range moods {
		delta := mood.LoggedAt.Sub(t)
		if window < 0 {
			if delta > 0 || delta < window {
				continue
			}
			delta = -delta
		} else {
			if delta < 0 || delta > window {
				continue
			}
		}
		score, ok := mood.MoodScore()
		if !ok {
			continue
		}
		if best == nil || delta < bestDelta {
			s := score
			best = &s
			bestDelta = delta
		}
	}
	return best
}

// lowMoodTriggers checks each candidate trigger's co-occurrence rate with
// low-mood events (score < 3); rates above 30% are reported.
func lowMoodTriggers(moods, workouts, meals, sleeps []domain.ActivityLog, w analysisWindow) *domain.DetectedPattern {
	var lowMoods []domain.ActivityLog
	for _, mood := range moods {
		if score, ok := mood.MoodScore(); ok && score < lowMoodScore {
			lowMoods = append(lowMoods, mood)
		}
	}
	if len(lowMoods) < 2 {
		return nil
	}

	counts := map[string]int{}
	weekdays := map[time.Weekday]int{}
	for _, mood := range lowMoods {
		if hadHighIntensityBefore(workouts, mood.LoggedAt) {
			counts["high-intensity exercise the day before"]++
		}
		if hadPoorSleepBefore(sleeps, mood.LoggedAt) {
			counts["short sleep the previous night"]++
		}
		if missedMealsBefore(meals, mood.LoggedAt) {
			counts["no logged meals earlier that day"]++
		}
		weekdays[mood.LoggedAt.Weekday()]++
	}
	for day, n := range weekdays {
		if float64(n)/float64(len(lowMoods)) > triggerCooccurrence && n >= 2 {
			counts[day.String()+"s"] = n
		}
	}

	var triggers []string
	for trigger, n := range counts {
		if float64(n)/float64(len(lowMoods)) > triggerCooccurrence {
			triggers = append(triggers, trigger)
		}
	}
	if len(triggers) == 0 {
		return nil
	}
	sort.Strings(triggers)

	return &domain.DetectedPattern{
		Type:         domain.PatternLowMoodTrigger,
		Description:  "Low-mood days tend to follow: " + strings.Join(triggers, ", ") + ".",
		Strength:     clamp01(float64(len(triggers)) * 0.3),
		SampleCount:  len(lowMoods),
		WindowStart:  w.start,
		WindowEnd:    w.end,
		Significance: domain.SignificanceMedium,
	}
}

func hadHighIntensityBefore(workouts []domain.ActivityLog, at time.Time) bool {
	for _, workout := range workouts {
		if workout.LoggedAt.After(at) || at.Sub(workout.LoggedAt) > 24*time.Hour {
			continue
		}
		if intensity, ok := workout.Intensity(); ok && intensity > 7 {
			return true
		}
	}
	return false
}

func hadPoorSleepBefore(sleeps []domain.ActivityLog, at time.Time) bool {
	for _, sleep := range sleeps {
		if sleep.LoggedAt.After(at) || at.Sub(sleep.LoggedAt) > 18*time.Hour {
			continue
		}
		if hours, ok := sleep.SleepHours(); ok && hours < 6 {
			return true
		}
	}
	return false
}

// missedMealsBefore reports no nutrition log in the 8 daytime hours before
// the low-mood event.
func missedMealsBefore(meals []domain.ActivityLog, at time.Time) bool {
	for _, meal := range meals {
		if meal.LoggedAt.After(at) {
			continue
		}
		if at.Sub(meal.LoggedAt) <= 8*time.Hour {
			return false
		}
	}
	return true
}
