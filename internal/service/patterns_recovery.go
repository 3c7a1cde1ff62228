package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/kinetichq/kinetic/internal/domain"
)

// Intensity buckets: low ≤ 3, medium 4-7, high > 7.
type intensityBucket string

const (
	bucketLow    intensityBucket = "low"
	bucketMedium intensityBucket = "medium"
	bucketHigh   intensityBucket = "high"
)

func bucketFor(intensity float64) intensityBucket {
	switch {
	case intensity <= 3:
		return bucketLow
	case intensity <= 7:
		return bucketMedium
	default:
		return bucketHigh
	}
}

const (
	minRecoverySamples = 5
	// Per-bucket means are only reported when the spread across buckets
	// exceeds this fraction of a day.
	recoveryRangeFraction = 0.3

	recoveredMoodScore = 7.0

	// 14-day overtraining-risk factor weights, capped at 1.0. This risk
	// index is separate from the SafetyMonitor's 7-day score.
	riskSessionFrequency = 0.3
	riskActiveDays       = 0.2
	riskMeanIntensity    = 0.2
	riskMeanMood         = 0.3

	riskFrequencyLimit = 2.0
	riskActiveDayLimit = 12
	riskIntensityLimit = 7.5
	riskMoodLimit      = 4.0
)

// analyzeRecovery reports per-intensity-bucket recovery times and a 14-day
// overtraining-risk index.
func (s *PatternDetectionService) analyzeRecovery(w analysisWindow) []domain.DetectedPattern {
	workouts := w.byCategory(domain.CategoryExercise)
	moods := w.byCategory(domain.CategoryMood)

	var patterns []domain.DetectedPattern
	if p := recoveryTimes(workouts, moods, w); p != nil {
		patterns = append(patterns, *p)
	}
	if p := overtrainingRisk(workouts, moods, w); p != nil {
		patterns = append(patterns, *p)
	}
	return patterns
}

// recoveryTimes measures hours from each workout until the next mood log
// of 7+ or the next workout, whichever comes sooner, bucketed by intensity.
func recoveryTimes(workouts, moods []domain.ActivityLog, w analysisWindow) *domain.DetectedPattern {
	sums := make(map[intensityBucket]float64)
	counts := make(map[intensityBucket]int)
	total := 0

	for i, workout := range workouts {
		intensity, ok := workout.Intensity()
		if !ok {
			continue
		}

		var recoveredAt *time.Time
		for _, mood := range moods {
			if !mood.LoggedAt.After(workout.LoggedAt) {
				continue
			}
			if score, ok := mood.MoodScore(); ok && score >= recoveredMoodScore {
				t := mood.LoggedAt
				recoveredAt = &t
				break
			}
		}
		if i+1 < len(workouts) {
			next := workouts[i+1].LoggedAt
			if recoveredAt == nil || next.Before(*recoveredAt) {
				recoveredAt = &next
			}
		}
		if recoveredAt == nil {
			continue
		}

		b := bucketFor(intensity)
		sums[b] += recoveredAt.Sub(workout.LoggedAt).Hours()
		counts[b]++
		total++
	}

	if total < minRecoverySamples {
		return nil
	}

	means := make(map[intensityBucket]float64, len(counts))
	minMean, maxMean := -1.0, -1.0
	for b, c := range counts {
		m := sums[b] / float64(c)
		means[b] = m
		if minMean < 0 || m < minMean {
			minMean = m
		}
		if m > maxMean {
			maxMean = m
		}
	}
	if maxMean-minMean <= recoveryRangeFraction*24 {
		return nil
	}

	order := []intensityBucket{bucketLow, bucketMedium, bucketHigh}
	parts := make([]string, 0, len(order))
	for _, b := range order {
		if m, ok := means[b]; ok {
			parts = append(parts, fmt.Sprintf("%s %.0fh", b, m))
		}
	}
	return &domain.DetectedPattern{
		Type:         domain.PatternRecoveryTime,
		Description:  "Average recovery by session intensity: " + strings.Join(parts, ", ") + ".",
		Strength:     clamp01((maxMean - minMean) / 24),
		SampleCount:  total,
		WindowStart:  w.start,
		WindowEnd:    w.end,
		Significance: domain.SignificanceMedium,
	}
}

// overtrainingRisk accumulates the four 14-day load factors, capped at 1.
func overtrainingRisk(workouts, moods []domain.ActivityLog, w analysisWindow) *domain.DetectedPattern {
	if len(workouts) == 0 {
		return nil
	}

	days := make(map[string]int)
	var intensities []float64
	for _, workout := range workouts {
		days[workout.LoggedAt.Format("2006-01-02")]++
		if intensity, ok := workout.Intensity(); ok {
			intensities = append(intensities, intensity)
		}
	}

	var moodScores []float64
	for _, mood := range moods {
		if score, ok := mood.MoodScore(); ok {
			moodScores = append(moodScores, score)
		}
	}

	risk := 0.0
	activeDays := len(days)
	if activeDays > 0 && float64(len(workouts))/float64(activeDays) > riskFrequencyLimit {
		risk += riskSessionFrequency
	}
	if activeDays > riskActiveDayLimit {
		risk += riskActiveDays
	}
	if len(intensities) > 0 && mean(intensities) > riskIntensityLimit {
		risk += riskMeanIntensity
	}
	if len(moodScores) > 0 && mean(moodScores) < riskMoodLimit {
		risk += riskMeanMood
	}
	risk = clamp01(risk)

	if risk < 0.3 {
		return nil
	}

	sig := domain.SignificanceMedium
	if risk >= 0.7 {
		sig = domain.SignificanceHigh
	}
	return &domain.DetectedPattern{
		Type:         domain.PatternOvertrainingRisk,
		Description:  fmt.Sprintf("14-day training load shows elevated overtraining risk (%.0f%%).", risk*100),
		Strength:     risk,
		SampleCount:  len(workouts),
		WindowStart:  w.start,
		WindowEnd:    w.end,
		Significance: sig,
	}
}
