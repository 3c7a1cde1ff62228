package service

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/kinetichq/kinetic/internal/domain"
)

const (
	// Sleep-performance pairing window: a performance log pairs with the
	// nearest preceding sleep log within this many hours.
	sleepPairingWindow = 12 * time.Hour

	// Buckets within this fraction of the best bucket's mean count as
	// part of the optimal sleep range.
	optimalRangeFraction = 0.9
	minBucketSamples     = 2
)

// analyzeSleepPerformance correlates sleep hours with next-session
// intensity and derives the optimal sleep range from bucketed means.
func (s *PatternDetectionService) analyzeSleepPerformance(w analysisWindow) []domain.DetectedPattern {
	sleeps := w.byCategory(domain.CategorySleep)
	workouts := w.byCategory(domain.CategoryExercise)

	var sleepHours, performance []float64
	for _, workout := range workouts {
		intensity, ok := workout.Intensity()
		if !ok {
			continue
		}
		sleep := nearestPrecedingSleep(sleeps, workout.LoggedAt)
		if sleep == nil {
			continue
		}
		hours, ok := sleep.SleepHours()
		if !ok {
			continue
		}
		sleepHours = append(sleepHours, hours)
		performance = append(performance, intensity)
	}

	var patterns []domain.DetectedPattern

	if len(sleepHours) >= MinCorrelationPairs {
		r := PearsonCorrelation(sleepHours, performance)
		if sig, keep := correlationSignificance(r); keep {
			corr := r
			direction := "higher"
			if r < 0 {
				direction = "lower"
			}
			patterns = append(patterns, domain.DetectedPattern{
				Type: domain.PatternSleepPerformance,
				Description: fmt.Sprintf("More sleep is associated with %s training performance (r=%.2f over %d sessions).",
					direction, r, len(sleepHours)),
				Strength:     clamp01(math.Abs(r)),
				SampleCount:  len(sleepHours),
				WindowStart:  w.start,
				WindowEnd:    w.end,
				Correlation:  &corr,
				Significance: sig,
			})
		}
	}

	if rangePattern := optimalSleepRange(sleepHours, performance, w); rangePattern != nil {
		patterns = append(patterns, *rangePattern)
	}
	return patterns
}

func nearestPrecedingSleep(sleeps []domain.ActivityLog, at time.Time) *domain.ActivityLog {
	var best *domain.ActivityLog
	for i := range sleeps {
		s := &sleeps[i]
		if s.LoggedAt.After(at) {
			continue
		}
		if at.Sub(s.LoggedAt) > sleepPairingWindow {
			continue
		}
		if best == nil || s.LoggedAt.After(best.LoggedAt) {
			best = s
		}
	}
	return best
}

// optimalSleepRange buckets sleep hours to the nearest integer, averages
// performance per bucket, and reports the min/max bucket within 90% of the
// best bucket's mean.
func optimalSleepRange(sleepHours, performance []float64, w analysisWindow) *domain.DetectedPattern {
	means := bucketMeans(sleepHours, performance, minBucketSamples)
	if len(means) < 2 {
		return nil
	}

	best := math.Inf(-1)
	for _, m := range means {
		if m > best {
			best = m
		}
	}

	var inRange []int
	for b, m := range means {
		if m >= best*optimalRangeFraction {
			inRange = append(inRange, b)
		}
	}
	sort.Ints(inRange)
	lo, hi := inRange[0], inRange[len(inRange)-1]

	return &domain.DetectedPattern{
		Type:         domain.PatternOptimalSleepRange,
		Description:  fmt.Sprintf("Performance peaks on %d-%d hours of sleep.", lo, hi),
		Strength:     0.6,
		SampleCount:  len(sleepHours),
		WindowStart:  w.start,
		WindowEnd:    w.end,
		Significance: domain.SignificanceMedium,
	}
}
