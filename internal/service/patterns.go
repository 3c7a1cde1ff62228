package service

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/kinetichq/kinetic/internal/domain"
	"go.uber.org/zap"
)

// Pattern-analysis constants.
const (
	AnalysisWindowDays  = 14
	MinLogsForAnalysis  = 10
	MinCorrelationPairs = 3

	HighCorrelationAbs   = 0.5
	MediumCorrelationAbs = 0.3

	// Overall-confidence weights.
	strengthWeight     = 0.4
	volumeWeight       = 0.3
	significanceWeight = 0.3
	volumeSaturation   = 50.0
)

// PatternDetectionService mines the rolling log window for statistically
// significant correlations and turns them into time-windowed interventions
// and adaptive recommendations. It is stateless; every pass recomputes
// from the snapshot it is handed.
type PatternDetectionService struct {
	logger *zap.Logger
}

func NewPatternDetectionService(logger *zap.Logger) *PatternDetectionService {
	return &PatternDetectionService{logger: logger}
}

// AnalyzePatterns runs the four analyses concurrently over the snapshot
// window and merges their results. Fewer than MinLogsForAnalysis logs
// yields an explicit zero-confidence result, not an error.
func (s *PatternDetectionService) AnalyzePatterns(uc *domain.UserContext) *domain.PatternAnalysis {
	windowStart := uc.Now.Add(-AnalysisWindowDays * 24 * time.Hour)
	logs := uc.LogsSince(windowStart)
	sort.Slice(logs, func(i, j int) bool { return logs[i].LoggedAt.Before(logs[j].LoggedAt) })

	analysis := &domain.PatternAnalysis{
		Patterns:        []domain.DetectedPattern{},
		Interventions:   []domain.JITIntervention{},
		Recommendations: []domain.AdaptiveRecommendation{},
		DataPoints:      len(logs),
	}
	if len(logs) < MinLogsForAnalysis {
		s.logger.Debug("insufficient logs for pattern analysis", zap.Int("logs", len(logs)))
		return analysis
	}

	window := analysisWindow{logs: logs, start: windowStart, end: uc.Now}

	// The four analyses are independent given the immutable snapshot;
	// results merge in a fixed order so output stays deterministic.
	var results [4][]domain.DetectedPattern
	var wg sync.WaitGroup
	analyses := []func(analysisWindow) []domain.DetectedPattern{
		s.analyzeSleepPerformance,
		s.analyzeNutritionGaps,
		s.analyzeRecovery,
		s.analyzeMoodActivity,
	}
	for i, analyze := range analyses {
		wg.Add(1)
		go func(slot int, fn func(analysisWindow) []domain.DetectedPattern) {
			defer wg.Done()
			results[slot] = fn(window)
		}(i, analyze)
	}
	wg.Wait()

	for _, patterns := range results {
		analysis.Patterns = append(analysis.Patterns, patterns...)
	}

	for _, p := range analysis.Patterns {
		if p.Significance == domain.SignificanceLow {
			continue
		}
		if jit := jitInterventionFor(p); jit != nil {
			analysis.Interventions = append(analysis.Interventions, *jit)
		}
		if rec := recommendationFor(p); rec != nil {
			analysis.Recommendations = append(analysis.Recommendations, *rec)
		}
	}

	analysis.Confidence = overallConfidence(analysis.Patterns, len(logs))

	s.logger.Debug("pattern analysis complete",
		zap.Int("logs", len(logs)),
		zap.Int("patterns", len(analysis.Patterns)),
		zap.Int("confidence", analysis.Confidence))

	return analysis
}

// analysisWindow is the immutable input shared by the four analyses.
type analysisWindow struct {
	logs  []domain.ActivityLog // sorted oldest first
	start time.Time
	end   time.Time
}

func (w analysisWindow) byCategory(cat domain.ActivityCategory) []domain.ActivityLog {
	var out []domain.ActivityLog
	for _, l := range w.logs {
		if l.Category == cat {
			out = append(out, l)
		}
	}
	return out
}

func overallConfidence(patterns []domain.DetectedPattern, dataPoints int) int {
	if len(patterns) == 0 {
		return 0
	}

	var strengthSum float64
	highCount := 0
	for _, p := range patterns {
		strengthSum += p.Strength
		if p.Significance == domain.SignificanceHigh {
			highCount++
		}
	}
	meanStrength := strengthSum / float64(len(patterns))
	volume := math.Min(1, float64(dataPoints)/volumeSaturation)
	highFraction := float64(highCount) / float64(len(patterns))

	score := meanStrength*strengthWeight + volume*volumeWeight + highFraction*significanceWeight
	return int(math.Round(score * 100))
}

func correlationSignificance(r float64) (domain.Significance, bool) {
	abs := math.Abs(r)
	switch {
	case abs > HighCorrelationAbs:
		return domain.SignificanceHigh, true
	case abs > MediumCorrelationAbs:
		return domain.SignificanceMedium, true
	default:
		return domain.SignificanceLow, false
	}
}

// jitInterventionFor maps a significant pattern to its time-windowed nudge.
func jitInterventionFor(p domain.DetectedPattern) *domain.JITIntervention {
	switch p.Type {
	case domain.PatternSleepPerformance:
		return &domain.JITIntervention{
			PatternType:     p.Type,
			Trigger:         "planning a hard session after a short night",
			WindowStartHour: 6,
			WindowEndHour:   10,
			Message:         "Your performance tracks your sleep. After a short night, cap today's intensity and bank an early bedtime tonight.",
		}
	case domain.PatternPreWorkoutGap:
		return &domain.JITIntervention{
			PatternType:     p.Type,
			Trigger:         "approaching usual training time without a recent meal",
			WindowStartHour: 14,
			WindowEndHour:   18,
			Message:         "Your pre-workout fueling gap is drifting from the 2-3 hour sweet spot. A small carb snack about 90 minutes out fixes it.",
		}
	case domain.PatternPostWorkoutDelay:
		return &domain.JITIntervention{
			PatternType:     p.Type,
			Trigger:         "workout logged without a follow-up meal",
			WindowStartHour: 0,
			WindowEndHour:   23,
			Message:         "You tend to wait over 2 hours to eat after training. Getting protein in within the first hour speeds recovery.",
		}
	case domain.PatternOvertrainingRisk:
		return &domain.JITIntervention{
			PatternType:     p.Type,
			Trigger:         "next high-intensity session planned",
			WindowStartHour: 6,
			WindowEndHour:   21,
			Message:         "Your 14-day load is creeping into overtraining territory. Swap the next hard session for something easy.",
		}
	case domain.PatternMoodBooster:
		return &domain.JITIntervention{
			PatternType:     p.Type,
			Trigger:         "low mood logged",
			WindowStartHour: 8,
			WindowEndHour:   20,
			Message:         "On rough days, the activities that reliably lift your mood are: " + p.Description,
		}
	case domain.PatternLowMoodTrigger:
		return &domain.JITIntervention{
			PatternType:     p.Type,
			Trigger:         "trigger condition present",
			WindowStartHour: 8,
			WindowEndHour:   20,
			Message:         "Heads up: " + p.Description + " That combination usually precedes your low-mood days.",
		}
	}
	return nil
}

// recommendationFor maps a significant pattern to a goal adjustment, a
// minimal habit, and an implementation intention.
func recommendationFor(p domain.DetectedPattern) *domain.AdaptiveRecommendation {
	switch p.Type {
	case domain.PatternSleepPerformance:
		return &domain.AdaptiveRecommendation{
			PatternType:             p.Type,
			GoalAdjustment:          "Treat sleep as a training input: target a consistent 7.5-hour window on nights before hard sessions.",
			MinimalHabit:            "Set a single recurring wind-down alarm 45 minutes before target bedtime.",
			ImplementationIntention: "If the wind-down alarm fires, then screens go away and lights dim.",
		}
	case domain.PatternOptimalSleepRange:
		return &domain.AdaptiveRecommendation{
			PatternType:             p.Type,
			GoalAdjustment:          "Aim your sleep into the range where your logged performance peaks: " + p.Description,
			MinimalHabit:            "Keep the same wake time every day, including weekends.",
			ImplementationIntention: "If tomorrow has a hard session, then bedtime moves 30 minutes earlier tonight.",
		}
	case domain.PatternPreWorkoutGap:
		return &domain.AdaptiveRecommendation{
			PatternType:             p.Type,
			GoalAdjustment:          "Anchor a pre-training fueling routine around the 2.5-hour ideal gap.",
			MinimalHabit:            "Keep one shelf-stable carb snack in your training bag.",
			ImplementationIntention: "If training starts within 2 hours and I haven't eaten, then I eat the bag snack now.",
		}
	case domain.PatternPostWorkoutDelay:
		return &domain.AdaptiveRecommendation{
			PatternType:             p.Type,
			GoalAdjustment:          "Close the post-workout window: protein within 60 minutes of finishing.",
			MinimalHabit:            "Prep a recovery snack before leaving for training.",
			ImplementationIntention: "If I log a workout, then I eat the prepped snack before showering.",
		}
	case domain.PatternRecoveryTime:
		return &domain.AdaptiveRecommendation{
			PatternType:             p.Type,
			GoalAdjustment:          "Schedule hard sessions to respect your measured recovery times: " + p.Description,
			MinimalHabit:            "Log mood each morning; it is your recovery signal.",
			ImplementationIntention: "If morning mood is below 5, then today's session drops one intensity bucket.",
		}
	case domain.PatternOvertrainingRisk:
		return &domain.AdaptiveRecommendation{
			PatternType:             p.Type,
			GoalAdjustment:          "Cap the next two weeks at one high-intensity session per 48 hours.",
			MinimalHabit:            "Mark one full rest day in the calendar each week, in advance.",
			ImplementationIntention: "If I feel the urge to add an extra hard session, then I swap it for a walk.",
		}
	case domain.PatternMoodExercise:
		return &domain.AdaptiveRecommendation{
			PatternType:             p.Type,
			GoalAdjustment:          "Use movement deliberately as mood regulation, not only as training.",
			MinimalHabit:            "Ten minutes of any movement on low-mood mornings.",
			ImplementationIntention: "If I log a mood below 4, then I start a 10-minute walk within the hour.",
		}
	case domain.PatternMoodBooster:
		return &domain.AdaptiveRecommendation{
			PatternType:             p.Type,
			GoalAdjustment:          "Protect weekly time for your highest mood-lifting activities.",
			MinimalHabit:            "Schedule one mood-boosting activity per week before the week starts.",
			ImplementationIntention: "If Sunday planning happens, then one booster session goes in the calendar first.",
		}
	case domain.PatternLowMoodTrigger:
		return &domain.AdaptiveRecommendation{
			PatternType:             p.Type,
			GoalAdjustment:          "Reduce exposure to your identified low-mood triggers.",
			MinimalHabit:            "A 2-minute evening note on what preceded any low-mood day.",
			ImplementationIntention: "If a trigger condition shows up, then I plan one buffer activity that same day.",
		}
	}
	return nil
}
