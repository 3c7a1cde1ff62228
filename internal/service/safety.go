package service

import (
	"strings"
	"time"

	"github.com/kinetichq/kinetic/internal/domain"
	"go.uber.org/zap"
)

// Overtraining scoring constants (7-day window).
const (
	OvertrainingWindowDays = 7

	RestingHRElevationPoints = 20
	NegativeMoodPoints       = 15
	PoorSleepPoints          = 15
	SorenessPoints           = 20
	HighIntensityPoints      = 10

	RestingHRElevationBPM  = 5.0
	NegativeMoodRatio      = 0.5
	PoorSleepRatio         = 0.5
	PoorSleepHours         = 6.0
	SorenessMentionLimit   = 4
	HighIntensityThreshold = 7.0
	HighIntensityLimit     = 5

	OvertrainingRedThreshold    = 60
	OvertrainingYellowThreshold = 35
)

const (
	seekMedicalAttention = "Stop activity and seek medical attention now. This is outside coaching scope."
	riceProtocol         = "Stop the activity. Follow RICE for the first 48 hours: Rest, Ice (15-20 min at a time), Compression, Elevation. See a professional if it doesn't improve."
	chronicInjuryAdvice  = "Pain that persists for weeks or wakes you at night deserves a professional assessment before you keep training through it."
	redRestAdvice        = "Overtraining risk is high. Take 2-3 full rest days, prioritize sleep, and resume at reduced volume."
	yellowReduceAdvice   = "Recovery signals are slipping. Cut training intensity to about 70% for the next few days and watch sleep and mood."
	allClearAdvice       = "No safety concerns detected. Carry on."
)

// Symptom patterns are ordered; the first match wins.
var criticalSymptoms = []string{
	"chest pain", "chest tightness", "can't breathe", "cannot breathe",
	"shortness of breath", "heart racing", "irregular heartbeat",
	"fainted", "passing out", "passed out", "blacked out",
	"numbness in arm", "numb arm", "slurred speech",
	"severe headache", "vision loss", "coughing blood",
}

var concerningSymptoms = []string{
	"dizzy", "dizziness", "lightheaded", "light-headed",
	"nausea during exercise", "vomiting", "heart palpitations",
	"unusual fatigue", "extreme fatigue",
}

var acuteInjuryPatterns = []string{
	"sharp pain", "heard a pop", "felt a pop", "popping sound",
	"can't bear weight", "cannot bear weight", "can't put weight",
	"swelling", "swollen", "gave out",
}

var chronicInjuryPatterns = []string{
	"for weeks", "past few weeks", "getting worse", "worsening",
	"night pain", "wakes me up", "every time i train", "won't go away",
}

// conditionRules cross-references a health condition keyword against
// planned-activity keywords.
type conditionRule struct {
	condition string
	activity  []string
	severity  domain.SafetySeverity
	block     bool
	warning   string
}

var conditionRules = []conditionRule{
	{
		condition: "diabetes",
		activity:  []string{"fast", "fasted", "fasting", "skip breakfast", "empty stomach"},
		severity:  domain.SeverityHigh,
		block:     true,
		warning:   "Fasted training with diabetes risks hypoglycemia. Check glucose before and during, and clear this plan with your care team first.",
	},
	{
		condition: "heart disease",
		activity:  []string{"high intensity", "hiit", "sprint", "max effort", "all out"},
		severity:  domain.SeverityHigh,
		block:     true,
		warning:   "High-intensity work with a heart condition needs medical clearance. Keep efforts conversational until your doctor signs off.",
	},
	{
		condition: "asthma",
		activity:  []string{"run", "running", "sprint", "cold", "outdoor"},
		severity:  domain.SeverityMedium,
		block:     false,
		warning:   "With asthma, warm up gradually, carry your inhaler, and be cautious with cold-air cardio.",
	},
}

var medicationRules = []conditionRule{
	{
		condition: "beta blocker",
		activity:  []string{"heart rate", "hr zone", "zone training", "target heart rate"},
		severity:  domain.SeverityMedium,
		block:     false,
		warning:   "Beta blockers suppress heart-rate response, so HR-zone targets will mislead you. Train by perceived effort instead.",
	},
	{
		condition: "blood thinner",
		activity:  []string{"contact", "sparring", "boxing", "martial arts", "rugby", "football"},
		severity:  domain.SeverityHigh,
		block:     true,
		warning:   "Contact sports on blood thinners carry serious bleeding risk. Talk to your prescriber before any contact training.",
	},
	{
		condition: "metformin",
		activity:  []string{"high intensity", "hiit", "max effort", "long run", "endurance event"},
		severity:  domain.SeverityMedium,
		block:     false,
		warning:   "Metformin plus very hard or very long sessions can upset glucose balance. Fuel properly and watch for weakness or dizziness.",
	},
}

// SafetyMonitor performs text, profile, and log-window safety scanning.
// All methods are read-only and safe for concurrent use.
type SafetyMonitor struct {
	logger *zap.Logger
}

func NewSafetyMonitor(logger *zap.Logger) *SafetyMonitor {
	return &SafetyMonitor{logger: logger}
}

// CheckMedicalRedFlags scans free text for critical then concerning
// symptom patterns; the first match wins. Both grades block activity.
func (s *SafetyMonitor) CheckMedicalRedFlags(text string) domain.SafetyCheckResult {
	lower := strings.ToLower(text)

	for _, symptom := range criticalSymptoms {
		if strings.Contains(lower, symptom) {
			s.logger.Warn("critical symptom detected", zap.String("symptom", symptom))
			return domain.SafetyCheckResult{
				Check:                    domain.CheckRedFlag,
				Severity:                 domain.SeverityCritical,
				Finding:                  "Reported symptom: " + symptom,
				Recommendation:           seekMedicalAttention,
				BlockActivity:            true,
				RequiresMedicalAttention: true,
			}
		}
	}

	for _, symptom := range concerningSymptoms {
		if strings.Contains(lower, symptom) {
			return domain.SafetyCheckResult{
				Check:          domain.CheckRedFlag,
				Severity:       domain.SeverityHigh,
				Finding:        "Reported symptom: " + symptom,
				Recommendation: "Hold off on training until this resolves. If it recurs or worsens, see a doctor.",
				BlockActivity:  true,
			}
		}
	}

	return domain.Pass(domain.CheckRedFlag)
}

// DetectInjury distinguishes acute injuries (blocking, RICE protocol) from
// chronic ones (non-blocking professional referral).
func (s *SafetyMonitor) DetectInjury(text string) domain.SafetyCheckResult {
	lower := strings.ToLower(text)

	for _, pattern := range acuteInjuryPatterns {
		if strings.Contains(lower, pattern) {
			return domain.SafetyCheckResult{
				Check:          domain.CheckInjury,
				Severity:       domain.SeverityHigh,
				Finding:        "Possible acute injury: " + pattern,
				Recommendation: riceProtocol,
				BlockActivity:  true,
			}
		}
	}

	for _, pattern := range chronicInjuryPatterns {
		if strings.Contains(lower, pattern) {
			return domain.SafetyCheckResult{
				Check:          domain.CheckInjury,
				Severity:       domain.SeverityMedium,
				Finding:        "Possible chronic issue: " + pattern,
				Recommendation: chronicInjuryAdvice,
			}
		}
	}

	return domain.Pass(domain.CheckInjury)
}

// CheckChronicConditions cross-references profile conditions against the
// planned activity described in the input.
func (s *SafetyMonitor) CheckChronicConditions(input string, profile *domain.UserProfile) domain.SafetyCheckResult {
	return s.crossReference(domain.CheckChronicCondition, input, profile.HealthConditions, conditionRules)
}

// CheckMedicationInteractions cross-references profile medications against
// the planned activity.
func (s *SafetyMonitor) CheckMedicationInteractions(input string, profile *domain.UserProfile) domain.SafetyCheckResult {
	return s.crossReference(domain.CheckMedication, input, profile.Medications, medicationRules)
}

func (s *SafetyMonitor) crossReference(check domain.SafetyCheckType, input string, entries []string, rules []conditionRule) domain.SafetyCheckResult {
	lower := strings.ToLower(input)

	for _, rule := range rules {
		if !containsEntry(entries, rule.condition) {
			continue
		}
		for _, activity := range rule.activity {
			if strings.Contains(lower, activity) {
				return domain.SafetyCheckResult{
					Check:          check,
					Severity:       rule.severity,
					Finding:        rule.condition + " + " + activity,
					Recommendation: rule.warning,
					BlockActivity:  rule.block,
				}
			}
		}
	}
	return domain.Pass(check)
}

func containsEntry(entries []string, keyword string) bool {
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e), keyword) {
			return true
		}
	}
	return false
}

// CalculateOvertrainingScore accumulates additive risk points over the
// last 7 days of logs. The sum is clamped to [0,100].
func (s *SafetyMonitor) CalculateOvertrainingScore(logs []domain.ActivityLog, profile *domain.UserProfile, now time.Time) domain.OvertrainingScore {
	cutoff := now.Add(-OvertrainingWindowDays * 24 * time.Hour)

	var (
		restingHRs    []float64
		moodScores    []float64
		sleepHours    []float64
		soreness      int
		highIntensity int
	)

	for _, l := range logs {
		if l.LoggedAt.Before(cutoff) {
			continue
		}
		if hr, ok := l.FloatField(domain.FieldRestingHeartRate); ok {
			restingHRs = append(restingHRs, hr)
		}
		if mood, ok := l.MoodScore(); ok {
			moodScores = append(moodScores, mood)
		}
		if hours, ok := l.SleepHours(); ok {
			sleepHours = append(sleepHours, hours)
		}
		if strings.Contains(strings.ToLower(l.RawText), "sore") {
			soreness++
		}
		if intensity, ok := l.Intensity(); ok && intensity > HighIntensityThreshold {
			highIntensity++
		}
	}

	score := 0
	var factors []string

	if profile.RestingHRBaseline > 0 && len(restingHRs) > 0 {
		if mean(restingHRs) > profile.RestingHRBaseline+RestingHRElevationBPM {
			score += RestingHRElevationPoints
			factors = append(factors, "resting heart rate elevated above baseline")
		}
	}

	if len(moodScores) > 0 {
		negative := 0
		for _, m := range moodScores {
			if m < 5 {
				negative++
			}
		}
		if float64(negative)/float64(len(moodScores)) > NegativeMoodRatio {
			score += NegativeMoodPoints
			factors = append(factors, "mood logs majority negative")
		}
	}

	if len(sleepHours) > 0 {
		poor := 0
		for _, h := range sleepHours {
			if h < PoorSleepHours {
				poor++
			}
		}
		if float64(poor)/float64(len(sleepHours)) > PoorSleepRatio {
			score += PoorSleepPoints
			factors = append(factors, "majority of nights under 6 hours")
		}
	}

	if soreness > SorenessMentionLimit {
		score += SorenessPoints
		factors = append(factors, "frequent soreness mentions")
	}

	if highIntensity > HighIntensityLimit {
		score += HighIntensityPoints
		factors = append(factors, "more than 5 high-intensity sessions this week")
	}

	if score > 100 {
		score = 100
	}

	result := domain.OvertrainingScore{Score: score, Factors: factors}
	switch {
	case score >= OvertrainingRedThreshold:
		result.Status = domain.OvertrainingRed
		result.Recommendation = redRestAdvice
	case score >= OvertrainingYellowThreshold:
		result.Status = domain.OvertrainingYellow
		result.Recommendation = yellowReduceAdvice
	default:
		result.Status = domain.OvertrainingGreen
		result.Recommendation = "Recovery markers look fine."
	}

	s.logger.Debug("overtraining score computed",
		zap.Int("score", score),
		zap.String("status", string(result.Status)),
		zap.Strings("factors", factors))

	return result
}

// PerformComprehensiveSafetyCheck runs every check plus the overtraining
// score. Safe requires all checks passing and a non-red overtraining
// status; the final recommendation prefers the most severe finding.
func (s *SafetyMonitor) PerformComprehensiveSafetyCheck(input string, profile *domain.UserProfile, logs []domain.ActivityLog, now time.Time) domain.SafetyReport {
	checks := []domain.SafetyCheckResult{
		s.CheckMedicalRedFlags(input),
		s.DetectInjury(input),
		s.CheckChronicConditions(input, profile),
		s.CheckMedicationInteractions(input, profile),
	}

	overtraining := s.CalculateOvertrainingScore(logs, profile, now)

	safe := overtraining.Status != domain.OvertrainingRed
	for _, c := range checks {
		if !c.Passed {
			safe = false
		}
	}

	report := domain.SafetyReport{
		Safe:         safe,
		Checks:       checks,
		Overtraining: overtraining,
	}
	report.FinalRecommendation = finalRecommendation(checks, overtraining)
	return report
}

func finalRecommendation(checks []domain.SafetyCheckResult, overtraining domain.OvertrainingScore) string {
	for _, c := range checks {
		if c.Severity == domain.SeverityCritical {
			return c.Recommendation
		}
	}
	for _, c := range checks {
		if c.Severity == domain.SeverityHigh {
			return c.Recommendation
		}
	}
	if overtraining.Status == domain.OvertrainingRed {
		return overtraining.Recommendation
	}
	return allClearAdvice
}
