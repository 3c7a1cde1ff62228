package service

import (
	"strings"

	"github.com/kinetichq/kinetic/internal/domain"
	"go.uber.org/zap"
)

// Scenario-confidence point thresholds. This model is intentionally
// separate from the rule-card tier confidence: it does coarse routing,
// the card tier does fine-grained response grading.
const (
	scenarioHighPoints   = 4
	scenarioMediumPoints = 2
)

// CoachingDecisionOrchestrator composes the safety monitor and rule-card
// engine into the single generateResponse entry point. Stateless per
// request.
type CoachingDecisionOrchestrator struct {
	rules  *RuleCardsEngine
	safety *SafetyMonitor
	logger *zap.Logger
}

func NewCoachingDecisionOrchestrator(rules *RuleCardsEngine, safety *SafetyMonitor, logger *zap.Logger) *CoachingDecisionOrchestrator {
	return &CoachingDecisionOrchestrator{rules: rules, safety: safety, logger: logger}
}

// scenarioKeywords are checked in order; the first scenario with a hit
// wins, so more specific scenarios come first.
var scenarioKeywords = []struct {
	scenario domain.Scenario
	words    []string
}{
	{domain.ScenarioTravelNutrition, []string{"travel", "airport", "flight", "fast food", "hotel", "road trip"}},
	{domain.ScenarioWeightPlateau, []string{"plateau", "stuck", "stalled", "not losing", "scale hasn't"}},
	{domain.ScenarioSleepAffected, []string{"slept", "sleep", "tired", "exhausted", "insomnia"}},
	{domain.ScenarioPreActivityNutrition, []string{"what should i eat", "before my", "pre-workout", "pre workout", "match in", "game in", "race in", "eat before"}},
	{domain.ScenarioPostWorkoutRecovery, []string{"recover", "sore", "after my workout", "just finished", "post-workout", "post workout"}},
}

// ClassifyScenario maps free text to a scenario tag via ordered keyword
// heuristics.
func (o *CoachingDecisionOrchestrator) ClassifyScenario(input string) domain.Scenario {
	lower := strings.ToLower(input)
	for _, sk := range scenarioKeywords {
		for _, w := range sk.words {
			if strings.Contains(lower, w) {
				return sk.scenario
			}
		}
	}
	return domain.ScenarioGeneral
}

// CalculateConfidence scores data availability for the scenario: recent
// log volume plus scenario-specific context presence.
func (o *CoachingDecisionOrchestrator) CalculateConfidence(uc *domain.UserContext, scenario domain.Scenario) domain.ScenarioConfidence {
	points := 0
	switch {
	case len(uc.RecentLogs) >= MinLogsForAnalysis:
		points += 2
	case len(uc.RecentLogs) >= domain.MinRecentLogsForContext:
		points++
	}

	switch scenario {
	case domain.ScenarioPreActivityNutrition:
		if uc.LastMeal != nil {
			points += 2
		}
	case domain.ScenarioPostWorkoutRecovery:
		if uc.LastWorkout != nil {
			points += 2
		}
	case domain.ScenarioSleepAffected:
		if uc.LastSleep != nil {
			points += 2
		}
	case domain.ScenarioWeightPlateau:
		weightLogs := 0
		for _, l := range uc.RecentLogs {
			if l.Category == domain.CategoryWeight {
				weightLogs++
			}
		}
		if weightLogs >= 3 {
			points += 2
		}
	case domain.ScenarioTravelNutrition:
		if len(uc.Profile.DietaryFlags) > 0 {
			points++
		}
		if len(uc.Profile.Goals) > 0 {
			points++
		}
	}

	switch {
	case points >= scenarioHighPoints:
		return domain.ScenarioConfidenceHigh
	case points >= scenarioMediumPoints:
		return domain.ScenarioConfidenceMedium
	default:
		return domain.ScenarioConfidenceLow
	}
}

// GenerateResponse is the engine's main entry point. Safety findings of
// critical or high severity short-circuit advice generation entirely.
func (o *CoachingDecisionOrchestrator) GenerateResponse(input string, uc *domain.UserContext) *domain.CoachingResponse {
	scenario := o.ClassifyScenario(input)
	scenarioConfidence := o.CalculateConfidence(uc, scenario)

	report := o.safety.PerformComprehensiveSafetyCheck(input, &uc.Profile, uc.RecentLogs, uc.Now)
	if report.Blocking() || report.Overtraining.Status == domain.OvertrainingRed {
		o.logger.Info("safety check blocked advice generation",
			zap.String("scenario", string(scenario)),
			zap.String("recommendation", report.FinalRecommendation))
		warnings := findings(report)
		if report.Overtraining.Status == domain.OvertrainingRed {
			warnings = append(warnings, report.Overtraining.Recommendation)
		}
		return &domain.CoachingResponse{
			Message:            report.FinalRecommendation,
			Confidence:         domain.TierHigh,
			Scenario:           scenario,
			ScenarioConfidence: scenarioConfidence,
			SafetyWarnings:     warnings,
		}
	}

	var resp *domain.CoachingResponse
	if match := o.rules.FindBestMatch(input, uc); match != nil {
		resp = o.rules.GenerateResponse(input, match, uc)
	} else {
		resp = o.handleScenario(scenario, scenarioConfidence, uc)
	}

	resp.Scenario = scenario
	resp.ScenarioConfidence = scenarioConfidence

	// Non-blocking findings still surface as warnings.
	for _, c := range report.Checks {
		if !c.Passed && !c.BlockActivity {
			resp.SafetyWarnings = append(resp.SafetyWarnings, c.Recommendation)
		}
	}
	if report.Overtraining.Status == domain.OvertrainingYellow {
		resp.SafetyWarnings = append(resp.SafetyWarnings, report.Overtraining.Recommendation)
	}

	o.logger.Debug("coaching response generated",
		zap.String("scenario", string(scenario)),
		zap.String("confidence", string(resp.Confidence)),
		zap.String("rule_card", resp.RuleCardID))

	return resp
}

func findings(report domain.SafetyReport) []string {
	var out []string
	for _, c := range report.Checks {
		if !c.Passed {
			out = append(out, c.Recommendation)
		}
	}
	return out
}

// handleScenario covers inputs no rule card matched with small
// deterministic per-scenario heuristics.
func (o *CoachingDecisionOrchestrator) handleScenario(scenario domain.Scenario, confidence domain.ScenarioConfidence, uc *domain.UserContext) *domain.CoachingResponse {
	resp := &domain.CoachingResponse{Confidence: tierFor(confidence)}

	switch scenario {
	case domain.ScenarioPreActivityNutrition:
		o.handlePreActivity(resp, uc)
	case domain.ScenarioPostWorkoutRecovery:
		o.handlePostWorkout(resp, uc)
	case domain.ScenarioSleepAffected:
		o.handleSleepAffected(resp, uc)
	case domain.ScenarioWeightPlateau:
		o.handleWeightPlateau(resp, uc)
	case domain.ScenarioTravelNutrition:
		o.handleTravel(resp, uc)
	default:
		resp.Message = "Tell me a bit more about what you're working on - training, food, sleep, or how you're feeling - and I can give you something concrete."
		resp.FollowUpSuggested = true
	}

	if confidence == domain.ScenarioConfidenceLow && resp.ClarifyingQuestion == "" {
		resp.ClarifyingQuestion = clarifyingQuestionFor(scenario)
		resp.FollowUpSuggested = true
	}
	return resp
}

func tierFor(c domain.ScenarioConfidence) domain.ConfidenceTier {
	switch c {
	case domain.ScenarioConfidenceHigh:
		return domain.TierHigh
	case domain.ScenarioConfidenceMedium:
		return domain.TierMedium
	default:
		return domain.TierLow
	}
}

func clarifyingQuestionFor(scenario domain.Scenario) string {
	switch scenario {
	case domain.ScenarioPreActivityNutrition:
		return "Have you eaten a full meal in the last 3 hours?"
	case domain.ScenarioPostWorkoutRecovery:
		return "How hard was the session, and when did you finish?"
	case domain.ScenarioSleepAffected:
		return "Roughly how many hours did you sleep last night?"
	case domain.ScenarioWeightPlateau:
		return "How long has your weight been flat?"
	case domain.ScenarioTravelNutrition:
		return "Any dietary restrictions I should factor in?"
	default:
		return ""
	}
}

func (o *CoachingDecisionOrchestrator) handlePreActivity(resp *domain.CoachingResponse, uc *domain.UserContext) {
	if uc.LastMeal == nil {
		resp.Message = "Without knowing when you last ate, the safe default is a carb-focused snack 60-90 minutes before you start - a banana, toast with honey, or similar."
		resp.ClarifyingQuestion = "Have you eaten a full meal in the last 3 hours?"
		resp.FollowUpSuggested = true
		resp.ActionItems = []string{"Have a light carb snack 60-90 minutes out", "Drink 400-600ml of water over the next hour"}
		return
	}

	hours := uc.Now.Sub(uc.LastMeal.LoggedAt).Hours()
	switch {
	case hours < 1:
		resp.Message = "You ate recently, so you're fueled. Keep anything else to sips of water; a full stomach this close to activity works against you."
		resp.ActionItems = []string{"Skip additional food", "Sip water until start time"}
	case hours <= 3:
		resp.Message = "Your last meal is still doing its job. A small piece of fruit 30-45 minutes before start is optional, not required."
		resp.ActionItems = []string{"Optional: small piece of fruit 30-45 minutes out", "Hydrate normally"}
	default:
		resp.Message = "It's been a while since you ate. Get a proper carb-plus-protein snack in now so it has time to digest before you start."
		resp.ActionItems = []string{"Eat a carb-plus-protein snack now", "Avoid heavy fat or fiber before the session"}
	}
}

func (o *CoachingDecisionOrchestrator) handlePostWorkout(resp *domain.CoachingResponse, uc *domain.UserContext) {
	resp.Message = "Lock in the recovery basics: protein plus carbs within the hour, rehydrate, and some easy movement before you sit down for the evening."
	resp.ActionItems = []string{"Eat 20-30g protein with carbs within an hour", "Rehydrate with 500-750ml of water", "5-10 minutes of easy walking or stretching"}

	if uc.LastWorkout != nil {
		if intensity, ok := uc.LastWorkout.Intensity(); ok && intensity > 7 {
			resp.Message = "That was a hard session, so recovery matters double: protein and carbs within the hour, and plan tomorrow as an easy day."
			resp.ActionItems = append(resp.ActionItems, "Schedule tomorrow as an easy or rest day")
		}
	}
}

func (o *CoachingDecisionOrchestrator) handleSleepAffected(resp *domain.CoachingResponse, uc *domain.UserContext) {
	if uc.LastSleep != nil {
		if hours, ok := uc.LastSleep.SleepHours(); ok {
			if hours < 5 {
				resp.Message = "On under 5 hours of sleep, hard training costs more than it gives. Swap today for easy movement and protect tonight."
				resp.ActionItems = []string{"Replace high intensity with a walk or mobility work", "Set a wind-down alarm for tonight"}
				return
			}
			resp.Message = "Sleep was short but workable. Train if you want, capped around 7/10 effort, and stop early if form slips."
			resp.ActionItems = []string{"Cap today's intensity at 7/10", "Target an earlier bedtime tonight"}
			return
		}
	}
	resp.Message = "If sleep has been rough, train lighter than planned today and treat tonight's sleep as the priority workout."
	resp.ActionItems = []string{"Reduce today's planned intensity", "Keep a consistent bedtime tonight"}
}

func (o *CoachingDecisionOrchestrator) handleWeightPlateau(resp *domain.CoachingResponse, uc *domain.UserContext) {
	resp.Message = "Plateaus after progress are normal physiology, not failure. Before changing the plan, verify consistency: logging, protein at each meal, daily steps. Two weeks of clean data beats a guess."
	resp.ActionItems = []string{"Log every meal for the next 14 days", "Weigh at the same time each morning", "Hold the current plan until the data is in"}
	resp.FollowUpSuggested = true
}

func (o *CoachingDecisionOrchestrator) handleTravel(resp *domain.CoachingResponse, uc *domain.UserContext) {
	resp.Message = "Travel default: protein plus a vegetable side wherever you end up, water instead of sugary drinks, and snacks in your bag so you never order while starving."
	resp.ActionItems = []string{"Pack portable snacks before leaving", "Default to grilled protein plus vegetables", "Front-load water before the trip"}
}
