package service

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kinetichq/kinetic/internal/domain"
)

func newOrchestrator(t *testing.T) *CoachingDecisionOrchestrator {
	t.Helper()
	return NewCoachingDecisionOrchestrator(newRulesEngine(t), NewSafetyMonitor(testLogger()), testLogger())
}

func TestClassifyScenario(t *testing.T) {
	o := newOrchestrator(t)

	cases := []struct {
		input string
		want  domain.Scenario
	}{
		{"just landed, airport food everywhere", domain.ScenarioTravelNutrition},
		{"my weight has been stuck for three weeks", domain.ScenarioWeightPlateau},
		{"barely slept and feel exhausted", domain.ScenarioSleepAffected},
		{"what should i eat before my run", domain.ScenarioPreActivityNutrition},
		{"how do i recover after my workout", domain.ScenarioPostWorkoutRecovery},
		{"hello", domain.ScenarioGeneral},
		// Travel outranks sleep when both could apply.
		{"so tired after my flight", domain.ScenarioTravelNutrition},
	}
	for _, tc := range cases {
		if got := o.ClassifyScenario(tc.input); got != tc.want {
			t.Fatalf("%q: got %s, want %s", tc.input, got, tc.want)
		}
	}
}

func TestCalculateConfidence(t *testing.T) {
	o := newOrchestrator(t)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	meal := mealLog(now.Add(-2 * time.Hour))
	tenLogs := make([]domain.ActivityLog, 10)
	for i := range tenLogs {
		tenLogs[i] = moodLog(now.Add(-time.Duration(i+1)*time.Hour), 6)
	}

	rich := &domain.UserContext{
		Profile:    domain.UserProfile{UserID: uuid.New()},
		RecentLogs: tenLogs,
		LastMeal:   &meal,
		Now:        now,
	}
	if got := o.CalculateConfidence(rich, domain.ScenarioPreActivityNutrition); got != domain.ScenarioConfidenceHigh {
		t.Fatalf("meal plus full history should be high, got %s", got)
	}

	sparse := &domain.UserContext{Profile: domain.UserProfile{UserID: uuid.New()}, Now: now}
	if got := o.CalculateConfidence(sparse, domain.ScenarioPreActivityNutrition); got != domain.ScenarioConfidenceLow {
		t.Fatalf("empty context should be low, got %s", got)
	}

	sleep := sleepLog(now.Add(-8*time.Hour), 6)
	sleepCtx := &domain.UserContext{
		Profile:    domain.UserProfile{UserID: uuid.New()},
		RecentLogs: tenLogs[:5],
		LastSleep:  &sleep,
		Now:        now,
	}
	if got := o.CalculateConfidence(sleepCtx, domain.ScenarioSleepAffected); got != domain.ScenarioConfidenceMedium {
		t.Fatalf("sleep data with a thin history should be medium, got %s", got)
	}

	weights := []domain.ActivityLog{
		{Category: domain.CategoryWeight, LoggedAt: now.Add(-24 * time.Hour)},
		{Category: domain.CategoryWeight, LoggedAt: now.Add(-48 * time.Hour)},
		{Category: domain.CategoryWeight, LoggedAt: now.Add(-72 * time.Hour)},
	}
	plateauCtx := &domain.UserContext{Profile: domain.UserProfile{UserID: uuid.New()}, RecentLogs: weights, Now: now}
	if got := o.CalculateConfidence(plateauCtx, domain.ScenarioWeightPlateau); got != domain.ScenarioConfidenceMedium {
		t.Fatalf("three weigh-ins should put a plateau at medium, got %s", got)
	}
}

func TestGenerateResponse_TennisMatchNoMeal(t *testing.T) {
	o := newOrchestrator(t)
	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	uc := emptyContext(now)

	resp := o.GenerateResponse("I have a tennis match in 3 hours, what should I eat?", uc)

	if resp.Scenario != domain.ScenarioPreActivityNutrition {
		t.Fatalf("expected pre-activity scenario, got %s", resp.Scenario)
	}
	if resp.ScenarioConfidence != domain.ScenarioConfidenceLow {
		t.Fatalf("expected low scenario confidence, got %s", resp.ScenarioConfidence)
	}
	if resp.Confidence != domain.TierLow {
		t.Fatalf("expected low tier, got %s", resp.Confidence)
	}
	if resp.RuleCardID != "pre_workout_nutrition" {
		t.Fatalf("expected the pre-workout card, got %q", resp.RuleCardID)
	}
	if resp.ClarifyingQuestion != "Have you eaten a full meal in the last 3 hours?" {
		t.Fatalf("expected the meal question, got %q", resp.ClarifyingQuestion)
	}
	if !resp.FollowUpSuggested {
		t.Fatal("low confidence should suggest a follow-up")
	}
	if resp.Message == "" {
		t.Fatal("expected a message")
	}
}

func TestGenerateResponse_CriticalSymptomBlocks(t *testing.T) {
	o := newOrchestrator(t)
	uc := emptyContext(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))

	resp := o.GenerateResponse("I get chest pain when I push hard, should I still train?", uc)

	if !strings.Contains(resp.Message, "medical attention") {
		t.Fatalf("expected a medical referral, got %q", resp.Message)
	}
	if resp.Confidence != domain.TierHigh {
		t.Fatalf("blocking responses carry high confidence, got %s", resp.Confidence)
	}
	if len(resp.SafetyWarnings) == 0 {
		t.Fatal("expected safety warnings")
	}
	if resp.RuleCardID != "" {
		t.Fatalf("blocked responses should not carry a rule card, got %q", resp.RuleCardID)
	}
}

// redOvertrainingLogs builds a week that trips the red threshold: short
// nights, low mood, constant soreness, and six hard sessions.
func redOvertrainingLogs(now time.Time) []domain.ActivityLog {
	var logs []domain.ActivityLog
	for i := 0; i < 3; i++ {
		logs = append(logs, sleepLog(now.Add(-time.Duration(i+1)*24*time.Hour), 5))
		logs = append(logs, moodLog(now.Add(-time.Duration(i+1)*24*time.Hour), 3))
	}
	for i := 0; i < 6; i++ {
		l := exerciseLog(now.Add(-time.Duration(i+1)*20*time.Hour), 8)
		l.RawText = "intervals again, legs still sore"
		logs = append(logs, l)
	}
	return logs
}

func TestGenerateResponse_RedOvertrainingBlocks(t *testing.T) {
	o := newOrchestrator(t)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	uc := emptyContext(now)
	uc.RecentLogs = redOvertrainingLogs(now)

	resp := o.GenerateResponse("thinking about tomorrow's plan", uc)

	if !strings.Contains(resp.Message, "rest days") {
		t.Fatalf("expected rest-day advice, got %q", resp.Message)
	}
	if len(resp.SafetyWarnings) == 0 {
		t.Fatal("expected the overtraining warning")
	}
	if resp.RuleCardID != "" {
		t.Fatalf("blocked responses should not carry a rule card, got %q", resp.RuleCardID)
	}
}

func TestGenerateResponse_YellowWarningPassesThrough(t *testing.T) {
	o := newOrchestrator(t)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	uc := emptyContext(now)
	// Short nights plus soreness: enough for yellow, not red.
	for i := 0; i < 3; i++ {
		uc.RecentLogs = append(uc.RecentLogs, sleepLog(now.Add(-time.Duration(i+1)*24*time.Hour), 5))
	}
	for i := 0; i < 5; i++ {
		l := exerciseLog(now.Add(-time.Duration(i+1)*24*time.Hour), 5)
		l.RawText = "easy spin, legs a bit sore"
		uc.RecentLogs = append(uc.RecentLogs, l)
	}

	resp := o.GenerateResponse("what should I eat before my run in 3 hours?", uc)

	if resp.Message == "" {
		t.Fatal("yellow status should not block the response")
	}
	found := false
	for _, w := range resp.SafetyWarnings {
		if strings.Contains(w, "70%") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected the reduce-intensity warning, got %v", resp.SafetyWarnings)
	}
}

func TestHandleScenario_SleepFallback(t *testing.T) {
	o := newOrchestrator(t)
	uc := emptyContext(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))

	// No sleep data and a thin history: the generic sleep guidance plus a
	// clarifying question.
	resp := o.GenerateResponse("I'm so tired today", uc)

	if resp.Scenario != domain.ScenarioSleepAffected {
		t.Fatalf("expected the sleep scenario, got %s", resp.Scenario)
	}
	if resp.RuleCardID != "" {
		t.Fatalf("a single weak keyword should not match a card, got %q", resp.RuleCardID)
	}
	if resp.ClarifyingQuestion != "Roughly how many hours did you sleep last night?" {
		t.Fatalf("expected the sleep question, got %q", resp.ClarifyingQuestion)
	}
}

func TestHandlePreActivity_MealTiming(t *testing.T) {
	o := newOrchestrator(t)
	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		mealAgo  time.Duration
		fragment string
	}{
		{"just ate", 30 * time.Minute, "sips of water"},
		{"fueled", 2 * time.Hour, "still doing its job"},
		{"long gap", 5 * time.Hour, "carb-plus-protein snack"},
	}
	for _, tc := range cases {
		uc := emptyContext(now)
		meal := mealLog(now.Add(-tc.mealAgo))
		uc.LastMeal = &meal

		resp := o.handleScenario(domain.ScenarioPreActivityNutrition, domain.ScenarioConfidenceHigh, uc)
		if !strings.Contains(resp.Message, tc.fragment) {
			t.Fatalf("%s: expected %q in %q", tc.name, tc.fragment, resp.Message)
		}
		if len(resp.ActionItems) == 0 {
			t.Fatalf("%s: expected action items", tc.name)
		}
	}

	// No meal data falls back to the safe default and asks.
	uc := emptyContext(now)
	resp := o.handleScenario(domain.ScenarioPreActivityNutrition, domain.ScenarioConfidenceLow, uc)
	if resp.ClarifyingQuestion == "" {
		t.Fatal("expected a clarifying question without meal data")
	}
}

func TestHandleScenario_PostWorkoutHardSession(t *testing.T) {
	o := newOrchestrator(t)
	now := time.Date(2026, 3, 10, 19, 0, 0, 0, time.UTC)

	uc := emptyContext(now)
	workout := exerciseLog(now.Add(-time.Hour), 9)
	uc.LastWorkout = &workout

	resp := o.handleScenario(domain.ScenarioPostWorkoutRecovery, domain.ScenarioConfidenceMedium, uc)
	if !strings.Contains(resp.Message, "hard session") {
		t.Fatalf("expected hard-session recovery advice, got %q", resp.Message)
	}
	found := false
	for _, item := range resp.ActionItems {
		if strings.Contains(item, "easy or rest day") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an easy-day action item, got %v", resp.ActionItems)
	}
}
