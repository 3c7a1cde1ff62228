package service

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kinetichq/kinetic/internal/catalog"
	"github.com/kinetichq/kinetic/internal/domain"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Load()
	if err != nil {
		t.Fatalf("loading catalog: %v", err)
	}
	return cat
}

func newRulesEngine(t *testing.T) *RuleCardsEngine {
	t.Helper()
	return NewRuleCardsEngine(testCatalog(t), NewSafetyMonitor(testLogger()), testLogger())
}

func emptyContext(now time.Time) *domain.UserContext {
	return &domain.UserContext{
		Profile: domain.UserProfile{UserID: uuid.New(), Persona: domain.PersonaGeneral},
		Now:     now,
	}
}

func fullContext(now time.Time) *domain.UserContext {
	meal := domain.ActivityLog{
		Category: domain.CategoryNutrition,
		Fields:   map[string]any{domain.FieldMealType: "lunch"},
		LoggedAt: now.Add(-4 * time.Hour),
	}
	workout := exerciseLog(now.Add(-20*time.Hour), 8)
	sleep := sleepLog(now.Add(-10*time.Hour), 7.5)

	logs := []domain.ActivityLog{sleep, workout, meal}
	for i := 0; i < 5; i++ {
		logs = append(logs, moodLog(now.Add(-time.Duration(i+1)*24*time.Hour), 7))
	}

	return &domain.UserContext{
		Profile: domain.UserProfile{
			UserID:  uuid.New(),
			Persona: domain.PersonaEndurance,
			Goals:   []string{"sub-2h half marathon"},
		},
		RecentLogs:  logs,
		LastMeal:    &meal,
		LastWorkout: &workout,
		LastSleep:   &sleep,
		Now:         now,
	}
}

func TestFindBestMatch_Deterministic(t *testing.T) {
	engine := newRulesEngine(t)
	ctx := emptyContext(time.Now())
	input := "what should I eat before my run in 3 hours?"

	first := engine.FindBestMatch(input, ctx)
	if first == nil {
		t.Fatal("expected a match")
	}
	if first.Card.ID != "pre_workout_nutrition" {
		t.Fatalf("expected pre_workout_nutrition, got %s", first.Card.ID)
	}

	for i := 0; i < 10; i++ {
		again := engine.FindBestMatch(input, ctx)
		if again == nil || again.Card.ID != first.Card.ID || again.Score != first.Score {
			t.Fatalf("match not deterministic on iteration %d", i)
		}
	}
}

func TestFindBestMatch_NoMatch(t *testing.T) {
	engine := newRulesEngine(t)

	if match := engine.FindBestMatch("hello there", emptyContext(time.Now())); match != nil {
		t.Fatalf("expected no match, got %s", match.Card.ID)
	}
}

func TestDetermineConfidence_Tiers(t *testing.T) {
	engine := newRulesEngine(t)
	now := time.Now()
	card := engine.catalog.CardByID("pre_workout_nutrition")
	if card == nil {
		t.Fatal("card missing from catalog")
	}

	tier, missing := engine.DetermineConfidence(card, emptyContext(now))
	if tier != domain.TierLow {
		t.Fatalf("expected low tier with empty context, got %s", tier)
	}
	if len(missing) == 0 {
		t.Fatal("expected missing fields for the next tier up")
	}

	partial := emptyContext(now)
	meal := domain.ActivityLog{Category: domain.CategoryNutrition, LoggedAt: now.Add(-2 * time.Hour)}
	partial.LastMeal = &meal
	partial.Profile.Persona = domain.PersonaStrength

	tier, missing = engine.DetermineConfidence(card, partial)
	if tier != domain.TierMedium {
		t.Fatalf("expected medium tier, got %s", tier)
	}
	if len(missing) == 0 {
		t.Fatal("expected fields missing from high tier")
	}

	tier, missing = engine.DetermineConfidence(card, fullContext(now))
	if tier != domain.TierHigh {
		t.Fatalf("expected high tier with full context, got %s", tier)
	}
	if missing != nil {
		t.Fatalf("expected no missing fields at high tier, got %v", missing)
	}
}

func TestSelectClarifyingQuestion(t *testing.T) {
	engine := newRulesEngine(t)
	card := engine.catalog.CardByID("pre_workout_nutrition")

	q := engine.SelectClarifyingQuestion(card, []string{"last_meal", "persona_type"})
	if q != "Have you eaten a full meal in the last 3 hours?" {
		t.Fatalf("expected the highest-importance applicable question, got %q", q)
	}

	if q := engine.SelectClarifyingQuestion(card, []string{"recent_logs"}); q != "" {
		t.Fatalf("expected no applicable question, got %q", q)
	}
}

func TestGenerateResponse_LowTier(t *testing.T) {
	engine := newRulesEngine(t)
	ctx := emptyContext(time.Now())

	match := engine.FindBestMatch("what should I eat before training?", ctx)
	if match == nil {
		t.Fatal("expected a match")
	}

	resp := engine.GenerateResponse("what should I eat before training?", match, ctx)

	if resp.Confidence != domain.TierLow {
		t.Fatalf("expected low confidence, got %s", resp.Confidence)
	}
	if resp.RuleCardID != "pre_workout_nutrition" {
		t.Fatalf("unexpected rule card %s", resp.RuleCardID)
	}
	if resp.ClarifyingQuestion == "" {
		t.Fatal("expected a clarifying question below high confidence")
	}
	if !resp.FollowUpSuggested {
		t.Fatal("expected follow-up suggestion below high confidence")
	}
	if strings.Contains(resp.Message, "{") {
		t.Fatalf("unresolved placeholder in message: %q", resp.Message)
	}
}

func TestGenerateResponse_HighTierRendersContext(t *testing.T) {
	engine := newRulesEngine(t)
	ctx := fullContext(time.Now())

	match := engine.FindBestMatch("what should I eat before my run?", ctx)
	if match == nil {
		t.Fatal("expected a match")
	}
	if match.Tier != domain.TierHigh {
		t.Fatalf("expected high tier, got %s", match.Tier)
	}

	resp := engine.GenerateResponse("what should I eat before my run?", match, ctx)

	if resp.ClarifyingQuestion != "" {
		t.Fatalf("high confidence should not ask questions, got %q", resp.ClarifyingQuestion)
	}
	if !strings.Contains(resp.Message, "4 hours ago") {
		t.Fatalf("expected rendered meal timing in message: %q", resp.Message)
	}
	if !strings.Contains(resp.Message, "endurance") {
		t.Fatalf("expected persona in message: %q", resp.Message)
	}
}

func TestGenerateResponse_SafetyWarnings(t *testing.T) {
	engine := newRulesEngine(t)
	ctx := emptyContext(time.Now())
	ctx.Profile.HealthConditions = []string{"diabetes"}

	input := "should I eat or do a fasted session?"
	match := engine.FindBestMatch(input, ctx)
	if match == nil {
		t.Fatal("expected a match")
	}

	resp := engine.GenerateResponse(input, match, ctx)
	if len(resp.SafetyWarnings) == 0 {
		t.Fatal("expected a chronic-condition safety warning")
	}
}
