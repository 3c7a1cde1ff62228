package service

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kinetichq/kinetic/internal/domain"
	"github.com/kinetichq/kinetic/internal/store"
)

func newInterventionEngine(t *testing.T) (*AdaptiveInterventionEngine, *store.MemoryUsageStore) {
	t.Helper()
	usage := store.NewMemoryUsageStore()
	return NewAdaptiveInterventionEngine(testCatalog(t), usage, testLogger()), usage
}

// eveningRecoveryContext favors the wind-down template: it is 21:00, the
// user slept badly, and nothing else is in play.
func eveningRecoveryContext() *domain.UserContext {
	now := time.Date(2026, 3, 10, 21, 0, 0, 0, time.UTC)
	return &domain.UserContext{
		Profile: domain.UserProfile{
			UserID:            uuid.New(),
			Persona:           domain.PersonaEndurance,
			MotivationalStyle: domain.StyleDataDriven,
			HabitLevel:        domain.HabitEstablished,
			MotivationLevel:   0.7,
		},
		RecentLogs: []domain.ActivityLog{sleepLog(now.Add(-10*time.Hour), 5.5)},
		Now:        now,
	}
}

func TestSelectOptimalIntervention_PicksBest(t *testing.T) {
	engine, _ := newInterventionEngine(t)
	uc := eveningRecoveryContext()

	iv, err := engine.SelectOptimalIntervention(context.Background(), uc)
	if err != nil {
		t.Fatalf("selecting intervention: %v", err)
	}
	if iv == nil {
		t.Fatal("expected an intervention")
	}
	if iv.TemplateID != "wind_down_reminder" {
		t.Fatalf("expected wind_down_reminder, got %s", iv.TemplateID)
	}
	if iv.Score <= SelectionThreshold {
		t.Fatalf("selected score should clear the threshold, got %f", iv.Score)
	}
	// Data-driven endurance users get the quantitative endurance variant.
	if iv.Message != "Tomorrow's aerobic quality tracks tonight's sleep almost 1:1 in your logs. Lights out matters." {
		t.Fatalf("unexpected message variant: %q", iv.Message)
	}
	// At 21:00 the short action applies.
	if iv.Action != "Dim the lights now." {
		t.Fatalf("expected the short action after 20:00, got %q", iv.Action)
	}
}

func TestSelectOptimalIntervention_SecondRequestDenied(t *testing.T) {
	engine, _ := newInterventionEngine(t)
	uc := eveningRecoveryContext()

	first, err := engine.SelectOptimalIntervention(context.Background(), uc)
	if err != nil || first == nil {
		t.Fatalf("expected a first intervention, got %+v, %v", first, err)
	}

	second, err := engine.SelectOptimalIntervention(context.Background(), uc)
	if err != nil {
		t.Fatalf("second selection: %v", err)
	}
	if second != nil {
		t.Fatalf("cooldown should suppress an immediate repeat, got %+v", second)
	}
}

func TestSelectOptimalIntervention_ReselectsAfterCooldown(t *testing.T) {
	engine, _ := newInterventionEngine(t)
	uc := eveningRecoveryContext()

	first, err := engine.SelectOptimalIntervention(context.Background(), uc)
	if err != nil || first == nil {
		t.Fatalf("expected a first intervention, got %+v, %v", first, err)
	}

	// Same picture the next evening, with no outcome ever recorded: the
	// default effectiveness multiplier must still apply, so the template
	// qualifies again once the cooldown has elapsed and the daily cap reset.
	next := *uc
	next.Now = uc.Now.Add(24 * time.Hour)
	next.RecentLogs = []domain.ActivityLog{sleepLog(next.Now.Add(-10*time.Hour), 5.5)}

	second, err := engine.SelectOptimalIntervention(context.Background(), &next)
	if err != nil {
		t.Fatalf("second selection: %v", err)
	}
	if second == nil {
		t.Fatal("expected reselection after the cooldown with no outcome history")
	}
	if second.TemplateID != first.TemplateID {
		t.Fatalf("expected %s again, got %s", first.TemplateID, second.TemplateID)
	}
}

func TestSelectOptimalIntervention_NothingQualifies(t *testing.T) {
	engine, _ := newInterventionEngine(t)
	uc := &domain.UserContext{
		Profile: domain.UserProfile{
			UserID:          uuid.New(),
			Persona:         domain.PersonaGeneral,
			HabitLevel:      domain.HabitEstablished,
			MotivationLevel: 0.9,
		},
		Now: time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC),
	}

	iv, err := engine.SelectOptimalIntervention(context.Background(), uc)
	if err != nil {
		t.Fatalf("selecting intervention: %v", err)
	}
	if iv != nil {
		t.Fatalf("expected no intervention at 03:00 with no signals, got %+v", iv)
	}
}

func TestRecordOutcome_EMAUpdates(t *testing.T) {
	engine, usage := newInterventionEngine(t)
	uc := eveningRecoveryContext()
	ctx := context.Background()

	iv, err := engine.SelectOptimalIntervention(ctx, uc)
	if err != nil || iv == nil {
		t.Fatalf("expected an intervention, got %+v, %v", iv, err)
	}

	// A perfect first outcome: the observed effectiveness replaces the
	// zero starting value rather than being averaged into it.
	err = engine.RecordOutcome(ctx, uc, iv.TemplateID, domain.InterventionOutcome{
		Engaged:              true,
		ActionTaken:          true,
		SuccessConditionsMet: 2,
		Feedback:             1,
	})
	if err != nil {
		t.Fatalf("recording outcome: %v", err)
	}

	u, err := usage.Get(ctx, uc.Profile.UserID, iv.TemplateID)
	if err != nil {
		t.Fatalf("reading usage: %v", err)
	}
	if math.Abs(u.Effectiveness-1.0) > 1e-9 {
		t.Fatalf("first-use effectiveness should equal the observed value, got %f", u.Effectiveness)
	}
	if math.Abs(u.SuccessRate-SuccessRateEMAWeight) > 1e-9 {
		t.Fatalf("expected success rate %f, got %f", SuccessRateEMAWeight, u.SuccessRate)
	}

	// Second use a day later, then a complete miss.
	later := *uc
	later.Now = uc.Now.Add(21 * time.Hour)
	claimed, err := usage.TryClaim(ctx, uc.Profile.UserID, iv.TemplateID, later.Now, 20*time.Hour, 1)
	if err != nil || !claimed {
		t.Fatalf("expected second claim to succeed, got %v, %v", claimed, err)
	}

	err = engine.RecordOutcome(ctx, &later, iv.TemplateID, domain.InterventionOutcome{Feedback: -1})
	if err != nil {
		t.Fatalf("recording second outcome: %v", err)
	}

	u, err = usage.Get(ctx, uc.Profile.UserID, iv.TemplateID)
	if err != nil {
		t.Fatalf("reading usage: %v", err)
	}
	wantEffectiveness := 1.0 * (1 - EffectivenessEMAWeight)
	if math.Abs(u.Effectiveness-wantEffectiveness) > 1e-9 {
		t.Fatalf("expected effectiveness %f after a miss, got %f", wantEffectiveness, u.Effectiveness)
	}
	wantRate := SuccessRateEMAWeight * (1 - SuccessRateEMAWeight)
	if math.Abs(u.SuccessRate-wantRate) > 1e-9 {
		t.Fatalf("expected success rate %f, got %f", wantRate, u.SuccessRate)
	}
}

func TestRecordOutcome_UnknownTemplate(t *testing.T) {
	engine, _ := newInterventionEngine(t)
	uc := eveningRecoveryContext()

	err := engine.RecordOutcome(context.Background(), uc, "no_such_template", domain.InterventionOutcome{})
	if err == nil {
		t.Fatal("expected an error for an unknown template")
	}
}

func TestPersonalizeMessage_Styles(t *testing.T) {
	engine, _ := newInterventionEngine(t)
	tpl := engine.catalog.TemplateByID("wind_down_reminder")
	if tpl == nil {
		t.Fatal("missing wind_down_reminder template")
	}

	cases := []struct {
		style domain.MotivationalStyle
		want  string
	}{
		{domain.StyleEmotional, "Long miles need deep rest. Be gentle with yourself tonight."},
		{domain.StyleCompetitive, "Recovery is a race too. Win it in bed by 10:30."},
		{domain.StyleDataDriven, "Tomorrow's aerobic quality tracks tonight's sleep almost 1:1 in your logs. Lights out matters."},
		{"", "Tomorrow's aerobic quality tracks tonight's sleep almost 1:1 in your logs. Lights out matters."},
	}
	for _, tc := range cases {
		profile := &domain.UserProfile{Persona: domain.PersonaEndurance, MotivationalStyle: tc.style}
		if got := engine.personalizeMessage(tpl, profile); got != tc.want {
			t.Fatalf("style %q: got %q, want %q", tc.style, got, tc.want)
		}
	}
}

func TestGetGraduatedIntervention_Tiers(t *testing.T) {
	engine, _ := newInterventionEngine(t)

	cases := []struct {
		habit domain.HabitLevel
		rate  float64
		tier  GraduationTier
	}{
		{domain.HabitEstablished, 0.5, TierTiny},
		{domain.HabitEstablished, 0.7, TierModerate},
		{domain.HabitEstablished, 0.9, TierAmbitious},
		{domain.HabitNew, 0.9, TierModerate},
	}
	for _, tc := range cases {
		gi := engine.GetGraduatedIntervention(domain.PersonaEndurance, tc.habit, tc.rate)
		if gi.Tier != tc.tier {
			t.Fatalf("habit %s rate %.1f: got tier %s, want %s", tc.habit, tc.rate, gi.Tier, tc.tier)
		}
		if len(gi.Suggestions) == 0 {
			t.Fatalf("tier %s has no suggestions", gi.Tier)
		}
		if gi.TimeCommitment == "" {
			t.Fatalf("tier %s has no time commitment", gi.Tier)
		}
	}
}
