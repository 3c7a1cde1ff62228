package catalog

import (
	"testing"

	"github.com/kinetichq/kinetic/internal/domain"
)

func TestLoad(t *testing.T) {
	cat, err := Load()
	if err != nil {
		t.Fatalf("loading catalog: %v", err)
	}
	if len(cat.Cards) == 0 {
		t.Fatal("expected rule cards")
	}
	if len(cat.Templates) == 0 {
		t.Fatal("expected intervention templates")
	}
}

func TestLoad_CardsAreComplete(t *testing.T) {
	cat, err := Load()
	if err != nil {
		t.Fatalf("loading catalog: %v", err)
	}

	for _, card := range cat.Cards {
		for _, tier := range []domain.ConfidenceTier{domain.TierHigh, domain.TierMedium, domain.TierLow} {
			if card.Templates[tier].Text == "" {
				t.Fatalf("card %s: missing %s template", card.ID, tier)
			}
		}
		if err := card.ValidateTierNesting(); err != nil {
			t.Fatalf("card %s: %v", card.ID, err)
		}
		if FamilyBonus(card.Family) == nil {
			t.Fatalf("card %s: family %q has no bonus hook", card.ID, card.Family)
		}
	}
}

func TestLoad_TemplateScorersResolve(t *testing.T) {
	cat, err := Load()
	if err != nil {
		t.Fatalf("loading catalog: %v", err)
	}

	for _, tpl := range cat.Templates {
		if ContextScorer(tpl.ContextScorer) == nil {
			t.Fatalf("template %s: context scorer %q not registered", tpl.ID, tpl.ContextScorer)
		}
		if UserStateScorer(tpl.UserStateScorer) == nil {
			t.Fatalf("template %s: user-state scorer %q not registered", tpl.ID, tpl.UserStateScorer)
		}
		if tpl.Cooldown <= 0 {
			t.Fatalf("template %s: cooldown not parsed", tpl.ID)
		}
		if tpl.MaxDailyUses <= 0 {
			t.Fatalf("template %s: missing daily cap", tpl.ID)
		}
	}
}

func TestCardByID(t *testing.T) {
	cat, err := Load()
	if err != nil {
		t.Fatalf("loading catalog: %v", err)
	}

	card := cat.CardByID("pre_workout_nutrition")
	if card == nil {
		t.Fatal("expected pre_workout_nutrition card")
	}
	if card.Family != "nutrition_timing" {
		t.Fatalf("unexpected family %q", card.Family)
	}
	if cat.CardByID("nope") != nil {
		t.Fatal("unknown id should return nil")
	}
}

func TestTemplateByID(t *testing.T) {
	cat, err := Load()
	if err != nil {
		t.Fatalf("loading catalog: %v", err)
	}

	tpl := cat.TemplateByID("wind_down_reminder")
	if tpl == nil {
		t.Fatal("expected wind_down_reminder template")
	}
	if tpl.Type != domain.InterventionSleepHygiene {
		t.Fatalf("unexpected type %q", tpl.Type)
	}
	if cat.TemplateByID("nope") != nil {
		t.Fatal("unknown id should return nil")
	}
}

func TestLoadCards_RejectsBadData(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"empty", ""},
		{"missing id", "- family: sleep\n  priority: 5\n  trigger_keywords: [a]\n"},
		{"unknown family", "- id: x\n  family: nope\n  priority: 5\n  trigger_keywords: [a]\n  templates:\n    high: {text: a}\n    medium: {text: a}\n    low: {text: a}\n"},
	}
	for _, tc := range cases {
		if _, err := loadCards([]byte(tc.yaml)); err == nil {
			t.Fatalf("%s: expected an error", tc.name)
		}
	}
}

func TestLoadTemplates_RejectsBadData(t *testing.T) {
	bad := `
- id: broken
  type: habit_nudge
  context_scorer: morning_window
  user_state_scorer: habit_forming
  cooldown: not-a-duration
  max_daily_uses: 1
  messages:
    general: ["hi"]
  actions:
    general: {full: "do it"}
`
	if _, err := loadTemplates([]byte(bad)); err == nil {
		t.Fatal("expected an error for an invalid cooldown")
	}
}
