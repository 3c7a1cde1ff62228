// Package catalog loads the static rule-card and intervention-template
// catalogs from embedded YAML and validates them at startup.
package catalog

import (
	_ "embed"
	"fmt"
	"time"

	"github.com/kinetichq/kinetic/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed cards.yaml
var cardsYAML []byte

//go:embed templates.yaml
var templatesYAML []byte

// Catalog holds the loaded, validated static data. Immutable after Load.
type Catalog struct {
	Cards     []domain.RuleCard
	Templates []domain.InterventionTemplate
}

// Load parses and validates the embedded catalogs. Any validation failure
// is a data-authoring bug and aborts startup.
func Load() (*Catalog, error) {
	cards, err := loadCards(cardsYAML)
	if err != nil {
		return nil, fmt.Errorf("load rule cards: %w", err)
	}
	templates, err := loadTemplates(templatesYAML)
	if err != nil {
		return nil, fmt.Errorf("load intervention templates: %w", err)
	}
	return &Catalog{Cards: cards, Templates: templates}, nil
}

func loadCards(data []byte) ([]domain.RuleCard, error) {
	var cards []domain.RuleCard
	if err := yaml.Unmarshal(data, &cards); err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		return nil, fmt.Errorf("card catalog is empty")
	}

	seen := make(map[string]bool, len(cards))
	for i := range cards {
		c := &cards[i]
		if c.ID == "" {
			return nil, fmt.Errorf("card %d: missing id", i)
		}
		if seen[c.ID] {
			return nil, fmt.Errorf("card %s: duplicate id", c.ID)
		}
		seen[c.ID] = true
		if len(c.TriggerKeywords) == 0 {
			return nil, fmt.Errorf("card %s: no trigger keywords", c.ID)
		}
		if c.Priority <= 0 {
			return nil, fmt.Errorf("card %s: priority must be positive", c.ID)
		}
		for _, tier := range []domain.ConfidenceTier{domain.TierHigh, domain.TierMedium, domain.TierLow} {
			if c.Templates[tier].Text == "" {
				return nil, fmt.Errorf("card %s: missing %s template", c.ID, tier)
			}
		}
		if err := c.ValidateTierNesting(); err != nil {
			return nil, err
		}
		if _, ok := familyBonuses[c.Family]; !ok {
			return nil, fmt.Errorf("card %s: unknown family %q", c.ID, c.Family)
		}
	}
	return cards, nil
}

// yamlTemplate is the on-disk shape; cooldown is a Go duration string.
type yamlTemplate struct {
	ID                string                                      `yaml:"id"`
	Type              string                                      `yaml:"type"`
	ContextScorer     string                                      `yaml:"context_scorer"`
	UserStateScorer   string                                      `yaml:"user_state_scorer"`
	Cooldown          string                                      `yaml:"cooldown"`
	MaxDailyUses      int                                         `yaml:"max_daily_uses"`
	Messages          map[domain.PersonaType][]string             `yaml:"messages"`
	Actions           map[domain.PersonaType]domain.ActionVariant `yaml:"actions"`
	SuccessConditions []string                                    `yaml:"success_conditions"`
}

func loadTemplates(data []byte) ([]domain.InterventionTemplate, error) {
	var raw []yamlTemplate
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("template catalog is empty")
	}

	templates := make([]domain.InterventionTemplate, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, t := range raw {
		if t.ID == "" {
			return nil, fmt.Errorf("template %d: missing id", i)
		}
		if seen[t.ID] {
			return nil, fmt.Errorf("template %s: duplicate id", t.ID)
		}
		seen[t.ID] = true

		cooldown, err := time.ParseDuration(t.Cooldown)
		if err != nil || cooldown <= 0 {
			return nil, fmt.Errorf("template %s: invalid cooldown %q", t.ID, t.Cooldown)
		}
		if t.MaxDailyUses <= 0 {
			return nil, fmt.Errorf("template %s: max_daily_uses must be positive", t.ID)
		}
		if len(t.Messages[domain.PersonaGeneral]) == 0 {
			return nil, fmt.Errorf("template %s: missing general message variants", t.ID)
		}
		if t.Actions[domain.PersonaGeneral].Full == "" {
			return nil, fmt.Errorf("template %s: missing general action variant", t.ID)
		}
		if _, ok := contextScorers[t.ContextScorer]; !ok {
			return nil, fmt.Errorf("template %s: unknown context scorer %q", t.ID, t.ContextScorer)
		}
		if _, ok := userStateScorers[t.UserStateScorer]; !ok {
			return nil, fmt.Errorf("template %s: unknown user-state scorer %q", t.ID, t.UserStateScorer)
		}

		templates = append(templates, domain.InterventionTemplate{
			ID:                t.ID,
			Type:              domain.InterventionType(t.Type),
			ContextScorer:     t.ContextScorer,
			UserStateScorer:   t.UserStateScorer,
			Cooldown:          cooldown,
			MaxDailyUses:      t.MaxDailyUses,
			Messages:          t.Messages,
			Actions:           t.Actions,
			SuccessConditions: t.SuccessConditions,
		})
	}
	return templates, nil
}

// CardByID returns the card or nil.
func (c *Catalog) CardByID(id string) *domain.RuleCard {
	for i := range c.Cards {
		if c.Cards[i].ID == id {
			return &c.Cards[i]
		}
	}
	return nil
}

// TemplateByID returns the template or nil.
func (c *Catalog) TemplateByID(id string) *domain.InterventionTemplate {
	for i := range c.Templates {
		if c.Templates[i].ID == id {
			return &c.Templates[i]
		}
	}
	return nil
}
