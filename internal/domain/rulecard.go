package domain

import "fmt"

type ConfidenceTier string

const (
	TierHigh   ConfidenceTier = "high"
	TierMedium ConfidenceTier = "medium"
	TierLow    ConfidenceTier = "low"
)

func ValidConfidenceTier(t string) bool {
	switch ConfidenceTier(t) {
	case TierHigh, TierMedium, TierLow:
		return true
	}
	return false
}

// PredicateOp compares a numeric context value against a constant.
type PredicateOp string

const (
	OpLT PredicateOp = "lt"
	OpLE PredicateOp = "le"
	OpGT PredicateOp = "gt"
	OpGE PredicateOp = "ge"
	OpEQ PredicateOp = "eq"
)

// Eval applies the operator; unknown operators evaluate false.
func (op PredicateOp) Eval(left, right float64) bool {
	switch op {
	case OpLT:
		return left < right
	case OpLE:
		return left <= right
	case OpGT:
		return left > right
	case OpGE:
		return left >= right
	case OpEQ:
		return left == right
	}
	return false
}

// ConditionalFragment is a typed predicate→text fragment. The template's
// Text refers to it by {token}; Field names a numeric template variable.
type ConditionalFragment struct {
	Token string      `yaml:"token" json:"token"`
	Field string      `yaml:"field" json:"field"`
	Op    PredicateOp `yaml:"op" json:"op"`
	Value float64     `yaml:"value" json:"value"`
	Then  string      `yaml:"then" json:"then"`
	Else  string      `yaml:"else,omitempty" json:"else,omitempty"`
}

// ResponseTemplate is one confidence tier's response. Text contains
// {placeholder} tokens substituted from context variables and fragment
// tokens resolved by the typed predicates.
type ResponseTemplate struct {
	Text      string                `yaml:"text" json:"text"`
	Fragments []ConditionalFragment `yaml:"fragments,omitempty" json:"fragments,omitempty"`
}

type ClarifyingQuestion struct {
	Text string `yaml:"text" json:"text"`
	// Importance orders candidate questions; highest applicable wins.
	Importance float64 `yaml:"importance" json:"importance"`
	// AppliesWhenMissing lists context fields whose absence makes this
	// question worth asking.
	AppliesWhenMissing []string `yaml:"applies_when_missing" json:"applies_when_missing"`
}

// RuleCard is a static scenario playbook loaded once at startup.
type RuleCard struct {
	ID              string                              `yaml:"id" json:"id"`
	Family          string                              `yaml:"family" json:"family"`
	TriggerKeywords []string                            `yaml:"trigger_keywords" json:"trigger_keywords"`
	Requirements    map[ConfidenceTier][]string         `yaml:"requirements" json:"requirements"`
	Templates       map[ConfidenceTier]ResponseTemplate `yaml:"templates" json:"templates"`
	Questions       []ClarifyingQuestion                `yaml:"questions,omitempty" json:"questions,omitempty"`
	SafetyChecks    []SafetyCheckType                   `yaml:"safety_checks,omitempty" json:"safety_checks,omitempty"`
	Priority        float64                             `yaml:"priority" json:"priority"`
}

// ValidateTierNesting enforces the catalog invariant: the high-tier
// required-field set contains the medium set, which contains the low set.
// A violation is a data-authoring bug caught at load time.
func (c *RuleCard) ValidateTierNesting() error {
	if !containsAll(c.Requirements[TierHigh], c.Requirements[TierMedium]) {
		return fmt.Errorf("card %s: high-tier requirements must contain medium-tier requirements", c.ID)
	}
	if !containsAll(c.Requirements[TierMedium], c.Requirements[TierLow]) {
		return fmt.Errorf("card %s: medium-tier requirements must contain low-tier requirements", c.ID)
	}
	return nil
}

func containsAll(super, sub []string) bool {
	set := make(map[string]bool, len(super))
	for _, s := range super {
		set[s] = true
	}
	for _, s := range sub {
		if !set[s] {
			return false
		}
	}
	return true
}

// RuleCardMatch is the scored result of matching input against the catalog.
type RuleCardMatch struct {
	Card          *RuleCard      `json:"card"`
	Score         float64        `json:"score"`
	Tier          ConfidenceTier `json:"tier"`
	MissingFields []string       `json:"missing_fields,omitempty"`
}
