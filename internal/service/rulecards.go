package service

import (
	"strings"

	"github.com/kinetichq/kinetic/internal/catalog"
	"github.com/kinetichq/kinetic/internal/domain"
	"go.uber.org/zap"
)

// Card-matching constants.
const (
	KeywordHitPoints  = 10.0
	FamilyBonusPoints = 15.0
	// Scores at or below this mean "no match".
	MinMatchScore = 10.0
)

// RuleCardsEngine scores the static card catalog against input and
// context, derives a tier confidence, and renders templated responses.
type RuleCardsEngine struct {
	catalog *catalog.Catalog
	safety  *SafetyMonitor
	logger  *zap.Logger
}

func NewRuleCardsEngine(cat *catalog.Catalog, safety *SafetyMonitor, logger *zap.Logger) *RuleCardsEngine {
	return &RuleCardsEngine{catalog: cat, safety: safety, logger: logger}
}

// FindBestMatch scores every card and returns the best one with its tier,
// or nil when nothing clears the minimum score. Catalog order breaks ties,
// so identical input always yields the same card.
func (e *RuleCardsEngine) FindBestMatch(input string, ctx *domain.UserContext) *domain.RuleCardMatch {
	lower := strings.ToLower(input)

	var best *domain.RuleCardMatch
	for i := range e.catalog.Cards {
		card := &e.catalog.Cards[i]
		score := e.scoreCard(card, lower, ctx)
		if score <= MinMatchScore {
			continue
		}
		if best == nil || score > best.Score {
			tier, missing := e.DetermineConfidence(card, ctx)
			best = &domain.RuleCardMatch{
				Card:          card,
				Score:         score,
				Tier:          tier,
				MissingFields: missing,
			}
		}
	}

	if best != nil {
		e.logger.Debug("rule card matched",
			zap.String("card", best.Card.ID),
			zap.Float64("score", best.Score),
			zap.String("tier", string(best.Tier)))
	}
	return best
}

func (e *RuleCardsEngine) scoreCard(card *domain.RuleCard, lowerInput string, ctx *domain.UserContext) float64 {
	hits := 0
	for _, kw := range card.TriggerKeywords {
		if strings.Contains(lowerInput, strings.ToLower(kw)) {
			hits++
		}
	}

	score := float64(hits) * KeywordHitPoints
	if bonus := catalog.FamilyBonus(card.Family); bonus != nil && bonus(lowerInput, ctx) {
		score += FamilyBonusPoints
	}
	return score * (card.Priority / 10.0)
}

// DetermineConfidence returns the highest tier whose required-field set is
// fully available in the snapshot, along with the fields missing from the
// next tier up (empty for high).
func (e *RuleCardsEngine) DetermineConfidence(card *domain.RuleCard, ctx *domain.UserContext) (domain.ConfidenceTier, []string) {
	available := ctx.AvailableFields()

	if missing := missingFields(card.Requirements[domain.TierHigh], available); len(missing) == 0 {
		return domain.TierHigh, nil
	}
	if missing := missingFields(card.Requirements[domain.TierMedium], available); len(missing) == 0 {
		return domain.TierMedium, missingFields(card.Requirements[domain.TierHigh], available)
	}
	if missing := missingFields(card.Requirements[domain.TierLow], available); len(missing) == 0 {
		return domain.TierLow, missingFields(card.Requirements[domain.TierMedium], available)
	}
	return domain.TierLow, missingFields(card.Requirements[domain.TierMedium], available)
}

func missingFields(required []string, available map[string]bool) []string {
	var missing []string
	for _, f := range required {
		if !available[f] {
			missing = append(missing, f)
		}
	}
	return missing
}

// SelectClarifyingQuestion picks the highest-importance question whose
// applicability conditions intersect the missing-field set. Only called
// when confidence is below high.
func (e *RuleCardsEngine) SelectClarifyingQuestion(card *domain.RuleCard, missing []string) string {
	missingSet := make(map[string]bool, len(missing))
	for _, f := range missing {
		missingSet[f] = true
	}

	var best *domain.ClarifyingQuestion
	for i := range card.Questions {
		q := &card.Questions[i]
		applies := false
		for _, f := range q.AppliesWhenMissing {
			if missingSet[f] {
				applies = true
				break
			}
		}
		if !applies {
			continue
		}
		if best == nil || q.Importance > best.Importance {
			best = q
		}
	}
	if best == nil {
		return ""
	}
	return best.Text
}

// GenerateResponse renders the matched card's tier template and appends
// any triggered safety warnings for that card's declared checks.
func (e *RuleCardsEngine) GenerateResponse(input string, match *domain.RuleCardMatch, ctx *domain.UserContext) *domain.CoachingResponse {
	vars := templateVars(ctx)
	message := renderTemplate(match.Card.Templates[match.Tier], vars)

	resp := &domain.CoachingResponse{
		Message:    message,
		Confidence: match.Tier,
		RuleCardID: match.Card.ID,
	}

	if match.Tier != domain.TierHigh {
		resp.ClarifyingQuestion = e.SelectClarifyingQuestion(match.Card, match.MissingFields)
		resp.FollowUpSuggested = true
	}

	resp.SafetyWarnings = e.cardSafetyWarnings(input, match.Card, ctx)
	return resp
}

func (e *RuleCardsEngine) cardSafetyWarnings(input string, card *domain.RuleCard, ctx *domain.UserContext) []string {
	var warnings []string
	for _, check := range card.SafetyChecks {
		var result domain.SafetyCheckResult
		switch check {
		case domain.CheckRedFlag:
			result = e.safety.CheckMedicalRedFlags(input)
		case domain.CheckInjury:
			result = e.safety.DetectInjury(input)
		case domain.CheckChronicCondition:
			result = e.safety.CheckChronicConditions(input, &ctx.Profile)
		case domain.CheckMedication:
			result = e.safety.CheckMedicationInteractions(input, &ctx.Profile)
		case domain.CheckOvertraining:
			score := e.safety.CalculateOvertrainingScore(ctx.RecentLogs, &ctx.Profile, ctx.Now)
			if score.Status != domain.OvertrainingGreen {
				warnings = append(warnings, score.Recommendation)
			}
			continue
		}
		if !result.Passed {
			warnings = append(warnings, result.Recommendation)
		}
	}
	return warnings
}
