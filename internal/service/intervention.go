package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"unicode"

	"github.com/kinetichq/kinetic/internal/catalog"
	"github.com/kinetichq/kinetic/internal/domain"
	"github.com/kinetichq/kinetic/internal/store"
	"go.uber.org/zap"
)

// Intervention-selection constants.
const (
	ContextScoreWeight   = 0.4
	UserStateScoreWeight = 0.6

	// Multiplier applied before a template has outcome history.
	DefaultEffectiveness = 0.8

	SelectionThreshold = 60.0

	// EMA weights for outcome tracking.
	SuccessRateEMAWeight   = 0.2
	EffectivenessEMAWeight = 0.3

	// Outcome-effectiveness blend.
	engagementWeight  = 0.25
	actionTakenWeight = 0.35
	successCondWeight = 0.25
	feedbackWeight    = 0.15

	// Full action variants are used inside this local-hour window.
	fullActionStartHour = 8
	fullActionEndHour   = 20
)

// Graduated-intervention ladder.
type GraduationTier string

const (
	TierTiny      GraduationTier = "tiny"
	TierModerate  GraduationTier = "moderate"
	TierAmbitious GraduationTier = "ambitious"
)

const (
	tinySuccessRateCeiling     = 0.6
	moderateSuccessRateCeiling = 0.8
)

// GraduatedIntervention is a habit-sized suggestion set matched to the
// user's current capacity.
type GraduatedIntervention struct {
	Tier           GraduationTier `json:"tier"`
	Suggestions    []string       `json:"suggestions"`
	TimeCommitment string         `json:"time_commitment"`
}

// AdaptiveInterventionEngine scores the nudge-template catalog against
// context and user state, enforcing per-template cooldowns and daily caps
// through the usage store's atomic claim.
type AdaptiveInterventionEngine struct {
	catalog *catalog.Catalog
	usage   domain.InterventionUsageStore
	logger  *zap.Logger
}

func NewAdaptiveInterventionEngine(cat *catalog.Catalog, usage domain.InterventionUsageStore, logger *zap.Logger) *AdaptiveInterventionEngine {
	return &AdaptiveInterventionEngine{catalog: cat, usage: usage, logger: logger}
}

// SelectOptimalIntervention scores every template, then claims the best
// candidate above threshold whose cooldown and daily cap allow it. The
// claim is a single conditional store update, so two concurrent requests
// cannot both pass the gate. Returns nil when nothing qualifies.
func (e *AdaptiveInterventionEngine) SelectOptimalIntervention(ctx context.Context, uc *domain.UserContext) (*domain.Intervention, error) {
	type candidate struct {
		template *domain.InterventionTemplate
		score    float64
	}

	var candidates []candidate
	for i := range e.catalog.Templates {
		tpl := &e.catalog.Templates[i]

		contextScore := catalog.ContextScorer(tpl.ContextScorer)(uc, uc.Now)
		userScore := catalog.UserStateScorer(tpl.UserStateScorer)(&uc.Profile, uc.RecentLogs, uc.Now)

		multiplier := DefaultEffectiveness
		usage, err := e.usage.Get(ctx, uc.Profile.UserID, tpl.ID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		// Effectiveness only carries signal once an outcome has been
		// recorded; a delivered-but-unreported template keeps the default.
		if usage != nil && usage.OutcomesRecorded > 0 {
			multiplier = usage.Effectiveness
		}

		score := (contextScore*ContextScoreWeight + userScore*UserStateScoreWeight) * multiplier
		e.logger.Debug("intervention scored",
			zap.String("template", tpl.ID),
			zap.Float64("context_score", contextScore),
			zap.Float64("user_score", userScore),
			zap.Float64("score", score))

		if score > SelectionThreshold {
			candidates = append(candidates, candidate{template: tpl, score: score})
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })

	for _, c := range candidates {
		claimed, err := e.usage.TryClaim(ctx, uc.Profile.UserID, c.template.ID, uc.Now, c.template.Cooldown, c.template.MaxDailyUses)
		if err != nil {
			return nil, err
		}
		if !claimed {
			continue
		}
		return &domain.Intervention{
			TemplateID: c.template.ID,
			Type:       c.template.Type,
			Message:    e.personalizeMessage(c.template, &uc.Profile),
			Action:     personalizeAction(c.template, &uc.Profile, uc.Now.Hour()),
			Score:      c.score,
		}, nil
	}
	return nil, nil
}

// personalizeMessage picks the persona's variant list, then matches the
// user's motivational style against variant language: quantitative for
// data-driven, feeling words for emotional, achievement words for
// competitive. Falls back to the first variant.
func (e *AdaptiveInterventionEngine) personalizeMessage(tpl *domain.InterventionTemplate, profile *domain.UserProfile) string {
	variants := tpl.MessagesFor(profile.Persona)
	if len(variants) == 0 {
		return ""
	}

	var keywords []string
	switch profile.MotivationalStyle {
	case domain.StyleEmotional:
		keywords = []string{"feel", "enjoy", "kind", "gentle", "love", "respect"}
	case domain.StyleCompetitive:
		keywords = []string{"win", "beat", "best", "streak", "record", "champion", "compet", "rival"}
	case domain.StyleDataDriven:
		for _, v := range variants {
			if containsDigit(v) || strings.Contains(v, "%") {
				return v
			}
		}
		return variants[0]
	default:
		return variants[0]
	}

	for _, v := range variants {
		lower := strings.ToLower(v)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return v
			}
		}
	}
	return variants[0]
}

// personalizeAction prefers the shorter variant outside the 08:00-20:00
// window.
func personalizeAction(tpl *domain.InterventionTemplate, profile *domain.UserProfile, hour int) string {
	action := tpl.ActionFor(profile.Persona)
	if hour < fullActionStartHour || hour >= fullActionEndHour {
		if action.Short != "" {
			return action.Short
		}
	}
	return action.Full
}

func containsDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// RecordOutcome folds a delivered intervention's observed result into the
// rolling success-rate and effectiveness estimates.
func (e *AdaptiveInterventionEngine) RecordOutcome(ctx context.Context, uc *domain.UserContext, templateID string, outcome domain.InterventionOutcome) error {
	tpl := e.catalog.TemplateByID(templateID)
	if tpl == nil {
		return errors.New("unknown intervention template: " + templateID)
	}

	usage, err := e.usage.Get(ctx, uc.Profile.UserID, templateID)
	if err != nil {
		return err
	}

	success := 0.0
	if outcome.ActionTaken || outcome.SuccessConditionsMet > 0 {
		success = 1.0
	}
	successRate := usage.SuccessRate*(1-SuccessRateEMAWeight) + success*SuccessRateEMAWeight

	condFraction := 0.0
	if len(tpl.SuccessConditions) > 0 {
		condFraction = clamp01(float64(outcome.SuccessConditionsMet) / float64(len(tpl.SuccessConditions)))
	}
	observed := boolScore(outcome.Engaged)*engagementWeight +
		boolScore(outcome.ActionTaken)*actionTakenWeight +
		condFraction*successCondWeight +
		feedbackScore(outcome.Feedback)*feedbackWeight

	effectiveness := usage.Effectiveness
	if usage.OutcomesRecorded == 0 {
		effectiveness = observed
	} else {
		effectiveness = effectiveness*(1-EffectivenessEMAWeight) + observed*EffectivenessEMAWeight
	}

	e.logger.Debug("intervention outcome recorded",
		zap.String("template", templateID),
		zap.Float64("observed", observed),
		zap.Float64("effectiveness", effectiveness),
		zap.Float64("success_rate", successRate))

	return e.usage.UpdateOutcome(ctx, uc.Profile.UserID, templateID, effectiveness, successRate)
}

func boolScore(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func feedbackScore(polarity int) float64 {
	switch {
	case polarity > 0:
		return 1
	case polarity < 0:
		return 0
	default:
		return 0.5
	}
}

// GetGraduatedIntervention returns the habit ladder tier matched to habit
// maturity and recent success rate: struggling users get the tiny tier,
// the ambitious tier requires an established habit.
func (e *AdaptiveInterventionEngine) GetGraduatedIntervention(persona domain.PersonaType, habit domain.HabitLevel, recentSuccessRate float64) GraduatedIntervention {
	tier := TierAmbitious
	switch {
	case recentSuccessRate < tinySuccessRateCeiling:
		tier = TierTiny
	case recentSuccessRate < moderateSuccessRateCeiling:
		tier = TierModerate
	}
	if habit == domain.HabitNew && tier == TierAmbitious {
		tier = TierModerate
	}

	return GraduatedIntervention{
		Tier:           tier,
		Suggestions:    graduatedSuggestions(persona, tier),
		TimeCommitment: tierTimeCommitment(tier),
	}
}

func tierTimeCommitment(tier GraduationTier) string {
	switch tier {
	case TierTiny:
		return "under 5 minutes"
	case TierModerate:
		return "15-30 minutes"
	default:
		return "45+ minutes"
	}
}

func graduatedSuggestions(persona domain.PersonaType, tier GraduationTier) []string {
	type key struct {
		persona domain.PersonaType
		tier    GraduationTier
	}
	suggestions := map[key][]string{
		{domain.PersonaEndurance, TierTiny}:      {"Walk around the block once", "Log today's resting heart rate"},
		{domain.PersonaEndurance, TierModerate}:  {"An easy 20-minute zone-2 jog", "15 minutes of mobility work"},
		{domain.PersonaEndurance, TierAmbitious}: {"A structured 60-minute aerobic session", "A long easy run with fueling practice"},

		{domain.PersonaStrength, TierTiny}:      {"One set of push-ups before breakfast", "Log yesterday's soreness"},
		{domain.PersonaStrength, TierModerate}:  {"A 25-minute full-body circuit", "A focused technique session at light weight"},
		{domain.PersonaStrength, TierAmbitious}: {"A full programmed lifting session", "A heavy session plus accessory work"},

		{domain.PersonaWeightManagement, TierTiny}:      {"Log your next meal before eating it", "Drink a glass of water before lunch"},
		{domain.PersonaWeightManagement, TierModerate}:  {"A 20-minute walk after dinner", "Prep tomorrow's lunch tonight"},
		{domain.PersonaWeightManagement, TierAmbitious}: {"Plan and log every meal for the day", "A 45-minute workout plus full logging"},
	}

	if s, ok := suggestions[key{persona, tier}]; ok {
		return s
	}
	// Generic fallback covering the remaining personas.
	switch tier {
	case TierTiny:
		return []string{"Log one activity today", "Two minutes of stretching"}
	case TierModerate:
		return []string{"A 20-minute session of your usual activity", "Log meals and mood today"}
	default:
		return []string{"A full training session with complete logging", "Plan the week's sessions in advance"}
	}
}
