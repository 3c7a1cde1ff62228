package domain

type SafetySeverity string

const (
	SeverityNone     SafetySeverity = "none"
	SeverityLow      SafetySeverity = "low"
	SeverityMedium   SafetySeverity = "medium"
	SeverityHigh     SafetySeverity = "high"
	SeverityCritical SafetySeverity = "critical"
)

// Rank imposes the total order critical > high > medium > low > none.
func (s SafetySeverity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

type SafetyCheckType string

const (
	CheckRedFlag          SafetyCheckType = "red_flag"
	CheckInjury           SafetyCheckType = "injury"
	CheckChronicCondition SafetyCheckType = "chronic_condition"
	CheckMedication       SafetyCheckType = "medication"
	CheckOvertraining     SafetyCheckType = "overtraining"
)

type SafetyCheckResult struct {
	Check                    SafetyCheckType `json:"check"`
	Severity                 SafetySeverity  `json:"severity"`
	Passed                   bool            `json:"passed"`
	Finding                  string          `json:"finding,omitempty"`
	Recommendation           string          `json:"recommendation,omitempty"`
	BlockActivity            bool            `json:"block_activity"`
	RequiresMedicalAttention bool            `json:"requires_medical_attention"`
}

// Pass is the result of a check that found nothing.
func Pass(check SafetyCheckType) SafetyCheckResult {
	return SafetyCheckResult{Check: check, Severity: SeverityNone, Passed: true}
}

type OvertrainingStatus string

const (
	OvertrainingGreen  OvertrainingStatus = "green"
	OvertrainingYellow OvertrainingStatus = "yellow"
	OvertrainingRed    OvertrainingStatus = "red"
)

// OvertrainingScore is the additive 7-day risk index. Score is clamped to
// [0,100]; Factors names each contributor that fired.
type OvertrainingScore struct {
	Score          int                `json:"score"`
	Status         OvertrainingStatus `json:"status"`
	Factors        []string           `json:"factors,omitempty"`
	Recommendation string             `json:"recommendation"`
}

// SafetyReport aggregates every check for one request. Safe is false when
// any check fails or the overtraining status is red.
type SafetyReport struct {
	Safe                bool                `json:"safe"`
	Checks              []SafetyCheckResult `json:"checks"`
	Overtraining        OvertrainingScore   `json:"overtraining"`
	FinalRecommendation string              `json:"final_recommendation"`
}

// Blocking reports whether any finding must short-circuit advice
// generation for the request.
func (r *SafetyReport) Blocking() bool {
	for _, c := range r.Checks {
		if c.BlockActivity {
			return true
		}
	}
	return false
}
