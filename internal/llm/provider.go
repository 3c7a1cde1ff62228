package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kinetichq/kinetic/internal/domain"
)

// Provider constants
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

// NewParser creates an activity parser based on the provider name.
// Returns an error if the provider is unknown or the API key is empty (except for mock).
func NewParser(provider, apiKey string) (domain.ActivityParser, error) {
	switch provider {
	case ProviderOpenAI:
		if apiKey == "" {
			return nil, fmt.Errorf("KINETIC_OPENAI_API_KEY is required for OpenAI provider")
		}
		return NewOpenAIParser(apiKey), nil

	case ProviderAnthropic:
		if apiKey == "" {
			return nil, fmt.Errorf("KINETIC_ANTHROPIC_API_KEY is required for Anthropic provider")
		}
		return NewAnthropicParser(apiKey), nil

	case ProviderMock:
		return NewMockParser(), nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (valid options: openai, anthropic, mock)", provider)
	}
}

// parsedActivity is the JSON shape the extraction prompt asks for.
type parsedActivity struct {
	Category   string         `json:"category"`
	Confidence string         `json:"confidence"`
	Fields     map[string]any `json:"fields"`
	Notes      string         `json:"notes"`
}

// decodeActivity turns a model completion into an ActivityLog. Invalid
// category or confidence values degrade to zero confidence rather than
// failing: the coaching core treats unparseable logs as low-signal, not
// as errors.
func decodeActivity(userID uuid.UUID, rawText, completion string) (*domain.ActivityLog, error) {
	// Strip markdown fences if present
	completion = strings.TrimPrefix(completion, "```json")
	completion = strings.TrimPrefix(completion, "```")
	completion = strings.TrimSuffix(completion, "```")
	completion = strings.TrimSpace(completion)

	var parsed parsedActivity
	if err := json.Unmarshal([]byte(completion), &parsed); err != nil {
		return nil, fmt.Errorf("parse activity result: %w (raw: %s)", err, completion)
	}

	log := &domain.ActivityLog{
		UserID:     userID,
		Category:   domain.ActivityCategory(parsed.Category),
		Confidence: domain.ParseConfidence(parsed.Confidence),
		Fields:     parsed.Fields,
		RawText:    rawText,
		Notes:      parsed.Notes,
	}
	if log.Fields == nil {
		log.Fields = map[string]any{}
	}
	if !domain.ValidActivityCategory(parsed.Category) {
		log.Category = domain.CategoryMood
		log.Confidence = domain.ParseConfidenceZero
	}
	if !domain.ValidParseConfidence(parsed.Confidence) {
		log.Confidence = domain.ParseConfidenceZero
	}
	return log, nil
}
