package llm

import (
	"context"

	"github.com/google/uuid"
	"github.com/kinetichq/kinetic/internal/domain"
)

// MockParser is a configurable activity parser for testing.
// Set the response fields to control what ParseActivity returns.
type MockParser struct {
	ParseResponse *domain.ActivityLog
	ParseError    error

	// Call tracking for assertions
	ParseCalls []string
}

func NewMockParser() *MockParser {
	return &MockParser{
		ParseResponse: &domain.ActivityLog{
			Category:   domain.CategoryMood,
			Confidence: domain.ParseConfidenceLow,
			Fields:     map[string]any{domain.FieldMoodScore: 5},
		},
	}
}

func (c *MockParser) ParseActivity(ctx context.Context, userID uuid.UUID, text string) (*domain.ActivityLog, error) {
	c.ParseCalls = append(c.ParseCalls, text)
	if c.ParseError != nil {
		return nil, c.ParseError
	}
	log := *c.ParseResponse
	log.UserID = userID
	log.RawText = text
	return &log, nil
}
