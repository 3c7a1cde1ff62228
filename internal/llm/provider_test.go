package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/kinetichq/kinetic/internal/domain"
)

func TestNewParser(t *testing.T) {
	if _, err := NewParser(ProviderOpenAI, ""); err == nil {
		t.Fatal("expected an error for a missing OpenAI key")
	}
	if _, err := NewParser(ProviderAnthropic, ""); err == nil {
		t.Fatal("expected an error for a missing Anthropic key")
	}
	if _, err := NewParser("gemini", "key"); err == nil {
		t.Fatal("expected an error for an unknown provider")
	}

	p, err := NewParser(ProviderMock, "")
	if err != nil {
		t.Fatalf("mock provider: %v", err)
	}
	if p == nil {
		t.Fatal("expected a parser")
	}
}

func TestDecodeActivity(t *testing.T) {
	userID := uuid.New()

	log, err := decodeActivity(userID, "ran 5k", `{"category":"exercise","confidence":"high","fields":{"activity_type":"run","intensity":6},"notes":"evening run"}`)
	if err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if log.Category != domain.CategoryExercise {
		t.Fatalf("expected exercise, got %s", log.Category)
	}
	if log.Confidence != domain.ParseConfidenceHigh {
		t.Fatalf("expected high confidence, got %s", log.Confidence)
	}
	if log.RawText != "ran 5k" {
		t.Fatalf("raw text should be preserved, got %q", log.RawText)
	}
	if log.UserID != userID {
		t.Fatal("user id should be set")
	}
	if intensity, ok := log.FloatField(domain.FieldIntensity); !ok || intensity != 6 {
		t.Fatalf("expected intensity 6, got %v", log.Fields[domain.FieldIntensity])
	}
}

func TestDecodeActivity_StripsMarkdownFences(t *testing.T) {
	completion := "```json\n{\"category\":\"sleep\",\"confidence\":\"medium\",\"fields\":{\"sleep_hours\":7}}\n```"

	log, err := decodeActivity(uuid.New(), "slept ok", completion)
	if err != nil {
		t.Fatalf("decoding fenced output: %v", err)
	}
	if log.Category != domain.CategorySleep {
		t.Fatalf("expected sleep, got %s", log.Category)
	}
}

func TestDecodeActivity_DegradesInvalidValues(t *testing.T) {
	log, err := decodeActivity(uuid.New(), "huh", `{"category":"gibberish","confidence":"high"}`)
	if err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if log.Category != domain.CategoryMood {
		t.Fatalf("invalid category should degrade to mood, got %s", log.Category)
	}
	if log.Confidence != domain.ParseConfidenceZero {
		t.Fatalf("invalid category should zero the confidence, got %s", log.Confidence)
	}

	log, err = decodeActivity(uuid.New(), "huh", `{"category":"mood","confidence":"very sure"}`)
	if err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if log.Confidence != domain.ParseConfidenceZero {
		t.Fatalf("invalid confidence should degrade to zero, got %s", log.Confidence)
	}
	if log.Fields == nil {
		t.Fatal("fields should never be nil")
	}
}

func TestDecodeActivity_InvalidJSON(t *testing.T) {
	if _, err := decodeActivity(uuid.New(), "x", "not json at all"); err == nil {
		t.Fatal("expected an error for non-JSON output")
	}
}

func TestMockParser(t *testing.T) {
	p := NewMockParser()
	userID := uuid.New()

	log, err := p.ParseActivity(context.Background(), userID, "feeling fine")
	if err != nil {
		t.Fatalf("parsing: %v", err)
	}
	if log.UserID != userID || log.RawText != "feeling fine" {
		t.Fatalf("mock should stamp user and raw text, got %+v", log)
	}
	if len(p.ParseCalls) != 1 || p.ParseCalls[0] != "feeling fine" {
		t.Fatalf("expected one tracked call, got %v", p.ParseCalls)
	}

	p.ParseError = errors.New("rate limited")
	if _, err := p.ParseActivity(context.Background(), userID, "again"); err == nil {
		t.Fatal("expected the configured error")
	}
}
