package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ActivityLogStore interface {
	Create(ctx context.Context, l *ActivityLog) error
	GetByID(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*ActivityLog, error)
	// ListByUserSince returns logs at or after the cutoff, oldest first.
	ListByUserSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]ActivityLog, error)
	// ListRecent returns the newest logs first, bounded by limit.
	ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]ActivityLog, error)
	// LatestByCategory returns the most recent log of a category, or nil.
	LatestByCategory(ctx context.Context, userID uuid.UUID, category ActivityCategory) (*ActivityLog, error)
}

type ProfileStore interface {
	Upsert(ctx context.Context, p *UserProfile) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*UserProfile, error)
	// ListStale returns profiles older than the cutoff or with persona
	// confidence at or below the threshold, for the refresh gate.
	ListStale(ctx context.Context, olderThan time.Time, maxPersonaConfidence int) ([]UserProfile, error)
}

// InterventionUsageStore owns the only mutable state in the engine. TryClaim
// must be atomic per (user, template): it checks the cooldown and daily cap
// and records the use in one conditional update so concurrent requests
// cannot both pass the gate.
type InterventionUsageStore interface {
	Get(ctx context.Context, userID uuid.UUID, templateID string) (*InterventionUsage, error)
	TryClaim(ctx context.Context, userID uuid.UUID, templateID string, now time.Time, cooldown time.Duration, maxDailyUses int) (bool, error)
	// UpdateOutcome persists the new EMA estimates.
	UpdateOutcome(ctx context.Context, userID uuid.UUID, templateID string, effectiveness, successRate float64) error
}

// ActivityParser is the external collaborator that turns free text into a
// structured ActivityLog. Failures are modeled upstream as zero-confidence
// logs; the coaching core never treats them as fatal.
type ActivityParser interface {
	ParseActivity(ctx context.Context, userID uuid.UUID, text string) (*ActivityLog, error)
}
