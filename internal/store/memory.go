package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kinetichq/kinetic/internal/domain"
)

type usageKey struct {
	userID     uuid.UUID
	templateID string
}

// MemoryUsageStore is an in-memory InterventionUsageStore for tests and
// local runs without Postgres. The mutex gives TryClaim the same
// claim-at-most-once guarantee as the SQL conditional update.
type MemoryUsageStore struct {
	mu    sync.Mutex
	usage map[usageKey]*domain.InterventionUsage
}

func NewMemoryUsageStore() *MemoryUsageStore {
	return &MemoryUsageStore{usage: make(map[usageKey]*domain.InterventionUsage)}
}

func (s *MemoryUsageStore) Get(ctx context.Context, userID uuid.UUID, templateID string) (*domain.InterventionUsage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.usage[usageKey{userID, templateID}]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryUsageStore) TryClaim(ctx context.Context, userID uuid.UUID, templateID string, now time.Time, cooldown time.Duration, maxDailyUses int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	day := now.Format(usageDayFormat)
	key := usageKey{userID, templateID}

	u, ok := s.usage[key]
	if !ok {
		s.usage[key] = &domain.InterventionUsage{
			UserID:     userID,
			TemplateID: templateID,
			LastUsedAt: now,
			UsesToday:  1,
			UsageDay:   day,
			TotalUses:  1,
		}
		return true, nil
	}

	if now.Sub(u.LastUsedAt) < cooldown {
		return false, nil
	}
	if u.UsageDay == day && u.UsesToday >= maxDailyUses {
		return false, nil
	}

	if u.UsageDay == day {
		u.UsesToday++
	} else {
		u.UsageDay = day
		u.UsesToday = 1
	}
	u.LastUsedAt = now
	u.TotalUses++
	return true, nil
}

func (s *MemoryUsageStore) UpdateOutcome(ctx context.Context, userID uuid.UUID, templateID string, effectiveness, successRate float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.usage[usageKey{userID, templateID}]
	if !ok {
		return ErrNotFound
	}
	u.OutcomesRecorded++
	u.Effectiveness = effectiveness
	u.SuccessRate = successRate
	return nil
}
