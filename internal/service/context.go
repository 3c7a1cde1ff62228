package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kinetichq/kinetic/internal/domain"
	"github.com/kinetichq/kinetic/internal/store"
	"go.uber.org/zap"
)

// RecentLogLimit bounds the context window a single request loads.
const RecentLogLimit = 100

// ContextBuilder assembles the per-request UserContext snapshot from the
// stores. A missing profile is not an error: new users get a general
// persona until the profiler has something to work with.
type ContextBuilder struct {
	profiles domain.ProfileStore
	logs     domain.ActivityLogStore
	logger   *zap.Logger
}

func NewContextBuilder(profiles domain.ProfileStore, logs domain.ActivityLogStore, logger *zap.Logger) *ContextBuilder {
	return &ContextBuilder{profiles: profiles, logs: logs, logger: logger}
}

func (b *ContextBuilder) Build(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.UserContext, error) {
	profile, err := b.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		profile = &domain.UserProfile{
			UserID:  userID,
			Persona: domain.PersonaGeneral,
		}
	}

	recent, err := b.logs.ListRecent(ctx, userID, RecentLogLimit)
	if err != nil {
		return nil, err
	}

	uc := &domain.UserContext{
		Profile:    *profile,
		RecentLogs: chronological(recent),
		Now:        now,
	}

	for _, cat := range []domain.ActivityCategory{domain.CategoryNutrition, domain.CategoryExercise, domain.CategorySleep} {
		latest, err := b.logs.LatestByCategory(ctx, userID, cat)
		if err != nil {
			return nil, err
		}
		switch cat {
		case domain.CategoryNutrition:
			uc.LastMeal = latest
		case domain.CategoryExercise:
			uc.LastWorkout = latest
		case domain.CategorySleep:
			uc.LastSleep = latest
		}
	}

	return uc, nil
}

// chronological reverses a newest-first listing so downstream analysis
// always sees oldest-first order.
func chronological(logs []domain.ActivityLog) []domain.ActivityLog {
	out := make([]domain.ActivityLog, len(logs))
	for i, l := range logs {
		out[len(logs)-1-i] = l
	}
	return out
}
