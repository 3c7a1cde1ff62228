package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kinetichq/kinetic/internal/domain"
)

const usageDayFormat = "2006-01-02"

type InterventionUsageStore struct {
	db *pgxpool.Pool
}

func NewInterventionUsageStore(db *pgxpool.Pool) *InterventionUsageStore {
	return &InterventionUsageStore{db: db}
}

func (s *InterventionUsageStore) Get(ctx context.Context, userID uuid.UUID, templateID string) (*domain.InterventionUsage, error) {
	u := &domain.InterventionUsage{}
	err := s.db.QueryRow(ctx,
		`SELECT user_id, template_id, last_used_at, uses_today, usage_day, total_uses, outcomes_recorded, effectiveness, success_rate
		 FROM intervention_usage WHERE user_id = $1 AND template_id = $2`,
		userID, templateID,
	).Scan(&u.UserID, &u.TemplateID, &u.LastUsedAt, &u.UsesToday, &u.UsageDay, &u.TotalUses, &u.OutcomesRecorded, &u.Effectiveness, &u.SuccessRate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

// TryClaim checks cooldown and daily cap and records the use in one
// statement. The conditional upsert only fires when the cooldown has
// elapsed and the cap allows it, so concurrent claims race on a single
// row update and at most one wins per slot.
func (s *InterventionUsageStore) TryClaim(ctx context.Context, userID uuid.UUID, templateID string, now time.Time, cooldown time.Duration, maxDailyUses int) (bool, error) {
	day := now.Format(usageDayFormat)
	cutoff := now.Add(-cooldown)

	tag, err := s.db.Exec(ctx,
		`INSERT INTO intervention_usage (user_id, template_id, last_used_at, uses_today, usage_day, total_uses, effectiveness, success_rate)
		 VALUES ($1, $2, $3, 1, $4, 1, 0, 0)
		 ON CONFLICT (user_id, template_id) DO UPDATE SET
		   last_used_at = EXCLUDED.last_used_at,
		   uses_today = CASE WHEN intervention_usage.usage_day = EXCLUDED.usage_day
		                     THEN intervention_usage.uses_today + 1 ELSE 1 END,
		   usage_day = EXCLUDED.usage_day,
		   total_uses = intervention_usage.total_uses + 1
		 WHERE intervention_usage.last_used_at <= $5
		   AND (intervention_usage.usage_day <> $4 OR intervention_usage.uses_today < $6)`,
		userID, templateID, now, day, cutoff, maxDailyUses,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *InterventionUsageStore) UpdateOutcome(ctx context.Context, userID uuid.UUID, templateID string, effectiveness, successRate float64) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE intervention_usage
		 SET outcomes_recorded = outcomes_recorded + 1, effectiveness = $3, success_rate = $4
		 WHERE user_id = $1 AND template_id = $2`,
		userID, templateID, effectiveness, successRate,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
