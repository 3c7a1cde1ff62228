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

type ProfileStore struct {
	db *pgxpool.Pool
}

func NewProfileStore(db *pgxpool.Pool) *ProfileStore {
	return &ProfileStore{db: db}
}

func (s *ProfileStore) Upsert(ctx context.Context, p *domain.UserProfile) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO user_profiles (user_id, persona, persona_confidence, motivational_style, habit_level, dietary_flags, goals, constraints, health_conditions, medications, motivation_level, ability_level, resting_hr_baseline)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 ON CONFLICT (user_id) DO UPDATE SET
		   persona = EXCLUDED.persona,
		   persona_confidence = EXCLUDED.persona_confidence,
		   motivational_style = EXCLUDED.motivational_style,
		   habit_level = EXCLUDED.habit_level,
		   dietary_flags = EXCLUDED.dietary_flags,
		   goals = EXCLUDED.goals,
		   constraints = EXCLUDED.constraints,
		   health_conditions = EXCLUDED.health_conditions,
		   medications = EXCLUDED.medications,
		   motivation_level = EXCLUDED.motivation_level,
		   ability_level = EXCLUDED.ability_level,
		   resting_hr_baseline = EXCLUDED.resting_hr_baseline,
		   updated_at = NOW()
		 RETURNING created_at, updated_at`,
		p.UserID, p.Persona, p.PersonaConfidence, p.MotivationalStyle, p.HabitLevel,
		p.DietaryFlags, p.Goals, p.Constraints, p.HealthConditions, p.Medications,
		p.MotivationLevel, p.AbilityLevel, p.RestingHRBaseline,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (s *ProfileStore) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.UserProfile, error) {
	p := &domain.UserProfile{}
	err := s.db.QueryRow(ctx,
		`SELECT user_id, persona, persona_confidence, motivational_style, habit_level, dietary_flags, goals, constraints, health_conditions, medications, motivation_level, ability_level, resting_hr_baseline, created_at, updated_at
		 FROM user_profiles WHERE user_id = $1`,
		userID,
	).Scan(&p.UserID, &p.Persona, &p.PersonaConfidence, &p.MotivationalStyle, &p.HabitLevel,
		&p.DietaryFlags, &p.Goals, &p.Constraints, &p.HealthConditions, &p.Medications,
		&p.MotivationLevel, &p.AbilityLevel, &p.RestingHRBaseline, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *ProfileStore) ListStale(ctx context.Context, olderThan time.Time, maxPersonaConfidence int) ([]domain.UserProfile, error) {
	rows, err := s.db.Query(ctx,
		`SELECT user_id, persona, persona_confidence, motivational_style, habit_level, dietary_flags, goals, constraints, health_conditions, medications, motivation_level, ability_level, resting_hr_baseline, created_at, updated_at
		 FROM user_profiles
		 WHERE updated_at < $1 OR persona_confidence <= $2
		 ORDER BY updated_at ASC`,
		olderThan, maxPersonaConfidence,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []domain.UserProfile
	for rows.Next() {
		var p domain.UserProfile
		if err := rows.Scan(&p.UserID, &p.Persona, &p.PersonaConfidence, &p.MotivationalStyle, &p.HabitLevel,
			&p.DietaryFlags, &p.Goals, &p.Constraints, &p.HealthConditions, &p.Medications,
			&p.MotivationLevel, &p.AbilityLevel, &p.RestingHRBaseline, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}
