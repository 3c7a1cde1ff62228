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

type ActivityLogStore struct {
	db *pgxpool.Pool
}

func NewActivityLogStore(db *pgxpool.Pool) *ActivityLogStore {
	return &ActivityLogStore{db: db}
}

func (s *ActivityLogStore) Create(ctx context.Context, l *domain.ActivityLog) error {
	if l.Fields == nil {
		l.Fields = map[string]any{}
	}
	if l.LoggedAt.IsZero() {
		l.LoggedAt = time.Now()
	}

	return s.db.QueryRow(ctx,
		`INSERT INTO activity_logs (user_id, category, fields, confidence, raw_text, notes, logged_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		l.UserID, l.Category, l.Fields, l.Confidence, l.RawText, l.Notes, l.LoggedAt,
	).Scan(&l.ID, &l.CreatedAt)
}

func (s *ActivityLogStore) GetByID(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*domain.ActivityLog, error) {
	l := &domain.ActivityLog{}
	err := s.db.QueryRow(ctx,
		`SELECT id, user_id, category, fields, confidence, raw_text, notes, logged_at, created_at
		 FROM activity_logs WHERE id = $1 AND user_id = $2`,
		id, userID,
	).Scan(&l.ID, &l.UserID, &l.Category, &l.Fields, &l.Confidence, &l.RawText, &l.Notes, &l.LoggedAt, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return l, nil
}

func (s *ActivityLogStore) ListByUserSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]domain.ActivityLog, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, category, fields, confidence, raw_text, notes, logged_at, created_at
		 FROM activity_logs WHERE user_id = $1 AND logged_at >= $2
		 ORDER BY logged_at ASC`,
		userID, since,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLogs(rows)
}

func (s *ActivityLogStore) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]domain.ActivityLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, category, fields, confidence, raw_text, notes, logged_at, created_at
		 FROM activity_logs WHERE user_id = $1
		 ORDER BY logged_at DESC LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLogs(rows)
}

func (s *ActivityLogStore) LatestByCategory(ctx context.Context, userID uuid.UUID, category domain.ActivityCategory) (*domain.ActivityLog, error) {
	l := &domain.ActivityLog{}
	err := s.db.QueryRow(ctx,
		`SELECT id, user_id, category, fields, confidence, raw_text, notes, logged_at, created_at
		 FROM activity_logs WHERE user_id = $1 AND category = $2
		 ORDER BY logged_at DESC LIMIT 1`,
		userID, category,
	).Scan(&l.ID, &l.UserID, &l.Category, &l.Fields, &l.Confidence, &l.RawText, &l.Notes, &l.LoggedAt, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return l, nil
}

func scanLogs(rows pgx.Rows) ([]domain.ActivityLog, error) {
	var logs []domain.ActivityLog
	for rows.Next() {
		var l domain.ActivityLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.Category, &l.Fields, &l.Confidence, &l.RawText, &l.Notes, &l.LoggedAt, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
