package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hamed0406/domainclassifier/internal/repo"
)

var _ repo.AlertStore = (*Store)(nil)

func (s *Store) Get(ctx context.Context, targetID string) (*repo.AlertRecord, error) {
	const q = `SELECT last_status, last_sent_at FROM alerts WHERE target_id=$1`
	r := repo.AlertRecord{TargetID: targetID}
	err := s.pool.QueryRow(ctx, q, targetID).Scan(&r.LastStatus, &r.LastSentAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get alert: %w", err)
	}
	return &r, nil
}

func (s *Store) Set(ctx context.Context, targetID, lastStatus string, sentAt time.Time) error {
	const q = `
		INSERT INTO alerts (target_id, last_status, last_sent_at)
		VALUES ($1,$2,$3)
		ON CONFLICT (target_id)
		DO UPDATE SET last_status=EXCLUDED.last_status,
		              last_sent_at=COALESCE(EXCLUDED.last_sent_at, alerts.last_sent_at)
	`
	var ts *time.Time
	if !sentAt.IsZero() {
		ts = &sentAt
	}
	if _, err := s.pool.Exec(ctx, q, targetID, lastStatus, ts); err != nil {
		return fmt.Errorf("set alert: %w", err)
	}
	return nil
}
