package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/domainclassifier/internal/domain"
	"github.com/hamed0406/domainclassifier/internal/repo"
)

//go:embed schema.sql
var schemaSQL string

var _ repo.TargetStore = (*Store)(nil)
var _ repo.ResultStore = (*Store)(nil)

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

// Migrate applies the embedded schema. It is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	s.log.Info("pg_schema_applied")
	return nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// ---- TargetStore ----

func (s *Store) Add(ctx context.Context, t *domain.Target) error {
	if t.ID == "" {
		t.ID = domain.TargetID(makeID())
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO targets (id, domain, created_at)
		 VALUES ($1, $2, $3)`,
		string(t.ID), strings.ToLower(t.Domain), t.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return repo.ErrDuplicate
		}
		return fmt.Errorf("insert target: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]*domain.Target, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, domain, created_at
		   FROM targets
		  ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}
	defer rows.Close()

	var out []*domain.Target
	for rows.Next() {
		var (
			id        string
			name      string
			createdAt time.Time
		)
		if err := rows.Scan(&id, &name, &createdAt); err != nil {
			return nil, fmt.Errorf("scan target: %w", err)
		}
		out = append(out, &domain.Target{
			ID:        domain.TargetID(id),
			Domain:    name,
			CreatedAt: createdAt,
		})
	}
	return out, rows.Err()
}

func (s *Store) GetByDomain(ctx context.Context, d string) (*domain.Target, error) {
	var (
		id        string
		name      string
		createdAt time.Time
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, domain, created_at FROM targets WHERE domain = $1`,
		strings.ToLower(d),
	).Scan(&id, &name, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get target: %w", err)
	}
	return &domain.Target{ID: domain.TargetID(id), Domain: name, CreatedAt: createdAt}, nil
}

// ---- ResultStore ----

func (s *Store) Append(ctx context.Context, c *domain.Classification) error {
	if c.CheckedAt.IsZero() {
		c.CheckedAt = time.Now().UTC()
	}
	var statusPtr *int
	if c.HTTPStatus != 0 {
		statusPtr = &c.HTTPStatus
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO classifications
		   (target_id, domain, status, remark, notes, cause, http_status, words, latency_ms, checked_at)
		 VALUES
		   ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		string(c.TargetID), c.Domain, c.Status, c.Remark, c.Notes, c.Cause,
		statusPtr, c.Words, c.LatencyMS, c.CheckedAt,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("insert classification: %w", err)
	}
	return nil
}

func (s *Store) Latest(ctx context.Context) ([]repo.LatestRow, error) {
	rows, err := s.pool.Query(ctx, `
SELECT DISTINCT ON (c.target_id)
       c.target_id,
       t.domain,
       c.status,
       c.notes,
       c.http_status,
       c.latency_ms,
       c.checked_at
  FROM classifications c
  JOIN targets t ON t.id = c.target_id
 ORDER BY c.target_id, c.checked_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("latest: %w", err)
	}
	defer rows.Close()

	var out []repo.LatestRow
	for rows.Next() {
		var (
			row      repo.LatestRow
			httpNull *int32
			latency  float64
		)
		if err := rows.Scan(&row.TargetID, &row.Domain, &row.Status, &row.Notes, &httpNull, &latency, &row.CheckedAt); err != nil {
			return nil, fmt.Errorf("scan latest: %w", err)
		}
		if httpNull != nil {
			v := int(*httpNull)
			row.HTTPStatus = &v
		}
		lat := latency
		row.LatencyMS = &lat
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *Store) History(ctx context.Context, id domain.TargetID, limit int) ([]*domain.Classification, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, target_id, domain, status, remark, notes, cause,
		        COALESCE(http_status, 0), words, latency_ms, checked_at
		   FROM classifications
		  WHERE target_id = $1
		  ORDER BY checked_at DESC
		  LIMIT $2`, string(id), limit)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	defer rows.Close()

	var out []*domain.Classification
	for rows.Next() {
		var (
			c   domain.Classification
			tid string
		)
		if err := rows.Scan(&c.ID, &tid, &c.Domain, &c.Status, &c.Remark, &c.Notes, &c.Cause,
			&c.HTTPStatus, &c.Words, &c.LatencyMS, &c.CheckedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		c.TargetID = domain.TargetID(tid)
		out = append(out, &c)
	}
	return out, rows.Err()
}

// ID format similar to memory store: 20060102Thhmmss.nnnnnnnnn
func makeID() string {
	now := time.Now().UTC()
	return now.Format("20060102T150405.") + fmt.Sprintf("%09d", now.Nanosecond())
}
