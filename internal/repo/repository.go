package repo

import (
	"context"
	"errors"
	"time"

	"github.com/hamed0406/domainclassifier/internal/domain"
)

var ErrDuplicate = errors.New("target already exists")

// Ports (interfaces); swap in any DB adapter later.
type TargetStore interface {
	// Add assigns ID/CreatedAt when empty. Returns ErrDuplicate if the domain is tracked.
	Add(ctx context.Context, t *domain.Target) error
	List(ctx context.Context) ([]*domain.Target, error)
	// GetByDomain returns nil, nil when the domain is not tracked.
	GetByDomain(ctx context.Context, d string) (*domain.Target, error)
}

type ResultStore interface {
	Append(ctx context.Context, c *domain.Classification) error
	Latest(ctx context.Context) ([]LatestRow, error)
	History(ctx context.Context, id domain.TargetID, limit int) ([]*domain.Classification, error)
}

// LatestRow is the newest classification of one target.
type LatestRow struct {
	TargetID   string    `json:"target_id"`
	Domain     string    `json:"domain"`
	Status     string    `json:"status"`
	Notes      string    `json:"notes"`
	HTTPStatus *int      `json:"http_status"`
	LatencyMS  *float64  `json:"latency_ms"`
	CheckedAt  time.Time `json:"checked_at"`
}
