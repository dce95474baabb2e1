package repo

import (
	"context"
	"time"
)

// AlertRecord holds the last status we saw for a target and the last time we
// sent a notification about it (used for cooldown).
type AlertRecord struct {
	TargetID   string
	LastStatus string
	LastSentAt *time.Time
}

// AlertStore is implemented by a persistence layer to store alert state.
type AlertStore interface {
	// Get returns nil, nil if there's no record yet.
	Get(ctx context.Context, targetID string) (*AlertRecord, error)
	// Set upserts the record. If sentAt.IsZero() the previous send time is kept.
	Set(ctx context.Context, targetID, lastStatus string, sentAt time.Time) error
}
