package domain

import (
	"time"

	"github.com/hamed0406/domainclassifier/internal/probe"
)

type TargetID string

// Target is a domain tracked for periodic classification.
type Target struct {
	ID        TargetID  `json:"id"`
	Domain    string    `json:"domain"`
	CreatedAt time.Time `json:"created_at"`
}

// Classification is a stored probe.Result.
type Classification struct {
	ID         int64     `json:"id,omitempty"`
	TargetID   TargetID  `json:"target_id"`
	Domain     string    `json:"domain"`
	Status     string    `json:"status"`
	Remark     string    `json:"remark"`
	Notes      string    `json:"notes"`
	Cause      string    `json:"cause,omitempty"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Words      int       `json:"words"`
	LatencyMS  float64   `json:"latency_ms"`
	CheckedAt  time.Time `json:"checked_at"`
}

func NewClassification(id TargetID, r probe.Result, at time.Time) *Classification {
	return &Classification{
		TargetID:   id,
		Domain:     r.Domain,
		Status:     r.Status.String(),
		Remark:     r.Remark,
		Notes:      r.Notes,
		Cause:      r.Cause,
		HTTPStatus: r.HTTPStatus,
		Words:      r.Words,
		LatencyMS:  r.LatencyMS,
		CheckedAt:  at.UTC(),
	}
}

// Active reports whether the stored status is ACTIVE.
func (c *Classification) Active() bool {
	return c.Status == probe.Active.String()
}
