package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hamed0406/domainclassifier/internal/domain"
	"github.com/hamed0406/domainclassifier/internal/repo"
)

type Store struct {
	mu      sync.RWMutex
	targets map[domain.TargetID]*domain.Target
	byName  map[string]domain.TargetID
	results []*domain.Classification
	alerts  map[string]repo.AlertRecord
	nextID  int64
}

var (
	_ repo.TargetStore = (*Store)(nil)
	_ repo.ResultStore = (*Store)(nil)
	_ repo.AlertStore  = (*Store)(nil)
)

func New() *Store {
	return &Store{
		targets: make(map[domain.TargetID]*domain.Target),
		byName:  make(map[string]domain.TargetID),
		results: make([]*domain.Classification, 0, 128),
		alerts:  make(map[string]repo.AlertRecord),
	}
}

func (m *Store) Add(ctx context.Context, t *domain.Target) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(t.Domain)
	if _, ok := m.byName[key]; ok {
		return repo.ErrDuplicate
	}
	if t.ID == "" {
		t.ID = domain.TargetID(time.Now().UTC().Format("20060102T150405.000000000"))
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	cp := *t
	m.targets[t.ID] = &cp
	m.byName[key] = t.ID
	return nil
}

func (m *Store) List(ctx context.Context) ([]*domain.Target, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Target, 0, len(m.targets))
	for _, t := range m.targets {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Store) GetByDomain(ctx context.Context, d string) (*domain.Target, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byName[strings.ToLower(d)]
	if !ok {
		return nil, nil
	}
	cp := *m.targets[id]
	return &cp, nil
}

func (m *Store) Append(ctx context.Context, c *domain.Classification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	c.ID = m.nextID
	if c.CheckedAt.IsZero() {
		c.CheckedAt = time.Now().UTC()
	}
	cp := *c
	m.results = append(m.results, &cp)
	return nil
}

func (m *Store) Latest(ctx context.Context) ([]repo.LatestRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	latest := make(map[domain.TargetID]*domain.Classification)
	for _, r := range m.results {
		cur := latest[r.TargetID]
		if cur == nil || !r.CheckedAt.Before(cur.CheckedAt) {
			latest[r.TargetID] = r
		}
	}

	out := make([]repo.LatestRow, 0, len(latest))
	for tid, r := range latest {
		var hs *int
		var lat *float64
		if r.HTTPStatus != 0 {
			v := r.HTTPStatus
			hs = &v
		}
		if r.LatencyMS != 0 {
			v := r.LatencyMS
			lat = &v
		}
		name := r.Domain
		if t := m.targets[tid]; t != nil {
			name = t.Domain
		}
		out = append(out, repo.LatestRow{
			TargetID:   string(tid),
			Domain:     name,
			Status:     r.Status,
			Notes:      r.Notes,
			HTTPStatus: hs,
			LatencyMS:  lat,
			CheckedAt:  r.CheckedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TargetID < out[j].TargetID })
	return out, nil
}

// History returns up to limit classifications for id, newest first.
func (m *Store) History(ctx context.Context, id domain.TargetID, limit int) ([]*domain.Classification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Classification
	for i := len(m.results) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		if r := m.results[i]; r.TargetID == id {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ---- AlertStore ----

func (m *Store) Get(ctx context.Context, targetID string) (*repo.AlertRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.alerts[targetID]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *Store) Set(ctx context.Context, targetID, lastStatus string, sentAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.alerts[targetID]
	rec.TargetID = targetID
	rec.LastStatus = lastStatus
	if !sentAt.IsZero() {
		ts := sentAt
		rec.LastSentAt = &ts
	}
	m.alerts[targetID] = rec
	return nil
}
