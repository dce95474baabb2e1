package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hamed0406/domainclassifier/internal/domain"
	"github.com/hamed0406/domainclassifier/internal/repo"
)

func TestMemoryStore_AddAndListTargets(t *testing.T) {
	ctx := context.Background()
	s := New()

	tgt := &domain.Target{Domain: "example.com"}
	if err := s.Add(ctx, tgt); err != nil {
		t.Fatalf("Add target: %v", err)
	}
	if tgt.ID == "" || tgt.CreatedAt.IsZero() {
		t.Fatalf("expected ID and CreatedAt to be set: %+v", tgt)
	}

	all, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 1 || all[0].Domain != "example.com" {
		t.Fatalf("unexpected list: %+v", all)
	}

	// duplicate (case-insensitive)
	if err := s.Add(ctx, &domain.Target{Domain: "EXAMPLE.com"}); !errors.Is(err, repo.ErrDuplicate) {
		t.Fatalf("want ErrDuplicate, got %v", err)
	}

	got, err := s.GetByDomain(ctx, "Example.Com")
	if err != nil || got == nil || got.ID != tgt.ID {
		t.Fatalf("GetByDomain: %+v %v", got, err)
	}
	if got, _ := s.GetByDomain(ctx, "missing.com"); got != nil {
		t.Fatalf("expected nil for unknown domain")
	}
}

func TestMemoryStore_LatestAndHistory(t *testing.T) {
	ctx := context.Background()
	s := New()
	tgt := &domain.Target{ID: "T1", Domain: "example.com"}
	_ = s.Add(ctx, tgt)

	base := time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)
	for i, st := range []string{"DOWN", "NO_CONTENT", "ACTIVE"} {
		c := &domain.Classification{
			TargetID:  "T1",
			Domain:    "example.com",
			Status:    st,
			Remark:    st,
			CheckedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if st == "ACTIVE" {
			c.HTTPStatus = 200
		}
		if err := s.Append(ctx, c); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	latest, err := s.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if len(latest) != 1 || latest[0].Status != "ACTIVE" {
		t.Fatalf("unexpected latest: %+v", latest)
	}
	if latest[0].HTTPStatus == nil || *latest[0].HTTPStatus != 200 {
		t.Fatalf("want http status 200, got %v", latest[0].HTTPStatus)
	}
	if latest[0].LatencyMS != nil {
		t.Fatalf("zero latency should be nil")
	}

	hist, err := s.History(ctx, "T1", 2)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(hist) != 2 || hist[0].Status != "ACTIVE" || hist[1].Status != "NO_CONTENT" {
		t.Fatalf("unexpected history: %+v", hist)
	}
}

func TestMemoryStore_AlertsKeepSendTime(t *testing.T) {
	ctx := context.Background()
	s := New()

	if rec, err := s.Get(ctx, "T1"); err != nil || rec != nil {
		t.Fatalf("expected nil, got %+v err=%v", rec, err)
	}
	now := time.Now()
	_ = s.Set(ctx, "T1", "DOWN", now)
	_ = s.Set(ctx, "T1", "REDIRECTED", time.Time{})

	rec, _ := s.Get(ctx, "T1")
	if rec == nil || rec.LastStatus != "REDIRECTED" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.LastSentAt == nil || !rec.LastSentAt.Equal(now) {
		t.Fatalf("send time should be kept, got %v", rec.LastSentAt)
	}
}
