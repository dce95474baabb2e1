package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/domainclassifier/internal/domain"
	"github.com/hamed0406/domainclassifier/internal/probe"
	"github.com/hamed0406/domainclassifier/internal/repo"
)

// --- fakes ---

type fakeTargets struct {
	t []*domain.Target
}

func (f *fakeTargets) Add(ctx context.Context, t *domain.Target) error { return nil }
func (f *fakeTargets) List(ctx context.Context) ([]*domain.Target, error) {
	return f.t, nil
}
func (f *fakeTargets) GetByDomain(ctx context.Context, d string) (*domain.Target, error) {
	return nil, nil
}

type fakeResults struct {
	mu   sync.Mutex
	n    int
	last *domain.Classification
	all  []domain.Classification
	rows []repo.LatestRow // for alerter tests
}

func (f *fakeResults) Append(ctx context.Context, cr *domain.Classification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	cp := *cr
	f.last = &cp
	f.all = append(f.all, cp)
	return nil
}

func (f *fakeResults) Latest(ctx context.Context) ([]repo.LatestRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows, nil
}

func (f *fakeResults) History(ctx context.Context, id domain.TargetID, limit int) ([]*domain.Classification, error) {
	return nil, nil
}

type alwaysActive struct{}

func (alwaysActive) Classify(ctx context.Context, d string) probe.Result {
	return probe.Result{
		Domain:     d,
		Status:     probe.Active,
		Remark:     "ACTIVE",
		Notes:      probe.NoteActive,
		HTTPStatus: 200,
		LatencyMS:  1,
	}
}

// gate counts concurrent Classify calls.
type gate struct {
	mu       sync.Mutex
	inFlight int
	peak     int
}

func (g *gate) Classify(ctx context.Context, d string) probe.Result {
	g.mu.Lock()
	g.inFlight++
	if g.inFlight > g.peak {
		g.peak = g.inFlight
	}
	g.mu.Unlock()

	time.Sleep(20 * time.Millisecond)

	g.mu.Lock()
	g.inFlight--
	g.mu.Unlock()
	return probe.Result{Domain: d, Status: probe.Down, Remark: "DOWN", Notes: probe.NoteDNSFailed}
}

// --- tests ---

func TestRechecker_RunOnceViaLoop_AppendsResult(t *testing.T) {
	tstore := &fakeTargets{t: []*domain.Target{{ID: "T1", Domain: "example.com", CreatedAt: time.Now().UTC()}}}
	rstore := &fakeResults{}

	rc := NewRechecker(zap.NewNop(), tstore, rstore, alwaysActive{},
		2*time.Millisecond, // Interval (immediate pass + ticks)
		200*time.Millisecond,
		1,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go rc.Run(ctx)

	// Wait a bit for the immediate pass to execute.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		rstore.mu.Lock()
		n := rstore.n
		rstore.mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	rstore.mu.Lock()
	last := rstore.last
	rstore.mu.Unlock()

	if last == nil {
		t.Fatalf("expected at least one Append call")
	}
	if last.TargetID != "T1" || last.Status != "ACTIVE" || last.HTTPStatus != 200 {
		t.Fatalf("unexpected last result: %+v", last)
	}
}

func TestRechecker_RespectsConcurrency(t *testing.T) {
	var targets []*domain.Target
	for _, d := range []string{"a.com", "b.com", "c.com", "d.com", "e.com", "f.com"} {
		targets = append(targets, &domain.Target{ID: domain.TargetID(d), Domain: d})
	}
	rstore := &fakeResults{}
	g := &gate{}

	rc := NewRechecker(zap.NewNop(), &fakeTargets{t: targets}, rstore, g, time.Minute, time.Second, 2)
	rc.RunOnce(context.Background())

	if rstore.n != len(targets) {
		t.Fatalf("want %d appends, got %d", len(targets), rstore.n)
	}
	if g.peak > 2 {
		t.Fatalf("concurrency exceeded: peak %d", g.peak)
	}
	for _, c := range rstore.all {
		if c.Notes != probe.NoteDNSFailed || c.Remark != "DOWN" {
			t.Fatalf("stored record lost fields: %+v", c)
		}
	}
}

func TestRechecker_DisabledReturns(t *testing.T) {
	rc := NewRechecker(zap.NewNop(), &fakeTargets{}, &fakeResults{}, alwaysActive{}, 0, 0, 0)
	done := make(chan struct{})
	go func() {
		rc.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("disabled rechecker should return immediately")
	}
}
