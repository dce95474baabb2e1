package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hamed0406/domainclassifier/internal/domain"
	"github.com/hamed0406/domainclassifier/internal/metrics"
	"github.com/hamed0406/domainclassifier/internal/probe"
	"github.com/hamed0406/domainclassifier/internal/repo"
)

// Rechecker classifies every tracked domain on a fixed interval.
type Rechecker struct {
	Logger      *zap.Logger
	Targets     repo.TargetStore
	Results     repo.ResultStore
	Checker     probe.Checker
	Interval    time.Duration
	Timeout     time.Duration
	Concurrency int
}

func NewRechecker(
	logger *zap.Logger,
	ts repo.TargetStore,
	rs repo.ResultStore,
	checker probe.Checker,
	interval time.Duration,
	timeout time.Duration,
	concurrency int,
) *Rechecker {
	if concurrency < 1 {
		concurrency = 1
	}
	if interval < 0 {
		interval = 0
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Rechecker{
		Logger:      logger,
		Targets:     ts,
		Results:     rs,
		Checker:     checker,
		Interval:    interval,
		Timeout:     timeout,
		Concurrency: concurrency,
	}
}

// Run starts the loop. It does an immediate pass, then runs each tick.
// Stops when ctx is cancelled.
func (r *Rechecker) Run(ctx context.Context) {
	if r.Interval == 0 {
		// disabled
		r.Logger.Info("rechecker_disabled")
		return
	}
	t := time.NewTicker(r.Interval)
	defer t.Stop()

	// immediate pass
	r.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			r.Logger.Info("rechecker_stopped")
			return
		case <-t.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce classifies all targets with at most Concurrency in flight.
func (r *Rechecker) RunOnce(ctx context.Context) {
	ts, err := r.Targets.List(ctx)
	if err != nil {
		r.Logger.Warn("rechecker_list_error", zap.Error(err))
		return
	}
	metrics.TrackedTargets.Set(float64(len(ts)))
	if len(ts) == 0 {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.Concurrency)
	for _, tgt := range ts {
		g.Go(func() error {
			r.check(gctx, tgt)
			return nil
		})
	}
	_ = g.Wait()
	r.Logger.Info("rechecker_pass_done", zap.Int("targets", len(ts)))
}

func (r *Rechecker) check(ctx context.Context, t *domain.Target) {
	cctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	out := r.Checker.Classify(cctx, t.Domain)
	metrics.Observe(out)

	cr := domain.NewClassification(t.ID, out, time.Now())
	if err := r.Results.Append(ctx, cr); err != nil {
		r.Logger.Warn("rechecker_append_error",
			zap.String("target_id", string(t.ID)),
			zap.String("domain", t.Domain),
			zap.Error(err),
		)
		return
	}
	r.Logger.Debug("rechecker_checked",
		zap.String("target_id", string(t.ID)),
		zap.String("domain", t.Domain),
		zap.String("status", out.Status.String()),
		zap.String("notes", out.Notes),
		zap.String("kind", out.Kind.String()),
		zap.String("cause", out.Cause),
		zap.Int("http_status", out.HTTPStatus),
		zap.Float64("latency_ms", out.LatencyMS),
	)
}
