package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/domainclassifier/internal/metrics"
	"github.com/hamed0406/domainclassifier/internal/notify"
	"github.com/hamed0406/domainclassifier/internal/probe"
	"github.com/hamed0406/domainclassifier/internal/repo"
)

type AlerterConfig struct {
	AlertOnRecovery bool
	Cooldown        time.Duration
	PollInterval    time.Duration
}

// Alerter watches the latest classification of every target and notifies
// when a domain stops being ACTIVE, changes failure state, or recovers.
type Alerter struct {
	logger   *zap.Logger
	results  repo.ResultStore
	alertDB  repo.AlertStore
	notifier notify.Notifier
	cfg      AlerterConfig
	now      func() time.Time
}

func NewAlerter(
	logger *zap.Logger,
	results repo.ResultStore,
	alertDB repo.AlertStore,
	notifier notify.Notifier,
	cfg AlerterConfig,
) *Alerter {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Minute
	}
	return &Alerter{
		logger:   logger,
		results:  results,
		alertDB:  alertDB,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (a *Alerter) Run(ctx context.Context) error {
	t := time.NewTicker(a.cfg.PollInterval)
	defer t.Stop()

	// initial pass
	a.logScanErr(a.scanOnce(ctx))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			a.logScanErr(a.scanOnce(ctx))
		}
	}
}

func (a *Alerter) logScanErr(err error) {
	if err != nil {
		a.logger.Warn("alerter_scan_error", zap.Error(err))
	}
}

func (a *Alerter) scanOnce(ctx context.Context) error {
	rows, err := a.results.Latest(ctx)
	if err != nil {
		return err
	}

	now := a.now()
	active := probe.Active.String()

	for _, r := range rows {
		rec, err := a.alertDB.Get(ctx, r.TargetID)
		if err != nil {
			a.logger.Warn("alerter_get_error", zap.String("target_id", r.TargetID), zap.Error(err))
			continue
		}

		// Has the status changed compared to what we last recorded?
		changed := rec == nil || rec.LastStatus != r.Status
		if !changed {
			continue
		}

		// Cooldown only matters for failure alerts (suppresses noisy repeats).
		cooled := true
		if rec != nil && rec.LastSentAt != nil {
			cooled = now.Sub(*rec.LastSentAt) >= a.cfg.Cooldown
		}

		// A first sighting of an ACTIVE domain has nothing to recover from.
		failureAlert := r.Status != active && cooled
		recoveryAlert := r.Status == active && rec != nil && a.cfg.AlertOnRecovery

		if !failureAlert && !recoveryAlert {
			// still record the new status without a send time
			_ = a.alertDB.Set(ctx, r.TargetID, r.Status, time.Time{})
			continue
		}

		title := "🔴 Domain " + r.Status
		if recoveryAlert {
			title = "🟢 Domain ACTIVE again"
		}
		prev := "n/a"
		if rec != nil {
			prev = rec.LastStatus
		}
		httpTxt := "n/a"
		if r.HTTPStatus != nil {
			httpTxt = fmt.Sprintf("%d", *r.HTTPStatus)
		}
		text := fmt.Sprintf(
			"Domain: %s\nStatus: %s (was %s)\nNotes: %s\nHTTP: %s\nChecked: %s",
			r.Domain, r.Status, prev, r.Notes, httpTxt, r.CheckedAt.Format(time.RFC3339),
		)

		// Best-effort send and record the send time
		if err := a.notifier.Send(ctx, title, text); err != nil {
			metrics.AlertsSent.WithLabelValues("error").Inc()
			a.logger.Warn("alert_send_error", zap.String("domain", r.Domain), zap.Error(err))
		} else {
			metrics.AlertsSent.WithLabelValues("ok").Inc()
			a.logger.Info("alert_sent", zap.String("domain", r.Domain), zap.String("status", r.Status))
		}
		_ = a.alertDB.Set(ctx, r.TargetID, r.Status, now)
	}

	return nil
}
