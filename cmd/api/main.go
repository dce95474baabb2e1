package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/domainclassifier/internal/config"
	"github.com/hamed0406/domainclassifier/internal/httpapi"
	apimw "github.com/hamed0406/domainclassifier/internal/httpapi/middleware"
	"github.com/hamed0406/domainclassifier/internal/logging"
	"github.com/hamed0406/domainclassifier/internal/notify"
	"github.com/hamed0406/domainclassifier/internal/probe"
	"github.com/hamed0406/domainclassifier/internal/repo"
	"github.com/hamed0406/domainclassifier/internal/repo/memory"
	"github.com/hamed0406/domainclassifier/internal/repo/postgres"
	"github.com/hamed0406/domainclassifier/internal/scheduler"
)

type stores struct {
	targets repo.TargetStore
	results repo.ResultStore
	alerts  repo.AlertStore
	close   func()
}

func openStores(ctx context.Context, cfg config.Config, logger *zap.Logger) (stores, error) {
	if cfg.DatabaseURL == "" {
		m := memory.New()
		logger.Info("store_memory")
		return stores{targets: m, results: m, alerts: m, close: func() {}}, nil
	}
	pg, err := postgres.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return stores{}, err
	}
	if err := pg.Migrate(ctx); err != nil {
		pg.Close()
		return stores{}, err
	}
	logger.Info("store_postgres")
	return stores{targets: pg, results: pg, alerts: pg, close: pg.Close}, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("store_open_failed", zap.Error(err))
	}
	defer st.close()

	classifier := probe.NewClassifier(cfg.ProbeOptions(), nil, nil)
	checker := &probe.RetryClassifier{
		Inner:    classifier,
		Attempts: cfg.RetryAttempts,
		Backoff:  cfg.RetryBackoff,
	}

	// per-domain bound: every retry may use the full DNS + fetch budget
	opts := classifier.Options()
	perCheck := time.Duration(cfg.RetryAttempts)*(opts.DNSTimeout+opts.FetchTimeout+cfg.RetryBackoff) + time.Second
	rc := scheduler.NewRechecker(logger, st.targets, st.results, checker, cfg.CheckInterval, perCheck, cfg.MaxConcurrentChecks)
	go rc.Run(ctx)

	if slack := notify.NewSlack(cfg.SlackWebhookURL); slack != nil {
		al := scheduler.NewAlerter(logger, st.results, st.alerts, notify.Multi{slack}, scheduler.AlerterConfig{
			AlertOnRecovery: cfg.AlertOnRecovery,
			Cooldown:        cfg.AlertCooldown,
		})
		go func() {
			if err := al.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("alerter_stopped", zap.Error(err))
			}
		}()
		logger.Info("alerter_enabled", zap.Duration("cooldown", cfg.AlertCooldown))
	}

	api := httpapi.NewServer(logger, st.targets, st.results, checker)
	keys := apimw.Keys{Public: cfg.PublicAPIKeys, Admin: cfg.AdminAPIKeys}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Router(keys, cfg.AllowedOrigins, cfg.PublicRPM, cfg.PublicBurst, cfg.AdminRPM, cfg.AdminBurst),
		ReadHeaderTimeout: 5 * time.Second,
		// POST /api/targets classifies synchronously
		WriteTimeout: perCheck + 5*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api_listen", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			logger.Error("api_listen_failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = multierr.Append(srv.Shutdown(shutdownCtx), logger.Sync())
	if err != nil {
		log.Printf("shutdown: %v", err)
	}
}
