// Package scheduler runs the periodic datasource refresh on a cron
// expression.
package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"

	"github.com/adamsebhat/xr-football/internal/logger"
	"github.com/adamsebhat/xr-football/internal/metrics"
)

// RefreshFunc performs one full data refresh
type RefreshFunc func() error

// Scheduler owns the cron runner
type Scheduler struct {
	cron    *cron.Cron
	refresh RefreshFunc
}

// New creates a scheduler around the given refresh function
func New(refresh RefreshFunc) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		refresh: refresh,
	}
}

// Start registers the refresh job on the given cron spec and starts the
// runner. The job also fires once immediately in the background so a fresh
// deployment serves data without waiting for the first tick.
func (s *Scheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.runOnce); err != nil {
		return err
	}
	s.cron.Start()
	logger.Info("Scheduler started", spec)

	go s.runOnce()
	return nil
}

// Stop halts the cron runner, waiting for a running job to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Scheduler stopped")
}

func (s *Scheduler) runOnce() {
	start := time.Now()
	err := s.refresh()
	metrics.UpdateDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.UpdatesTotal.WithLabelValues("error").Inc()
		logger.Error("Scheduled refresh failed", err)
		return
	}
	metrics.UpdatesTotal.WithLabelValues("success").Inc()
	logger.Info("Scheduled refresh complete in", time.Since(start).Round(time.Millisecond))
}
