package service

import (
	"context"
	"fmt"
	"time"

	"github.com/filezingme/BibiChat-sub000/internal/metrics"
	"github.com/filezingme/BibiChat-sub000/internal/pkg/logger"

	"github.com/robfig/cron/v3"
)

const sweepTimeout = 30 * time.Second

var sweepParser = cron.NewParser(
	cron.SecondOptional |
		cron.Minute |
		cron.Hour |
		cron.Dom |
		cron.Month |
		cron.Dow |
		cron.Descriptor,
)

// Sweeper dispatches due scheduled notifications.
type Sweeper interface {
	SweepDue(ctx context.Context) (int, error)
}

// NotificationScheduler runs the sweep on a cron spec such as "@every 15s".
// A run that is still going when the next tick fires causes that tick to be skipped.
type NotificationScheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	logger  logger.ILogger
}

func NewNotificationScheduler(spec string, sweeper Sweeper, log logger.ILogger) (*NotificationScheduler, error) {
	c := cron.New(
		cron.WithParser(sweepParser),
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.Recover(cron.DiscardLogger), cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	s := &NotificationScheduler{cron: c, sweeper: sweeper, logger: log}
	if _, err := c.AddFunc(spec, s.RunOnce); err != nil {
		return nil, fmt.Errorf("invalid sweep spec %q: %w", spec, err)
	}
	return s, nil
}

// RunOnce performs one sweep. A sweep finding nothing due is a no-op.
func (s *NotificationScheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	n, err := s.sweeper.SweepDue(ctx)
	if err != nil {
		metrics.SweepRuns.WithLabelValues("error").Inc()
		s.logger.Error("NotificationScheduler", "Sweep failed", map[string]interface{}{
			"dispatched": n,
			"error":      err.Error(),
		})
		return
	}
	metrics.SweepRuns.WithLabelValues("ok").Inc()
	if n > 0 {
		s.logger.Info("NotificationScheduler", "Sweep dispatched notifications", map[string]interface{}{"dispatched": n})
	}
}

func (s *NotificationScheduler) Start() {
	s.cron.Start()
}

// Stop halts the timer and waits for a running sweep to finish.
func (s *NotificationScheduler) Stop() {
	<-s.cron.Stop().Done()
}
