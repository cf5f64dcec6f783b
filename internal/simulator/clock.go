package simulator

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Clock advances a Scheduler on a fixed interval, so a simulator can run
// without a client driving /schedule.
type Clock struct {
	sched    *Scheduler
	interval time.Duration
	logger   *slog.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewClock creates a clock for sched. It does nothing until Start.
func NewClock(sched *Scheduler, interval time.Duration, logger *slog.Logger) *Clock {
	return &Clock{
		sched:    sched,
		interval: interval,
		logger:   logger.With("component", "clock"),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs the clock. Blocks until ctx is cancelled or Stop is called.
func (c *Clock) Start(ctx context.Context) error {
	c.logger.Info("clock started", "interval", c.interval)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	defer close(c.doneCh)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("clock stopping (context cancelled)")
			return ctx.Err()
		case <-c.stopCh:
			c.logger.Info("clock stopping (stop called)")
			return nil
		case <-ticker.C:
			c.Tick()
		}
	}
}

// Stop ends the clock and waits for the current tick to finish. Start must
// have been called.
func (c *Clock) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
	<-c.doneCh
}

// Tick runs one scheduling step.
func (c *Clock) Tick() {
	q := c.sched.Step()
	c.logger.Debug("tick",
		"ready", len(q.Ready), "running", len(q.Running), "waiting", len(q.Waiting),
		"backup", len(q.Backup), "suspended", len(q.Suspended))
}
