package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		interval time.Duration
		step     bool
		count    int
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Refresh the status periodically",
		Long: "watch prints the status now and then on every interval until interrupted.\n" +
			"With --step it advances the scheduler before each refresh.",
		Args: cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			if interval == 0 {
				interval = a.cfg.WatchInterval
			}
			if interval < time.Second {
				return fmt.Errorf("--interval must be at least 1s, got %s", interval)
			}
			w := &watcher{app: a, step: step, limit: count, done: make(chan struct{})}
			return w.run(cmd.Context(), interval)
		}),
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "Refresh interval (default from config, 2s)")
	cmd.Flags().BoolVar(&step, "step", false, "Run one scheduling round before each refresh")
	cmd.Flags().IntVar(&count, "count", 0, "Stop after this many refreshes (0 = until interrupted)")
	return cmd
}

type watcher struct {
	app   *app
	step  bool
	limit int

	mu       sync.Mutex
	ticks    int
	done     chan struct{}
	doneOnce sync.Once
}

func (w *watcher) run(ctx context.Context, interval time.Duration) error {
	w.tick(ctx)
	if w.finished() {
		return nil
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{w.app.logger})))
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", interval), func() { w.tick(ctx) }); err != nil {
		return fmt.Errorf("schedule refresh: %w", err)
	}
	c.Start()
	defer func() { <-c.Stop().Done() }()

	select {
	case <-ctx.Done():
	case <-w.done:
	}
	return nil
}

func (w *watcher) tick(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.limit > 0 && w.ticks >= w.limit {
		return
	}
	w.ticks++

	a := w.app
	if w.step {
		if _, err := a.store.Schedule(ctx); err != nil {
			// flush prints the failure; later ticks still run.
			a.flush()
			a.logger.Warn("watch step failed, refresh skipped", "tick", w.ticks, "error", err)
			w.checkDone()
			return
		}
	}
	err := a.refresh(ctx)
	a.flush()
	if err == nil {
		v := a.view()
		if a.cfg.Output == "table" {
			fmt.Fprintf(a.out, "--- refresh %d, time %d, %s ---\n", w.ticks, v.Time, time.Now().Format(time.TimeOnly))
		}
		if rerr := a.render(v, func(out io.Writer) { printStatus(out, v) }); rerr != nil {
			a.logger.Warn("render failed", "error", rerr)
		}
	}

	w.checkDone()
}

// checkDone closes done once the tick limit is reached. Callers hold mu.
func (w *watcher) checkDone() {
	if w.limit > 0 && w.ticks >= w.limit {
		w.doneOnce.Do(func() { close(w.done) })
	}
}

func (w *watcher) finished() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.limit > 0 && w.ticks >= w.limit
}

// cronLogger routes cron's own messages through slog.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
