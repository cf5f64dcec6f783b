package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/me/schedview/internal/client"
	"github.com/me/schedview/internal/config"
	"github.com/me/schedview/internal/journal"
	"github.com/me/schedview/internal/logging"
	"github.com/me/schedview/internal/notify"
	"github.com/me/schedview/internal/store"
)

type flags struct {
	server    string
	config    string
	debug     bool
	logLevel  string
	logFormat string
	output    string
	timeout   time.Duration
	journal   string
	noJournal bool
	quiet     bool
}

// app is the state shared by all subcommands of one invocation.
type app struct {
	flags flags

	cfg     config.ClientConfig
	logger  *slog.Logger
	client  *client.Client
	store   *store.Store
	journal *journal.SQLiteJournal
	bus     *notify.Bus
	notes   chan notify.Notification

	out    io.Writer
	errOut io.Writer
}

// setup resolves configuration and wires client, store, notifications and
// journal. Flags given on the command line win over env and config file.
func (a *app) setup(cmd *cobra.Command) error {
	a.out = cmd.OutOrStdout()
	a.errOut = cmd.ErrOrStderr()

	cfg, err := config.LoadClient(a.flags.config)
	if err != nil {
		return err
	}
	changed := cmd.Flags().Changed
	if changed("server") {
		cfg.Server = a.flags.server
	}
	if changed("log-level") {
		cfg.LogLevel = a.flags.logLevel
	}
	if changed("log-format") {
		cfg.LogFormat = a.flags.logFormat
	}
	if changed("output") {
		cfg.Output = a.flags.output
	}
	if changed("timeout") {
		cfg.Timeout = a.flags.timeout
	}
	if changed("journal") {
		cfg.JournalPath = a.flags.journal
	}
	if a.flags.noJournal {
		cfg.JournalPath = ""
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg

	a.logger, err = logging.FromFlags(a.flags.debug, cfg.LogLevel, cfg.LogFormat, a.errOut)
	if err != nil {
		return err
	}

	a.client = client.New(client.Config{
		BaseURL:           cfg.Server,
		Timeout:           cfg.Timeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
	}, a.logger)

	var observers []store.Observer
	if a.flags.quiet {
		observers = append(observers, notify.NewLogSink(a.logger))
	} else {
		a.bus = notify.NewBus()
		a.notes = make(chan notify.Notification, 64)
		a.bus.Subscribe(a.notes)
		observers = append(observers, notify.NewNotifier(a.bus))
	}

	if cfg.JournalPath != "" {
		j, err := journal.Open(cmd.Context(), cfg.JournalPath, a.logger)
		if err != nil {
			// The journal is optional for everything but `history`.
			a.logger.Warn("journal disabled", "path", cfg.JournalPath, "error", err)
		} else {
			a.journal = j
			observers = append(observers, j)
		}
	}

	a.store = store.New(a.client, store.WithLogger(a.logger), store.WithObserver(observers...))
	return nil
}

// runE wraps a subcommand so the store and journal are closed whether or
// not it fails. Cobra skips post-run hooks after an error.
func (a *app) runE(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		if terr := a.teardown(); err == nil {
			err = terr
		}
		return err
	}
}

func (a *app) teardown() error {
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	a.flush()
	if a.journal != nil {
		errs = append(errs, a.journal.Close())
	}
	return errors.Join(errs...)
}

// flush prints pending notifications to stderr. Successful reads are not
// announced.
func (a *app) flush() {
	if a.notes == nil {
		return
	}
	for {
		select {
		case n := <-a.notes:
			mark := "✓"
			if n.Level == notify.LevelError {
				mark = "✗"
			} else if !n.Action.Mutating() {
				continue
			}
			fmt.Fprintf(a.errOut, "%s %s\n", mark, n.Message)
		default:
			return
		}
	}
}

// view assembles what the store currently holds.
func (a *app) view() statusView {
	snap := a.store.Snapshot()
	return statusView{
		Time:       a.store.Time(),
		Queue:      snap.Queue,
		Memory:     snap.Memory,
		Processors: a.store.Processors(),
	}
}

// refresh pulls both the snapshot and the processor assignment.
func (a *app) refresh(ctx context.Context) error {
	if _, err := a.store.GetSystemStatus(ctx); err != nil {
		return err
	}
	_, err := a.store.GetProcessor(ctx)
	return err
}
