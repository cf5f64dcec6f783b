package store

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/me/schedview/internal/client"
	"github.com/me/schedview/pkg/model"
)

// Remote is the scheduler service as seen by the store. *client.Client
// implements it.
type Remote interface {
	FetchStatus(ctx context.Context) (*client.Reply[model.SystemState], error)
	SubmitProcess(ctx context.Context, info model.ProcessInfo) (*client.Reply[model.Process], error)
	StepSchedule(ctx context.Context) (*client.Reply[model.PartialQueue], error)
	SuspendProcess(ctx context.Context, pid int) (*client.Reply[struct{}], error)
	ResumeProcess(ctx context.Context, pid int) (*client.Reply[struct{}], error)
	FetchProcessorStatus(ctx context.Context) (*client.Reply[model.ProcessorAssignment], error)
	ResetSystem(ctx context.Context) (*client.Reply[struct{}], error)
}

// Store owns the client-side copy of scheduler state: the system snapshot,
// the processor assignment and the step counter.
//
// Mutating actions go through a queue drained by a single worker, so at most
// one is in flight. Reads run on the caller's goroutine; every write to the
// snapshot or the processors carries the sequence number taken when its
// request was dispatched, and a write older than the applied one is dropped.
type Store struct {
	remote    Remote
	logger    *slog.Logger
	observers []Observer
	queueSize int

	mu           sync.RWMutex
	state        model.SystemState
	processors   model.ProcessorAssignment
	time         int
	version      uint64
	stateApplied uint64
	procApplied  uint64

	stateSeq   atomic.Uint64
	procSeq    atomic.Uint64
	outcomeSeq atomic.Uint64

	closeMu sync.RWMutex
	closed  bool
	jobs    chan *job
	stopCh  chan struct{}
	doneCh  chan struct{}
}

type job struct {
	ctx     context.Context
	run     func(ctx context.Context) error
	started chan struct{}
	done    chan error
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithObserver registers observers that receive every action outcome.
func WithObserver(obs ...Observer) Option {
	return func(s *Store) {
		s.observers = append(s.observers, obs...)
	}
}

// WithQueueSize sets how many mutating actions may wait behind the one in flight.
func WithQueueSize(n int) Option {
	return func(s *Store) {
		if n >= 0 {
			s.queueSize = n
		}
	}
}

// New creates a store backed by remote and starts its action worker.
// The snapshot starts empty; call Close to stop the worker.
func New(remote Remote, opts ...Option) *Store {
	s := &Store{
		remote:    remote,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		queueSize: 16,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "store")
	s.jobs = make(chan *job, s.queueSize)

	go s.loop()
	return s
}

// Close stops the worker. Queued actions that have not started fail with
// ErrClosed; the one in flight runs to completion.
func (s *Store) Close() error {
	s.closeMu.Lock()
	if s.closed {
		s.closeMu.Unlock()
		return nil
	}
	s.closed = true
	close(s.stopCh)
	s.closeMu.Unlock()

	<-s.doneCh
	return nil
}

func (s *Store) loop() {
	defer close(s.doneCh)
	for {
		select {
		case j := <-s.jobs:
			close(j.started)
			j.done <- j.run(j.ctx)
		case <-s.stopCh:
			for {
				select {
				case j := <-s.jobs:
					j.done <- ErrClosed
				default:
					s.logger.Debug("action worker stopped")
					return
				}
			}
		}
	}
}

// enqueue hands a mutating action to the worker and waits for it. If ctx
// ends while the action is still queued the caller gets ctx.Err(); the
// action later runs with the cancelled context and reports its own outcome.
// Once the worker has picked the action up, the caller always gets the
// action's result, so it matches the emitted outcome.
func (s *Store) enqueue(ctx context.Context, run func(ctx context.Context) error) error {
	j := &job{ctx: ctx, run: run, started: make(chan struct{}), done: make(chan error, 1)}

	s.closeMu.RLock()
	if s.closed {
		s.closeMu.RUnlock()
		return ErrClosed
	}
	select {
	case s.jobs <- j:
	case <-ctx.Done():
		s.closeMu.RUnlock()
		return ctx.Err()
	}
	s.closeMu.RUnlock()

	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
	}
	select {
	case <-j.started:
		return <-j.done
	default:
		return ctx.Err()
	}
}

// Snapshot returns a copy of the current system state.
func (s *Store) Snapshot() model.SystemState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Processors returns a copy of the current processor assignment.
func (s *Store) Processors() model.ProcessorAssignment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.processors.Clone()
}

// Time returns the step counter.
func (s *Store) Time() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.time
}

// Version increases every time any of the owned fields changes.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Check runs the snapshot invariants plus the processor/running cross check.
// The processor assignment is fetched independently, so a violation of the
// cross check is expected until the next pair of fetches.
func (s *Store) Check() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.state.Validate(); err != nil {
		return err
	}
	return model.ValidateAssignment(s.processors, &s.state.Queue)
}

// applyState replaces the snapshot unless a newer write already landed.
func (s *Store) applyState(seq uint64, st model.SystemState) bool {
	s.mu.Lock()
	if applied := s.stateApplied; seq <= applied {
		s.mu.Unlock()
		s.logger.Debug("stale status dropped", "seq", seq, "applied", applied)
		return false
	}
	s.state = st.Clone()
	s.stateApplied = seq
	s.version++
	s.mu.Unlock()

	if err := st.Validate(); err != nil {
		s.logger.Warn("server snapshot breaks invariant", "error", err)
	}
	return true
}

func (s *Store) applyProcessors(seq uint64, a model.ProcessorAssignment) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.procApplied {
		s.logger.Debug("stale processor status dropped", "seq", seq, "applied", s.procApplied)
		return false
	}
	s.processors = a.Clone()
	s.procApplied = seq
	s.version++
	return true
}

// emit stamps and delivers an outcome to every observer.
func (s *Store) emit(o *Outcome, start time.Time) {
	o.Seq = s.outcomeSeq.Add(1)
	o.At = time.Now()
	o.Duration = o.At.Sub(start)
	o.Time = s.Time()

	attrs := []any{"action", o.Action, "seq", o.Seq, "message", o.Message, "duration", o.Duration.String()}
	if o.PID != 0 {
		attrs = append(attrs, "pid", o.PID)
	}
	if o.Err != nil {
		s.logger.Warn("action failed", append(attrs, "error", o.Err)...)
	} else {
		s.logger.Debug("action succeeded", attrs...)
	}

	for _, obs := range s.observers {
		obs.Observe(*o)
	}
}
