package store

import (
	"context"
	"time"

	"github.com/me/schedview/pkg/model"
)

// GetSystemStatus fetches the full snapshot and replaces the local one.
// It returns the snapshot the server sent.
func (s *Store) GetSystemStatus(ctx context.Context) (model.SystemState, error) {
	start := time.Now()
	out := &Outcome{Action: ActionGetSystemStatus}

	seq := s.stateSeq.Add(1)
	reply, err := s.remote.FetchStatus(ctx)
	if err != nil {
		return model.SystemState{}, s.fail(out, err, start)
	}
	s.applyState(seq, reply.Data)
	s.succeed(out, reply.Message, start)
	return reply.Data.Clone(), nil
}

// GetProcessor fetches the processor slots and replaces the local assignment.
func (s *Store) GetProcessor(ctx context.Context) (model.ProcessorAssignment, error) {
	start := time.Now()
	out := &Outcome{Action: ActionGetProcessor}

	seq := s.procSeq.Add(1)
	reply, err := s.remote.FetchProcessorStatus(ctx)
	if err != nil {
		return nil, s.fail(out, err, start)
	}
	s.applyProcessors(seq, reply.Data)
	s.succeed(out, reply.Message, start)
	return reply.Data.Clone(), nil
}

// CreateNewProcess submits a process and then refreshes the snapshot. It
// returns the process with its server-assigned pid.
func (s *Store) CreateNewProcess(ctx context.Context, info model.ProcessInfo) (model.Process, error) {
	var created model.Process
	err := s.enqueue(ctx, func(ctx context.Context) error {
		start := time.Now()
		out := &Outcome{Action: ActionCreateProcess}

		reply, err := s.remote.SubmitProcess(ctx, info)
		if err != nil {
			return s.fail(out, err, start)
		}
		created = reply.Data
		out.PID = created.PID
		out.RefreshErr = s.refresh(ctx)
		s.succeed(out, reply.Message, start)
		return nil
	})
	if err != nil {
		return model.Process{}, err
	}
	return created, nil
}

// Schedule advances the scheduler one step. The partial queue in the
// response is merged at once, the step counter goes up by one, and the
// snapshot is then refreshed. It returns the new counter value.
func (s *Store) Schedule(ctx context.Context) (int, error) {
	var now int
	err := s.enqueue(ctx, func(ctx context.Context) error {
		start := time.Now()
		out := &Outcome{Action: ActionSchedule}

		seq := s.stateSeq.Add(1)
		reply, err := s.remote.StepSchedule(ctx)
		if err != nil {
			return s.fail(out, err, start)
		}
		now = s.applyStep(seq, reply.Data)
		out.RefreshErr = s.refresh(ctx)
		s.succeed(out, reply.Message, start)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return now, nil
}

// Suspend suspends the process with the given pid and refreshes the snapshot.
func (s *Store) Suspend(ctx context.Context, pid int) error {
	return s.enqueue(ctx, func(ctx context.Context) error {
		start := time.Now()
		out := &Outcome{Action: ActionSuspend, PID: pid}

		reply, err := s.remote.SuspendProcess(ctx, pid)
		if err != nil {
			return s.fail(out, err, start)
		}
		out.RefreshErr = s.refresh(ctx)
		s.succeed(out, reply.Message, start)
		return nil
	})
}

// Resume resumes a suspended process and refreshes the snapshot.
func (s *Store) Resume(ctx context.Context, pid int) error {
	return s.enqueue(ctx, func(ctx context.Context) error {
		start := time.Now()
		out := &Outcome{Action: ActionResume, PID: pid}

		reply, err := s.remote.ResumeProcess(ctx, pid)
		if err != nil {
			return s.fail(out, err, start)
		}
		out.RefreshErr = s.refresh(ctx)
		s.succeed(out, reply.Message, start)
		return nil
	})
}

// Reset clears the scheduler on the server, zeroes the step counter, idles
// every known processor slot and refreshes the snapshot.
func (s *Store) Reset(ctx context.Context) error {
	return s.enqueue(ctx, func(ctx context.Context) error {
		start := time.Now()
		out := &Outcome{Action: ActionReset}

		procSeq := s.procSeq.Add(1)
		reply, err := s.remote.ResetSystem(ctx)
		if err != nil {
			return s.fail(out, err, start)
		}
		s.applyReset(procSeq)
		out.RefreshErr = s.refresh(ctx)
		s.succeed(out, reply.Message, start)
		return nil
	})
}

// refresh re-fetches the full snapshot after a mutating action. It emits no
// outcome of its own; a failure is logged and reported on the action's.
func (s *Store) refresh(ctx context.Context) error {
	seq := s.stateSeq.Add(1)
	reply, err := s.remote.FetchStatus(ctx)
	if err != nil {
		s.logger.Warn("status refresh failed", "error", err)
		return err
	}
	s.applyState(seq, reply.Data)
	return nil
}

func (s *Store) applyStep(seq uint64, p model.PartialQueue) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq > s.stateApplied {
		s.state.Queue = s.state.Queue.Merge(p)
		s.stateApplied = seq
	} else {
		s.logger.Debug("stale queue payload dropped", "seq", seq, "applied", s.stateApplied)
	}
	s.time++
	s.version++
	return s.time
}

func (s *Store) applyReset(procSeq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.time = 0
	if procSeq > s.procApplied {
		s.processors = s.processors.Idle()
		s.procApplied = procSeq
	}
	s.version++
}

func (s *Store) succeed(out *Outcome, msg string, start time.Time) {
	out.Message = SuccessMessage(out.Action, msg)
	s.emit(out, start)
}

// fail reports a failed action. Local state has not been touched at this
// point, so there is nothing to undo.
func (s *Store) fail(out *Outcome, err error, start time.Time) error {
	out.Err = err
	out.Message = FailureMessage(out.Action, err)
	s.emit(out, start)
	return &ActionError{Action: out.Action, Message: out.Message, Err: err}
}
