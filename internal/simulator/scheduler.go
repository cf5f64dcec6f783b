// Package simulator is an in-process reference scheduler: priority
// scheduling over a fixed set of processors with first-fit memory. It backs
// the schedsim development server and end-to-end tests.
package simulator

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/me/schedview/pkg/model"
)

var (
	// ErrProcessNotFound is returned when no bucket holds the pid.
	ErrProcessNotFound = errors.New("process not found")
	// ErrInvalidState is returned when the process cannot make the requested move.
	ErrInvalidState = errors.New("invalid process state")
)

// Params fixes the shape of a scheduler. Reset keeps them.
type Params struct {
	Processors   int
	MaxProcesses int // ready + running capacity; the rest waits in backup
	MemorySize   int
	OSSize       int
}

// Scheduler owns the queues and the memory map. It is safe for concurrent use.
type Scheduler struct {
	params Params

	mu        sync.Mutex
	nextPID   int
	ready     []*model.Process
	running   []*model.Process
	waiting   []*model.Process
	backup    []*model.Process
	suspended []*model.Process
	memory    *MemoryManager
}

// New creates an empty scheduler.
func New(p Params) *Scheduler {
	s := &Scheduler{params: p}
	s.init()
	return s
}

func (s *Scheduler) init() {
	s.nextPID = 1
	s.ready, s.running, s.waiting, s.backup, s.suspended = nil, nil, nil, nil, nil
	s.memory = NewMemoryManager(s.params.MemorySize, s.params.OSSize)
}

// Params returns the scheduler's fixed parameters.
func (s *Scheduler) Params() Params {
	return s.params
}

// Create admits a new process. Memory is allocated first; a process with a
// live predecessor waits, otherwise it is ready when there is capacity and
// in backup when there is not.
func (s *Scheduler) Create(info model.ProcessInfo) (model.Process, error) {
	if err := info.Validate(); err != nil {
		return model.Process{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	start, err := s.memory.Allocate(info.MemorySize)
	if err != nil {
		return model.Process{}, err
	}

	p := &model.Process{
		Name:         info.Name,
		PID:          s.nextPID,
		RequiredTime: info.RequiredTime,
		TotalTime:    info.RequiredTime,
		Priority:     info.Priority,
		MemorySize:   info.MemorySize,
		MemoryStart:  start,
		ProcessorID:  model.Unassigned,
		Predecessors: slices.Clone(info.Predecessors),
	}
	s.nextPID++

	blocked := false
	for _, pred := range p.Predecessors {
		if q, ok := s.find(pred); ok {
			q.Successors = append(q.Successors, p.PID)
			blocked = true
		}
	}

	if blocked {
		p.State = model.ProcessStateWaiting
		s.waiting = append(s.waiting, p)
	} else {
		s.admit(p)
	}
	return p.Clone(), nil
}

// Step runs one scheduling round and returns the resulting queue.
func (s *Scheduler) Step() model.Queue {
	s.mu.Lock()
	defer s.mu.Unlock()

	running := s.running
	s.running = nil
	finished := false
	for _, p := range running {
		p.Priority--
		p.RequiredTime--
		p.ProcessorID = model.Unassigned
		if p.RequiredTime <= 0 {
			p.RequiredTime = 0
			p.State = model.ProcessStateFinished
			s.memory.Free(p.MemoryStart)
			finished = true
			continue
		}
		p.State = model.ProcessStateReady
		s.ready = append(s.ready, p)
	}
	if finished {
		s.wake()
	}
	s.sortReady()

	for i := 0; i < s.params.Processors && len(s.ready) > 0; i++ {
		p := s.ready[0]
		s.ready = s.ready[1:]
		p.State = model.ProcessStateRunning
		p.ProcessorID = i
		s.running = append(s.running, p)
	}

	promoted := false
	for len(s.backup) > 0 && s.active() < s.params.MaxProcesses {
		p := s.backup[0]
		s.backup = s.backup[1:]
		p.State = model.ProcessStateReady
		s.ready = append(s.ready, p)
		promoted = true
	}
	if promoted {
		s.sortReady()
	}
	return s.queue()
}

// Suspend moves a ready or running process to suspended. A running process
// gives up its processor.
func (s *Scheduler) Suspend(pid int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := indexOf(s.ready, pid); i >= 0 {
		p := s.ready[i]
		s.ready = slices.Delete(s.ready, i, i+1)
		s.suspend(p)
		return nil
	}
	if i := indexOf(s.running, pid); i >= 0 {
		p := s.running[i]
		s.running = slices.Delete(s.running, i, i+1)
		s.suspend(p)
		return nil
	}
	if p, ok := s.find(pid); ok {
		return fmt.Errorf("suspend %d: %s: %w", pid, p.State, ErrInvalidState)
	}
	return fmt.Errorf("suspend %d: %w", pid, ErrProcessNotFound)
}

func (s *Scheduler) suspend(p *model.Process) {
	p.State = model.ProcessStateSuspended
	p.ProcessorID = model.Unassigned
	s.suspended = append(s.suspended, p)
}

// Resume returns a suspended process to ready.
func (s *Scheduler) Resume(pid int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := indexOf(s.suspended, pid); i >= 0 {
		p := s.suspended[i]
		s.suspended = slices.Delete(s.suspended, i, i+1)
		p.State = model.ProcessStateReady
		s.ready = append(s.ready, p)
		s.sortReady()
		return nil
	}
	if p, ok := s.find(pid); ok {
		return fmt.Errorf("resume %d: %s: %w", pid, p.State, ErrInvalidState)
	}
	return fmt.Errorf("resume %d: %w", pid, ErrProcessNotFound)
}

// Reset drops every process and frees all memory.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()
}

// Status returns the full snapshot.
func (s *Scheduler) Status() model.SystemState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.SystemState{Queue: s.queue(), Memory: s.memory.Snapshot()}
}

// Processors returns one slot per processor holding its running process.
func (s *Scheduler) Processors() model.ProcessorAssignment {
	s.mu.Lock()
	defer s.mu.Unlock()
	slots := make(model.ProcessorAssignment, s.params.Processors)
	for _, p := range s.running {
		if p.ProcessorID >= 0 && p.ProcessorID < len(slots) {
			c := p.Clone()
			slots[p.ProcessorID] = &c
		}
	}
	return slots
}

// admit places a runnable process in ready or backup depending on capacity.
func (s *Scheduler) admit(p *model.Process) {
	if s.active() < s.params.MaxProcesses {
		p.State = model.ProcessStateReady
		s.ready = append(s.ready, p)
		s.sortReady()
		return
	}
	p.State = model.ProcessStateBackup
	s.backup = append(s.backup, p)
}

// wake admits every waiting process whose predecessors have all left the
// queues.
func (s *Scheduler) wake() {
	var still []*model.Process
	var woken []*model.Process
	for _, p := range s.waiting {
		if s.blocked(p) {
			still = append(still, p)
			continue
		}
		woken = append(woken, p)
	}
	s.waiting = still
	for _, p := range woken {
		s.admit(p)
	}
}

func (s *Scheduler) blocked(p *model.Process) bool {
	for _, pred := range p.Predecessors {
		if _, ok := s.find(pred); ok {
			return true
		}
	}
	return false
}

func (s *Scheduler) active() int {
	return len(s.ready) + len(s.running)
}

// sortReady orders ready by descending priority, keeping arrival order
// among equals.
func (s *Scheduler) sortReady() {
	slices.SortStableFunc(s.ready, func(a, b *model.Process) int {
		return cmp.Compare(b.Priority, a.Priority)
	})
}

func (s *Scheduler) find(pid int) (*model.Process, bool) {
	for _, bucket := range [][]*model.Process{s.ready, s.running, s.waiting, s.backup, s.suspended} {
		if i := indexOf(bucket, pid); i >= 0 {
			return bucket[i], true
		}
	}
	return nil, false
}

func (s *Scheduler) queue() model.Queue {
	return model.Queue{
		Ready:     snapshot(s.ready),
		Running:   snapshot(s.running),
		Waiting:   snapshot(s.waiting),
		Backup:    snapshot(s.backup),
		Suspended: snapshot(s.suspended),
	}
}

// snapshot copies a bucket. Empty buckets encode as [] rather than null.
func snapshot(ps []*model.Process) []model.Process {
	out := make([]model.Process, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Clone())
	}
	return out
}

func indexOf(ps []*model.Process, pid int) int {
	return slices.IndexFunc(ps, func(p *model.Process) bool { return p.PID == pid })
}
