package model

import (
	"fmt"
)

// SystemState is the full scheduler snapshot returned by GET /status.
type SystemState struct {
	Queue  Queue  `json:"queue"`
	Memory Memory `json:"memory"`
}

// Validate runs the snapshot's own invariants.
func (s *SystemState) Validate() error {
	if err := s.Queue.Validate(); err != nil {
		return err
	}
	return s.Memory.Validate()
}

// Clone returns a deep copy of s.
func (s SystemState) Clone() SystemState {
	return SystemState{Queue: s.Queue.Clone(), Memory: s.Memory.Clone()}
}

// ProcessorAssignment holds one slot per processor; a nil slot is idle.
type ProcessorAssignment []*Process

// Busy returns the number of occupied slots.
func (a ProcessorAssignment) Busy() int {
	n := 0
	for _, p := range a {
		if p != nil {
			n++
		}
	}
	return n
}

// Idle returns an assignment of the same length with every slot empty.
func (a ProcessorAssignment) Idle() ProcessorAssignment {
	if a == nil {
		return nil
	}
	return make(ProcessorAssignment, len(a))
}

// Clone returns a deep copy of a.
func (a ProcessorAssignment) Clone() ProcessorAssignment {
	if a == nil {
		return nil
	}
	out := make(ProcessorAssignment, len(a))
	for i, p := range a {
		if p != nil {
			c := p.Clone()
			out[i] = &c
		}
	}
	return out
}

// ValidateAssignment checks that every occupied processor slot holds a
// process present in the running bucket.
func ValidateAssignment(a ProcessorAssignment, q *Queue) error {
	running := make(map[int]bool, len(q.Running))
	for _, p := range q.Running {
		running[p.PID] = true
	}
	for slot, p := range a {
		if p == nil {
			continue
		}
		if !running[p.PID] {
			return &InvariantError{
				Rule:   "processor-running",
				Detail: fmt.Sprintf("processor %d holds pid %d which is not running", slot, p.PID),
			}
		}
	}
	return nil
}
