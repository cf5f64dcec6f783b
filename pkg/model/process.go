package model

import (
	"encoding/json"
	"slices"
)

// Unassigned is the ProcessorID of a process that holds no processor.
const Unassigned = -1

// Process is a scheduling unit as reported by the scheduler service.
type Process struct {
	Name         string       `json:"name"`
	PID          int          `json:"pid"`
	RequiredTime int          `json:"requiredTime"` // remaining work units
	TotalTime    int          `json:"totalTime"`
	Priority     int          `json:"priority"`
	State        ProcessState `json:"state"`
	MemorySize   int          `json:"memorySize"`
	MemoryStart  int          `json:"memoryStart"`
	ProcessorID  int          `json:"processorId"`

	// Dependency links by pid. Nil means the server sent none.
	Predecessors []int `json:"predecessors"`
	Successors   []int `json:"successors"`
}

// UnmarshalJSON decodes a process. A missing or null processorId means
// the process holds no processor.
func (p *Process) UnmarshalJSON(b []byte) error {
	type plain Process
	v := plain{ProcessorID: Unassigned}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*p = Process(v)
	return nil
}

// Processor returns the processor index the process runs on, if any.
func (p *Process) Processor() (int, bool) {
	if p.ProcessorID < 0 {
		return 0, false
	}
	return p.ProcessorID, true
}

// Progress returns the completed share of the process's work in [0,1].
func (p *Process) Progress() float64 {
	if p.TotalTime <= 0 {
		return 0
	}
	done := p.TotalTime - p.RequiredTime
	if done < 0 {
		return 0
	}
	return float64(done) / float64(p.TotalTime)
}

// Clone returns a deep copy of p.
func (p Process) Clone() Process {
	p.Predecessors = cloneInts(p.Predecessors)
	p.Successors = cloneInts(p.Successors)
	return p
}

func cloneInts(s []int) []int {
	if s == nil {
		return nil
	}
	return slices.Clone(s)
}

// ProcessInfo is the request body for creating a process.
type ProcessInfo struct {
	Name         string `json:"name"`
	RequiredTime int    `json:"requiredTime"`
	Priority     int    `json:"priority"`
	MemorySize   int    `json:"memorySize"`
	Predecessors []int  `json:"predecessors,omitempty"`
}

// Validate checks the fields the client can verify before a round trip.
// Allocation failures are still the server's to report.
func (i ProcessInfo) Validate() error {
	var details []FieldError
	if i.Name == "" {
		details = append(details, FieldError{Field: "name", Message: "must not be empty"})
	}
	if i.RequiredTime <= 0 {
		details = append(details, FieldError{Field: "requiredTime", Message: "must be greater than 0"})
	}
	if i.MemorySize <= 0 {
		details = append(details, FieldError{Field: "memorySize", Message: "must be greater than 0"})
	}
	for _, pid := range i.Predecessors {
		if pid <= 0 {
			details = append(details, FieldError{Field: "predecessors", Message: "pids must be positive"})
			break
		}
	}
	if len(details) > 0 {
		return NewValidationError("invalid process info", details...)
	}
	return nil
}
