package model

import (
	"errors"
	"testing"
)

func proc(pid int, state ProcessState) Process {
	return Process{Name: "P", PID: pid, State: state, ProcessorID: Unassigned}
}

func TestQueue_Merge(t *testing.T) {
	base := Queue{
		Ready:     []Process{proc(1, ProcessStateReady), proc(2, ProcessStateReady)},
		Waiting:   []Process{proc(3, ProcessStateWaiting)},
		Suspended: []Process{proc(4, ProcessStateSuspended)},
	}
	running := []Process{proc(1, ProcessStateRunning)}
	ready := []Process{proc(2, ProcessStateReady)}

	merged := base.Merge(PartialQueue{Ready: &ready, Running: &running})

	if len(merged.Ready) != 1 || merged.Ready[0].PID != 2 {
		t.Errorf("Ready = %+v, want [pid 2]", merged.Ready)
	}
	if len(merged.Running) != 1 || merged.Running[0].PID != 1 {
		t.Errorf("Running = %+v, want [pid 1]", merged.Running)
	}
	// Omitted buckets are untouched.
	if len(merged.Waiting) != 1 || merged.Waiting[0].PID != 3 {
		t.Errorf("Waiting = %+v, want [pid 3]", merged.Waiting)
	}
	if len(merged.Suspended) != 1 {
		t.Errorf("Suspended = %+v, want [pid 4]", merged.Suspended)
	}
	// The receiver is not modified.
	if len(base.Ready) != 2 || len(base.Running) != 0 {
		t.Errorf("base mutated: %+v", base)
	}
}

func TestQueue_MergeEmptyBucket(t *testing.T) {
	base := Queue{Backup: []Process{proc(5, ProcessStateBackup)}}
	empty := []Process{}
	merged := base.Merge(PartialQueue{Backup: &empty})
	if len(merged.Backup) != 0 {
		t.Errorf("Backup = %+v, want empty", merged.Backup)
	}
}

func TestQueue_Validate(t *testing.T) {
	ok := Queue{
		Ready:   []Process{proc(1, ProcessStateReady)},
		Running: []Process{proc(2, ProcessStateRunning)},
	}
	if err := ok.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}

	dup := Queue{
		Ready:   []Process{proc(1, ProcessStateReady)},
		Running: []Process{proc(1, ProcessStateRunning)},
	}
	var inv *InvariantError
	if err := dup.Validate(); !errors.As(err, &inv) || inv.Rule != "disjoint-buckets" {
		t.Errorf("Validate() = %v, want disjoint-buckets violation", err)
	}

	misplaced := Queue{Waiting: []Process{proc(7, ProcessStateReady)}}
	if err := misplaced.Validate(); !errors.As(err, &inv) || inv.Rule != "bucket-state" {
		t.Errorf("Validate() = %v, want bucket-state violation", err)
	}
}

func TestQueue_FindAndLen(t *testing.T) {
	q := Queue{
		Ready:     []Process{proc(1, ProcessStateReady)},
		Suspended: []Process{proc(9, ProcessStateSuspended)},
	}
	p, bucket, ok := q.Find(9)
	if !ok || p.PID != 9 || bucket != ProcessStateSuspended {
		t.Errorf("Find(9) = %v, %q, %v", p, bucket, ok)
	}
	if _, _, ok := q.Find(42); ok {
		t.Error("Find(42) found a process")
	}
	if q.Len() != 2 {
		t.Errorf("Len() = %d, want 2", q.Len())
	}
}

func TestQueue_CloneIsDeep(t *testing.T) {
	q := Queue{Ready: []Process{{PID: 1, Successors: []int{2}}}}
	c := q.Clone()
	c.Ready[0].Successors[0] = 99
	c.Ready[0].Name = "changed"
	if q.Ready[0].Successors[0] != 2 || q.Ready[0].Name != "" {
		t.Errorf("clone shares memory with original: %+v", q.Ready[0])
	}
}

func TestValidateAssignment(t *testing.T) {
	q := Queue{Running: []Process{proc(1, ProcessStateRunning)}}
	running := proc(1, ProcessStateRunning)
	stale := proc(2, ProcessStateReady)

	if err := ValidateAssignment(ProcessorAssignment{&running, nil}, &q); err != nil {
		t.Errorf("ValidateAssignment() = %v", err)
	}
	if err := ValidateAssignment(ProcessorAssignment{nil, &stale}, &q); err == nil {
		t.Error("ValidateAssignment() accepted a slot whose process is not running")
	}
}

func TestProcessorAssignment_IdleAndClone(t *testing.T) {
	p := proc(1, ProcessStateRunning)
	a := ProcessorAssignment{&p, nil}
	idle := a.Idle()
	if len(idle) != 2 || idle.Busy() != 0 {
		t.Errorf("Idle() = %v", idle)
	}
	c := a.Clone()
	c[0].Name = "changed"
	if a[0].Name == "changed" {
		t.Error("Clone() shares process records")
	}
}
