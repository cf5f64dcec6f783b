package model

import (
	"fmt"
)

// Queue partitions every known process into five disjoint buckets. Bucket
// order is the server's priority/arrival order and is kept verbatim.
type Queue struct {
	Ready     []Process `json:"ready"`
	Running   []Process `json:"running"`
	Waiting   []Process `json:"waiting"`
	Backup    []Process `json:"backup"`
	Suspended []Process `json:"suspended"`
}

// PartialQueue is a queue payload that may omit buckets. A nil field means
// the bucket was absent from the response and must not be touched.
type PartialQueue struct {
	Ready     *[]Process `json:"ready,omitempty"`
	Running   *[]Process `json:"running,omitempty"`
	Waiting   *[]Process `json:"waiting,omitempty"`
	Backup    *[]Process `json:"backup,omitempty"`
	Suspended *[]Process `json:"suspended,omitempty"`
}

// Merge returns q with every bucket present in p replaced wholesale. Only
// the five bucket fields can change; nothing else is merged.
func (q Queue) Merge(p PartialQueue) Queue {
	out := q.Clone()
	if p.Ready != nil {
		out.Ready = cloneProcesses(*p.Ready)
	}
	if p.Running != nil {
		out.Running = cloneProcesses(*p.Running)
	}
	if p.Waiting != nil {
		out.Waiting = cloneProcesses(*p.Waiting)
	}
	if p.Backup != nil {
		out.Backup = cloneProcesses(*p.Backup)
	}
	if p.Suspended != nil {
		out.Suspended = cloneProcesses(*p.Suspended)
	}
	return out
}

// Bucket returns the processes of the given bucket.
func (q *Queue) Bucket(s ProcessState) []Process {
	switch s {
	case ProcessStateReady:
		return q.Ready
	case ProcessStateRunning:
		return q.Running
	case ProcessStateWaiting:
		return q.Waiting
	case ProcessStateBackup:
		return q.Backup
	case ProcessStateSuspended:
		return q.Suspended
	}
	return nil
}

// Find locates a process by pid and reports the bucket holding it.
func (q *Queue) Find(pid int) (*Process, ProcessState, bool) {
	for _, b := range Buckets {
		procs := q.Bucket(b)
		for i := range procs {
			if procs[i].PID == pid {
				return &procs[i], b, true
			}
		}
	}
	return nil, "", false
}

// Len returns the total number of processes across all buckets.
func (q Queue) Len() int {
	n := 0
	for _, b := range Buckets {
		n += len(q.Bucket(b))
	}
	return n
}

// Validate checks that buckets are pairwise disjoint and that every process
// sits in the bucket named by its state.
func (q *Queue) Validate() error {
	seen := make(map[int]ProcessState)
	for _, b := range Buckets {
		for _, p := range q.Bucket(b) {
			if prev, dup := seen[p.PID]; dup {
				return &InvariantError{
					Rule:   "disjoint-buckets",
					Detail: fmt.Sprintf("pid %d is in both %s and %s", p.PID, prev, b),
				}
			}
			seen[p.PID] = b
			if p.State != "" && p.State != b {
				return &InvariantError{
					Rule:   "bucket-state",
					Detail: fmt.Sprintf("pid %d has state %s but sits in %s", p.PID, p.State, b),
				}
			}
		}
	}
	return nil
}

// Clone returns a deep copy of q.
func (q Queue) Clone() Queue {
	return Queue{
		Ready:     cloneProcesses(q.Ready),
		Running:   cloneProcesses(q.Running),
		Waiting:   cloneProcesses(q.Waiting),
		Backup:    cloneProcesses(q.Backup),
		Suspended: cloneProcesses(q.Suspended),
	}
}

func cloneProcesses(ps []Process) []Process {
	if ps == nil {
		return nil
	}
	out := make([]Process, len(ps))
	for i := range ps {
		out[i] = ps[i].Clone()
	}
	return out
}
