package model

// ProcessState is the scheduler-assigned state of a Process. Every state
// except ProcessStateFinished names one queue bucket.
type ProcessState string

const (
	ProcessStateReady     ProcessState = "ready"
	ProcessStateRunning   ProcessState = "running"
	ProcessStateWaiting   ProcessState = "waiting"
	ProcessStateBackup    ProcessState = "backup"
	ProcessStateSuspended ProcessState = "suspended"
	ProcessStateFinished  ProcessState = "finished"
)

// Buckets lists the queue buckets in display order.
var Buckets = []ProcessState{
	ProcessStateReady,
	ProcessStateRunning,
	ProcessStateWaiting,
	ProcessStateBackup,
	ProcessStateSuspended,
}

// String returns the string representation of the process state.
func (s ProcessState) String() string {
	return string(s)
}

// IsBucket returns true if processes in this state are kept in a queue bucket.
func (s ProcessState) IsBucket() bool {
	switch s {
	case ProcessStateReady, ProcessStateRunning, ProcessStateWaiting,
		ProcessStateBackup, ProcessStateSuspended:
		return true
	}
	return false
}

// IsSuspendable reports whether the server accepts a suspend request for a
// process in this state. The server remains the authority; this is used for
// hints only.
func (s ProcessState) IsSuspendable() bool {
	return s == ProcessStateReady || s == ProcessStateRunning
}

// IsResumable reports whether a resume request applies to this state.
func (s ProcessState) IsResumable() bool {
	return s == ProcessStateSuspended
}

// ValidProcessTransitions describes the moves the reference scheduler makes.
var ValidProcessTransitions = map[ProcessState][]ProcessState{
	ProcessStateWaiting:   {ProcessStateReady, ProcessStateBackup},
	ProcessStateBackup:    {ProcessStateReady},
	ProcessStateReady:     {ProcessStateRunning, ProcessStateSuspended},
	ProcessStateRunning:   {ProcessStateReady, ProcessStateSuspended, ProcessStateFinished},
	ProcessStateSuspended: {ProcessStateReady},
}

// CanTransitionTo returns true if moving from the current state to next is valid.
func (s ProcessState) CanTransitionTo(next ProcessState) bool {
	for _, allowed := range ValidProcessTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
