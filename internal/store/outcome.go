package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/me/schedview/internal/client"
	"github.com/me/schedview/pkg/model"
)

// Action names an orchestrated store operation.
type Action string

const (
	ActionGetSystemStatus Action = "getSystemStatus"
	ActionCreateProcess   Action = "createNewProcess"
	ActionSchedule        Action = "schedule"
	ActionSuspend         Action = "suspend"
	ActionResume          Action = "resume"
	ActionGetProcessor    Action = "getProcessor"
	ActionReset           Action = "reset"
)

// String returns the string representation of the action.
func (a Action) String() string {
	return string(a)
}

// Mutating reports whether the action changes server state. Mutating
// actions are serialized and followed by a full status refresh.
func (a Action) Mutating() bool {
	switch a {
	case ActionCreateProcess, ActionSchedule, ActionSuspend, ActionResume, ActionReset:
		return true
	}
	return false
}

var successFallback = map[Action]string{
	ActionGetSystemStatus: "system status updated",
	ActionCreateProcess:   "process created",
	ActionSchedule:        "scheduler step completed",
	ActionSuspend:         "process suspended",
	ActionResume:          "process resumed",
	ActionGetProcessor:    "processor status updated",
	ActionReset:           "system reset",
}

var failureFallback = map[Action]string{
	ActionGetSystemStatus: "failed to fetch system status",
	ActionCreateProcess:   "failed to create process",
	ActionSchedule:        "failed to run scheduler step",
	ActionSuspend:         "failed to suspend process",
	ActionResume:          "failed to resume process",
	ActionGetProcessor:    "failed to fetch processor status",
	ActionReset:           "failed to reset system",
}

// FailureMessage returns the user-facing message for a failed action: the
// server's message when it sent one, the transport classification for
// transport failures, otherwise the action's fixed fallback.
func FailureMessage(a Action, err error) string {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	var te *client.TransportError
	if errors.As(err, &te) && te.Message != "" {
		return te.Message
	}
	return failureFallback[a]
}

// SuccessMessage returns msg, or the action's fallback when msg is empty.
func SuccessMessage(a Action, msg string) string {
	if msg != "" {
		return msg
	}
	return successFallback[a]
}

// Outcome is the typed result of one orchestrated action. Every action
// produces exactly one Outcome.
type Outcome struct {
	Seq        uint64
	Action     Action
	PID        int // process the action targeted or created; 0 when none
	Message    string
	Err        error // nil on success
	RefreshErr error // failure of the follow-up status refresh, if any
	Time       int   // step counter after the action
	At         time.Time
	Duration   time.Duration
}

// OK reports whether the action succeeded.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Observer receives outcomes. Observe is called synchronously after the
// action finishes and must not block.
type Observer interface {
	Observe(Outcome)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Outcome)

// Observe calls f(o).
func (f ObserverFunc) Observe(o Outcome) {
	f(o)
}

// ActionError is returned to the caller of a failed action.
type ActionError struct {
	Action  Action
	Message string
	Err     error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Action, e.Message, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// ErrClosed is returned for actions submitted after Close.
var ErrClosed = errors.New("store closed")
