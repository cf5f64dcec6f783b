package model

import "testing"

func TestProcessState_IsBucket(t *testing.T) {
	tests := []struct {
		state  ProcessState
		bucket bool
	}{
		{ProcessStateReady, true},
		{ProcessStateRunning, true},
		{ProcessStateWaiting, true},
		{ProcessStateBackup, true},
		{ProcessStateSuspended, true},
		{ProcessStateFinished, false},
		{ProcessState("zombie"), false},
	}
	for _, tt := range tests {
		if got := tt.state.IsBucket(); got != tt.bucket {
			t.Errorf("ProcessState(%q).IsBucket() = %v, want %v", tt.state, got, tt.bucket)
		}
	}
}

func TestProcessState_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from  ProcessState
		to    ProcessState
		valid bool
	}{
		// Valid transitions
		{ProcessStateWaiting, ProcessStateReady, true},
		{ProcessStateBackup, ProcessStateReady, true},
		{ProcessStateReady, ProcessStateRunning, true},
		{ProcessStateReady, ProcessStateSuspended, true},
		{ProcessStateRunning, ProcessStateReady, true},
		{ProcessStateRunning, ProcessStateFinished, true},
		{ProcessStateSuspended, ProcessStateReady, true},

		// Invalid transitions
		{ProcessStateSuspended, ProcessStateRunning, false},
		{ProcessStateFinished, ProcessStateReady, false},
		{ProcessStateWaiting, ProcessStateRunning, false},
		{ProcessStateBackup, ProcessStateSuspended, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.valid {
			t.Errorf("ProcessState(%q).CanTransitionTo(%q) = %v, want %v", tt.from, tt.to, got, tt.valid)
		}
	}
}

func TestProcessState_SuspendResumeHints(t *testing.T) {
	for _, s := range Buckets {
		wantSuspend := s == ProcessStateReady || s == ProcessStateRunning
		if got := s.IsSuspendable(); got != wantSuspend {
			t.Errorf("%s.IsSuspendable() = %v, want %v", s, got, wantSuspend)
		}
		if got := s.IsResumable(); got != (s == ProcessStateSuspended) {
			t.Errorf("%s.IsResumable() = %v", s, got)
		}
	}
}
