package model

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestAPIError_Error(t *testing.T) {
	err := &APIError{Code: 400, Message: "memory allocation failed"}
	want := "code 400: memory allocation failed"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	err.Detail = "no suitable memory block found"
	want = "code 400: memory allocation failed (no suitable memory block found)"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("invalid process info",
		FieldError{Field: "name", Message: "must not be empty"},
		FieldError{Field: "memorySize", Message: "must be greater than 0"},
	)
	if len(err.Details) != 2 {
		t.Errorf("Details length = %d, want 2", len(err.Details))
	}
	want := "invalid process info: name must not be empty; memorySize must be greater than 0"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestRawResponse_Err(t *testing.T) {
	ok := &RawResponse{Code: CodeOK, Message: "done"}
	if err := ok.Err(); err != nil {
		t.Fatalf("Err() on success = %v, want nil", err)
	}

	failed := &RawResponse{Code: 400, Message: "suspend failed", Data: json.RawMessage(`"process 9 not found"`)}
	err := failed.Err()
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Err() = %T, want *APIError", err)
	}
	if apiErr.Code != 400 || apiErr.Message != "suspend failed" {
		t.Errorf("APIError = %+v", apiErr)
	}
	if apiErr.Detail != "process 9 not found" {
		t.Errorf("Detail = %q, want %q", apiErr.Detail, "process 9 not found")
	}

	// Non-string data is not copied into Detail.
	failed.Data = json.RawMessage(`{"x":1}`)
	if d := failed.Err().(*APIError).Detail; d != "" {
		t.Errorf("Detail = %q, want empty", d)
	}
}

func TestInvariantError(t *testing.T) {
	err := &InvariantError{Rule: "disjoint-buckets", Detail: "pid 3 is in both ready and running"}
	want := "invariant disjoint-buckets violated: pid 3 is in both ready and running"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
