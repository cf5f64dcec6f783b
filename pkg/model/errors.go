package model

import (
	"fmt"
	"strings"
)

// CodeOK is the envelope code of a successful response.
const CodeOK = 0

// APIError is an application-level failure: the server answered with an
// envelope whose code is not CodeOK.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"` // envelope data, when the server sent a string there
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("code %d: %s (%s)", e.Code, e.Message, e.Detail)
	}
	return fmt.Sprintf("code %d: %s", e.Code, e.Message)
}

// FieldError describes a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ValidationError is returned for input rejected before any request is sent.
type ValidationError struct {
	Message string
	Details []FieldError
}

// NewValidationError creates a ValidationError with field details.
func NewValidationError(msg string, details ...FieldError) *ValidationError {
	return &ValidationError{Message: msg, Details: details}
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		parts = append(parts, d.Field+" "+d.Message)
	}
	return e.Message + ": " + strings.Join(parts, "; ")
}

// InvariantError reports a snapshot that breaks one of the state invariants.
type InvariantError struct {
	Rule   string
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant %s violated: %s", e.Rule, e.Detail)
}
