package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// TransportError is a failure where no usable envelope came back: the
// connection failed, the request timed out, the body was malformed, or the
// server answered with an error status and no envelope.
type TransportError struct {
	Status  int    // HTTP status; 0 when no response arrived
	Message string // user-facing classification, see ClassifyStatus
	Err     error
}

func (e *TransportError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Status != 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.Status)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Messages for transport failures, keyed by HTTP status.
const (
	MsgBadRequest   = "invalid request parameters"
	MsgUnauthorized = "credentials expired"
	MsgForbidden    = "permission denied"
	MsgNotFound     = "endpoint not found"
	MsgServerError  = "server error"
	MsgNetworkError = "network error"
)

// ClassifyStatus maps an HTTP status to the fixed user-facing message for a
// transport failure. Unknown statuses, including 0, are network errors.
func ClassifyStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return MsgBadRequest
	case http.StatusUnauthorized:
		return MsgUnauthorized
	case http.StatusForbidden:
		return MsgForbidden
	case http.StatusNotFound:
		return MsgNotFound
	case http.StatusInternalServerError:
		return MsgServerError
	default:
		return MsgNetworkError
	}
}

func newStatusError(status int, body []byte) *TransportError {
	detail := strings.TrimSpace(string(body))
	if len(detail) > 200 {
		detail = detail[:200] + "..."
	}
	var err error
	if detail != "" {
		err = errors.New(detail)
	}
	return &TransportError{Status: status, Message: ClassifyStatus(status), Err: err}
}

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
