package model

import "encoding/json"

// Response is the envelope wrapping every scheduler service response.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// RawResponse is the envelope with its data left undecoded.
type RawResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// OK reports whether the envelope signals success.
func (r *RawResponse) OK() bool {
	return r.Code == CodeOK
}

// Err converts a failed envelope into an APIError. It returns nil on success.
func (r *RawResponse) Err() error {
	if r.OK() {
		return nil
	}
	apiErr := &APIError{Code: r.Code, Message: r.Message}
	var detail string
	if len(r.Data) > 0 && json.Unmarshal(r.Data, &detail) == nil {
		apiErr.Detail = detail
	}
	return apiErr
}

// ProcessorStatusData is the payload of GET /processor-status.
type ProcessorStatusData struct {
	Processors ProcessorAssignment `json:"processors"`
}
