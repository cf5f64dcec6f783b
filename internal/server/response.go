package server

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/me/schedview/pkg/model"
)

// codeFailure is the envelope code sent with every failure.
const codeFailure = 400

// requestID generates a unique request identifier.
func requestID() string {
	return "req_" + uuid.New().String()[:8]
}

// respondOK writes a success envelope.
func respondOK(w http.ResponseWriter, message string, data any) {
	respondJSON(w, http.StatusOK, model.Response{Code: model.CodeOK, Message: message, Data: data})
}

// respondError writes a failure envelope. A non-nil err is sent as the
// detail string in data.
func respondError(w http.ResponseWriter, message string, err error) {
	resp := model.Response{Code: codeFailure, Message: message}
	if err != nil {
		resp.Data = err.Error()
	}
	respondJSON(w, http.StatusBadRequest, resp)
}

func respondJSON(w http.ResponseWriter, status int, resp model.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
