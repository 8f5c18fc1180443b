// Package apierror provides the error envelope returned by every HTTP handler.
package apierror

import (
	"encoding/json"
	"net/http"
)

// APIError is the JSON body of all 4xx/5xx responses.
type APIError struct {
	Message string            `json:"error"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Message: msg}
}

// NewValidation wraps per-field validation failures.
func NewValidation(fields map[string]string) *APIError {
	return &APIError{Message: "validation failed", Fields: fields}
}

// Write encodes body as JSON with the given status.
func Write(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// Error writes an APIError carrying msg.
func Error(w http.ResponseWriter, status int, msg string) {
	Write(w, status, New(msg))
}
