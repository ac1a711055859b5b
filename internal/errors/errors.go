// Package errors defines the gateway's error taxonomy and the JSON error
// response writer. Every per-request fault is converted to one of these
// categories and written as a structured body; none of them terminate the
// process.
package errors

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Error codes carried in the "error" field of failure responses.
const (
	CodeUnauthorized        = "unauthorized"
	CodeInvalidRequest      = "invalid_request"
	CodeUpstreamUnavailable = "upstream_unavailable"
	CodeUpstreamTimeout     = "upstream_timeout"
	CodeBadUpstreamResponse = "bad_upstream_response"
	CodeUpstreamError       = "upstream_error"
	CodeInternal            = "internal_error"
)

var (
	ErrMissingModel    = errors.New("model must be a non-empty string")
	ErrMissingMessages = errors.New("messages must be a non-empty array")
	ErrMalformedBody   = errors.New("malformed request body")
)

type jsonError struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteJSONError writes a failure response with the given status, error code,
// and optional human-readable message.
func WriteJSONError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(jsonError{Error: code, Message: message})
}

// WriteUnauthorized writes the 401 response. The body is exactly
// {"error":"unauthorized"} so that callers can match on it.
func WriteUnauthorized(w http.ResponseWriter) {
	WriteJSONError(w, http.StatusUnauthorized, CodeUnauthorized, "")
}
