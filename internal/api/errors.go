package api

import (
	"encoding/json"
	"net/http"
)

// Error represents a structured error response for the auxiliary endpoints.
// The gateway route always answers with an Envelope instead.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeNotFound       = "not_found"
	ErrCodeUnauthorized   = "unauthorised"
	ErrCodeForbidden      = "forbidden"
	ErrCodeInternal       = "internal_error"
	ErrCodeUnavailable    = "unavailable"
	ErrCodeMethodNotAllow = "method_not_allowed"
)

// Envelope status values.
const (
	StatusOK    = "OK"
	StatusError = "Error"
)

// Detail messages returned to gateway clients.
const (
	msgIPRejected    = "Your IP is not in the whitelist"
	msgInvalidSecret = "Invalid password"
	msgExpectedJSON  = "Expected JSON in request body"
	msgBodyTooLarge  = "Request body exceeds the %d byte limit"
	msgRateLimited   = "Too many requests, slow down"
	prefixDatabase   = "SQLite error: "
	prefixUnexpected = "Unexpected exception occurred: "
)

// Envelope is the gateway response body.
//
// Success carries ExecutionTime and, when the statement produced a result
// set, Columns and Data (Data is [] when no rows matched). Failure carries
// a non-empty Detail list.
type Envelope struct {
	Status        string   `json:"status"`
	ExecutionTime string   `json:"execution_time_secs,omitempty"`
	Columns       []string `json:"columns,omitzero"`
	Data          [][]any  `json:"data,omitzero"`
	Detail        []string `json:"detail,omitempty"`
}

// failure builds an error envelope.
func failure(detail ...string) Envelope {
	return Envelope{Status: StatusError, Detail: detail}
}

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeEnvelope writes a gateway envelope. Every outcome except rate
// limiting is reported with 200.
func writeEnvelope(w http.ResponseWriter, env Envelope) {
	writeJSON(w, http.StatusOK, env)
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeUnauthorized writes a 401 error response.
func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// writeForbidden writes a 403 error response.
func writeForbidden(w http.ResponseWriter, message string) {
	writeError(w, http.StatusForbidden, ErrCodeForbidden, message)
}
