// Package shared centralizes JSON response envelopes so every handler renders
// errors and payloads the same way.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "roadguard/pkg/domain-errors"
)

// ErrorResponse is the JSON envelope for every failure.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteJSON renders v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into its HTTP envelope. Errors that
// never passed through pkg/domain-errors collapse to a generic 500 so internal
// detail cannot leak.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	WriteJSON(w, dErrors.ToHTTPStatus(code), ErrorResponse{
		Error:   string(code),
		Message: dErrors.MessageOf(err),
	})
}
