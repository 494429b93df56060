package web

import (
	"encoding/json"
	"net/http"

	"github.com/robinvdvleuten/beancount-bot/errors"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error            string               `json:"error"`
	ErrorDescription string               `json:"error_description,omitempty"`
	Position         *errors.PositionJSON `json:"position,omitempty"`
}

var jsonErrors = errors.NewJSONFormatter()

// writeJSONResponse writes data with the given status.
func writeJSONResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeJSONError writes an error that did not come from the core.
func writeJSONError(w http.ResponseWriter, status int, code, description string) {
	writeJSONResponse(w, status, ErrorResponse{Error: code, ErrorDescription: description})
}

// writeError writes err. User errors are shown verbatim; anything else is
// shown as a generic message and must be logged by the caller.
func writeError(w http.ResponseWriter, status int, err error) {
	e := jsonErrors.ToJSON(err)
	writeJSONResponse(w, status, ErrorResponse{
		Error:            e.Type,
		ErrorDescription: e.Message,
		Position:         e.Position,
	})
}

// decodeJSON decodes the body of r into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
