package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "contactsync/pkg/domain-errors"
)

// ErrorResponse is the JSON envelope for all API errors.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteJSON encodes v as the response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates err into the API error envelope. Uncoded errors and
// internal errors are reported without a description so storage details never
// leak to callers.
func WriteError(w http.ResponseWriter, err error) {
	de, ok := dErrors.From(err)
	if !ok {
		WriteJSON(w, http.StatusInternalServerError, ErrorResponse{Error: string(dErrors.CodeInternal)})
		return
	}
	resp := ErrorResponse{Error: string(de.Code)}
	if de.Code != dErrors.CodeInternal {
		resp.ErrorDescription = de.Message
	}
	WriteJSON(w, dErrors.HTTPStatus(de.Code), resp)
}
