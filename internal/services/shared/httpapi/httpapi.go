// Package httpapi carries the JSON conventions shared by the HTTP surfaces:
// response envelopes, error payloads, and bearer credential extraction.
package httpapi

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	apperrors "github.com/hanulsoft/jantable/internal/platform/errors"
)

// ErrorEnvelope is the JSON error body every endpoint serves on failure.
type ErrorEnvelope struct {
	Error ErrorPayload `json:"error"`
}

// ErrorPayload carries the stable code and a human-readable message.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteJSON serves v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("httpapi: encode response: %v", err)
	}
}

// WriteError maps a domain error onto its HTTP status and serves the error
// envelope. Unrecognized errors are served as 500s without leaking internals.
func WriteError(w http.ResponseWriter, err error) {
	code := apperrors.CodeOf(err)
	message := "internal error"
	if code != apperrors.CodeUnknown {
		message = err.Error()
	} else {
		log.Printf("httpapi: unclassified error: %v", err)
		code = apperrors.CodeInternal
	}
	WriteJSON(w, code.HTTPStatus(), ErrorEnvelope{Error: ErrorPayload{
		Code:    string(code),
		Message: message,
	}})
}

// BearerToken extracts the credential from an Authorization header. It
// returns an empty string when the header is absent or not a bearer scheme.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	scheme, credential, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(credential)
}

// DecodeBody parses a JSON request body into v.
func DecodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperrors.Wrap(apperrors.CodeMissingField, "request body is not valid JSON", err)
	}
	return nil
}
