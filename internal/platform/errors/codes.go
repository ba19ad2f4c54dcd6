// Package errors provides structured error handling with stable codes.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Credential errors
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeInvalidToken Code = "INVALID_TOKEN"

	// Account errors
	CodeUserExists      Code = "USER_EXISTS"
	CodeUserNotFound    Code = "USER_NOT_FOUND"
	CodeInvalidPassword Code = "INVALID_PASSWORD"
	CodeMissingField    Code = "MISSING_FIELD"

	// Table membership errors
	CodeNotFound       Code = "NOT_FOUND"
	CodeTableIDInvalid Code = "TABLE_ID_INVALID"
	CodeTableExists    Code = "TABLE_EXISTS"
	CodeTableFull      Code = "TABLE_FULL"
	CodeForbidden      Code = "FORBIDDEN"
	CodeInvalidState   Code = "INVALID_STATE"
	CodeNotReady       Code = "NOT_READY"

	// Scoring errors
	CodeInsufficientPoints Code = "INSUFFICIENT_POINTS"
	CodeInvalidTarget      Code = "INVALID_TARGET"

	// Storage errors
	CodeInternal Code = "INTERNAL"
)

// HTTPStatus maps domain codes to HTTP status codes.
//
// The mapping mirrors the statuses the legacy API served: membership
// rejections (bad ids, full tables) are 400s, phase violations are conflicts.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeUnauthorized, CodeInvalidToken:
		return http.StatusUnauthorized

	case CodeForbidden:
		return http.StatusForbidden

	case CodeNotFound:
		return http.StatusNotFound

	case CodeInvalidState, CodeNotReady, CodeInsufficientPoints:
		return http.StatusConflict

	case CodeUserExists,
		CodeUserNotFound,
		CodeInvalidPassword,
		CodeMissingField,
		CodeTableIDInvalid,
		CodeTableExists,
		CodeTableFull,
		CodeInvalidTarget:
		return http.StatusBadRequest

	case CodeInternal, CodeUnknown:
		return http.StatusInternalServerError

	default:
		return http.StatusInternalServerError
	}
}
