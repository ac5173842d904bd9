// Package domainerrors provides coded errors for domain and service layers.
//
// Services return these instead of raw errors so transport code can translate
// them to protocol responses without string matching. Infrastructure layers
// keep using sentinel errors; services wrap them with a code at the boundary.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code identifies the class of a domain error. The string value is the wire
// representation used in JSON error envelopes.
type Code string

const (
	CodeBadRequest   Code = "bad_request"
	CodeInvalidInput Code = "invalid_input"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeRateLimited  Code = "rate_limited"
	CodeInternal     Code = "internal_error"

	// Capability token verification taxonomy. Callers need to distinguish
	// "never valid" from "no longer valid", so these stay separate codes.
	CodeTokenMalformed Code = "token_malformed"
	CodeTokenSignature Code = "token_signature_invalid"
	CodeTokenExpired   Code = "token_expired"

	// CodeLedgerWrite marks a failed durable audit write. Auditability is a
	// correctness requirement, so this surfaces as a server-side failure.
	CodeLedgerWrite Code = "ledger_write_failed"
)

// Error is a domain error with a machine-readable code and a human-readable
// message. The wrapped cause, if any, is preserved for errors.Is/As chains.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return string(e.Code) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a domain error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a domain error that preserves the underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for errors
// that did not originate in the domain layer.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a domain error code to an HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeInvalidInput, CodeTokenMalformed, CodeTokenExpired:
		return http.StatusBadRequest
	case CodeUnauthorized, CodeTokenSignature:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeLedgerWrite, CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
