package handler

import (
	"strings"

	"aegis/internal/rights"
	dErrors "aegis/pkg/domain-errors"
)

// RegisterRequest is the HTTP request body for POST /register. The rights
// block rejects unknown flags during decoding.
type RegisterRequest struct {
	Email  string        `json:"email"`
	Rights rights.Policy `json:"rights"`
}

// Validate normalizes and validates the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *RegisterRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "email is required")
	}
	return nil
}
