package handler

import (
	"strings"

	dErrors "aegis/pkg/domain-errors"
)

// RegisterRequest is the HTTP request body for POST /requesters/register.
type RegisterRequest struct {
	CompanyName  string `json:"company_name"`
	ContactEmail string `json:"contact_email"`
}

// Validate normalizes and validates the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *RegisterRequest) Validate() error {
	r.CompanyName = strings.TrimSpace(r.CompanyName)
	if r.CompanyName == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "company_name is required")
	}
	if len(r.CompanyName) > 200 {
		return dErrors.New(dErrors.CodeInvalidInput, "company_name must be at most 200 characters")
	}

	r.ContactEmail = strings.TrimSpace(r.ContactEmail)
	if r.ContactEmail == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "contact_email is required")
	}
	return nil
}
