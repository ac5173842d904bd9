package handler

import (
	"time"

	"aegis/internal/subject"
)

// RegisterResponse is the HTTP response for POST /register. Token is the
// subject's registry token; it is shown once and never recoverable.
type RegisterResponse struct {
	SubjectID string          `json:"subject_id"`
	Token     string          `json:"token"`
	Rights    map[string]bool `json:"rights"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// FromIssuedToken converts a registration outcome to an HTTP response.
func FromIssuedToken(issued subject.IssuedToken) *RegisterResponse {
	return &RegisterResponse{
		SubjectID: issued.Subject.ID.String(),
		Token:     issued.Token,
		Rights:    issued.Subject.Policy.Flags(),
		ExpiresAt: issued.ExpiresAt,
	}
}
