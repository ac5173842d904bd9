// Package subject manages the people who register their privacy rights.
// A subject record keeps the declared policy snapshot for adoption stats;
// the capability token issued at registration is the subject's only
// credential and is never stored.
package subject

import (
	"time"

	"aegis/internal/rights"
	id "aegis/pkg/domain"
)

// Subject is a registered person.
type Subject struct {
	ID           id.SubjectID
	ContactEmail string
	Policy       rights.Policy
	CreatedAt    time.Time
}

// Registration is the validated input for registering a subject.
type Registration struct {
	ContactEmail string
	Policy       rights.Policy
}

// IssuedToken is the registration outcome returned to the subject.
type IssuedToken struct {
	Subject   Subject
	Token     string
	ExpiresAt time.Time
}
