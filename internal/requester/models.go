// Package requester manages the third parties that perform rights lookups.
// A requester holds exactly one API key credential; the credential
// authenticates who is looking, and is never embedded in capability tokens.
package requester

import (
	"time"

	id "aegis/pkg/domain"
)

// Requester is a registered company or integrator.
type Requester struct {
	ID           id.RequesterID
	Name         string
	ContactEmail string
	// KeyHash is the SHA-256 of the API key. The plaintext key is returned
	// once at registration and never stored.
	KeyHash   string
	CreatedAt time.Time
}

// Registration is the validated input for registering a requester.
type Registration struct {
	Name         string
	ContactEmail string
}
