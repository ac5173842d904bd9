package handler

import (
	"time"

	"aegis/internal/requester"
)

// RegisterResponse is the HTTP response for POST /requesters/register.
// APIKey is the only place the plaintext credential ever appears.
type RegisterResponse struct {
	RequesterID  string    `json:"requester_id"`
	CompanyName  string    `json:"company_name"`
	ContactEmail string    `json:"contact_email"`
	APIKey       string    `json:"api_key"`
	CreatedAt    time.Time `json:"created_at"`
}

// FromRequester converts a registered requester to an HTTP response.
func FromRequester(r requester.Requester, apiKey string) *RegisterResponse {
	return &RegisterResponse{
		RequesterID:  r.ID.String(),
		CompanyName:  r.Name,
		ContactEmail: r.ContactEmail,
		APIKey:       apiKey,
		CreatedAt:    r.CreatedAt,
	}
}
