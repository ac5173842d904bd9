package handler

import (
	"time"

	"aegis/internal/gate"
)

// LookupResponse is the HTTP response for GET /registry/{token}.
type LookupResponse struct {
	Rights      map[string]bool `json:"rights"`
	AuditID     string          `json:"audit_id"`
	RetrievedAt time.Time       `json:"retrieved_at"`
}

// FromResult converts an allow decision to an HTTP response.
func FromResult(result *gate.Result, retrievedAt time.Time) *LookupResponse {
	return &LookupResponse{
		Rights:      result.Policy.Flags(),
		AuditID:     result.EntryID.String(),
		RetrievedAt: retrievedAt,
	}
}
