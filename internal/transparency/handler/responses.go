package handler

import (
	"time"

	"aegis/internal/transparency"
)

// RequesterStatsResponse is the HTTP response for
// GET /transparency/requesters/{id}.
type RequesterStatsResponse struct {
	RequesterID        string    `json:"requester_id"`
	CompanyName        string    `json:"company_name"`
	TotalLookups       int       `json:"total_lookups"`
	BlockedLookups     int       `json:"blocked_lookups"`
	RecentLookups30d   int       `json:"recent_lookups_30d"`
	ViolationsReported int       `json:"violations_reported"`
	ComplianceScore    int       `json:"compliance_score"`
	RegisteredSince    time.Time `json:"registered_since"`
	LastUpdated        time.Time `json:"last_updated"`
}

// FromRequesterStats converts a requester report to an HTTP response.
func FromRequesterStats(s *transparency.RequesterStats) *RequesterStatsResponse {
	return &RequesterStatsResponse{
		RequesterID:        s.RequesterID.String(),
		CompanyName:        s.Name,
		TotalLookups:       s.TotalLookups,
		BlockedLookups:     s.BlockedLookups,
		RecentLookups30d:   s.RecentLookups,
		ViolationsReported: s.Violations,
		ComplianceScore:    s.ComplianceScore,
		RegisteredSince:    s.RegisteredSince,
		LastUpdated:        s.GeneratedAt,
	}
}

// GlobalStatsResponse is the HTTP response for GET /transparency/global.
type GlobalStatsResponse struct {
	TotalSubjects       int       `json:"total_subjects"`
	TotalRequesters     int       `json:"total_requesters"`
	TotalLookups        int       `json:"total_lookups"`
	BlockedLookups      int       `json:"blocked_lookups"`
	ProtectionRate      float64   `json:"protection_rate"`
	SubjectsAntiDoxxing int       `json:"subjects_with_anti_doxxing"`
	AntiDoxxingAdoption float64   `json:"anti_doxxing_adoption"`
	ViolationsReported  int       `json:"violations_reported"`
	LastUpdated         time.Time `json:"last_updated"`
}

// FromGlobalStats converts the global report to an HTTP response.
func FromGlobalStats(s *transparency.GlobalStats) *GlobalStatsResponse {
	return &GlobalStatsResponse{
		TotalSubjects:       s.TotalSubjects,
		TotalRequesters:     s.TotalRequesters,
		TotalLookups:        s.TotalLookups,
		BlockedLookups:      s.BlockedLookups,
		ProtectionRate:      s.ProtectionRate,
		SubjectsAntiDoxxing: s.ProtectedSubjects,
		AntiDoxxingAdoption: s.AntiDoxxingAdoption,
		ViolationsReported:  s.Violations,
		LastUpdated:         s.GeneratedAt,
	}
}
