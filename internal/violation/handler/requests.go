package handler

import (
	"net/url"
	"strings"

	id "aegis/pkg/domain"
	dErrors "aegis/pkg/domain-errors"
)

// ReportRequest is the HTTP request body for POST /violations/report.
type ReportRequest struct {
	UserToken     string `json:"user_token"`
	CompanyName   string `json:"company_name"`
	RequesterID   string `json:"requester_id,omitempty"`
	ViolationType string `json:"violation_type"`
	Description   string `json:"description"`
	EvidenceURL   string `json:"evidence_url,omitempty"`

	parsedRequesterID id.RequesterID
}

// Validate normalizes and validates the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *ReportRequest) Validate() error {
	if strings.TrimSpace(r.UserToken) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "user_token is required")
	}

	r.CompanyName = strings.TrimSpace(r.CompanyName)
	if r.CompanyName == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "company_name is required")
	}

	r.ViolationType = strings.TrimSpace(r.ViolationType)
	if r.ViolationType == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "violation_type is required")
	}

	r.Description = strings.TrimSpace(r.Description)
	if r.Description == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "description is required")
	}
	if len(r.Description) > 2000 {
		return dErrors.New(dErrors.CodeInvalidInput, "description must be at most 2000 characters")
	}

	if r.RequesterID != "" {
		rid, err := id.ParseRequesterID(r.RequesterID)
		if err != nil {
			return dErrors.New(dErrors.CodeInvalidInput, "requester_id is not a valid id")
		}
		r.parsedRequesterID = rid
	}

	if r.EvidenceURL != "" {
		u, err := url.Parse(r.EvidenceURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return dErrors.New(dErrors.CodeInvalidInput, "evidence_url must be an http(s) URL")
		}
	}
	return nil
}

// ParsedRequesterID returns the validated optional requester id.
func (r *ReportRequest) ParsedRequesterID() id.RequesterID {
	return r.parsedRequesterID
}

// ComplianceRequest is the HTTP request body for POST /audit/log.
type ComplianceRequest struct {
	UserToken string         `json:"user_token"`
	Action    string         `json:"action"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Validate normalizes and validates the request.
func (r *ComplianceRequest) Validate() error {
	if strings.TrimSpace(r.UserToken) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "user_token is required")
	}
	r.Action = strings.TrimSpace(r.Action)
	if r.Action == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "action is required")
	}
	return nil
}
