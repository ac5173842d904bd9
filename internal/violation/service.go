// Package violation handles subject-initiated violation reports and
// requester compliance self-reporting. Both produce ledger entries; the
// package holds no state of its own.
package violation

import (
	"context"
	"log/slog"
	"time"

	"aegis/internal/capability"
	"aegis/internal/ledger"
	"aegis/internal/platform/metrics"
	"aegis/internal/requester"
	id "aegis/pkg/domain"
	"aegis/pkg/requestcontext"
)

// TokenVerifier validates the subject token attached to a report.
type TokenVerifier interface {
	Verify(tokenString string, now time.Time) (*capability.Claims, error)
}

// AuditAppender records reports in the ledger.
type AuditAppender interface {
	Append(ctx context.Context, entry ledger.Entry) (id.EntryID, error)
}

// Report is a subject's accusation against a company. RequesterID is
// optional: reports name companies in free text, and only some can be tied
// to a registered requester.
type Report struct {
	Token         string
	CompanyName   string
	RequesterID   id.RequesterID
	ViolationType string
	Description   string
	EvidenceURL   string
}

// ComplianceEvent is a requester's self-reported compliance action.
type ComplianceEvent struct {
	Token  string
	Action string
	Detail map[string]any
}

// Service records violation reports and compliance events.
type Service struct {
	verifier TokenVerifier
	audit    AuditAppender
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewService(verifier TokenVerifier, audit AuditAppender, logger *slog.Logger) *Service {
	return &Service{verifier: verifier, audit: audit, logger: logger}
}

// WithMetrics attaches the shared metrics. Optional.
func (s *Service) WithMetrics(m *metrics.Metrics) *Service {
	s.metrics = m
	return s
}

// Report verifies the subject token and appends a violation_reported entry.
// A token that fails verification rejects the report; nothing is recorded
// for unverifiable accusations.
func (s *Service) Report(ctx context.Context, report Report) (id.EntryID, error) {
	now := requestcontext.Now(ctx)
	if _, err := s.verifier.Verify(report.Token, now); err != nil {
		return id.EntryID{}, err
	}

	detail := map[string]any{
		"company_name":   report.CompanyName,
		"violation_type": report.ViolationType,
		"description":    report.Description,
	}
	if report.EvidenceURL != "" {
		detail["evidence_url"] = report.EvidenceURL
	}

	entryID, err := s.audit.Append(ctx, ledger.Entry{
		RequesterID: report.RequesterID,
		SubjectRef:  capability.TokenReference(report.Token),
		Action:      ledger.ActionViolationReported,
		ClientIP:    requestcontext.ClientIP(ctx),
		UserAgent:   requestcontext.UserAgent(ctx),
		Detail:      detail,
	})
	if err != nil {
		return id.EntryID{}, err
	}

	s.metrics.IncrementViolationsReported()
	s.logger.WarnContext(ctx, "privacy violation reported",
		"request_id", requestcontext.RequestID(ctx),
		"company_name", report.CompanyName,
		"violation_type", report.ViolationType,
		"report_id", entryID.String(),
	)
	return entryID, nil
}

// LogCompliance appends a compliance_event entry on behalf of the
// authenticated requester. The subject token must parse as a reference but
// its policy is not evaluated here.
func (s *Service) LogCompliance(ctx context.Context, req requester.Requester, event ComplianceEvent) (id.EntryID, error) {
	now := requestcontext.Now(ctx)
	if _, err := s.verifier.Verify(event.Token, now); err != nil {
		return id.EntryID{}, err
	}

	detail := make(map[string]any, len(event.Detail)+2)
	for k, v := range event.Detail {
		detail[k] = v
	}
	// Reserved keys win over caller payload.
	detail["requester_name"] = req.Name
	detail["action"] = event.Action

	entryID, err := s.audit.Append(ctx, ledger.Entry{
		RequesterID: req.ID,
		SubjectRef:  capability.TokenReference(event.Token),
		Action:      ledger.ActionComplianceEvent,
		ClientIP:    requestcontext.ClientIP(ctx),
		UserAgent:   requestcontext.UserAgent(ctx),
		Detail:      detail,
	})
	if err != nil {
		return id.EntryID{}, err
	}

	s.logger.InfoContext(ctx, "compliance event logged",
		"request_id", requestcontext.RequestID(ctx),
		"requester_id", req.ID.String(),
		"action", event.Action,
	)
	return entryID, nil
}
