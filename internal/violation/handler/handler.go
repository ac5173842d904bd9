package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"aegis/internal/requester"
	"aegis/internal/violation"
	id "aegis/pkg/domain"
	dErrors "aegis/pkg/domain-errors"
	"aegis/pkg/platform/httputil"
	"aegis/pkg/requestcontext"
)

// Service defines the interface for report and compliance operations.
type Service interface {
	Report(ctx context.Context, report violation.Report) (id.EntryID, error)
	LogCompliance(ctx context.Context, req requester.Requester, event violation.ComplianceEvent) (id.EntryID, error)
}

// Directory resolves the authenticated requester from its id.
type Directory interface {
	GetByID(ctx context.Context, requesterID id.RequesterID) (requester.Requester, error)
}

// Handler wires violation reporting and compliance logging endpoints.
type Handler struct {
	service   Service
	directory Directory
	logger    *slog.Logger
}

// New constructs a violation handler with its dependencies.
func New(service Service, directory Directory, logger *slog.Logger) *Handler {
	return &Handler{service: service, directory: directory, logger: logger}
}

// RegisterPublic mounts the subject-facing report endpoint.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/violations/report", h.HandleReport)
}

// RegisterAuthenticated mounts the requester-facing compliance endpoint.
func (h *Handler) RegisterAuthenticated(r chi.Router) {
	r.Post("/audit/log", h.HandleLogCompliance)
}

// HandleReport handles POST /violations/report requests.
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ReportRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	reportID, err := h.service.Report(ctx, violation.Report{
		Token:         req.UserToken,
		CompanyName:   req.CompanyName,
		RequesterID:   req.ParsedRequesterID(),
		ViolationType: req.ViolationType,
		Description:   req.Description,
		EvidenceURL:   req.EvidenceURL,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "violation report not recorded",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, &ReportResponse{
		ReportID:  reportID.String(),
		NextSteps: "Your report has been logged and will be included in transparency reports",
	})
}

// HandleLogCompliance handles POST /audit/log requests.
func (h *Handler) HandleLogCompliance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	requesterID := requestcontext.RequesterID(ctx)
	if requesterID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "API key required"))
		return
	}

	caller, err := h.directory.GetByID(ctx, requesterID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[ComplianceRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	entryID, err := h.service.LogCompliance(ctx, caller, violation.ComplianceEvent{
		Token:  req.UserToken,
		Action: req.Action,
		Detail: req.Metadata,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "compliance event not recorded",
			"request_id", requestID,
			"requester_id", requesterID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, &ComplianceResponse{EntryID: entryID.String()})
}
