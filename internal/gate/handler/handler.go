package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"aegis/internal/gate"
	"aegis/internal/requester"
	id "aegis/pkg/domain"
	dErrors "aegis/pkg/domain-errors"
	"aegis/pkg/platform/httputil"
	"aegis/pkg/requestcontext"
)

// Service defines the interface for lookup evaluation.
type Service interface {
	Evaluate(ctx context.Context, tokenString string, req requester.Requester) (*gate.Result, error)
}

// Directory resolves the authenticated requester from its id.
type Directory interface {
	GetByID(ctx context.Context, requesterID id.RequesterID) (requester.Requester, error)
}

// Handler wires the registry lookup endpoint to the enforcement gate.
type Handler struct {
	service   Service
	directory Directory
	logger    *slog.Logger
}

// New constructs a gate handler with its dependencies.
func New(service Service, directory Directory, logger *slog.Logger) *Handler {
	return &Handler{
		service:   service,
		directory: directory,
		logger:    logger,
	}
}

// Register mounts the registry lookup endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/registry/{token}", h.HandleLookup)
}

// HandleLookup handles GET /registry/{token} requests.
func (h *Handler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	// Require an authenticated requester
	requesterID := requestcontext.RequesterID(ctx)
	if requesterID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "API key required"))
		return
	}

	req, err := h.directory.GetByID(ctx, requesterID)
	if err != nil {
		h.logger.ErrorContext(ctx, "requester resolution failed",
			"request_id", requestID,
			"requester_id", requesterID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	tokenString := chi.URLParam(r, "token")
	if tokenString == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "registry token is required"))
		return
	}

	result, err := h.service.Evaluate(ctx, tokenString, req)
	if err != nil {
		h.logger.WarnContext(ctx, "lookup not served",
			"request_id", requestID,
			"requester_id", requesterID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	if result.Decision == gate.DecisionBlock {
		h.logger.InfoContext(ctx, "lookup blocked",
			"request_id", requestID,
			"requester_id", requesterID.String(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, gate.BlockedMessage))
		return
	}

	h.logger.InfoContext(ctx, "lookup served",
		"request_id", requestID,
		"requester_id", requesterID.String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromResult(result, requestcontext.Now(ctx)))
}
