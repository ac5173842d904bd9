package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"aegis/internal/transparency"
	id "aegis/pkg/domain"
	dErrors "aegis/pkg/domain-errors"
	"aegis/pkg/platform/httputil"
	"aegis/pkg/requestcontext"
)

// Service defines the interface for transparency reports.
type Service interface {
	RequesterStats(ctx context.Context, requesterID id.RequesterID) (*transparency.RequesterStats, error)
	GlobalStats(ctx context.Context) (*transparency.GlobalStats, error)
}

// Handler wires the public transparency endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a transparency handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts transparency endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/transparency/requesters/{id}", h.HandleRequesterStats)
	r.Get("/transparency/global", h.HandleGlobalStats)
}

// HandleRequesterStats handles GET /transparency/requesters/{id} requests.
func (h *Handler) HandleRequesterStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	requesterID, err := id.ParseRequesterID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "requester id is not valid"))
		return
	}

	stats, err := h.service.RequesterStats(ctx, requesterID)
	if err != nil {
		h.logger.WarnContext(ctx, "requester transparency report failed",
			"request_id", requestcontext.RequestID(ctx),
			"requester_id", requesterID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRequesterStats(stats))
}

// HandleGlobalStats handles GET /transparency/global requests.
func (h *Handler) HandleGlobalStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.service.GlobalStats(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "global transparency report failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromGlobalStats(stats))
}
