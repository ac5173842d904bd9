package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"aegis/internal/requester"
	"aegis/pkg/platform/httputil"
	"aegis/pkg/requestcontext"
)

// Service defines the interface for requester registration.
type Service interface {
	Register(ctx context.Context, reg requester.Registration) (requester.Requester, string, error)
}

// Handler wires requester registration to the requester service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a requester handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts requester endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/requesters/register", h.HandleRegister)
}

// HandleRegister handles POST /requesters/register requests.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	created, apiKey, err := h.service.Register(ctx, requester.Registration{
		Name:         req.CompanyName,
		ContactEmail: req.ContactEmail,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "requester registration failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "requester registration served",
		"request_id", requestID,
		"requester_id", created.ID.String(),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromRequester(created, apiKey))
}
