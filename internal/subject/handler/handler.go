package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"aegis/internal/subject"
	"aegis/pkg/platform/httputil"
	"aegis/pkg/requestcontext"
)

// Service defines the interface for subject registration.
type Service interface {
	Register(ctx context.Context, reg subject.Registration) (subject.IssuedToken, error)
}

// Handler wires subject registration to the subject service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a subject handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts subject endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/register", h.HandleRegister)
}

// HandleRegister handles POST /register requests.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	issued, err := h.service.Register(ctx, subject.Registration{
		ContactEmail: req.Email,
		Policy:       req.Rights,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "subject registration failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "subject registration served",
		"request_id", requestID,
		"subject_id", issued.Subject.ID.String(),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromIssuedToken(issued))
}
