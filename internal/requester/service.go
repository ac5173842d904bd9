package requester

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"

	"aegis/internal/platform/metrics"
	id "aegis/pkg/domain"
	dErrors "aegis/pkg/domain-errors"
	"aegis/pkg/platform/sentinel"
	"aegis/pkg/requestcontext"
)

// Store persists requesters. CreateIfEmailAvailable must be atomic: two
// concurrent registrations with the same contact email may not both succeed.
type Store interface {
	CreateIfEmailAvailable(ctx context.Context, r Requester) error
	FindByID(ctx context.Context, requesterID id.RequesterID) (Requester, error)
	FindByKeyHash(ctx context.Context, keyHash string) (Requester, error)
	Count(ctx context.Context) (int, error)
}

// Service orchestrates requester registration and API key authentication.
type Service struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// WithMetrics attaches the shared metrics. Optional.
func (s *Service) WithMetrics(m *metrics.Metrics) *Service {
	s.metrics = m
	return s
}

// Register creates a requester and issues its API key. The plaintext key is
// returned to the caller once and only its hash is stored.
func (s *Service) Register(ctx context.Context, reg Registration) (Requester, string, error) {
	reg.Name = strings.TrimSpace(reg.Name)
	reg.ContactEmail = strings.ToLower(strings.TrimSpace(reg.ContactEmail))

	if reg.Name == "" {
		return Requester{}, "", dErrors.New(dErrors.CodeInvalidInput, "company name is required")
	}
	if _, err := mail.ParseAddress(reg.ContactEmail); err != nil {
		return Requester{}, "", dErrors.New(dErrors.CodeInvalidInput, "contact email is invalid")
	}

	key, err := GenerateKey()
	if err != nil {
		return Requester{}, "", dErrors.Wrap(dErrors.CodeInternal, "failed to issue api key", err)
	}

	r := Requester{
		ID:           id.NewRequesterID(),
		Name:         reg.Name,
		ContactEmail: reg.ContactEmail,
		KeyHash:      HashKey(key),
		CreatedAt:    requestcontext.Now(ctx),
	}

	if err := s.store.CreateIfEmailAvailable(ctx, r); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return Requester{}, "", dErrors.New(dErrors.CodeConflict, "contact email is already registered")
		}
		return Requester{}, "", dErrors.Wrap(dErrors.CodeInternal, "failed to register requester", err)
	}

	s.metrics.IncrementRequestersRegistered()
	s.logger.InfoContext(ctx, "requester registered",
		"request_id", requestcontext.RequestID(ctx),
		"requester_id", r.ID.String(),
	)
	return r, key, nil
}

// AuthenticateKey resolves an API key to its requester. All failure modes
// collapse into one unauthorized error so callers cannot probe which keys
// exist.
func (s *Service) AuthenticateKey(ctx context.Context, key string) (Requester, error) {
	if !HasKeyShape(key) {
		return Requester{}, dErrors.New(dErrors.CodeUnauthorized, "invalid API key")
	}

	r, err := s.store.FindByKeyHash(ctx, HashKey(key))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Requester{}, dErrors.New(dErrors.CodeUnauthorized, "invalid API key")
		}
		return Requester{}, dErrors.Wrap(dErrors.CodeInternal, "failed to authenticate api key", err)
	}
	return r, nil
}

// GetByID returns a registered requester.
func (s *Service) GetByID(ctx context.Context, requesterID id.RequesterID) (Requester, error) {
	r, err := s.store.FindByID(ctx, requesterID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Requester{}, dErrors.New(dErrors.CodeUnauthorized, "unknown requester")
		}
		return Requester{}, dErrors.Wrap(dErrors.CodeInternal, "failed to load requester", err)
	}
	return r, nil
}

// Count returns the number of registered requesters.
func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, dErrors.Wrap(dErrors.CodeInternal, "failed to count requesters", err)
	}
	return n, nil
}
