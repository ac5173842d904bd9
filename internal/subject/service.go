package subject

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"aegis/internal/platform/metrics"
	"aegis/internal/rights"
	id "aegis/pkg/domain"
	dErrors "aegis/pkg/domain-errors"
	"aegis/pkg/platform/sentinel"
	"aegis/pkg/requestcontext"
)

// Store persists subjects. CreateIfEmailAvailable must be atomic with the
// uniqueness check.
type Store interface {
	CreateIfEmailAvailable(ctx context.Context, s Subject) error
	FindByID(ctx context.Context, subjectID id.SubjectID) (Subject, error)
	Count(ctx context.Context) (int, error)
	CountWithAntiDoxxing(ctx context.Context) (int, error)
}

// TokenIssuer mints capability tokens for registered subjects.
type TokenIssuer interface {
	Issue(subjectID id.SubjectID, policy rights.Policy, now time.Time) (string, time.Time, error)
}

// Service orchestrates subject registration and token issuance.
type Service struct {
	store   Store
	issuer  TokenIssuer
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewService(store Store, issuer TokenIssuer, logger *slog.Logger) *Service {
	return &Service{store: store, issuer: issuer, logger: logger}
}

// WithMetrics attaches the shared metrics. Optional.
func (s *Service) WithMetrics(m *metrics.Metrics) *Service {
	s.metrics = m
	return s
}

// Register creates a subject record and issues its capability token. The
// declared policy is frozen into both the record and the token.
func (s *Service) Register(ctx context.Context, reg Registration) (IssuedToken, error) {
	reg.ContactEmail = strings.ToLower(strings.TrimSpace(reg.ContactEmail))
	if _, err := mail.ParseAddress(reg.ContactEmail); err != nil {
		return IssuedToken{}, dErrors.New(dErrors.CodeInvalidInput, "contact email is invalid")
	}

	now := requestcontext.Now(ctx)
	sub := Subject{
		ID:           id.NewSubjectID(),
		ContactEmail: reg.ContactEmail,
		Policy:       reg.Policy,
		CreatedAt:    now,
	}

	if err := s.store.CreateIfEmailAvailable(ctx, sub); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return IssuedToken{}, dErrors.New(dErrors.CodeConflict, "email is already registered")
		}
		return IssuedToken{}, dErrors.Wrap(dErrors.CodeInternal, "failed to register subject", err)
	}

	token, expiresAt, err := s.issuer.Issue(sub.ID, sub.Policy, now)
	if err != nil {
		return IssuedToken{}, dErrors.Wrap(dErrors.CodeInternal, "failed to issue registry token", err)
	}

	s.metrics.IncrementSubjectsRegistered()
	s.logger.InfoContext(ctx, "subject registered",
		"request_id", requestcontext.RequestID(ctx),
		"subject_id", sub.ID.String(),
		"anti_doxxing", sub.Policy.AntiDoxxing,
	)
	return IssuedToken{Subject: sub, Token: token, ExpiresAt: expiresAt}, nil
}

// Count returns the number of registered subjects.
func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, dErrors.Wrap(dErrors.CodeInternal, "failed to count subjects", err)
	}
	return n, nil
}

// CountWithAntiDoxxing returns how many subjects enabled anti-doxxing
// protection at registration.
func (s *Service) CountWithAntiDoxxing(ctx context.Context) (int, error) {
	n, err := s.store.CountWithAntiDoxxing(ctx)
	if err != nil {
		return 0, dErrors.Wrap(dErrors.CodeInternal, "failed to count protected subjects", err)
	}
	return n, nil
}
