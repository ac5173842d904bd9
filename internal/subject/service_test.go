package subject_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aegis/internal/capability"
	"aegis/internal/rights"
	"aegis/internal/subject"
	id "aegis/pkg/domain"
	dErrors "aegis/pkg/domain-errors"
	"aegis/pkg/requestcontext"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestService(t *testing.T) (*subject.Service, *subject.InMemoryStore, *capability.Issuer) {
	t.Helper()
	issuer, err := capability.New([][]byte{[]byte("subject-test-key")}, 365*24*time.Hour, "aegis-test")
	require.NoError(t, err)
	store := subject.NewInMemoryStore()
	return subject.NewService(store, issuer, testLogger), store, issuer
}

func TestRegisterIssuesVerifiableToken(t *testing.T) {
	svc, store, issuer := newTestService(t)
	now := time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)

	policy := rights.Policy{Erasure: true, AntiDoxxing: true}
	issued, err := svc.Register(ctx, subject.Registration{
		ContactEmail: "Person@Example.org",
		Policy:       policy,
	})
	require.NoError(t, err)

	assert.Equal(t, "person@example.org", issued.Subject.ContactEmail)
	assert.Equal(t, policy, issued.Subject.Policy)
	assert.Equal(t, now.Add(365*24*time.Hour), issued.ExpiresAt)

	// The issued token round-trips through verification with the declared
	// policy intact.
	claims, err := issuer.Verify(issued.Token, now)
	require.NoError(t, err)
	assert.Equal(t, issued.Subject.ID.String(), claims.SubjectID)
	assert.Equal(t, policy, claims.Rights)

	stored, err := store.FindByID(ctx, issued.Subject.ID)
	require.NoError(t, err)
	assert.Equal(t, policy, stored.Policy)
}

func TestRegisterInvalidEmail(t *testing.T) {
	svc, _, _ := newTestService(t)

	for _, email := range []string{"", "   ", "nope"} {
		_, err := svc.Register(context.Background(), subject.Registration{ContactEmail: email})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, subject.Registration{ContactEmail: "dup@example.org"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, subject.Registration{ContactEmail: "Dup@Example.org"})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestAntiDoxxingAdoptionCounts(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	register := func(email string, protected bool) {
		_, err := svc.Register(ctx, subject.Registration{
			ContactEmail: email,
			Policy:       rights.Policy{AntiDoxxing: protected},
		})
		require.NoError(t, err)
	}
	register("a@example.org", true)
	register("b@example.org", false)
	register("c@example.org", true)

	total, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	protected, err := svc.CountWithAntiDoxxing(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, protected)
}

func TestFindByIDUnknown(t *testing.T) {
	_, store, _ := newTestService(t)
	_, err := store.FindByID(context.Background(), id.NewSubjectID())
	require.Error(t, err)
}
