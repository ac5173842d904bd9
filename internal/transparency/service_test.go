package transparency_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aegis/internal/capability"
	"aegis/internal/gate"
	"aegis/internal/ledger"
	"aegis/internal/requester"
	"aegis/internal/rights"
	"aegis/internal/subject"
	"aegis/internal/transparency"
	id "aegis/pkg/domain"
	dErrors "aegis/pkg/domain-errors"
	"aegis/pkg/requestcontext"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fixture struct {
	service    *transparency.Service
	ledger     *ledger.Ledger
	store      *ledger.InMemoryStore
	requesters *requester.Service
	subjects   *subject.Service
	issuer     *capability.Issuer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	issuer, err := capability.New([][]byte{[]byte("transparency-test-key")}, 365*24*time.Hour, "aegis-test")
	require.NoError(t, err)

	store := ledger.NewInMemoryStore()
	led := ledger.New(store)
	requesters := requester.NewService(requester.NewInMemoryStore(), testLogger)
	subjects := subject.NewService(subject.NewInMemoryStore(), issuer, testLogger)

	return &fixture{
		service:    transparency.NewService(led, requesters, subjects, testLogger),
		ledger:     led,
		store:      store,
		requesters: requesters,
		subjects:   subjects,
		issuer:     issuer,
	}
}

func (f *fixture) registerRequester(t *testing.T, name, email string) requester.Requester {
	t.Helper()
	r, _, err := f.requesters.Register(context.Background(), requester.Registration{Name: name, ContactEmail: email})
	require.NoError(t, err)
	return r
}

func (f *fixture) append(t *testing.T, e ledger.Entry) {
	t.Helper()
	_, err := f.ledger.Append(context.Background(), e)
	require.NoError(t, err)
}

func TestRequesterStats(t *testing.T) {
	f := newFixture(t)
	now := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)

	acme := f.registerRequester(t, "Acme Data Brokers", "acme@example.com")
	other := f.registerRequester(t, "Other Corp", "other@example.com")

	// Two old successes, one recent, one blocked, plus noise from another
	// requester.
	f.append(t, ledger.Entry{RequesterID: acme.ID, Action: ledger.ActionLookupSuccess, Timestamp: now.Add(-60 * 24 * time.Hour)})
	f.append(t, ledger.Entry{RequesterID: acme.ID, Action: ledger.ActionLookupSuccess, Timestamp: now.Add(-45 * 24 * time.Hour)})
	f.append(t, ledger.Entry{RequesterID: acme.ID, Action: ledger.ActionLookupSuccess, Timestamp: now.Add(-24 * time.Hour)})
	f.append(t, ledger.Entry{RequesterID: acme.ID, Action: ledger.ActionLookupBlocked, Timestamp: now.Add(-12 * time.Hour)})
	f.append(t, ledger.Entry{RequesterID: other.ID, Action: ledger.ActionLookupSuccess, Timestamp: now.Add(-time.Hour)})

	// One violation tied by stable id, one matched by reported name only,
	// one naming a different company.
	f.append(t, ledger.Entry{RequesterID: acme.ID, Action: ledger.ActionViolationReported, Timestamp: now.Add(-time.Hour),
		Detail: map[string]any{"company_name": "Acme Data Brokers"}})
	f.append(t, ledger.Entry{Action: ledger.ActionViolationReported, Timestamp: now.Add(-time.Hour),
		Detail: map[string]any{"company_name": "Acme Data Brokers"}})
	f.append(t, ledger.Entry{Action: ledger.ActionViolationReported, Timestamp: now.Add(-time.Hour),
		Detail: map[string]any{"company_name": "Unrelated Inc"}})

	stats, err := f.service.RequesterStats(ctx, acme.ID)
	require.NoError(t, err)

	assert.Equal(t, "Acme Data Brokers", stats.Name)
	assert.Equal(t, 3, stats.TotalLookups)
	assert.Equal(t, 1, stats.BlockedLookups)
	assert.Equal(t, 1, stats.RecentLookups)
	assert.Equal(t, 2, stats.Violations)
	assert.Equal(t, 80, stats.ComplianceScore)
}

func TestRequesterStatsUnknownRequester(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.RequesterStats(context.Background(), id.NewRequesterID())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestComplianceScoreFloorsAtZero(t *testing.T) {
	f := newFixture(t)
	now := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)

	acme := f.registerRequester(t, "Acme Data Brokers", "acme@example.com")
	for range 12 {
		f.append(t, ledger.Entry{RequesterID: acme.ID, Action: ledger.ActionViolationReported, Timestamp: now.Add(-time.Hour)})
	}

	stats, err := f.service.RequesterStats(ctx, acme.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, stats.Violations)
	assert.Equal(t, 0, stats.ComplianceScore)
}

func TestGlobalStatsEmptyRegistry(t *testing.T) {
	f := newFixture(t)

	stats, err := f.service.GlobalStats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalLookups)
	assert.Zero(t, stats.ProtectionRate)
	assert.Zero(t, stats.AntiDoxxingAdoption)
}

// A protected subject registered at t0 is looked up at t0+1s (blocked) and
// again after token expiry (rejected). The rejection must not leak into the
// blocked aggregates.
func TestGlobalStatsBlockAndExpiryScenario(t *testing.T) {
	f := newFixture(t)
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	regCtx := requestcontext.WithTime(context.Background(), t0)
	issued, err := f.subjects.Register(regCtx, subject.Registration{
		ContactEmail: "protected@example.org",
		Policy:       rights.Policy{AntiDoxxing: true, Erasure: true},
	})
	require.NoError(t, err)

	acme := f.registerRequester(t, "Acme Data Brokers", "acme@example.com")
	g := gate.New(f.issuer, f.ledger, testLogger, nil)

	lookupCtx := requestcontext.WithTime(context.Background(), t0.Add(time.Second))
	result, err := g.Evaluate(lookupCtx, issued.Token, acme)
	require.NoError(t, err)
	assert.Equal(t, gate.DecisionBlock, result.Decision)

	expiredCtx := requestcontext.WithTime(context.Background(), t0.Add(366*24*time.Hour))
	_, err = g.Evaluate(expiredCtx, issued.Token, acme)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTokenExpired))

	stats, err := f.service.GlobalStats(expiredCtx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalLookups)
	assert.Equal(t, 1, stats.BlockedLookups)
	assert.Equal(t, float64(100), stats.ProtectionRate)
	assert.Equal(t, 1, stats.TotalSubjects)
	assert.Equal(t, 1, stats.ProtectedSubjects)
	assert.Equal(t, float64(100), stats.AntiDoxxingAdoption)
	assert.Equal(t, 0, stats.Violations)
}

func TestGlobalStatsRates(t *testing.T) {
	f := newFixture(t)
	now := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)

	for range 2 {
		f.append(t, ledger.Entry{Action: ledger.ActionLookupSuccess, Timestamp: now})
	}
	f.append(t, ledger.Entry{Action: ledger.ActionLookupBlocked, Timestamp: now})

	register := func(email string, protected bool) {
		_, err := f.subjects.Register(ctx, subject.Registration{
			ContactEmail: email,
			Policy:       rights.Policy{AntiDoxxing: protected},
		})
		require.NoError(t, err)
	}
	register("a@example.org", true)
	register("b@example.org", false)
	register("c@example.org", false)

	stats, err := f.service.GlobalStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalLookups)
	assert.Equal(t, 1, stats.BlockedLookups)
	assert.InDelta(t, 33.33, stats.ProtectionRate, 0.001)
	assert.InDelta(t, 33.33, stats.AntiDoxxingAdoption, 0.001)
}
