package httptransport_test

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aegis/internal/capability"
	"aegis/internal/gate"
	gatehandler "aegis/internal/gate/handler"
	"aegis/internal/ledger"
	"aegis/internal/ratelimit"
	"aegis/internal/requester"
	requesterhandler "aegis/internal/requester/handler"
	"aegis/internal/subject"
	subjecthandler "aegis/internal/subject/handler"
	"aegis/internal/transparency"
	transparencyhandler "aegis/internal/transparency/handler"
	httptransport "aegis/internal/transport/http"
	"aegis/internal/violation"
	violationhandler "aegis/internal/violation/handler"
	"aegis/pkg/testutil"
)

// newTestServer wires the full HTTP surface over in-memory stores.
func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	issuer, err := capability.New([][]byte{[]byte("router-test-key")}, 365*24*time.Hour, "aegis-test")
	require.NoError(t, err)

	auditLedger := ledger.New(ledger.NewInMemoryStore())
	subjects := subject.NewService(subject.NewInMemoryStore(), issuer, logger)
	requesters := requester.NewService(requester.NewInMemoryStore(), logger)
	enforcement := gate.New(issuer, auditLedger, logger, nil)
	violations := violation.NewService(issuer, auditLedger, logger)
	reports := transparency.NewService(auditLedger, requesters, subjects, logger)

	return httptransport.NewRouter(httptransport.Deps{
		Logger:       logger,
		Subjects:     subjecthandler.New(subjects, logger),
		Requesters:   requesterhandler.New(requesters, logger),
		Gate:         gatehandler.New(enforcement, requesters, logger),
		Violations:   violationhandler.New(violations, requesters, logger),
		Transparency: transparencyhandler.New(reports, logger),
		Health:       httptransport.NewHealthHandler(nil),
		Auth:         requesters,
		RateLimit:    ratelimit.NewInMemoryStore(),
	})
}

func registerSubject(t *testing.T, srv http.Handler, email string, rights map[string]bool) map[string]any {
	t.Helper()
	rr := testutil.DoRequest(srv, testutil.NewJSONRequest(t, http.MethodPost, "/v1/register", map[string]any{
		"email":  email,
		"rights": rights,
	}))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return testutil.DecodeJSON(t, rr)
}

func registerRequester(t *testing.T, srv http.Handler, name, email string) map[string]any {
	t.Helper()
	rr := testutil.DoRequest(srv, testutil.NewJSONRequest(t, http.MethodPost, "/v1/requesters/register", map[string]any{
		"company_name":  name,
		"contact_email": email,
	}))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return testutil.DecodeJSON(t, rr)
}

func TestLookupFlow(t *testing.T) {
	srv := newTestServer(t)

	sub := registerSubject(t, srv, "person@example.org", map[string]bool{"erasure": true, "no_sale": true})
	token := sub["token"].(string)
	req := registerRequester(t, srv, "Acme Data Brokers", "acme@example.com")
	apiKey := req["api_key"].(string)

	t.Run("allow", func(t *testing.T) {
		rr := testutil.DoRequest(srv, testutil.WithAPIKey(
			testutil.NewJSONRequest(t, http.MethodGet, "/v1/registry/"+token, nil), apiKey))
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		body := testutil.DecodeJSON(t, rr)
		declared := body["rights"].(map[string]any)
		assert.Equal(t, true, declared["erasure"])
		assert.Equal(t, false, declared["anti_doxxing"])
	})

	t.Run("no api key", func(t *testing.T) {
		rr := testutil.DoRequest(srv, testutil.NewJSONRequest(t, http.MethodGet, "/v1/registry/"+token, nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("bogus api key", func(t *testing.T) {
		rr := testutil.DoRequest(srv, testutil.WithAPIKey(
			testutil.NewJSONRequest(t, http.MethodGet, "/v1/registry/"+token, nil), "prr_not_a_real_key"))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("malformed token", func(t *testing.T) {
		rr := testutil.DoRequest(srv, testutil.WithAPIKey(
			testutil.NewJSONRequest(t, http.MethodGet, "/v1/registry/garbage", nil), apiKey))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestAntiDoxxingBlockFlow(t *testing.T) {
	srv := newTestServer(t)

	sub := registerSubject(t, srv, "protected@example.org", map[string]bool{"anti_doxxing": true, "erasure": true})
	token := sub["token"].(string)
	req := registerRequester(t, srv, "Acme Data Brokers", "acme@example.com")
	apiKey := req["api_key"].(string)

	rr := testutil.DoRequest(srv, testutil.WithAPIKey(
		testutil.NewJSONRequest(t, http.MethodGet, "/v1/registry/"+token, nil), apiKey))
	require.Equal(t, http.StatusForbidden, rr.Code)
	body := testutil.DecodeJSON(t, rr)
	assert.Contains(t, body["error_description"], "anti-doxxing")

	// The block is visible in the global transparency report.
	rr = testutil.DoRequest(srv, testutil.NewJSONRequest(t, http.MethodGet, "/v1/transparency/global", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	stats := testutil.DecodeJSON(t, rr)
	assert.EqualValues(t, 1, stats["blocked_lookups"])
	assert.EqualValues(t, 100, stats["protection_rate"])
}

func TestViolationReportFlow(t *testing.T) {
	srv := newTestServer(t)

	sub := registerSubject(t, srv, "person@example.org", map[string]bool{"no_sale": true})
	token := sub["token"].(string)
	req := registerRequester(t, srv, "Acme Data Brokers", "acme@example.com")
	requesterID := req["requester_id"].(string)

	rr := testutil.DoRequest(srv, testutil.NewJSONRequest(t, http.MethodPost, "/v1/violations/report", map[string]any{
		"user_token":     token,
		"company_name":   "Acme Data Brokers",
		"requester_id":   requesterID,
		"violation_type": "sold_data_after_opt_out",
		"description":    "My data appeared in a purchased list.",
	}))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	// The report drags the requester's compliance score down.
	rr = testutil.DoRequest(srv, testutil.NewJSONRequest(t, http.MethodGet, "/v1/transparency/requesters/"+requesterID, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	stats := testutil.DecodeJSON(t, rr)
	assert.EqualValues(t, 1, stats["violations_reported"])
	assert.EqualValues(t, 90, stats["compliance_score"])
}

func TestComplianceLogFlow(t *testing.T) {
	srv := newTestServer(t)

	sub := registerSubject(t, srv, "person@example.org", map[string]bool{"erasure": true})
	token := sub["token"].(string)
	req := registerRequester(t, srv, "Acme Data Brokers", "acme@example.com")
	apiKey := req["api_key"].(string)

	rr := testutil.DoRequest(srv, testutil.WithAPIKey(
		testutil.NewJSONRequest(t, http.MethodPost, "/v1/audit/log", map[string]any{
			"user_token": token,
			"action":     "data_erased",
			"metadata":   map[string]any{"records_removed": 3},
		}), apiKey))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	// Unauthenticated compliance logging is rejected.
	rr = testutil.DoRequest(srv, testutil.NewJSONRequest(t, http.MethodPost, "/v1/audit/log", map[string]any{
		"user_token": token,
		"action":     "data_erased",
	}))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestDuplicateRegistrations(t *testing.T) {
	srv := newTestServer(t)

	registerSubject(t, srv, "person@example.org", map[string]bool{})
	rr := testutil.DoRequest(srv, testutil.NewJSONRequest(t, http.MethodPost, "/v1/register", map[string]any{
		"email":  "person@example.org",
		"rights": map[string]bool{},
	}))
	assert.Equal(t, http.StatusConflict, rr.Code)

	registerRequester(t, srv, "Acme", "acme@example.com")
	rr = testutil.DoRequest(srv, testutil.NewJSONRequest(t, http.MethodPost, "/v1/requesters/register", map[string]any{
		"company_name":  "Acme Again",
		"contact_email": "acme@example.com",
	}))
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestUnknownRightsFlagRejected(t *testing.T) {
	srv := newTestServer(t)

	rr := testutil.DoRequest(srv, testutil.NewJSONRequest(t, http.MethodPost, "/v1/register", map[string]any{
		"email":  "person@example.org",
		"rights": map[string]bool{"telepathy_opt_out": true},
	}))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	rr := testutil.DoRequest(srv, testutil.NewJSONRequest(t, http.MethodGet, "/v1/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body := testutil.DecodeJSON(t, rr)
	assert.Equal(t, "healthy", body["status"])
}

func TestRegistrationRateLimit(t *testing.T) {
	srv := newTestServer(t)

	var last int
	for i := 0; i < 11; i++ {
		rr := testutil.DoRequest(srv, testutil.NewJSONRequest(t, http.MethodPost, "/v1/register", map[string]any{
			"email":  "person@example.org",
			"rights": map[string]bool{},
		}))
		last = rr.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}
