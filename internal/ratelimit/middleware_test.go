package ratelimit

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"aegis/pkg/requestcontext"
)

func serveWithLimit(t *testing.T, h http.Handler, path, clientIP string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req = req.WithContext(requestcontext.WithClientMetadata(req.Context(), clientIP, "test-agent"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMiddlewareBucketByEndpointClass(t *testing.T) {
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	var served int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		served++
		w.WriteHeader(http.StatusOK)
	})

	t.Run("distinct paths share one bucket", func(t *testing.T) {
		served = 0
		limit := Limit{Name: "lookup", Requests: 2, Window: time.Minute}
		h := Middleware(NewInMemoryStore(), limit, discard)(handler)

		// One caller walking through tokens must drain a single budget, not
		// open a fresh one per token.
		for _, path := range []string{
			"/v1/registry/tok-aaa",
			"/v1/registry/tok-bbb",
		} {
			rec := serveWithLimit(t, h, path, "203.0.113.9")
			assert.Equal(t, http.StatusOK, rec.Code)
		}
		rec := serveWithLimit(t, h, "/v1/registry/tok-ccc", "203.0.113.9")
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("Retry-After"))
		assert.Equal(t, 2, served)
	})

	t.Run("distinct classes keep separate buckets", func(t *testing.T) {
		store := NewInMemoryStore()
		lookups := Middleware(store, Limit{Name: "lookup", Requests: 1, Window: time.Minute}, discard)(handler)
		reports := Middleware(store, Limit{Name: "violations", Requests: 1, Window: time.Minute}, discard)(handler)

		assert.Equal(t, http.StatusOK, serveWithLimit(t, lookups, "/v1/registry/tok-aaa", "203.0.113.9").Code)
		assert.Equal(t, http.StatusTooManyRequests, serveWithLimit(t, lookups, "/v1/registry/tok-bbb", "203.0.113.9").Code)
		assert.Equal(t, http.StatusOK, serveWithLimit(t, reports, "/v1/violations", "203.0.113.9").Code)
	})

	t.Run("distinct clients keep separate buckets", func(t *testing.T) {
		limit := Limit{Name: "lookup", Requests: 1, Window: time.Minute}
		h := Middleware(NewInMemoryStore(), limit, discard)(handler)

		assert.Equal(t, http.StatusOK, serveWithLimit(t, h, "/v1/registry/tok-aaa", "203.0.113.9").Code)
		assert.Equal(t, http.StatusTooManyRequests, serveWithLimit(t, h, "/v1/registry/tok-aaa", "203.0.113.9").Code)
		assert.Equal(t, http.StatusOK, serveWithLimit(t, h, "/v1/registry/tok-aaa", "198.51.100.7").Code)
	})
}
