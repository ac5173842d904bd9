package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"aegis/internal/gate"
	"aegis/internal/gate/handler/mocks"
	"aegis/internal/requester"
	"aegis/internal/rights"
	id "aegis/pkg/domain"
	dErrors "aegis/pkg/domain-errors"
	"aegis/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/gate-mocks.go -package=mocks Service,Directory

func newTestHandler(t *testing.T) (*Handler, *mocks.MockService, *mocks.MockDirectory) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	mockService := mocks.NewMockService(ctrl)
	mockDirectory := mocks.NewMockDirectory(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler := New(mockService, mockDirectory, logger)
	r := chi.NewRouter()
	handler.Register(r)
	return handler, mockService, mockDirectory
}

func lookupRequest(token string, requesterID id.RequesterID) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/registry/"+token, nil)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("token", token)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if !requesterID.IsNil() {
		ctx = requestcontext.WithRequesterID(ctx, requesterID)
	}
	return req.WithContext(ctx)
}

func TestHandleLookupAllow(t *testing.T) {
	handler, mockService, mockDirectory := newTestHandler(t)

	requesterID := id.NewRequesterID()
	entryID := id.NewEntryID()
	req := requester.Requester{ID: requesterID, Name: "Acme Data Brokers"}
	policy := rights.Policy{Erasure: true, NoSale: true}

	mockDirectory.EXPECT().GetByID(gomock.Any(), requesterID).Return(req, nil)
	mockService.EXPECT().Evaluate(gomock.Any(), "tok123", req).Return(&gate.Result{
		Decision: gate.DecisionAllow,
		Policy:   &policy,
		EntryID:  entryID,
	}, nil)

	w := httptest.NewRecorder()
	handler.HandleLookup(w, lookupRequest("tok123", requesterID))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, entryID.String(), resp["audit_id"])
	declared := resp["rights"].(map[string]any)
	assert.Equal(t, true, declared["erasure"])
	assert.Equal(t, true, declared["no_sale"])
	assert.Equal(t, false, declared["anti_doxxing"])
}

func TestHandleLookupBlocked(t *testing.T) {
	handler, mockService, mockDirectory := newTestHandler(t)

	requesterID := id.NewRequesterID()
	req := requester.Requester{ID: requesterID, Name: "Acme Data Brokers"}
	policy := rights.Policy{AntiDoxxing: true}

	mockDirectory.EXPECT().GetByID(gomock.Any(), requesterID).Return(req, nil)
	mockService.EXPECT().Evaluate(gomock.Any(), "tok123", req).Return(&gate.Result{
		Decision: gate.DecisionBlock,
		Policy:   &policy,
		EntryID:  id.NewEntryID(),
	}, nil)

	w := httptest.NewRecorder()
	handler.HandleLookup(w, lookupRequest("tok123", requesterID))

	assert.Equal(t, http.StatusForbidden, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(dErrors.CodeForbidden), resp["error"])
	assert.Equal(t, gate.BlockedMessage, resp["error_description"])
	// No rights leak through a block.
	assert.NotContains(t, resp, "rights")
}

func TestHandleLookupTokenErrors(t *testing.T) {
	cases := map[string]struct {
		serviceErr error
		wantStatus int
	}{
		"malformed": {
			serviceErr: dErrors.New(dErrors.CodeTokenMalformed, "token is malformed"),
			wantStatus: http.StatusBadRequest,
		},
		"bad signature": {
			serviceErr: dErrors.New(dErrors.CodeTokenSignature, "token signature is invalid"),
			wantStatus: http.StatusUnauthorized,
		},
		"expired": {
			serviceErr: dErrors.New(dErrors.CodeTokenExpired, "token has expired"),
			wantStatus: http.StatusBadRequest,
		},
		"ledger unavailable": {
			serviceErr: dErrors.New(dErrors.CodeLedgerWrite, "audit ledger append failed"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			handler, mockService, mockDirectory := newTestHandler(t)

			requesterID := id.NewRequesterID()
			req := requester.Requester{ID: requesterID, Name: "Acme Data Brokers"}
			mockDirectory.EXPECT().GetByID(gomock.Any(), requesterID).Return(req, nil)
			mockService.EXPECT().Evaluate(gomock.Any(), "tok123", req).Return(nil, tc.serviceErr)

			w := httptest.NewRecorder()
			handler.HandleLookup(w, lookupRequest("tok123", requesterID))
			assert.Equal(t, tc.wantStatus, w.Code)
		})
	}
}

func TestHandleLookupUnauthenticated(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	w := httptest.NewRecorder()
	handler.HandleLookup(w, lookupRequest("tok123", id.RequesterID{}))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandleLookupUnknownRequester(t *testing.T) {
	handler, _, mockDirectory := newTestHandler(t)

	requesterID := id.NewRequesterID()
	mockDirectory.EXPECT().GetByID(gomock.Any(), requesterID).
		Return(requester.Requester{}, dErrors.New(dErrors.CodeUnauthorized, "unknown requester"))

	w := httptest.NewRecorder()
	handler.HandleLookup(w, lookupRequest("tok123", requesterID))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
