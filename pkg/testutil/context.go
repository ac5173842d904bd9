package testutil

import (
	"net/http"
	"time"

	id "aegis/pkg/domain"
	"aegis/pkg/requestcontext"
)

// WithRequesterID adds an authenticated requester to the request context,
// simulating what the API key middleware does.
func WithRequesterID(req *http.Request, requesterID id.RequesterID) *http.Request {
	return req.WithContext(requestcontext.WithRequesterID(req.Context(), requesterID))
}

// WithRequestTime freezes the request clock, simulating the request time
// middleware.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}

// WithClientMetadata attaches client IP and user agent to the request
// context.
func WithClientMetadata(req *http.Request, clientIP, userAgent string) *http.Request {
	return req.WithContext(requestcontext.WithClientMetadata(req.Context(), clientIP, userAgent))
}
