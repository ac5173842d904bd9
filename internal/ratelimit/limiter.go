// Package ratelimit throttles abusive callers per endpoint class. Limits are
// sliding-window per key; the Redis store shares state across instances and
// the in-memory store serves single-instance and test deployments.
package ratelimit

import (
	"context"
	"time"
)

// Result reports the outcome of one limit check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Store checks and increments a rate limit counter atomically.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
}

// Limit describes one endpoint class's budget. Name identifies the class in
// limiter keys: every request in the class shares one bucket per caller, no
// matter which concrete path (token, id) it carries.
type Limit struct {
	Name     string
	Requests int
	Window   time.Duration
}

// Default budgets follow the registry's public surface: registration is
// scarce, lookups are the hot path, violation reports are deliberately slow
// to keep the ledger honest.
var (
	LimitRegistration = Limit{Name: "registration", Requests: 10, Window: time.Minute}
	LimitLookup       = Limit{Name: "lookup", Requests: 100, Window: time.Minute}
	LimitViolations   = Limit{Name: "violations", Requests: 20, Window: time.Hour}
	LimitCompliance   = Limit{Name: "compliance", Requests: 1000, Window: time.Hour}
)
