// Package ledger is the append-only audit record of every lookup attempt,
// violation report, and compliance event. Entries are immutable facts: the
// public contract has no update or delete, and every aggregate in the system
// is derived by re-reading the ledger rather than kept as a mutable counter.
package ledger

import (
	"time"

	id "aegis/pkg/domain"
)

// Action classifies a ledger entry. The set is closed; transparency
// aggregation depends on these exact values.
type Action string

const (
	// ActionLookupSuccess records a lookup that returned the policy snapshot.
	ActionLookupSuccess Action = "lookup_success"

	// ActionLookupBlocked records a lookup stopped by the anti-doxxing gate.
	ActionLookupBlocked Action = "lookup_blocked"

	// ActionLookupRejected records a lookup whose token failed verification.
	// Rejections never reach policy evaluation, so they are excluded from
	// blocked/success rates, but they stay visible for anomaly reporting.
	ActionLookupRejected Action = "lookup_rejected"

	// ActionViolationReported records a subject-initiated violation report.
	ActionViolationReported Action = "violation_reported"

	// ActionComplianceEvent records a requester's self-reported compliance
	// action.
	ActionComplianceEvent Action = "compliance_event"
)

var validActions = map[Action]bool{
	ActionLookupSuccess:     true,
	ActionLookupBlocked:     true,
	ActionLookupRejected:    true,
	ActionViolationReported: true,
	ActionComplianceEvent:   true,
}

// IsValid checks that the action is one of the supported enum values.
func (a Action) IsValid() bool { return validActions[a] }

// Entry is an immutable audit fact. RequesterID is the zero value for
// subject-initiated events (violation reports). SubjectRef is a stable hash
// of the capability token, never raw PII.
type Entry struct {
	ID          id.EntryID
	RequesterID id.RequesterID
	SubjectRef  string
	Action      Action
	Timestamp   time.Time
	ClientIP    string
	UserAgent   string
	Detail      map[string]any
}

// Filter narrows a ledger scan. Zero values mean "no constraint": a zero
// RequesterID matches every writer, nil Actions matches every action, and
// zero From/To leave the time range unbounded. From is inclusive, To
// exclusive.
type Filter struct {
	RequesterID id.RequesterID
	Actions     []Action
	From        time.Time
	To          time.Time
}

// Matches reports whether the entry satisfies the filter.
func (f Filter) Matches(e Entry) bool {
	if !f.RequesterID.IsNil() && e.RequesterID != f.RequesterID {
		return false
	}
	if len(f.Actions) > 0 {
		ok := false
		for _, a := range f.Actions {
			if e.Action == a {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if !f.From.IsZero() && e.Timestamp.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !e.Timestamp.Before(f.To) {
		return false
	}
	return true
}
