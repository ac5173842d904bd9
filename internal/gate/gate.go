// Package gate is the enforcement point for rights lookups. Every lookup
// passes through token verification, the policy gate, and exactly one audit
// ledger append before a decision is reported to the caller.
package gate

import (
	"context"
	"log/slog"
	"time"

	"aegis/internal/capability"
	"aegis/internal/gate/metrics"
	"aegis/internal/ledger"
	"aegis/internal/requester"
	"aegis/internal/rights"
	id "aegis/pkg/domain"
	dErrors "aegis/pkg/domain-errors"
	"aegis/pkg/requestcontext"
)

// Decision is the terminal state of a lookup evaluation.
type Decision string

const (
	// DecisionAllow: the full policy snapshot is returned to the requester.
	DecisionAllow Decision = "allow"
	// DecisionBlock: the anti-doxxing gate stopped the lookup.
	DecisionBlock Decision = "block"
	// DecisionReject: the token failed verification before policy
	// evaluation was reached.
	DecisionReject Decision = "reject"
)

// BlockedMessage is the fixed explanation returned with every blocked
// lookup. It deliberately carries no detail about the subject.
const BlockedMessage = "Access denied: subject has anti-doxxing protection enabled. Lookup blocked to prevent stalking or harassment."

// TokenVerifier decodes and validates a capability token at a given instant.
type TokenVerifier interface {
	Verify(tokenString string, now time.Time) (*capability.Claims, error)
}

// AuditAppender records a single ledger entry.
type AuditAppender interface {
	Append(ctx context.Context, entry ledger.Entry) (id.EntryID, error)
}

// Result is the outcome of one evaluation. Policy is populated whenever the
// token verified (Allow and Block); EntryID references the audit entry that
// made the outcome durable.
type Result struct {
	Decision Decision
	Policy   *rights.Policy
	EntryID  id.EntryID
}

// Gate evaluates lookups. It holds no state of its own between calls; the
// ledger owns all persistence.
type Gate struct {
	verifier TokenVerifier
	audit    AuditAppender
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func New(verifier TokenVerifier, audit AuditAppender, logger *slog.Logger, m *metrics.Metrics) *Gate {
	return &Gate{verifier: verifier, audit: audit, logger: logger, metrics: m}
}

// Evaluate runs one lookup: verify token, apply the policy gate, append the
// audit entry, return the decision.
//
// Verification failures short-circuit but are still audited as
// lookup_rejected so repeated invalid attempts stay visible; the original
// verification error is returned to the caller after the append succeeds.
// If any audit append fails, the evaluation fails with CodeLedgerWrite and
// no decision is reported: an unaudited lookup has no evidentiary value.
func (g *Gate) Evaluate(ctx context.Context, tokenString string, req requester.Requester) (*Result, error) {
	now := requestcontext.Now(ctx)
	start := time.Now()
	defer func() {
		g.metrics.ObserveEvaluateLatency(time.Since(start))
	}()

	subjectRef := capability.TokenReference(tokenString)

	claims, err := g.verifier.Verify(tokenString, now)
	if err != nil {
		return g.reject(ctx, req, subjectRef, err)
	}

	policy := claims.Rights

	if policy.AntiDoxxing {
		// Unconditional override: no requester attribute bypasses this.
		entryID, auditErr := g.append(ctx, ledger.Entry{
			RequesterID: req.ID,
			SubjectRef:  subjectRef,
			Action:      ledger.ActionLookupBlocked,
			Detail: map[string]any{
				"requester_name": req.Name,
				"reason":         "subject has anti-doxxing protection enabled",
			},
		})
		if auditErr != nil {
			return nil, auditErr
		}

		g.metrics.IncrementDecision(string(DecisionBlock))
		g.logger.WarnContext(ctx, "lookup blocked by anti-doxxing gate",
			"request_id", requestcontext.RequestID(ctx),
			"requester_id", req.ID.String(),
			"subject_ref", subjectRef,
		)
		return &Result{Decision: DecisionBlock, Policy: &policy, EntryID: entryID}, nil
	}

	entryID, auditErr := g.append(ctx, ledger.Entry{
		RequesterID: req.ID,
		SubjectRef:  subjectRef,
		Action:      ledger.ActionLookupSuccess,
		Detail: map[string]any{
			"requester_name":  req.Name,
			"rights_returned": policy.Flags(),
		},
	})
	if auditErr != nil {
		return nil, auditErr
	}

	g.metrics.IncrementDecision(string(DecisionAllow))
	g.logger.InfoContext(ctx, "lookup allowed",
		"request_id", requestcontext.RequestID(ctx),
		"requester_id", req.ID.String(),
		"subject_ref", subjectRef,
	)
	return &Result{Decision: DecisionAllow, Policy: &policy, EntryID: entryID}, nil
}

// reject audits a verification failure and then surfaces it.
func (g *Gate) reject(ctx context.Context, req requester.Requester, subjectRef string, verifyErr error) (*Result, error) {
	reason := string(dErrors.CodeOf(verifyErr))
	g.metrics.IncrementVerifyFailure(reason)

	entryID, auditErr := g.append(ctx, ledger.Entry{
		RequesterID: req.ID,
		SubjectRef:  subjectRef,
		Action:      ledger.ActionLookupRejected,
		Detail: map[string]any{
			"requester_name": req.Name,
			"reason":         reason,
		},
	})
	if auditErr != nil {
		return nil, auditErr
	}

	g.metrics.IncrementDecision(string(DecisionReject))
	g.logger.WarnContext(ctx, "lookup rejected: token verification failed",
		"request_id", requestcontext.RequestID(ctx),
		"requester_id", req.ID.String(),
		"subject_ref", subjectRef,
		"reason", reason,
	)
	return &Result{Decision: DecisionReject, EntryID: entryID}, verifyErr
}

// append writes one ledger entry with request metadata attached.
func (g *Gate) append(ctx context.Context, entry ledger.Entry) (id.EntryID, error) {
	entry.ClientIP = requestcontext.ClientIP(ctx)
	entry.UserAgent = requestcontext.UserAgent(ctx)

	entryID, err := g.audit.Append(ctx, entry)
	if err != nil {
		g.logger.ErrorContext(ctx, "audit append failed, refusing to report decision",
			"request_id", requestcontext.RequestID(ctx),
			"action", string(entry.Action),
			"error", err,
		)
		return id.EntryID{}, err
	}
	return entryID, nil
}
