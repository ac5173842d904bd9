// Package transparency computes public accountability statistics. Every
// number is derived from the ledger and the registries at read time; the
// package keeps no counters of its own, so a replayed ledger always
// reproduces the same report.
package transparency

import (
	"context"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"aegis/internal/ledger"
	"aegis/internal/requester"
	id "aegis/pkg/domain"
	dErrors "aegis/pkg/domain-errors"
	"aegis/pkg/requestcontext"
)

// RecentWindow is the sliding window for "recent" lookup counts.
const RecentWindow = 30 * 24 * time.Hour

// LedgerScanner reads audit entries.
type LedgerScanner interface {
	Scan(ctx context.Context, filter ledger.Filter, fn func(ledger.Entry) error) error
}

// RequesterDirectory resolves requesters and counts registrations.
type RequesterDirectory interface {
	GetByID(ctx context.Context, requesterID id.RequesterID) (requester.Requester, error)
	Count(ctx context.Context) (int, error)
}

// SubjectCounter counts subject registrations for adoption rates.
type SubjectCounter interface {
	Count(ctx context.Context) (int, error)
	CountWithAntiDoxxing(ctx context.Context) (int, error)
}

// RequesterStats is the public per-requester accountability report.
type RequesterStats struct {
	RequesterID     id.RequesterID
	Name            string
	TotalLookups    int
	BlockedLookups  int
	RecentLookups   int
	Violations      int
	ComplianceScore int
	RegisteredSince time.Time
	GeneratedAt     time.Time
}

// GlobalStats is the registry-wide accountability report.
type GlobalStats struct {
	TotalSubjects       int
	TotalRequesters     int
	TotalLookups        int
	BlockedLookups      int
	ProtectionRate      float64
	ProtectedSubjects   int
	AntiDoxxingAdoption float64
	Violations          int
	GeneratedAt         time.Time
}

// Service derives transparency reports on demand.
type Service struct {
	scanner    LedgerScanner
	requesters RequesterDirectory
	subjects   SubjectCounter
	logger     *slog.Logger
}

func NewService(scanner LedgerScanner, requesters RequesterDirectory, subjects SubjectCounter, logger *slog.Logger) *Service {
	return &Service{scanner: scanner, requesters: requesters, subjects: subjects, logger: logger}
}

// RequesterStats computes the accountability report for one requester.
// Violations count entries tied to the requester's stable id plus entries
// naming it in free text, so reports filed before registration still count.
func (s *Service) RequesterStats(ctx context.Context, requesterID id.RequesterID) (*RequesterStats, error) {
	req, err := s.requesters.GetByID(ctx, requesterID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			return nil, dErrors.New(dErrors.CodeNotFound, "requester not found")
		}
		return nil, err
	}

	now := requestcontext.Now(ctx)
	windowStart := now.Add(-RecentWindow)

	stats := &RequesterStats{
		RequesterID:     req.ID,
		Name:            req.Name,
		RegisteredSince: req.CreatedAt,
		GeneratedAt:     now,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		filter := ledger.Filter{
			RequesterID: req.ID,
			Actions:     []ledger.Action{ledger.ActionLookupSuccess, ledger.ActionLookupBlocked},
		}
		return s.scanner.Scan(gctx, filter, func(e ledger.Entry) error {
			switch e.Action {
			case ledger.ActionLookupSuccess:
				stats.TotalLookups++
				if !e.Timestamp.Before(windowStart) {
					stats.RecentLookups++
				}
			case ledger.ActionLookupBlocked:
				stats.BlockedLookups++
			}
			return nil
		})
	})

	g.Go(func() error {
		filter := ledger.Filter{Actions: []ledger.Action{ledger.ActionViolationReported}}
		return s.scanner.Scan(gctx, filter, func(e ledger.Entry) error {
			if e.RequesterID == req.ID {
				stats.Violations++
				return nil
			}
			if name, _ := e.Detail["company_name"].(string); name == req.Name && e.RequesterID.IsNil() {
				stats.Violations++
			}
			return nil
		})
	})

	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to aggregate requester stats", err)
	}

	stats.ComplianceScore = complianceScore(stats.Violations)
	return stats, nil
}

// GlobalStats computes the registry-wide report.
func (s *Service) GlobalStats(ctx context.Context) (*GlobalStats, error) {
	now := requestcontext.Now(ctx)
	stats := &GlobalStats{GeneratedAt: now}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		filter := ledger.Filter{Actions: []ledger.Action{
			ledger.ActionLookupSuccess,
			ledger.ActionLookupBlocked,
			ledger.ActionViolationReported,
		}}
		return s.scanner.Scan(gctx, filter, func(e ledger.Entry) error {
			switch e.Action {
			case ledger.ActionLookupSuccess:
				stats.TotalLookups++
			case ledger.ActionLookupBlocked:
				stats.BlockedLookups++
			case ledger.ActionViolationReported:
				stats.Violations++
			}
			return nil
		})
	})

	g.Go(func() error {
		n, err := s.subjects.Count(gctx)
		if err != nil {
			return err
		}
		stats.TotalSubjects = n
		return nil
	})

	g.Go(func() error {
		n, err := s.subjects.CountWithAntiDoxxing(gctx)
		if err != nil {
			return err
		}
		stats.ProtectedSubjects = n
		return nil
	})

	g.Go(func() error {
		n, err := s.requesters.Count(gctx)
		if err != nil {
			return err
		}
		stats.TotalRequesters = n
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to aggregate global stats", err)
	}

	stats.ProtectionRate = rate(stats.BlockedLookups, stats.TotalLookups+stats.BlockedLookups)
	stats.AntiDoxxingAdoption = rate(stats.ProtectedSubjects, stats.TotalSubjects)
	return stats, nil
}

// complianceScore maps a violation count to a 0..100 score. Each violation
// costs ten points; the score floors at zero.
func complianceScore(violations int) int {
	score := 100 - violations*10
	if score < 0 {
		return 0
	}
	return score
}

// rate returns num/denom as a percentage rounded to two decimals. A zero
// denominator yields zero rather than NaN.
func rate(num, denom int) float64 {
	if denom == 0 {
		return 0
	}
	return math.Round(float64(num)/float64(denom)*100*100) / 100
}
