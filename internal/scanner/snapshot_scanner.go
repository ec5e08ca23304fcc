package scanner

import (
	"context"
	"fmt"
	"log/slog"

	"PageDrift/internal/domain"
	"PageDrift/internal/ports"
)

// Handler consumes the raw bytes of one fetched snapshot. A returned error
// rejects the candidate and the scan moves on to the next one.
type Handler func(raw []byte) error

// Outcome is the terminal state of a scan.
type Outcome int

const (
	Resolved Outcome = iota + 1
	Exhausted
)

func (o Outcome) String() string {
	switch o {
	case Resolved:
		return "resolved"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Reason explains an exhausted scan.
type Reason string

const (
	ReasonNone           Reason = ""
	ReasonNoCandidates   Reason = "no-candidates"
	ReasonAllRejected    Reason = "all-statuses-rejected"
	ReasonAllFailed      Reason = "all-attempts-failed"
	ReasonDirectoryError Reason = "directory-error"
)

// Resolution is the result of trying snapshot candidates for one URL.
type Resolution struct {
	Outcome    Outcome
	Snapshot   domain.Snapshot
	Candidates int
	Skipped    int
	Attempts   int
	Reason     Reason
	LastErr    error
}

// Resolved reports whether a snapshot was successfully handled.
func (r Resolution) Resolved() bool {
	return r.Outcome == Resolved
}

// SnapshotScanner walks archived candidates until a handler accepts one.
type SnapshotScanner struct {
	directory ports.SnapshotDirectory
	fetcher   ports.Fetcher
	ordering  Ordering
	recorder  ports.Recorder
	logger    *slog.Logger
}

// NewSnapshotScanner wires the archive collaborators; ordering defaults to newest-first.
func NewSnapshotScanner(dir ports.SnapshotDirectory, fetcher ports.Fetcher, ordering Ordering, recorder ports.Recorder, log *slog.Logger) *SnapshotScanner {
	if ordering == nil {
		ordering = NewestFirst{}
	}
	return &SnapshotScanner{
		directory: dir,
		fetcher:   fetcher,
		ordering:  ordering,
		recorder:  recorder,
		logger:    log,
	}
}

// Scan lists candidates for url in window and feeds them to handle until one
// succeeds. Per-candidate failures never escape; only context cancellation does.
func (s *SnapshotScanner) Scan(ctx context.Context, url string, window domain.DateRange, handle Handler) (Resolution, error) {
	if err := ctx.Err(); err != nil {
		return Resolution{}, err
	}

	candidates, err := s.directory.ListSnapshots(ctx, url, window)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Resolution{}, ctxErr
		}
		s.debug("list snapshots failed", "url", url, "error", err)
		return s.exhausted(Resolution{Reason: ReasonDirectoryError, LastErr: fmt.Errorf("list snapshots: %w", err)}), nil
	}

	res := Resolution{Candidates: len(candidates)}
	if len(candidates) == 0 {
		res.Reason = ReasonNoCandidates
		return s.exhausted(res), nil
	}

	for _, snap := range s.ordering.Order(candidates) {
		if !snap.Viable() {
			res.Skipped++
			s.candidate(false)
			continue
		}
		s.candidate(true)
		res.Attempts++

		if err := s.try(ctx, snap, handle); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Resolution{}, ctxErr
			}
			s.debug("snapshot attempt failed", "url", url, "snapshot", snap.RawURL, "error", err)
			res.LastErr = err
			continue
		}

		res.Outcome = Resolved
		res.Snapshot = snap
		if s.recorder != nil {
			s.recorder.ScanOutcome(true)
		}
		return res, nil
	}

	if res.Attempts == 0 {
		res.Reason = ReasonAllRejected
	} else {
		res.Reason = ReasonAllFailed
	}
	return s.exhausted(res), nil
}

func (s *SnapshotScanner) try(ctx context.Context, snap domain.Snapshot, handle Handler) error {
	raw, err := s.fetcher.Fetch(ctx, snap.RawURL)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	if handle == nil {
		return nil
	}
	if err := handle(raw); err != nil {
		return fmt.Errorf("handle: %w", err)
	}
	return nil
}

func (s *SnapshotScanner) exhausted(res Resolution) Resolution {
	res.Outcome = Exhausted
	if s.recorder != nil {
		s.recorder.ScanOutcome(false)
	}
	return res
}

func (s *SnapshotScanner) candidate(accepted bool) {
	if s.recorder != nil {
		s.recorder.SnapshotCandidate(accepted)
	}
}

func (s *SnapshotScanner) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
