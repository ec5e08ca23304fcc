package ports

import (
	"context"

	"PageDrift/internal/domain"
)

// SnapshotDirectory lists archived captures of a URL. An empty list is not an error.
type SnapshotDirectory interface {
	ListSnapshots(ctx context.Context, url string, window domain.DateRange) ([]domain.Snapshot, error)
}

// Fetcher downloads raw bytes with a bounded timeout.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// BoilerplateExtractor turns raw HTML into text blocks and outbound links.
type BoilerplateExtractor interface {
	Extract(raw []byte) ([]string, error)
	ExtractLinks(raw []byte) (domain.PageLinks, error)
}

// RunRepository persists batch results for later runs and audit.
type RunRepository interface {
	SaveCountRun(ctx context.Context, period domain.Period, matrix *domain.CountMatrix, resolved *domain.ResolvedSnapshots) (string, error)
	LoadResolved(ctx context.Context, periodLabel string) (*domain.ResolvedSnapshots, error)
	SaveEdges(ctx context.Context, edges []domain.Edge) (string, error)
}

// Recorder receives scan diagnostics.
type Recorder interface {
	SnapshotCandidate(accepted bool)
	ScanOutcome(resolved bool)
	LinkSkipped(reason string, n int)
	CountCells(histogram []domain.ValueCount)
	EdgeStates(summary map[domain.DiffState]int)
}
