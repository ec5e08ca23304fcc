package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"PageDrift/internal/domain"
	"PageDrift/internal/linkdiff"
	"PageDrift/internal/ports"
)

// ErrMasterListMismatch means a resolved snapshot table does not cover the master URL list.
var ErrMasterListMismatch = errors.New("resolved snapshots do not match master url list")

// AdjacencyResult is one period's link matrix plus the snapshots it was read from.
type AdjacencyResult struct {
	Matrix   *domain.AdjacencyMatrix
	Resolved *domain.ResolvedSnapshots
	Skips    linkdiff.SkipStats
}

// AdjacencyBuilder extracts outbound links for every tracked URL in one period.
type AdjacencyBuilder struct {
	fetcher   ports.Fetcher
	resolver  Resolver
	extractor ports.BoilerplateExtractor
	recorder  ports.Recorder
	workers   int
	logger    *slog.Logger
}

// AdjacencyDeps wires the collaborators of AdjacencyBuilder.
type AdjacencyDeps struct {
	Fetcher   ports.Fetcher
	Resolver  Resolver
	Extractor ports.BoilerplateExtractor
	Recorder  ports.Recorder
	Workers   int
	Logger    *slog.Logger
}

// NewAdjacencyBuilder constructs the period adjacency component.
func NewAdjacencyBuilder(deps AdjacencyDeps) *AdjacencyBuilder {
	return &AdjacencyBuilder{
		fetcher:   deps.Fetcher,
		resolver:  deps.Resolver,
		extractor: deps.Extractor,
		recorder:  deps.Recorder,
		workers:   deps.Workers,
		logger:    deps.Logger,
	}
}

// CheckResolved verifies resolved lists exactly the master URLs in order.
func CheckResolved(master *linkdiff.MasterList, resolved *domain.ResolvedSnapshots) error {
	if resolved == nil {
		return nil
	}
	if !master.Equal(resolved.URLs) {
		return fmt.Errorf("%w: %d resolved urls vs %d tracked", ErrMasterListMismatch, len(resolved.URLs), master.Len())
	}
	return nil
}

// Build fills an |L|×|L| matrix for period. With resolved set, each URL's
// snapshot is fetched directly; otherwise the resolver searches the period's
// window. Any failure for URL i turns row i into the period's error code.
func (b *AdjacencyBuilder) Build(ctx context.Context, master *linkdiff.MasterList, period domain.Period, resolved *domain.ResolvedSnapshots) (*AdjacencyResult, error) {
	if err := CheckResolved(master, resolved); err != nil {
		return nil, err
	}
	if resolved == nil && b.resolver == nil {
		return nil, fmt.Errorf("period %s: no resolved snapshots and no resolver", period.Label)
	}

	n := master.Len()
	matrix := domain.NewAdjacencyMatrix(period, n)
	snapshots := make([]string, n)
	skips := make([]linkdiff.SkipStats, n)

	err := forEachRow(ctx, n, b.workers, func(ctx context.Context, i int) error {
		url := master.URL(i)

		var (
			links domain.PageLinks
			snap  string
			err   error
		)
		if resolved != nil {
			snap = resolved.Get(url)
			links, err = b.linksFromSnapshot(ctx, snap)
		} else {
			snap, links, err = b.linksFromArchive(ctx, url, period.Range)
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			matrix.MarkError(i)
			b.warn("link extraction failed", "period", period.Label, "url", url, "error", err)
			return nil
		}

		row, stats := master.Row(links.Hrefs, links.MissingHref, period.Connection)
		matrix.Cells[i] = row
		snapshots[i] = snap
		skips[i] = stats
		b.debug("links extracted", "period", period.Label, "row", i, "url", url,
			"hrefs", len(links.Hrefs), "not_tracked", stats.NotTracked, "missing_href", stats.MissingHref)
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := &AdjacencyResult{Matrix: matrix, Resolved: domain.NewResolvedSnapshots(master.URLs())}
	for i := 0; i < n; i++ {
		out.Resolved.Snapshots[master.URL(i)] = snapshots[i]
		out.Skips.MissingHref += skips[i].MissingHref
		out.Skips.NotTracked += skips[i].NotTracked
	}
	if b.recorder != nil {
		b.recorder.LinkSkipped(linkdiff.SkipMissingHref, out.Skips.MissingHref)
		b.recorder.LinkSkipped(linkdiff.SkipNotTracked, out.Skips.NotTracked)
	}
	return out, nil
}

func (b *AdjacencyBuilder) linksFromSnapshot(ctx context.Context, snapshotURL string) (domain.PageLinks, error) {
	if snapshotURL == "" {
		return domain.PageLinks{}, errors.New("no resolved snapshot")
	}
	raw, err := b.fetcher.Fetch(ctx, snapshotURL)
	if err != nil {
		return domain.PageLinks{}, fmt.Errorf("fetch: %w", err)
	}
	links, err := b.extractor.ExtractLinks(raw)
	if err != nil {
		return domain.PageLinks{}, fmt.Errorf("extract links: %w", err)
	}
	return links, nil
}

func (b *AdjacencyBuilder) linksFromArchive(ctx context.Context, url string, window domain.DateRange) (string, domain.PageLinks, error) {
	var links domain.PageLinks
	resolution, err := b.resolver.Scan(ctx, url, window, func(raw []byte) error {
		var err error
		links, err = b.extractor.ExtractLinks(raw)
		return err
	})
	if err != nil {
		return "", links, err
	}
	if !resolution.Resolved() {
		return "", links, fmt.Errorf("no usable snapshot: %s", resolution.Reason)
	}
	return resolution.Snapshot.RawURL, links, nil
}

func (b *AdjacencyBuilder) debug(msg string, args ...interface{}) {
	if b.logger != nil {
		b.logger.Debug(msg, args...)
	}
}

func (b *AdjacencyBuilder) warn(msg string, args ...interface{}) {
	if b.logger != nil {
		b.logger.Warn(msg, args...)
	}
}
