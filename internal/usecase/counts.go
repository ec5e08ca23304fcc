package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"PageDrift/internal/domain"
	"PageDrift/internal/ports"
	"PageDrift/internal/scanner"
	"PageDrift/internal/textcount"
)

// Resolver finds the first usable snapshot of a URL inside a window.
type Resolver interface {
	Scan(ctx context.Context, url string, window domain.DateRange, handle scanner.Handler) (scanner.Resolution, error)
}

// CountResult bundles the artifacts of one count batch.
type CountResult struct {
	Matrix      *domain.CountMatrix
	Resolved    *domain.ResolvedSnapshots
	Resolutions []scanner.Resolution
}

// CountBuilder drives the resolver over a URL batch and fills the count matrix.
type CountBuilder struct {
	resolver  Resolver
	extractor ports.BoilerplateExtractor
	workers   int
	logger    *slog.Logger
}

// NewCountBuilder wires the resolver and extractor; workers below one means sequential.
func NewCountBuilder(resolver Resolver, extractor ports.BoilerplateExtractor, workers int, log *slog.Logger) *CountBuilder {
	return &CountBuilder{
		resolver:  resolver,
		extractor: extractor,
		workers:   workers,
		logger:    log,
	}
}

// Build returns a len(urls) × vocab.Len() matrix. Rows of URLs without a
// usable snapshot hold the sentinel; only cancellation aborts the batch.
func (b *CountBuilder) Build(ctx context.Context, urls []string, window domain.DateRange, vocab *textcount.Vocabulary) (*CountResult, error) {
	res := &CountResult{
		Matrix:      domain.NewCountMatrix(urls, vocab.Terms()),
		Resolved:    domain.NewResolvedSnapshots(urls),
		Resolutions: make([]scanner.Resolution, len(urls)),
	}
	snapshots := make([]string, len(urls))

	err := forEachRow(ctx, len(urls), b.workers, func(ctx context.Context, i int) error {
		var counts []int
		resolution, err := b.resolver.Scan(ctx, urls[i], window, func(raw []byte) error {
			blocks, err := b.extractor.Extract(raw)
			if err != nil {
				return err
			}
			counts = vocab.Count(blocks)
			return nil
		})
		if err != nil {
			return fmt.Errorf("scan %s: %w", urls[i], err)
		}

		res.Resolutions[i] = resolution
		if !resolution.Resolved() {
			res.Matrix.MarkUnresolved(i)
			b.warn("no usable snapshot", "url", urls[i], "reason", resolution.Reason, "candidates", resolution.Candidates, "error", resolution.LastErr)
			return nil
		}

		if err := res.Matrix.SetRow(i, counts); err != nil {
			return err
		}
		snapshots[i] = resolution.Snapshot.RawURL
		b.debug("counted", "row", i, "url", urls[i], "snapshot", resolution.Snapshot.RawURL, "attempts", resolution.Attempts)
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i, u := range urls {
		res.Resolved.Snapshots[u] = snapshots[i]
	}
	return res, nil
}

func (b *CountBuilder) debug(msg string, args ...interface{}) {
	if b.logger != nil {
		b.logger.Debug(msg, args...)
	}
}

func (b *CountBuilder) warn(msg string, args ...interface{}) {
	if b.logger != nil {
		b.logger.Warn(msg, args...)
	}
}
