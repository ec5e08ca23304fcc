package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/time/rate"

	"PageDrift/internal/config"
	"PageDrift/internal/domain"
	"PageDrift/internal/infrastructure/export"
	"PageDrift/internal/infrastructure/fetch"
	"PageDrift/internal/infrastructure/parser"
	"PageDrift/internal/infrastructure/storage"
	"PageDrift/internal/infrastructure/wayback"
	"PageDrift/internal/metrics"
	"PageDrift/internal/ports"
	"PageDrift/internal/scanner"
	"PageDrift/internal/usecase"
)

// Application wires configs to use cases and output artifacts.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline
	recorder *metrics.Recorder
	writer   *export.Writer
	store    *storage.SQLiteRepository
}

// New validates cfg and builds the runnable application.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ordering, err := scanner.NewRegistry().Resolve(cfg.Scan.Order)
	if err != nil {
		return nil, err
	}

	limiter := rate.NewLimiter(rate.Limit(cfg.Archive.RequestsPerSecond), max(cfg.Archive.Burst, 1))
	recorder := metrics.NewRecorder()
	directory := wayback.NewCDXClient(cfg.Archive, nil, limiter)
	fetcher := fetch.NewHTTPFetcher(cfg.Scan.FetchTimeout(), limiter, cfg.Archive.UserAgent, cfg.Scan.MaxBodyBytes)
	extractor := parser.NewExtractor(cfg.Boilerplate.Selectors)

	resolver := scanner.NewSnapshotScanner(directory, fetcher, ordering, recorder, baseLogger.With("component", "scanner"))

	var (
		store *storage.SQLiteRepository
		repo  ports.RunRepository
	)
	if cfg.Store.DSN != "" {
		store, err = storage.OpenSQLite(ctx, cfg.Store.DSN)
		if err != nil {
			return nil, err
		}
		repo = store
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Counts: usecase.NewCountBuilder(resolver, extractor, cfg.Scan.Workers, baseLogger.With("component", "counts")),
		Adjacency: usecase.NewAdjacencyBuilder(usecase.AdjacencyDeps{
			Fetcher:   fetcher,
			Resolver:  resolver,
			Extractor: extractor,
			Recorder:  recorder,
			Workers:   cfg.Scan.Workers,
			Logger:    baseLogger.With("component", "links"),
		}),
		Repository: repo,
		Recorder:   recorder,
		Logger:     baseLogger.With("component", "pipeline"),
	})

	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		pipeline: pipeline,
		recorder: recorder,
		writer:   export.NewWriter(cfg.Output.DelimiterRune()),
		store:    store,
	}, nil
}

// Close releases the run store.
func (a *Application) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// RunCount builds the term-count matrix for one period and writes its artifacts.
func (a *Application) RunCount(ctx context.Context, periodName string) error {
	pc, err := a.cfg.PeriodByName(periodName)
	if err != nil {
		return err
	}
	period, err := pc.Period()
	if err != nil {
		return err
	}
	urls, err := a.cfg.TrackedURLs()
	if err != nil {
		return err
	}

	result, err := a.pipeline.CountPeriod(ctx, usecase.CountRequest{
		URLs:   urls,
		Terms:  a.cfg.Terms(),
		Period: period,
	})
	if err != nil {
		return err
	}

	if err := a.writeFile(a.periodFile(period, a.cfg.Output.Counts), func(f *os.File) error {
		return a.writer.WriteCountMatrix(f, result.Matrix)
	}); err != nil {
		return err
	}
	if err := a.writeFile(a.periodFile(period, a.cfg.Output.Resolved), func(f *os.File) error {
		return a.writer.WriteResolved(f, result.Resolved)
	}); err != nil {
		return err
	}

	return a.writeMetrics()
}

// DiffOptions chooses where each period's snapshots come from.
type DiffOptions struct {
	ResolvedA string
	ResolvedB string
	FromStore bool
}

// RunDiff compares the link structure of both periods and writes the edge list.
func (a *Application) RunDiff(ctx context.Context, opts DiffOptions) error {
	urls, err := a.cfg.TrackedURLs()
	if err != nil {
		return err
	}
	pa, err := a.cfg.Periods.A.Period()
	if err != nil {
		return err
	}
	pb, err := a.cfg.Periods.B.Period()
	if err != nil {
		return err
	}

	resolvedA, err := a.loadResolved(ctx, pa, opts.ResolvedA, opts.FromStore)
	if err != nil {
		return err
	}
	resolvedB, err := a.loadResolved(ctx, pb, opts.ResolvedB, opts.FromStore)
	if err != nil {
		return err
	}

	result, err := a.pipeline.DiffPeriods(ctx, usecase.DiffRequest{
		URLs:      urls,
		A:         pa,
		B:         pb,
		ResolvedA: resolvedA,
		ResolvedB: resolvedB,
	})
	if err != nil {
		return err
	}

	if err := a.writeFile(a.outputPath(a.cfg.Output.Edges), func(f *os.File) error {
		return a.writer.WriteEdges(f, result.Edges)
	}); err != nil {
		return err
	}

	return a.writeMetrics()
}

func (a *Application) loadResolved(ctx context.Context, period domain.Period, path string, fromStore bool) (*domain.ResolvedSnapshots, error) {
	switch {
	case path != "":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("period %s: %w", period.Label, err)
		}
		defer f.Close()
		return a.writer.ReadResolved(f)
	case fromStore:
		if a.store == nil {
			return nil, fmt.Errorf("period %s: run store is not configured", period.Label)
		}
		return a.store.LoadResolved(ctx, period.Label)
	default:
		return nil, nil
	}
}

func (a *Application) writeMetrics() error {
	if a.cfg.Output.Metrics == "" {
		return nil
	}
	return a.recorder.WriteTextfile(a.outputPath(a.cfg.Output.Metrics))
}

func (a *Application) periodFile(period domain.Period, name string) string {
	return a.outputPath(period.Label + "-" + name)
}

func (a *Application) outputPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(a.cfg.Output.Dir, name)
}

func (a *Application) writeFile(path string, write func(*os.File) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	a.logger.Info("artifact written", "path", path)
	return nil
}
