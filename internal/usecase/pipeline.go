package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"PageDrift/internal/domain"
	"PageDrift/internal/linkdiff"
	"PageDrift/internal/ports"
	"PageDrift/internal/textcount"
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Counts     *CountBuilder
	Adjacency  *AdjacencyBuilder
	Repository ports.RunRepository
	Recorder   ports.Recorder
	Logger     *slog.Logger
}

// Pipeline runs count batches and two-period link diffs.
type Pipeline struct {
	counts     *CountBuilder
	adjacency  *AdjacencyBuilder
	repository ports.RunRepository
	recorder   ports.Recorder
	logger     *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		counts:     deps.Counts,
		adjacency:  deps.Adjacency,
		repository: deps.Repository,
		recorder:   deps.Recorder,
		logger:     deps.Logger,
	}
}

// CountRequest describes one count batch.
type CountRequest struct {
	URLs   []string
	Terms  []domain.Term
	Period domain.Period
}

// CountPeriod validates the vocabulary and URL batch, then builds the count matrix.
func (p *Pipeline) CountPeriod(ctx context.Context, req CountRequest) (*CountResult, error) {
	if p.counts == nil {
		return nil, fmt.Errorf("count builder is not configured")
	}

	vocab, err := textcount.NewVocabulary(req.Terms)
	if err != nil {
		return nil, fmt.Errorf("vocabulary: %w", err)
	}
	if _, err := linkdiff.NewMasterList(req.URLs); err != nil {
		return nil, fmt.Errorf("url batch: %w", err)
	}

	p.info("count batch started", "period", req.Period.Label, "urls", len(req.URLs), "terms", vocab.Len())

	result, err := p.counts.Build(ctx, req.URLs, req.Period.Range, vocab)
	if err != nil {
		return nil, fmt.Errorf("build count matrix: %w", err)
	}

	histogram := result.Matrix.Histogram()
	p.info("count batch finished", "period", req.Period.Label, "distribution", formatHistogram(histogram))
	if p.recorder != nil {
		p.recorder.CountCells(histogram)
	}

	if p.repository != nil {
		runID, err := p.repository.SaveCountRun(ctx, req.Period, result.Matrix, result.Resolved)
		if err != nil {
			return nil, fmt.Errorf("persist count run: %w", err)
		}
		p.info("count run stored", "run_id", runID)
	}

	return result, nil
}

// DiffRequest describes a two-period link comparison. Nil resolved tables
// make the adjacency builder search the archive itself.
type DiffRequest struct {
	URLs      []string
	A, B      domain.Period
	ResolvedA *domain.ResolvedSnapshots
	ResolvedB *domain.ResolvedSnapshots
}

// DiffResult holds both period matrices, their sum and the materialized edges.
type DiffResult struct {
	A, B    *AdjacencyResult
	Diff    [][]int
	Edges   []domain.Edge
	Summary map[domain.DiffState]int
}

// DiffPeriods builds both adjacency matrices and decodes their sum into an edge list.
// Code collisions and master list mismatches are rejected before any fetch.
func (p *Pipeline) DiffPeriods(ctx context.Context, req DiffRequest) (*DiffResult, error) {
	if p.adjacency == nil {
		return nil, fmt.Errorf("adjacency builder is not configured")
	}

	codec, err := linkdiff.NewCodec(
		linkdiff.PeriodCodes{Connection: req.A.Connection, Error: req.A.Error},
		linkdiff.PeriodCodes{Connection: req.B.Connection, Error: req.B.Error},
	)
	if err != nil {
		return nil, err
	}
	master, err := linkdiff.NewMasterList(req.URLs)
	if err != nil {
		return nil, err
	}
	if err := CheckResolved(master, req.ResolvedA); err != nil {
		return nil, fmt.Errorf("period %s: %w", req.A.Label, err)
	}
	if err := CheckResolved(master, req.ResolvedB); err != nil {
		return nil, fmt.Errorf("period %s: %w", req.B.Label, err)
	}

	p.info("link diff started", "urls", master.Len(), "period_a", req.A.Label, "period_b", req.B.Label)

	a, err := p.adjacency.Build(ctx, master, req.A, req.ResolvedA)
	if err != nil {
		return nil, fmt.Errorf("period %s: %w", req.A.Label, err)
	}
	b, err := p.adjacency.Build(ctx, master, req.B, req.ResolvedB)
	if err != nil {
		return nil, fmt.Errorf("period %s: %w", req.B.Label, err)
	}

	diff, err := codec.Diff(a.Matrix, b.Matrix)
	if err != nil {
		return nil, err
	}
	edges, err := codec.Edges(diff, master)
	if err != nil {
		return nil, err
	}

	result := &DiffResult{A: a, B: b, Diff: diff, Edges: edges, Summary: linkdiff.Summary(edges)}
	p.info("link diff finished", "edges", len(edges), "states", result.Summary)
	if p.recorder != nil {
		p.recorder.EdgeStates(result.Summary)
	}

	if p.repository != nil {
		runID, err := p.repository.SaveEdges(ctx, edges)
		if err != nil {
			return nil, fmt.Errorf("persist edges: %w", err)
		}
		p.info("diff run stored", "run_id", runID)
	}

	return result, nil
}

func formatHistogram(h []domain.ValueCount) map[string]int {
	out := make(map[string]int, len(h))
	for _, b := range h {
		key := fmt.Sprintf("%d", b.Value)
		if b.Value == domain.CountSentinel {
			key = "sentinel"
		}
		out[key] = b.Count
	}
	return out
}

func (p *Pipeline) info(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}
