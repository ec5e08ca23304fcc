// Package metrics records scan diagnostics as Prometheus series.
package metrics

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"PageDrift/internal/domain"
	"PageDrift/internal/ports"
)

// Recorder implements ports.Recorder on a private registry.
type Recorder struct {
	registry   *prometheus.Registry
	candidates *prometheus.CounterVec
	outcomes   *prometheus.CounterVec
	linkSkips  *prometheus.CounterVec
	cells      *prometheus.GaugeVec
	edges      *prometheus.GaugeVec
}

var _ ports.Recorder = (*Recorder)(nil)

// NewRecorder registers all series on a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		candidates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pagedrift",
			Name:      "snapshot_candidates_total",
			Help:      "Snapshot candidates seen, by whether their status was acceptable.",
		}, []string{"accepted"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pagedrift",
			Name:      "scan_outcomes_total",
			Help:      "Per-URL scan results.",
		}, []string{"outcome"}),
		linkSkips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pagedrift",
			Name:      "link_skips_total",
			Help:      "Anchors that did not produce a connection, by reason.",
		}, []string{"reason"}),
		cells: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "pagedrift",
			Name:      "count_matrix_cells",
			Help:      "Count matrix cells grouped by value.",
		}, []string{"value"}),
		edges: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "pagedrift",
			Name:      "diff_edges",
			Help:      "Materialized diff edges by state.",
		}, []string{"state"}),
	}
	r.registry.MustRegister(r.candidates, r.outcomes, r.linkSkips, r.cells, r.edges)
	return r
}

// Registry exposes the underlying gatherer.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) SnapshotCandidate(accepted bool) {
	r.candidates.WithLabelValues(strconv.FormatBool(accepted)).Inc()
}

func (r *Recorder) ScanOutcome(resolved bool) {
	outcome := "exhausted"
	if resolved {
		outcome = "resolved"
	}
	r.outcomes.WithLabelValues(outcome).Inc()
}

func (r *Recorder) LinkSkipped(reason string, n int) {
	if n <= 0 {
		return
	}
	r.linkSkips.WithLabelValues(reason).Add(float64(n))
}

func (r *Recorder) CountCells(histogram []domain.ValueCount) {
	for _, b := range histogram {
		label := strconv.Itoa(b.Value)
		if b.Value == domain.CountSentinel {
			label = "sentinel"
		}
		r.cells.WithLabelValues(label).Set(float64(b.Count))
	}
}

func (r *Recorder) EdgeStates(summary map[domain.DiffState]int) {
	for state, n := range summary {
		r.edges.WithLabelValues(string(state)).Set(float64(n))
	}
}

// WriteTextfile dumps the registry in the node-exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
