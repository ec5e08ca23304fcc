package domain

import (
	"fmt"
	"sort"
)

// CountSentinel marks a row for which no usable snapshot was found.
const CountSentinel = -1

// CountMatrix is the URL × term frequency table.
type CountMatrix struct {
	URLs  []string
	Terms []Term
	Cells [][]int
}

// NewCountMatrix allocates a zeroed matrix of the given shape.
func NewCountMatrix(urls []string, terms []Term) *CountMatrix {
	cells := make([][]int, len(urls))
	for i := range cells {
		cells[i] = make([]int, len(terms))
	}
	return &CountMatrix{URLs: urls, Terms: terms, Cells: cells}
}

// SetRow installs counts for row i.
func (m *CountMatrix) SetRow(i int, counts []int) error {
	if i < 0 || i >= len(m.Cells) {
		return fmt.Errorf("row %d out of range [0,%d)", i, len(m.Cells))
	}
	if len(counts) != len(m.Terms) {
		return fmt.Errorf("row %d: got %d counts for %d terms", i, len(counts), len(m.Terms))
	}
	copy(m.Cells[i], counts)
	return nil
}

// MarkUnresolved fills row i with the sentinel.
func (m *CountMatrix) MarkUnresolved(i int) {
	for j := range m.Cells[i] {
		m.Cells[i][j] = CountSentinel
	}
}

// Histogram tallies how often each cell value occurs, sentinel included.
func (m *CountMatrix) Histogram() []ValueCount {
	freq := map[int]int{}
	for _, row := range m.Cells {
		for _, v := range row {
			freq[v]++
		}
	}
	out := make([]ValueCount, 0, len(freq))
	for v, n := range freq {
		out = append(out, ValueCount{Value: v, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out
}

// ValueCount is one histogram bucket.
type ValueCount struct {
	Value int
	Count int
}

// ResolvedSnapshots maps tracked URLs to the snapshot actually used, in batch order.
type ResolvedSnapshots struct {
	URLs      []string
	Snapshots map[string]string
}

// NewResolvedSnapshots creates an empty map over urls.
func NewResolvedSnapshots(urls []string) *ResolvedSnapshots {
	snaps := make(map[string]string, len(urls))
	for _, u := range urls {
		snaps[u] = ""
	}
	return &ResolvedSnapshots{URLs: urls, Snapshots: snaps}
}

// Get returns the snapshot URL for url, empty when unresolved.
func (r *ResolvedSnapshots) Get(url string) string {
	if r == nil {
		return ""
	}
	return r.Snapshots[url]
}

// AdjacencyMatrix is a square per-period link matrix over the master URL list.
type AdjacencyMatrix struct {
	Period Period
	Cells  [][]int
}

// NewAdjacencyMatrix allocates an n×n zero matrix.
func NewAdjacencyMatrix(p Period, n int) *AdjacencyMatrix {
	cells := make([][]int, n)
	for i := range cells {
		cells[i] = make([]int, n)
	}
	return &AdjacencyMatrix{Period: p, Cells: cells}
}

// Size returns the number of rows.
func (a *AdjacencyMatrix) Size() int {
	return len(a.Cells)
}

// MarkError overwrites row i with the period's error code.
func (a *AdjacencyMatrix) MarkError(i int) {
	for j := range a.Cells[i] {
		a.Cells[i][j] = a.Period.Error
	}
}

// Edge is one materialized relationship of the diff.
type Edge struct {
	From  string
	To    string
	State DiffState
}
