package linkdiff

import (
	"errors"
	"fmt"

	"PageDrift/internal/domain"
)

var (
	// ErrCodeCollision means two period code pairs produce an ambiguous sum.
	ErrCodeCollision = errors.New("period codes collide")
	// ErrShapeMismatch means two matrices cannot be combined.
	ErrShapeMismatch = errors.New("matrix shape mismatch")
	// ErrUndecodable means a diff cell holds a sum no valid input produces.
	ErrUndecodable = errors.New("undecodable diff value")
)

// PeriodCodes are the cell values one period writes.
type PeriodCodes struct {
	Connection int
	Error      int
}

// Reference code assignment.
var (
	ReferenceA = PeriodCodes{Connection: 1, Error: 8}
	ReferenceB = PeriodCodes{Connection: 3, Error: 14}
)

func (c PeriodCodes) value(k domain.CellKind) int {
	switch k {
	case domain.CellConnection:
		return c.Connection
	case domain.CellError:
		return c.Error
	default:
		return 0
	}
}

var cellKinds = []domain.CellKind{domain.CellNone, domain.CellConnection, domain.CellError}

// transitions maps (period A kind, period B kind) to the diff state.
var transitions = map[[2]domain.CellKind]domain.DiffState{
	{domain.CellNone, domain.CellNone}:             domain.StateNone,
	{domain.CellConnection, domain.CellNone}:       domain.StateRemoved,
	{domain.CellNone, domain.CellConnection}:       domain.StateAdded,
	{domain.CellConnection, domain.CellConnection}: domain.StateRetained,
	{domain.CellError, domain.CellNone}:            domain.StateErrorA,
	{domain.CellError, domain.CellConnection}:      domain.StateErrorAThenAdded,
	{domain.CellNone, domain.CellError}:            domain.StateErrorB,
	{domain.CellConnection, domain.CellError}:      domain.StateRetainedThenErrorB,
	{domain.CellError, domain.CellError}:           domain.StateErrorBoth,
}

// Codec sums two period matrices and decodes the sums through a lookup table.
type Codec struct {
	a, b  PeriodCodes
	table map[int]domain.DiffState
}

// NewCodec builds the decode table and rejects code pairs with colliding sums.
func NewCodec(a, b PeriodCodes) (*Codec, error) {
	if a.Connection <= 0 || a.Error <= 0 || b.Connection <= 0 || b.Error <= 0 {
		return nil, fmt.Errorf("%w: codes must be positive (a=%+v b=%+v)", ErrCodeCollision, a, b)
	}

	table := make(map[int]domain.DiffState, len(transitions))
	for _, ka := range cellKinds {
		for _, kb := range cellKinds {
			sum := a.value(ka) + b.value(kb)
			state := transitions[[2]domain.CellKind{ka, kb}]
			if prev, taken := table[sum]; taken {
				return nil, fmt.Errorf("%w: %d decodes to both %s and %s", ErrCodeCollision, sum, prev, state)
			}
			table[sum] = state
		}
	}

	return &Codec{a: a, b: b, table: table}, nil
}

// Decode maps a diff cell to its state.
func (c *Codec) Decode(sum int) (domain.DiffState, bool) {
	s, ok := c.table[sum]
	return s, ok
}

// Table returns a copy of the decode table.
func (c *Codec) Table() map[int]domain.DiffState {
	out := make(map[int]domain.DiffState, len(c.table))
	for k, v := range c.table {
		out[k] = v
	}
	return out
}

// Diff adds the two period matrices elementwise.
func (c *Codec) Diff(a, b *domain.AdjacencyMatrix) ([][]int, error) {
	if a.Size() != b.Size() {
		return nil, fmt.Errorf("%w: %d vs %d rows", ErrShapeMismatch, a.Size(), b.Size())
	}
	diff := make([][]int, a.Size())
	for i := range a.Cells {
		if len(a.Cells[i]) != len(b.Cells[i]) || len(a.Cells[i]) != a.Size() {
			return nil, fmt.Errorf("%w: row %d", ErrShapeMismatch, i)
		}
		diff[i] = make([]int, len(a.Cells[i]))
		for j := range a.Cells[i] {
			diff[i][j] = a.Cells[i][j] + b.Cells[i][j]
		}
	}
	return diff, nil
}

// Edges materializes every non-trivial off-diagonal diff cell in row-major order.
func (c *Codec) Edges(diff [][]int, master *MasterList) ([]domain.Edge, error) {
	if len(diff) != master.Len() {
		return nil, fmt.Errorf("%w: diff has %d rows, master list %d urls", ErrShapeMismatch, len(diff), master.Len())
	}

	var edges []domain.Edge
	for i, row := range diff {
		for j, sum := range row {
			if i == j {
				continue
			}
			state, ok := c.Decode(sum)
			if !ok {
				return nil, fmt.Errorf("%w: %d at (%d,%d)", ErrUndecodable, sum, i, j)
			}
			if state == domain.StateNone {
				continue
			}
			edges = append(edges, domain.Edge{From: master.URL(i), To: master.URL(j), State: state})
		}
	}
	return edges, nil
}

// Summary tallies edges per state.
func Summary(edges []domain.Edge) map[domain.DiffState]int {
	out := map[domain.DiffState]int{}
	for _, e := range edges {
		out[e.State]++
	}
	return out
}
