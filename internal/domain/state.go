package domain

// DiffState classifies a link relationship across periods A and B.
type DiffState string

const (
	StateNone               DiffState = "no-relationship"
	StateRemoved            DiffState = "removed"
	StateAdded              DiffState = "added"
	StateRetained           DiffState = "retained"
	StateErrorA             DiffState = "error-A-only"
	StateErrorAThenAdded    DiffState = "error-A_then-added-B"
	StateErrorB             DiffState = "error-B-only"
	StateRetainedThenErrorB DiffState = "retained-A_then-error-B"
	StateErrorBoth          DiffState = "error-both"
)

// CellKind is the per-period meaning of a single adjacency cell.
type CellKind int

const (
	CellNone CellKind = iota
	CellConnection
	CellError
)
