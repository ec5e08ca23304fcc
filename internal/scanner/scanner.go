package scanner

import (
	"errors"
	"fmt"
	"sort"

	"PageDrift/internal/domain"
)

// ErrUnknownOrdering is returned when a configured ordering name is not registered.
var ErrUnknownOrdering = errors.New("unknown snapshot ordering")

// Ordering decides in which order candidate snapshots are tried.
type Ordering interface {
	Name() string
	Order(candidates []domain.Snapshot) []domain.Snapshot
}

// NewestFirst tries the latest capture in range first.
type NewestFirst struct{}

func (NewestFirst) Name() string { return "newest-first" }

func (NewestFirst) Order(candidates []domain.Snapshot) []domain.Snapshot {
	out := append([]domain.Snapshot(nil), candidates...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out
}

// OldestFirst tries the earliest capture in range first.
type OldestFirst struct{}

func (OldestFirst) Name() string { return "oldest-first" }

func (OldestFirst) Order(candidates []domain.Snapshot) []domain.Snapshot {
	out := append([]domain.Snapshot(nil), candidates...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

// Registry keeps a mapping from ordering names to their implementations.
type Registry struct {
	orderings map[string]Ordering
}

// NewRegistry builds a registry preloaded with the built-in orderings.
func NewRegistry() *Registry {
	r := &Registry{orderings: map[string]Ordering{}}
	r.Register(NewestFirst{})
	r.Register(OldestFirst{})
	return r
}

// Register adds or replaces an ordering.
func (r *Registry) Register(o Ordering) {
	if r.orderings == nil {
		r.orderings = map[string]Ordering{}
	}
	r.orderings[o.Name()] = o
}

// Resolve returns an ordering by name; the empty name means newest-first.
func (r *Registry) Resolve(name string) (Ordering, error) {
	if name == "" {
		name = NewestFirst{}.Name()
	}
	if o, ok := r.orderings[name]; ok {
		return o, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownOrdering, name)
}
