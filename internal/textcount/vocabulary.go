package textcount

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"PageDrift/internal/domain"
)

// ErrInvalidTerm is returned for vocabulary entries that are neither a word nor a phrase.
var ErrInvalidTerm = errors.New("invalid vocabulary term")

// Vocabulary is an ordered, pre-normalized set of terms. It is immutable once built.
type Vocabulary struct {
	terms      []domain.Term
	normalized [][]string
}

// NewVocabulary validates terms and freezes their order.
func NewVocabulary(terms []domain.Term) (*Vocabulary, error) {
	v := &Vocabulary{
		terms:      make([]domain.Term, len(terms)),
		normalized: make([][]string, len(terms)),
	}
	copy(v.terms, terms)

	for i, t := range terms {
		words := t.Words()
		if t.IsPhrase() && len(words) < 2 {
			return nil, fmt.Errorf("%w: entry %d: phrase needs at least two words, got %q", ErrInvalidTerm, i, words)
		}
		if !t.IsPhrase() && len(words) != 1 {
			return nil, fmt.Errorf("%w: entry %d: expected a single word", ErrInvalidTerm, i)
		}
		norm := make([]string, len(words))
		for k, w := range words {
			if strings.ContainsFunc(w, unicode.IsSpace) {
				return nil, fmt.Errorf("%w: entry %d: %q contains whitespace", ErrInvalidTerm, i, w)
			}
			norm[k] = Normalize(w)
			if norm[k] == "" {
				return nil, fmt.Errorf("%w: entry %d: %q is empty after normalization", ErrInvalidTerm, i, w)
			}
		}
		v.normalized[i] = norm
	}

	return v, nil
}

// Terms returns the terms in column order.
func (v *Vocabulary) Terms() []domain.Term {
	out := make([]domain.Term, len(v.terms))
	copy(out, v.terms)
	return out
}

// Len returns the number of terms.
func (v *Vocabulary) Len() int {
	return len(v.terms)
}

// Count returns one tally per term, in vocabulary order.
func (v *Vocabulary) Count(blocks []string) []int {
	counts := make([]int, len(v.terms))
	for i, t := range v.terms {
		if t.IsPhrase() {
			counts[i] = countWindows(v.normalized[i], blocks)
			continue
		}
		counts[i] = CountSingle(v.normalized[i][0], blocks)
	}
	return counts
}
