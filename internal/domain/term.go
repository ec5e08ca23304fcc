package domain

import "strings"

// Term is a vocabulary entry: either a single word or an ordered phrase.
type Term struct {
	words  []string
	phrase bool
}

// Word builds a scalar term.
func Word(w string) Term {
	return Term{words: []string{w}}
}

// Phrase builds a fixed-length phrase term.
func Phrase(words ...string) Term {
	cp := make([]string, len(words))
	copy(cp, words)
	return Term{words: cp, phrase: true}
}

// IsPhrase reports whether the term was declared as an ordered collection.
func (t Term) IsPhrase() bool {
	return t.phrase
}

// Words returns a copy of the raw words.
func (t Term) Words() []string {
	cp := make([]string, len(t.words))
	copy(cp, t.words)
	return cp
}

// Label renders the term for tabular headers.
func (t Term) Label() string {
	return strings.Join(t.words, " ")
}
