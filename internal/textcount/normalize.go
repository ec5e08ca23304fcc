// Package textcount turns extracted page text into per-term frequencies.
package textcount

import (
	"strings"
	"unicode"
)

// Normalize lowercases token and drops every rune that is neither a word rune nor whitespace.
func Normalize(token string) string {
	var b strings.Builder
	b.Grow(len(token))
	for _, r := range token {
		if isWordRune(r) || unicode.IsSpace(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// Tokenize splits a block on word boundaries. Runs of word runes joined by an
// inner hyphen, period or apostrophe stay together, as do digit groups such as
// "2,500". An abbreviation like "U.S." keeps its final period. Every other
// punctuation rune becomes its own token.
func Tokenize(block string) []string {
	runes := []rune(block)
	tokens := make([]string, 0, len(runes)/4)

	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case isWordRune(r):
			start := i
			dotted := false
			for i < len(runes) {
				if isWordRune(runes[i]) {
					i++
					continue
				}
				if i+1 < len(runes) && joinsWord(runes[i], runes[i-1], runes[i+1]) {
					dotted = dotted || runes[i] == '.'
					i++
					continue
				}
				break
			}
			if dotted && i < len(runes) && runes[i] == '.' && unicode.IsLetter(runes[i-1]) {
				i++
			}
			tokens = append(tokens, string(runes[start:i]))
		default:
			tokens = append(tokens, string(r))
			i++
		}
	}

	return tokens
}

// joinsWord reports whether sep between prev and next belongs inside a single token.
func joinsWord(sep, prev, next rune) bool {
	if !isWordRune(next) {
		return false
	}
	switch sep {
	case '-', '.', '\'', '’':
		return true
	case ',':
		return unicode.IsDigit(prev) && unicode.IsDigit(next)
	}
	return false
}
