package textcount

import "strings"

// CountSingle counts whitespace-delimited tokens equal to term after normalization.
func CountSingle(term string, blocks []string) int {
	target := Normalize(term)
	tally := 0
	for _, block := range blocks {
		for _, token := range strings.Fields(block) {
			if Normalize(token) == target {
				tally++
			}
		}
	}
	return tally
}

// CountPhrase counts contiguous token windows equal to words. Windows never
// cross block boundaries.
func CountPhrase(words []string, blocks []string) int {
	if len(words) == 0 {
		return 0
	}
	target := make([]string, len(words))
	for i, w := range words {
		target[i] = Normalize(w)
	}
	return countWindows(target, blocks)
}

func countWindows(target []string, blocks []string) int {
	n := len(target)
	tally := 0
	for _, block := range blocks {
		tokens := Tokenize(block)
		if len(tokens) < n {
			continue
		}
		normalized := make([]string, len(tokens))
		for i, tok := range tokens {
			normalized[i] = Normalize(tok)
		}
		for i := 0; i+n <= len(normalized); i++ {
			if windowEqual(normalized[i:i+n], target) {
				tally++
			}
		}
	}
	return tally
}

func windowEqual(window, target []string) bool {
	for i := range target {
		if window[i] != target[i] {
			return false
		}
	}
	return true
}
