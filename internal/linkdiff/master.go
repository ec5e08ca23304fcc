// Package linkdiff builds per-period link rows over a fixed URL list and
// combines two periods into a categorical diff.
package linkdiff

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Skip reasons reported by Row. Neither is an error.
const (
	SkipMissingHref = "missing-href"
	SkipNotTracked  = "not-tracked"
)

// ErrDuplicateURL is returned when the master list contains a URL twice.
var ErrDuplicateURL = errors.New("duplicate url in master list")

var archivedHref = regexp.MustCompile(`^(?:https?://web\.archive\.org)?/web/\d{1,14}[a-z_]*/(.+)$`)

// MasterList is the ordered set of tracked URLs defining matrix indices.
type MasterList struct {
	urls  []string
	index map[string]int
}

// NewMasterList freezes urls and indexes them.
func NewMasterList(urls []string) (*MasterList, error) {
	m := &MasterList{
		urls:  append([]string(nil), urls...),
		index: make(map[string]int, len(urls)),
	}
	for i, u := range urls {
		if _, dup := m.index[u]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateURL, u)
		}
		m.index[u] = i
	}
	return m, nil
}

// Len returns the number of tracked URLs.
func (m *MasterList) Len() int { return len(m.urls) }

// URL returns the URL at index i.
func (m *MasterList) URL(i int) string { return m.urls[i] }

// URLs returns a copy of the list.
func (m *MasterList) URLs() []string { return append([]string(nil), m.urls...) }

// Equal reports whether other has the same URLs in the same order.
func (m *MasterList) Equal(other []string) bool {
	if len(other) != len(m.urls) {
		return false
	}
	for i := range other {
		if other[i] != m.urls[i] {
			return false
		}
	}
	return true
}

// IndexOf locates href. Archive-rewritten hrefs are unwrapped when the exact
// form is not tracked.
func (m *MasterList) IndexOf(href string) (int, bool) {
	if i, ok := m.index[href]; ok {
		return i, true
	}
	if sub := archivedHref.FindStringSubmatch(strings.TrimSpace(href)); sub != nil {
		i, ok := m.index[sub[1]]
		return i, ok
	}
	return -1, false
}

// SkipStats counts links that did not produce a connection.
type SkipStats struct {
	MissingHref int
	NotTracked  int
}

// Row builds one adjacency row setting code for every tracked href.
func (m *MasterList) Row(hrefs []string, missingHref int, code int) ([]int, SkipStats) {
	row := make([]int, len(m.urls))
	stats := SkipStats{MissingHref: missingHref}
	for _, href := range hrefs {
		j, ok := m.IndexOf(href)
		if !ok {
			stats.NotTracked++
			continue
		}
		row[j] = code
	}
	return row, stats
}
