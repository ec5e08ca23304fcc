package domain

import "time"

// Status codes the archive reports for captures that are worth fetching.
const (
	StatusOK      = "200"
	StatusUnknown = "-"
)

// Snapshot is a single archived capture of a tracked URL.
type Snapshot struct {
	Timestamp   time.Time
	OriginalURL string
	StatusCode  string
	MimeType    string
	Digest      string
	RawURL      string
}

// Viable reports whether the capture status is success or unknown.
func (s Snapshot) Viable() bool {
	return s.StatusCode == StatusOK || s.StatusCode == StatusUnknown
}

// DateRange is an inclusive time window.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls within the range.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.From) && !t.After(r.To)
}

// Period is one of the two compared windows together with its adjacency codes.
type Period struct {
	Label      string
	Range      DateRange
	Connection int
	Error      int
}

// PageLinks is what the link extractor finds on one page.
type PageLinks struct {
	Hrefs       []string
	MissingHref int
}
