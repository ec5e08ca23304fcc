package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"PageDrift/internal/domain"
)

// Writer renders result artifacts as delimited text.
type Writer struct {
	delimiter rune
}

// NewWriter builds a writer; zero delimiter means comma.
func NewWriter(delimiter rune) *Writer {
	if delimiter == 0 {
		delimiter = ','
	}
	return &Writer{delimiter: delimiter}
}

func (w *Writer) csvWriter(out io.Writer) *csv.Writer {
	cw := csv.NewWriter(out)
	cw.Comma = w.delimiter
	return cw
}

func (w *Writer) csvReader(in io.Reader) *csv.Reader {
	cr := csv.NewReader(in)
	cr.Comma = w.delimiter
	cr.FieldsPerRecord = -1
	return cr
}

// WriteCountMatrix writes a header of term labels followed by one row per URL.
func (w *Writer) WriteCountMatrix(out io.Writer, m *domain.CountMatrix) error {
	cw := w.csvWriter(out)

	header := make([]string, 0, len(m.Terms)+1)
	header = append(header, "url")
	for _, t := range m.Terms {
		header = append(header, t.Label())
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, len(m.Terms)+1)
	for i, u := range m.URLs {
		record[0] = u
		for j, v := range m.Cells[i] {
			record[j+1] = strconv.Itoa(v)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteResolved writes url,snapshot_url pairs in batch order.
func (w *Writer) WriteResolved(out io.Writer, r *domain.ResolvedSnapshots) error {
	cw := w.csvWriter(out)
	if err := cw.Write([]string{"url", "snapshot_url"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, u := range r.URLs {
		if err := cw.Write([]string{u, r.Get(u)}); err != nil {
			return fmt.Errorf("write %s: %w", u, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadResolved parses the output of WriteResolved.
func (w *Writer) ReadResolved(in io.Reader) (*domain.ResolvedSnapshots, error) {
	cr := w.csvReader(in)

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("resolved table is empty")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 2 || header[0] != "url" {
		return nil, fmt.Errorf("unexpected resolved header %q", header)
	}

	var urls []string
	snaps := map[string]string{}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if len(rec) == 0 || rec[0] == "" {
			continue
		}
		urls = append(urls, rec[0])
		if len(rec) > 1 {
			snaps[rec[0]] = rec[1]
		} else {
			snaps[rec[0]] = ""
		}
	}

	return &domain.ResolvedSnapshots{URLs: urls, Snapshots: snaps}, nil
}

// WriteEdges writes a Gephi-compatible edge table.
func (w *Writer) WriteEdges(out io.Writer, edges []domain.Edge) error {
	cw := w.csvWriter(out)
	if err := cw.Write([]string{"source", "target", "state"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, e := range edges {
		if err := cw.Write([]string{e.From, e.To, string(e.State)}); err != nil {
			return fmt.Errorf("write edge: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
