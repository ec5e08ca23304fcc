package wayback

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"PageDrift/internal/config"
	"PageDrift/internal/domain"
	"PageDrift/internal/ports"
)

const cdxTimestampLayout = "20060102150405"

var cdxFields = []string{"timestamp", "original", "statuscode", "mimetype", "digest"}

// CDXClient lists Wayback Machine captures through the CDX server API.
type CDXClient struct {
	client    *http.Client
	endpoint  string
	rawBase   string
	userAgent string
	limiter   *rate.Limiter
}

var _ ports.SnapshotDirectory = (*CDXClient)(nil)

// NewCDXClient builds a client from configuration; limiter may be nil.
func NewCDXClient(cfg config.ArchiveConfig, client *http.Client, limiter *rate.Limiter) *CDXClient {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &CDXClient{
		client:    client,
		endpoint:  cfg.CDXEndpoint,
		rawBase:   strings.TrimSuffix(cfg.RawBaseURL, "/"),
		userAgent: cfg.UserAgent,
		limiter:   limiter,
	}
}

// ListSnapshots returns captures of target within window in archive order.
func (c *CDXClient) ListSnapshots(ctx context.Context, target string, window domain.DateRange) ([]domain.Snapshot, error) {
	queryURL, err := buildQueryURL(c.endpoint, target, window)
	if err != nil {
		return nil, err
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request cdx: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("cdx returned %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var rows [][]string
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode cdx: %w", err)
	}

	return c.parseRows(rows)
}

func (c *CDXClient) parseRows(rows [][]string) ([]domain.Snapshot, error) {
	if len(rows) <= 1 {
		return nil, nil
	}

	col := map[string]int{}
	for i, name := range rows[0] {
		col[name] = i
	}
	for _, f := range cdxFields {
		if _, ok := col[f]; !ok {
			return nil, fmt.Errorf("cdx header lacks %q", f)
		}
	}

	snapshots := make([]domain.Snapshot, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) < len(rows[0]) {
			continue
		}
		ts, err := time.Parse(cdxTimestampLayout, row[col["timestamp"]])
		if err != nil {
			continue
		}
		original := row[col["original"]]
		snapshots = append(snapshots, domain.Snapshot{
			Timestamp:   ts,
			OriginalURL: original,
			StatusCode:  row[col["statuscode"]],
			MimeType:    row[col["mimetype"]],
			Digest:      row[col["digest"]],
			RawURL:      c.rawURL(row[col["timestamp"]], original),
		})
	}

	return snapshots, nil
}

// rawURL points at the unmodified capture, without the archive's toolbar and link rewriting.
func (c *CDXClient) rawURL(timestamp, original string) string {
	return fmt.Sprintf("%s/%sid_/%s", c.rawBase, timestamp, original)
}

func buildQueryURL(endpoint, target string, window domain.DateRange) (string, error) {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid cdx endpoint %s: %w", endpoint, err)
	}
	if strings.TrimSpace(target) == "" {
		return "", fmt.Errorf("empty target url")
	}

	query := parsed.Query()
	query.Set("url", target)
	query.Set("output", "json")
	query.Set("fl", strings.Join(cdxFields, ","))
	if !window.From.IsZero() {
		query.Set("from", window.From.UTC().Format(cdxTimestampLayout))
	}
	if !window.To.IsZero() {
		query.Set("to", window.To.UTC().Format(cdxTimestampLayout))
	}
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
