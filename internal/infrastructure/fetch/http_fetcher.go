package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"PageDrift/internal/ports"
)

const defaultMaxBody = 16 << 20

// HTTPFetcher downloads archived captures with a hard per-request timeout.
type HTTPFetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
	maxBody   int64
}

var _ ports.Fetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher builds a fetcher; a non-positive timeout falls back to 120s.
func NewHTTPFetcher(timeout time.Duration, limiter *rate.Limiter, userAgent string, maxBody int64) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	if maxBody <= 0 {
		maxBody = defaultMaxBody
	}
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		limiter:   limiter,
		userAgent: userAgent,
		maxBody:   maxBody,
	}
}

// Fetch returns the body of url; any non-2xx status is an error.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("snapshot returned %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if int64(len(body)) > f.maxBody {
		return nil, fmt.Errorf("snapshot exceeds %d bytes", f.maxBody)
	}

	return body, nil
}
