package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PageDrift/internal/config"
	"PageDrift/internal/logging"
)

var archivePages = map[string]string{
	"/web/20160301000000id_/a.gov": `<html><body><nav>climate climate</nav>
		<p>Climate change is real.</p><p>climate</p><a href="b.gov">b</a></body></html>`,
	"/web/20180301000000id_/a.gov": `<html><body><a href="b.gov">b</a></body></html>`,
	"/web/20180301000000id_/b.gov": `<html><body><a href="/web/20180301000000/a.gov">a</a></body></html>`,
}

// captures maps url and the year of the window start to a capture timestamp.
var captures = map[string]string{
	"a.gov|2016": "20160301000000",
	"a.gov|2018": "20180301000000",
	"b.gov|2018": "20180301000000",
}

func newArchive(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/cdx" {
			q := r.URL.Query()
			rows := [][]string{{"timestamp", "original", "statuscode", "mimetype", "digest"}}
			if ts, ok := captures[q.Get("url")+"|"+q.Get("from")[:4]]; ok {
				rows = append(rows, []string{ts, q.Get("url"), "200", "text/html", "D"})
			}
			_ = json.NewEncoder(w).Encode(rows)
			return
		}
		page, ok := archivePages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, page)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func loadConfig(t *testing.T, archiveURL, outDir string) config.Config {
	t.Helper()

	yaml := fmt.Sprintf(`
archive:
  cdxEndpoint: %[1]s/cdx
  rawBaseUrl: %[1]s/web
  requestsPerSecond: 1000
  burst: 10
scan:
  workers: 2
vocabulary:
  - climate
  - [climate, change]
urls: [a.gov, b.gov]
output:
  dir: %[2]s
  metrics: metrics.prom
`, archiveURL, outDir)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	return cfg
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(raw)
}

func TestRunCountThenDiff(t *testing.T) {
	t.Parallel()

	srv := newArchive(t)
	outDir := t.TempDir()
	cfg := loadConfig(t, srv.URL, outDir)
	ctx := context.Background()

	application, err := New(ctx, cfg, logging.NewWithWriter(io.Discard, "debug", "text"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.Close() })

	require.NoError(t, application.RunCount(ctx, "a"))

	assert.Equal(t, "url,climate,climate change\na.gov,2,1\nb.gov,-1,-1\n",
		readFile(t, filepath.Join(outDir, "a-counts.csv")))
	resolvedPath := filepath.Join(outDir, "a-urls.csv")
	assert.Equal(t,
		"url,snapshot_url\na.gov,"+srv.URL+"/web/20160301000000id_/a.gov\nb.gov,\n",
		readFile(t, resolvedPath))

	require.NoError(t, application.RunDiff(ctx, DiffOptions{ResolvedA: resolvedPath}))

	assert.Equal(t,
		"source,target,state\na.gov,b.gov,retained\nb.gov,a.gov,error-A_then-added-B\n",
		readFile(t, filepath.Join(outDir, "links.csv")))

	metrics := readFile(t, filepath.Join(outDir, "metrics.prom"))
	assert.True(t, strings.Contains(metrics, "pagedrift_"), metrics)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := loadConfig(t, "http://127.0.0.1:1", t.TempDir())
	cfg.Scan.Order = "random"

	_, err := New(context.Background(), cfg, nil)
	require.Error(t, err)

	cfg = loadConfig(t, "http://127.0.0.1:1", t.TempDir())
	cfg.Scan.Workers = config.MaxWorkers + 1
	_, err = New(context.Background(), cfg, nil)
	require.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestRunDiffFromStoreRequiresStore(t *testing.T) {
	t.Parallel()

	cfg := loadConfig(t, "http://127.0.0.1:1", t.TempDir())
	application, err := New(context.Background(), cfg, logging.NewWithWriter(io.Discard, "error", "text"))
	require.NoError(t, err)

	err = application.RunDiff(context.Background(), DiffOptions{FromStore: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run store is not configured")
}
