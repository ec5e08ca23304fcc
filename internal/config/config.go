package config

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/andybalholm/cascadia"
	"gopkg.in/yaml.v3"

	"PageDrift/internal/domain"
)

const (
	dateLayout     = "2006-01-02"
	configPathEnv  = "PAGEDRIFT_CONFIG"
	logLevelEnv    = "PAGEDRIFT_LOG_LEVEL"
	storeDSNEnv    = "PAGEDRIFT_STORE_DSN"
	cdxEndpointEnv = "PAGEDRIFT_CDX_ENDPOINT"

	// MaxWorkers caps concurrent URLs so the archive's rate limits are respected.
	MaxWorkers = 4
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds high-level settings required across the application.
type Config struct {
	Logging     LoggingConfig     `yaml:"logging"`
	Archive     ArchiveConfig     `yaml:"archive"`
	Scan        ScanConfig        `yaml:"scan"`
	Vocabulary  []TermConfig      `yaml:"vocabulary"`
	URLs        []string          `yaml:"urls"`
	URLsFile    string            `yaml:"urlsFile"`
	Periods     PeriodsConfig     `yaml:"periods"`
	Boilerplate BoilerplateConfig `yaml:"boilerplate"`
	Output      OutputConfig      `yaml:"output"`
	Store       StoreConfig       `yaml:"store"`
}

// LoggingConfig selects the slog level and handler format (text or json).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ArchiveConfig describes how to reach the Wayback Machine.
type ArchiveConfig struct {
	CDXEndpoint       string  `yaml:"cdxEndpoint"`
	RawBaseURL        string  `yaml:"rawBaseUrl"`
	UserAgent         string  `yaml:"userAgent"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
	Burst             int     `yaml:"burst"`
}

// ScanConfig tunes snapshot resolution.
type ScanConfig struct {
	Order               string `yaml:"order"`
	Workers             int    `yaml:"workers"`
	FetchTimeoutSeconds int    `yaml:"fetchTimeoutSeconds"`
	MaxBodyBytes        int64  `yaml:"maxBodyBytes"`
}

// FetchTimeout returns the per-request ceiling.
func (s ScanConfig) FetchTimeout() time.Duration {
	return time.Duration(s.FetchTimeoutSeconds) * time.Second
}

// TermConfig is a vocabulary entry: a YAML scalar is a word, a sequence is a phrase.
type TermConfig struct {
	Words  []string
	Phrase bool
}

// UnmarshalYAML dispatches on the node kind.
func (t *TermConfig) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		t.Words = []string{node.Value}
		t.Phrase = false
		return nil
	case yaml.SequenceNode:
		var words []string
		if err := node.Decode(&words); err != nil {
			return fmt.Errorf("line %d: phrase must be a list of strings: %w", node.Line, err)
		}
		t.Words = words
		t.Phrase = true
		return nil
	default:
		return fmt.Errorf("line %d: vocabulary entry must be a word or a list of words", node.Line)
	}
}

// Term converts the entry into its domain form.
func (t TermConfig) Term() domain.Term {
	if t.Phrase {
		return domain.Phrase(t.Words...)
	}
	if len(t.Words) == 0 {
		return domain.Word("")
	}
	return domain.Word(t.Words[0])
}

// PeriodsConfig names the earlier (A) and later (B) windows.
type PeriodsConfig struct {
	A PeriodConfig `yaml:"a"`
	B PeriodConfig `yaml:"b"`
}

// PeriodConfig is one comparison window with its adjacency codes.
type PeriodConfig struct {
	Label      string `yaml:"label"`
	From       string `yaml:"from"`
	To         string `yaml:"to"`
	Connection int    `yaml:"connection"`
	Error      int    `yaml:"error"`
}

// Period parses the window into its domain form.
func (p PeriodConfig) Period() (domain.Period, error) {
	from, err := time.Parse(dateLayout, p.From)
	if err != nil {
		return domain.Period{}, fmt.Errorf("period %s: from: %w", p.Label, err)
	}
	to, err := time.Parse(dateLayout, p.To)
	if err != nil {
		return domain.Period{}, fmt.Errorf("period %s: to: %w", p.Label, err)
	}
	if to.Before(from) {
		return domain.Period{}, fmt.Errorf("period %s: %s is before %s", p.Label, p.To, p.From)
	}
	return domain.Period{
		Label:      p.Label,
		Range:      domain.DateRange{From: from, To: to},
		Connection: p.Connection,
		Error:      p.Error,
	}, nil
}

// BoilerplateConfig lists site-specific chrome selectors.
type BoilerplateConfig struct {
	Selectors []string `yaml:"selectors"`
}

// OutputConfig controls where artifacts are written.
type OutputConfig struct {
	Dir       string `yaml:"dir"`
	Delimiter string `yaml:"delimiter"`
	Counts    string `yaml:"counts"`
	Resolved  string `yaml:"resolved"`
	Edges     string `yaml:"edges"`
	Metrics   string `yaml:"metrics"`
}

// DelimiterRune returns the first rune of Delimiter, comma when empty.
func (o OutputConfig) DelimiterRune() rune {
	for _, r := range o.Delimiter {
		return r
	}
	return ','
}

// StoreConfig enables the SQLite run store when DSN is set.
type StoreConfig struct {
	DSN string `yaml:"dsn"`
}

// Load reads YAML configuration from path (or PAGEDRIFT_CONFIG) and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		fileCfg, err := Parse(raw)
		if err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", path, err)
		}
		cfg = mergeConfig(cfg, fileCfg)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Parse decodes a YAML document without defaults.
func Parse(raw []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse yaml: %w", err)
	}
	return cfg, nil
}

// Validate checks everything that can be checked before any network I/O.
func (c Config) Validate() error {
	var problems []string

	if len(c.Vocabulary) == 0 {
		problems = append(problems, "vocabulary is empty")
	}
	if len(c.URLs) == 0 && c.URLsFile == "" {
		problems = append(problems, "no tracked urls (urls or urlsFile)")
	}
	if c.Scan.Workers < 1 || c.Scan.Workers > MaxWorkers {
		problems = append(problems, fmt.Sprintf("scan.workers must be within [1,%d], got %d", MaxWorkers, c.Scan.Workers))
	}
	if c.Scan.FetchTimeoutSeconds <= 0 {
		problems = append(problems, "scan.fetchTimeoutSeconds must be positive")
	}
	if c.Archive.RequestsPerSecond <= 0 {
		problems = append(problems, "archive.requestsPerSecond must be positive")
	}
	for _, p := range []PeriodConfig{c.Periods.A, c.Periods.B} {
		if _, err := p.Period(); err != nil {
			problems = append(problems, err.Error())
		}
	}
	for _, sel := range c.Boilerplate.Selectors {
		if strings.TrimSpace(sel) == "" {
			continue
		}
		if _, err := cascadia.Compile(sel); err != nil {
			problems = append(problems, fmt.Sprintf("boilerplate selector %q: %v", sel, err))
		}
	}
	if c.Periods.A.Label == c.Periods.B.Label {
		problems = append(problems, "periods must have distinct labels")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// Terms returns the vocabulary in configured order.
func (c Config) Terms() []domain.Term {
	terms := make([]domain.Term, len(c.Vocabulary))
	for i, t := range c.Vocabulary {
		terms[i] = t.Term()
	}
	return terms
}

// PeriodByName resolves "a"/"b" or a period label.
func (c Config) PeriodByName(name string) (PeriodConfig, error) {
	switch {
	case strings.EqualFold(name, "a") || name == c.Periods.A.Label:
		return c.Periods.A, nil
	case strings.EqualFold(name, "b") || name == c.Periods.B.Label:
		return c.Periods.B, nil
	default:
		return PeriodConfig{}, fmt.Errorf("%w: unknown period %q", ErrInvalidConfig, name)
	}
}

// TrackedURLs returns the inline URL list, or reads the first column of URLsFile.
func (c Config) TrackedURLs() ([]string, error) {
	if len(c.URLs) > 0 {
		return append([]string(nil), c.URLs...), nil
	}

	f, err := os.Open(c.URLsFile)
	if err != nil {
		return nil, fmt.Errorf("open url list: %w", err)
	}
	defer f.Close()

	return readURLList(f)
}

func readURLList(r io.Reader) ([]string, error) {
	cr := csv.NewReader(bufio.NewReader(r))
	cr.FieldsPerRecord = -1
	cr.Comment = '#'

	var urls []string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read url list: %w", err)
		}
		if len(rec) == 0 {
			continue
		}
		if u := strings.TrimSpace(rec[0]); u != "" {
			urls = append(urls, u)
		}
	}
	return urls, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(storeDSNEnv); v != "" {
		c.Store.DSN = v
	}

	if v := os.Getenv(cdxEndpointEnv); v != "" {
		c.Archive.CDXEndpoint = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Archive.CDXEndpoint != "" {
		base.Archive.CDXEndpoint = override.Archive.CDXEndpoint
	}
	if override.Archive.RawBaseURL != "" {
		base.Archive.RawBaseURL = override.Archive.RawBaseURL
	}
	if override.Archive.UserAgent != "" {
		base.Archive.UserAgent = override.Archive.UserAgent
	}
	if override.Archive.RequestsPerSecond != 0 {
		base.Archive.RequestsPerSecond = override.Archive.RequestsPerSecond
	}
	if override.Archive.Burst != 0 {
		base.Archive.Burst = override.Archive.Burst
	}

	if override.Scan.Order != "" {
		base.Scan.Order = override.Scan.Order
	}
	if override.Scan.Workers != 0 {
		base.Scan.Workers = override.Scan.Workers
	}
	if override.Scan.FetchTimeoutSeconds != 0 {
		base.Scan.FetchTimeoutSeconds = override.Scan.FetchTimeoutSeconds
	}
	if override.Scan.MaxBodyBytes != 0 {
		base.Scan.MaxBodyBytes = override.Scan.MaxBodyBytes
	}

	if len(override.Vocabulary) > 0 {
		base.Vocabulary = override.Vocabulary
	}
	if len(override.URLs) > 0 {
		base.URLs = override.URLs
	}
	if override.URLsFile != "" {
		base.URLsFile = override.URLsFile
	}

	base.Periods.A = mergePeriod(base.Periods.A, override.Periods.A)
	base.Periods.B = mergePeriod(base.Periods.B, override.Periods.B)

	if override.Boilerplate.Selectors != nil {
		base.Boilerplate.Selectors = override.Boilerplate.Selectors
	}

	if override.Output.Dir != "" {
		base.Output.Dir = override.Output.Dir
	}
	if override.Output.Delimiter != "" {
		base.Output.Delimiter = override.Output.Delimiter
	}
	if override.Output.Counts != "" {
		base.Output.Counts = override.Output.Counts
	}
	if override.Output.Resolved != "" {
		base.Output.Resolved = override.Output.Resolved
	}
	if override.Output.Edges != "" {
		base.Output.Edges = override.Output.Edges
	}
	if override.Output.Metrics != "" {
		base.Output.Metrics = override.Output.Metrics
	}

	if override.Store.DSN != "" {
		base.Store.DSN = override.Store.DSN
	}

	return base
}

func mergePeriod(base, override PeriodConfig) PeriodConfig {
	if override.Label != "" {
		base.Label = override.Label
	}
	if override.From != "" {
		base.From = override.From
	}
	if override.To != "" {
		base.To = override.To
	}
	if override.Connection != 0 {
		base.Connection = override.Connection
	}
	if override.Error != 0 {
		base.Error = override.Error
	}
	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Archive: ArchiveConfig{
			CDXEndpoint:       "https://web.archive.org/cdx/search/cdx",
			RawBaseURL:        "https://web.archive.org/web",
			UserAgent:         "PageDrift/1.0",
			RequestsPerSecond: 1,
			Burst:             1,
		},
		Scan: ScanConfig{
			Order:               "newest-first",
			Workers:             1,
			FetchTimeoutSeconds: 120,
			MaxBodyBytes:        16 << 20,
		},
		Periods: PeriodsConfig{
			A: PeriodConfig{Label: "a", From: "2016-01-01", To: "2016-07-01", Connection: 1, Error: 8},
			B: PeriodConfig{Label: "b", From: "2018-01-01", To: "2018-07-01", Connection: 3, Error: 14},
		},
		Output: OutputConfig{
			Dir:       "out",
			Delimiter: ",",
			Counts:    "counts.csv",
			Resolved:  "urls.csv",
			Edges:     "links.csv",
		},
	}
}
