package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PageDrift/internal/domain"
)

const sampleYAML = `
logging:
  level: debug
scan:
  workers: 3
  order: oldest-first
vocabulary:
  - adaptation
  - [climate, change]
  - Methane
urls:
  - https://www.epa.gov/
  - https://www.energy.gov/
periods:
  a:
    label: obama
    from: 2016-01-01
    to: 2016-07-01
  b:
    label: trump
    from: 2018-01-01
    to: 2018-07-01
output:
  delimiter: " "
`

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pagedrift.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))
	t.Setenv(storeDSNEnv, "file:runs.db")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 3, cfg.Scan.Workers)
	assert.Equal(t, "oldest-first", cfg.Scan.Order)
	assert.Equal(t, 120*time.Second, cfg.Scan.FetchTimeout())
	assert.Equal(t, "file:runs.db", cfg.Store.DSN)
	assert.Equal(t, ' ', cfg.Output.DelimiterRune())

	assert.Equal(t, []domain.Term{
		domain.Word("adaptation"),
		domain.Phrase("climate", "change"),
		domain.Word("Methane"),
	}, cfg.Terms())

	a, err := cfg.Periods.A.Period()
	require.NoError(t, err)
	assert.Equal(t, "obama", a.Label)
	assert.Equal(t, 1, a.Connection)
	assert.Equal(t, 8, a.Error)
	assert.Equal(t, time.Date(2016, time.July, 1, 0, 0, 0, 0, time.UTC), a.Range.To)

	p, err := cfg.PeriodByName("trump")
	require.NoError(t, err)
	assert.Equal(t, 14, p.Error)
	p, err = cfg.PeriodByName("A")
	require.NoError(t, err)
	assert.Equal(t, "obama", p.Label)
	_, err = cfg.PeriodByName("c")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestParseRejectsNestedVocabulary(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("vocabulary:\n  - {word: climate}\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("vocabulary:\n  - [climate, [change]]\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "vocabulary is empty")
	assert.Contains(t, err.Error(), "no tracked urls")

	cfg.Vocabulary = []TermConfig{{Words: []string{"climate"}}}
	cfg.URLs = []string{"https://www.epa.gov/"}
	require.NoError(t, cfg.Validate())

	cfg.Scan.Workers = MaxWorkers + 1
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg.Scan.Workers = 1
	cfg.Periods.B.From = "2019-13-01"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg.Periods.B.From = "2018-08-01"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig, "to before from")
}

func TestTrackedURLsFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "urls.csv")
	content := strings.Join([]string{
		"# tracked pages",
		"https://www.epa.gov/,extra,columns",
		"",
		"https://www.fws.gov/",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg := Config{URLsFile: path}
	urls, err := cfg.TrackedURLs()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://www.epa.gov/", "https://www.fws.gov/"}, urls)
}

func TestExampleConfigIsValid(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join("..", "..", "configs", "pagedrift.example.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Len(t, cfg.Terms(), 4)
	assert.True(t, cfg.Terms()[3].IsPhrase())
	assert.Equal(t, "trump", cfg.Periods.B.Label)
	assert.Equal(t, 14, cfg.Periods.B.Error)
}

func TestValidateRejectsBadSelector(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join("..", "..", "configs", "pagedrift.example.yaml"))
	require.NoError(t, err)

	cfg.Boilerplate.Selectors = append(cfg.Boilerplate.Selectors, "div > [")
	err = cfg.Validate()
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), `"div > ["`)
}
