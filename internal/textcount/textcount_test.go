package textcount

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PageDrift/internal/domain"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Climate":          "climate",
		"climate,":         "climate",
		"(Cost-effective)": "costeffective",
		"EPA's":            "epas",
		"Über!":            "über",
		"snake_case":       "snake_case",
		"...":              "",
		"a b":              "a b",
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), "input %q", in)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"Hello, World!", "  MiXeD--case  ", "€100", "naïve", "", "\t\n"} {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestTokenize(t *testing.T) {
	t.Parallel()

	got := Tokenize("Climate-change, (pollution) isn't new.")
	want := []string{"Climate-change", ",", "(", "pollution", ")", "isn't", "new", "."}
	assert.Equal(t, want, got)

	got = Tokenize("The U.S. EPA spent 2.5 million, or 2,500 thousand.")
	want = []string{"The", "U.S.", "EPA", "spent", "2.5", "million", ",", "or", "2,500", "thousand", "."}
	assert.Equal(t, want, got)
	assert.Empty(t, Tokenize("   "))
}

func TestCountSingle(t *testing.T) {
	t.Parallel()

	for k := 0; k < 4; k++ {
		for m := 0; m < 4; m++ {
			var parts []string
			variants := []string{"Methane", "methane.", "METHANE!", "(methane)"}
			for i := 0; i < k; i++ {
				parts = append(parts, variants[i%len(variants)])
			}
			for i := 0; i < m; i++ {
				parts = append(parts, "emissions")
			}
			blocks := []string{strings.Join(parts, " ")}
			assert.Equal(t, k, CountSingle("methane", blocks), "k=%d m=%d", k, m)
		}
	}
}

func TestCountSingleAcrossBlocks(t *testing.T) {
	t.Parallel()

	blocks := []string{"Safety first", "safety, always", "unsafe"}
	assert.Equal(t, 2, CountSingle("Safety", blocks))
}

func TestCountPhrase(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, CountPhrase([]string{"a", "b"}, []string{"The A B end"}))
	assert.Equal(t, 0, CountPhrase([]string{"a", "b"}, []string{"end a", "b start"}))
	assert.Equal(t, 2, CountPhrase([]string{"Climate", "Change"}, []string{"climate change. Climate change!"}))
	assert.Equal(t, 0, CountPhrase([]string{"climate", "change"}, []string{"climate, change"}))
	assert.Equal(t, 1, CountPhrase([]string{"greenhouse", "gases"}, []string{"(greenhouse gases)"}))
	assert.Equal(t, 1, CountPhrase([]string{"clean", "energy", "jobs"}, []string{"more clean energy jobs"}))
	assert.Equal(t, 0, CountPhrase(nil, []string{"anything"}))
}

func TestCountPhraseInnerPunctuation(t *testing.T) {
	t.Parallel()

	block := []string{"The U.S. EPA protects U.S. waters. EPA's mission costs 2.5 million dollars."}

	vocab, err := NewVocabulary([]domain.Term{
		domain.Word("U.S."),
		domain.Phrase("U.S.", "EPA"),
		domain.Phrase("EPA's", "mission"),
		domain.Phrase("2.5", "million"),
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1, 1, 1}, vocab.Count(block))
}

func TestVocabularyCount(t *testing.T) {
	t.Parallel()

	vocab, err := NewVocabulary([]domain.Term{
		domain.Word("Climate"),
		domain.Phrase("climate", "change"),
		domain.Word("fracking"),
	})
	require.NoError(t, err)
	require.Equal(t, 3, vocab.Len())

	blocks := []string{"Climate change is real.", "CLIMATE policy", "nothing here"}
	assert.Equal(t, []int{2, 1, 0}, vocab.Count(blocks))
}

func TestNewVocabularyRejectsInvalidTerms(t *testing.T) {
	t.Parallel()

	cases := [][]domain.Term{
		{domain.Word("")},
		{domain.Word("!!!")},
		{domain.Word("two words")},
		{domain.Phrase("lonely")},
		{domain.Phrase()},
		{domain.Phrase("ok", "")},
	}
	for _, terms := range cases {
		_, err := NewVocabulary(terms)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidTerm))
	}
}
