package linkdiff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PageDrift/internal/domain"
)

func TestReferenceTable(t *testing.T) {
	t.Parallel()

	codec, err := NewCodec(ReferenceA, ReferenceB)
	require.NoError(t, err)

	want := map[int]domain.DiffState{
		0:  domain.StateNone,
		1:  domain.StateRemoved,
		3:  domain.StateAdded,
		4:  domain.StateRetained,
		8:  domain.StateErrorA,
		11: domain.StateErrorAThenAdded,
		14: domain.StateErrorB,
		15: domain.StateRetainedThenErrorB,
		22: domain.StateErrorBoth,
	}
	assert.Equal(t, want, codec.Table())

	seen := map[domain.DiffState]bool{}
	for _, s := range codec.Table() {
		assert.False(t, seen[s], "state %s decoded twice", s)
		seen[s] = true
	}

	// A single period never writes its connection and error code in the same cell.
	_, ok := codec.Decode(9)
	assert.False(t, ok)
}

func TestNewCodecRejectsCollisions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		a, b PeriodCodes
	}{
		{PeriodCodes{1, 8}, PeriodCodes{1, 14}},
		{PeriodCodes{1, 2}, PeriodCodes{1, 3}},
		{PeriodCodes{1, 4}, PeriodCodes{3, 5}},
		{PeriodCodes{0, 8}, PeriodCodes{3, 14}},
	}
	for _, tc := range cases {
		_, err := NewCodec(tc.a, tc.b)
		assert.ErrorIs(t, err, ErrCodeCollision, "a=%+v b=%+v", tc.a, tc.b)
	}

	_, err := NewCodec(PeriodCodes{1, 10}, PeriodCodes{100, 1000})
	assert.NoError(t, err)
}

func TestDiffEndToEnd(t *testing.T) {
	t.Parallel()

	master, err := NewMasterList([]string{"a.com", "b.com"})
	require.NoError(t, err)
	codec, err := NewCodec(ReferenceA, ReferenceB)
	require.NoError(t, err)

	a := &domain.AdjacencyMatrix{Cells: [][]int{{0, 1}, {0, 0}}}
	b := &domain.AdjacencyMatrix{Cells: [][]int{{0, 3}, {3, 0}}}

	diff, err := codec.Diff(a, b)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 4}, {3, 0}}, diff)

	edges, err := codec.Edges(diff, master)
	require.NoError(t, err)
	assert.Equal(t, []domain.Edge{
		{From: "a.com", To: "b.com", State: domain.StateRetained},
		{From: "b.com", To: "a.com", State: domain.StateAdded},
	}, edges)
	assert.Equal(t, map[domain.DiffState]int{domain.StateRetained: 1, domain.StateAdded: 1}, Summary(edges))
}

func TestEdgesSkipDiagonalAndErrorRows(t *testing.T) {
	t.Parallel()

	master, err := NewMasterList([]string{"a", "b", "c"})
	require.NoError(t, err)
	codec, err := NewCodec(ReferenceA, ReferenceB)
	require.NoError(t, err)

	a := domain.NewAdjacencyMatrix(domain.Period{Error: 8}, 3)
	a.MarkError(0)
	a.Cells[1][2] = 1
	b := domain.NewAdjacencyMatrix(domain.Period{Error: 14}, 3)
	b.Cells[0][2] = 3
	b.MarkError(1)

	diff, err := codec.Diff(a, b)
	require.NoError(t, err)
	state, ok := codec.Decode(diff[0][0])
	require.True(t, ok)
	assert.Equal(t, domain.StateErrorA, state)

	edges, err := codec.Edges(diff, master)
	require.NoError(t, err)
	assert.Equal(t, []domain.Edge{
		{From: "a", To: "b", State: domain.StateErrorA},
		{From: "a", To: "c", State: domain.StateErrorAThenAdded},
		{From: "b", To: "a", State: domain.StateErrorB},
		{From: "b", To: "c", State: domain.StateRetainedThenErrorB},
	}, edges)
}

func TestDiffShapeMismatch(t *testing.T) {
	t.Parallel()

	codec, err := NewCodec(ReferenceA, ReferenceB)
	require.NoError(t, err)

	_, err = codec.Diff(domain.NewAdjacencyMatrix(domain.Period{}, 2), domain.NewAdjacencyMatrix(domain.Period{}, 3))
	assert.ErrorIs(t, err, ErrShapeMismatch)

	master, err := NewMasterList([]string{"a"})
	require.NoError(t, err)
	_, err = codec.Edges([][]int{{0, 9}, {0, 0}}, master)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestEdgesRejectUndecodable(t *testing.T) {
	t.Parallel()

	codec, err := NewCodec(ReferenceA, ReferenceB)
	require.NoError(t, err)
	master, err := NewMasterList([]string{"a", "b"})
	require.NoError(t, err)

	_, err = codec.Edges([][]int{{0, 9}, {0, 0}}, master)
	assert.ErrorIs(t, err, ErrUndecodable)
}

func TestMasterListRow(t *testing.T) {
	t.Parallel()

	master, err := NewMasterList([]string{"https://www.epa.gov/", "https://www.epa.gov/climate"})
	require.NoError(t, err)

	row, stats := master.Row([]string{
		"https://www.epa.gov/climate",
		"/web/20160101000000/https://www.epa.gov/",
		"https://example.com/",
		"#top",
	}, 2, 3)

	assert.Equal(t, []int{3, 3}, row)
	assert.Equal(t, SkipStats{MissingHref: 2, NotTracked: 2}, stats)
}

func TestMasterListIndexOf(t *testing.T) {
	t.Parallel()

	master, err := NewMasterList([]string{"http://energy.gov/"})
	require.NoError(t, err)

	i, ok := master.IndexOf("https://web.archive.org/web/20190601120000id_/http://energy.gov/")
	assert.True(t, ok)
	assert.Equal(t, 0, i)

	_, ok = master.IndexOf("http://energy.gov")
	assert.False(t, ok)
}

func TestMasterListDuplicates(t *testing.T) {
	t.Parallel()

	_, err := NewMasterList([]string{"a", "b", "a"})
	assert.ErrorIs(t, err, ErrDuplicateURL)

	master, err := NewMasterList([]string{"a", "b"})
	require.NoError(t, err)
	assert.True(t, master.Equal([]string{"a", "b"}))
	assert.False(t, master.Equal([]string{"b", "a"}))
}
