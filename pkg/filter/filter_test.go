package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/assetstream/pkg/catalog"
)

func scenarioCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New([]catalog.Item{
		{UniqueID: "ab", Descriptors: map[catalog.Tag]float64{"A": 3, "B": 1}},
		{UniqueID: "a1", Descriptors: map[catalog.Tag]float64{"A": 1}},
		{UniqueID: "b2", Descriptors: map[catalog.Tag]float64{"B": 2}},
		{UniqueID: "none"},
		{UniqueID: "a2b5", Descriptors: map[catalog.Tag]float64{"A": 2, "B": 5}},
	})
	require.NoError(t, err)
	return cat
}

func TestApply_EmptyCriteriaMatchesAll(t *testing.T) {
	cat := scenarioCatalog(t)
	got := Apply(cat, Criteria{})
	assert.Equal(t, []catalog.Handle{0, 1, 2, 3, 4}, got)
}

func TestApply_MustHave(t *testing.T) {
	cat := scenarioCatalog(t)

	got := Apply(cat, NewCriteria([]catalog.Tag{"A"}, nil))
	assert.Equal(t, []catalog.Handle{0, 1, 4}, got)

	got = Apply(cat, NewCriteria([]catalog.Tag{"A", "B"}, nil))
	assert.Equal(t, []catalog.Handle{0, 4}, got)
}

func TestApply_MustNot(t *testing.T) {
	cat := scenarioCatalog(t)

	got := Apply(cat, NewCriteria(nil, []catalog.Tag{"B"}))
	assert.Equal(t, []catalog.Handle{1, 3}, got)
}

func TestApply_MustHaveAndMustNot(t *testing.T) {
	cat := scenarioCatalog(t)

	got := Apply(cat, NewCriteria([]catalog.Tag{"A"}, []catalog.Tag{"B"}))
	assert.Equal(t, []catalog.Handle{1}, got)
}

func TestApply_UnknownTagMatchesNothing(t *testing.T) {
	cat := scenarioCatalog(t)
	assert.Empty(t, Apply(cat, NewCriteria([]catalog.Tag{"Z"}, nil)))
}

func TestApply_Idempotent(t *testing.T) {
	cat := scenarioCatalog(t)
	crit := NewCriteria([]catalog.Tag{"B"}, []catalog.Tag{"C"})

	once := Apply(cat, crit)
	twice := ApplyTo(cat, once, crit)
	assert.ElementsMatch(t, once, twice)
}

func TestCriteriaEqual(t *testing.T) {
	a := NewCriteria([]catalog.Tag{"A", "B"}, []catalog.Tag{"C"})
	b := NewCriteria([]catalog.Tag{"B", "A"}, []catalog.Tag{"C"})
	c := NewCriteria([]catalog.Tag{"A"}, []catalog.Tag{"C"})

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.True(t, Criteria{}.Equal(NewCriteria(nil, nil)))
}

func TestCriteriaClone(t *testing.T) {
	a := NewCriteria([]catalog.Tag{"A"}, nil)
	b := a.Clone()
	b.MustHave["X"] = struct{}{}
	assert.False(t, a.MustHave.Contains("X"))
}
