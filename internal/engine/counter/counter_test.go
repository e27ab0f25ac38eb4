package counter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounter_IncrCreatesAndCounts(t *testing.T) {
	c := NewCounter()
	c.Incr("a")
	c.Incr("b")
	c.Incr("a")

	assert.Equal(t, 2, c.Get("a"))
	assert.Equal(t, 1, c.Get("b"))
	assert.Equal(t, 0, c.Get("missing"))
	assert.Equal(t, []string{"a", "b"}, c.Keys())
	assert.Equal(t, 3, c.Total())
}

func TestCounter_AddIgnoresNegative(t *testing.T) {
	c := NewCounter()
	c.Add("a", 3)
	c.Add("a", -2)
	assert.Equal(t, 3, c.Get("a"))
}

func TestCounter_SortedBreaksTiesByFirstInsertion(t *testing.T) {
	c := NewCounter()
	for _, key := range []string{"z", "y", "x", "y", "w", "x"} {
		c.Incr(key)
	}

	got := c.Sorted()
	want := []Entry{
		{Key: "y", Count: 2},
		{Key: "x", Count: 2},
		{Key: "z", Count: 1},
		{Key: "w", Count: 1},
	}
	assert.Equal(t, want, got)
}

func TestStore_NewIsEmpty(t *testing.T) {
	s := NewStore()
	require.True(t, s.Empty())
	for _, section := range Sections {
		require.NotNil(t, s.Counter(section), "section %s", section)
	}
}

func TestStore_CloneIsIndependent(t *testing.T) {
	s := NewStore()
	s.Incr(Keywords, "red")
	clone := s.Clone()
	s.Incr(Keywords, "red")

	assert.Equal(t, 1, clone.Get(Keywords, "red"))
	assert.Equal(t, 2, s.Get(Keywords, "red"))
}

func storeOf(entries map[Section][]string) *Store {
	s := NewStore()
	for section, keys := range entries {
		for _, key := range keys {
			s.Incr(section, key)
		}
	}
	return s
}

func TestMerge_CommutativeAndAssociative(t *testing.T) {
	a := func() *Store {
		return storeOf(map[Section][]string{
			Keywords:   {"red", "bold", "red"},
			Dimensions: {"10px"},
		})
	}
	b := func() *Store {
		return storeOf(map[Section][]string{
			Keywords:  {"bold"},
			Variables: {"a", "b"},
		})
	}
	c := func() *Store {
		return storeOf(map[Section][]string{
			Syntax:     {"rule", "rule"},
			Dimensions: {"10px", "2em"},
		})
	}

	// (a + b) + c
	left := NewStore()
	Merge(left, a())
	Merge(left, b())
	Merge(left, c())

	// c + (b + a)
	inner := NewStore()
	Merge(inner, b())
	Merge(inner, a())
	right := NewStore()
	Merge(right, c())
	Merge(right, inner)

	require.True(t, left.Equal(right))
	assert.Equal(t, 2, left.Get(Keywords, "red"))
	assert.Equal(t, 2, left.Get(Keywords, "bold"))
	assert.Equal(t, 2, left.Get(Dimensions, "10px"))
	assert.Equal(t, 2, left.Get(Syntax, "rule"))
}

func TestMerge_EmptyIsIdentity(t *testing.T) {
	s := storeOf(map[Section][]string{Functions: {"darken", "fade"}})
	before := s.Clone()
	Merge(s, NewStore())
	assert.True(t, s.Equal(before))
}

func TestStore_EqualDetectsDifference(t *testing.T) {
	x := storeOf(map[Section][]string{Properties: {"color"}})
	y := storeOf(map[Section][]string{Properties: {"color", "color"}})
	assert.False(t, x.Equal(y))
	z := storeOf(map[Section][]string{Elements: {"color"}})
	assert.False(t, x.Equal(z))
}
