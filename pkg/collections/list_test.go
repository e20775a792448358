package collections

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListBasics(t *testing.T) {
	t.Parallel()
	var l List[string]
	assert.Equal(t, 0, l.Length())
	l.Push("a")
	l.AppendAll([]string{"b", "c"})
	require.Equal(t, 3, l.Length())
	assert.Equal(t, "b", l.At(1))
	assert.Equal(t, []string{"a", "b", "c"}, l.Items())
	assert.Equal(t, reflect.TypeOf(""), l.ElementType())

	items := l.Items()
	items[0] = "changed"
	assert.Equal(t, "a", l.At(0))
}

func TestListForEach(t *testing.T) {
	t.Parallel()
	l := NewList(10, 20, 30)
	var seen []int
	l.ForEach(func(item, index int) {
		seen = append(seen, item+index)
	})
	assert.Equal(t, []int{10, 21, 32}, seen)
}

func TestListWhereAndAny(t *testing.T) {
	t.Parallel()
	l := NewList(1, 2, 3, 4)
	even := l.Where(func(i int) bool { return i%2 == 0 })
	assert.Equal(t, []int{2, 4}, even.Items())
	assert.Equal(t, 4, l.Length())

	assert.True(t, l.Any(func(i int) bool { return i > 3 }))
	assert.False(t, l.Any(func(i int) bool { return i > 4 }))
	assert.False(t, NewList[int]().Any(func(int) bool { return true }))
}

func TestListSplice(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct {
		name         string
		index, count int
		want         []int
	}{
		{name: "middle", index: 1, count: 2, want: []int{0, 3, 4}},
		{name: "head", index: 0, count: 1, want: []int{1, 2, 3, 4}},
		{name: "past end", index: 3, count: 10, want: []int{0, 1, 2}},
		{name: "negative index", index: -1, count: 2, want: []int{1, 2, 3, 4}},
		{name: "zero count", index: 2, count: 0, want: []int{0, 1, 2, 3, 4}},
		{name: "out of range", index: 9, count: 1, want: []int{0, 1, 2, 3, 4}},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			l := NewList(0, 1, 2, 3, 4)
			l.Splice(tc.index, tc.count)
			assert.Equal(t, tc.want, l.Items())
		})
	}
}

func TestListIsSequence(t *testing.T) {
	t.Parallel()
	var s Sequence = NewList[float64](1.5)
	assert.Equal(t, 1, s.Length())
	assert.Equal(t, reflect.Float64, s.ElementType().Kind())
}
