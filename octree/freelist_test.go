package octree

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFreeRangesTakeFromFront(t *testing.T) {
	f := freeRanges{{Start: 2, End: 4}, {Start: 7, End: 8}}

	idx, ok := f.take()
	require.True(t, ok)
	assert.Equal(t, uint32(2), idx)
	assert.Equal(t, freeRanges{{Start: 3, End: 4}, {Start: 7, End: 8}}, f)

	idx, ok = f.take()
	require.True(t, ok)
	assert.Equal(t, uint32(3), idx)
	assert.Equal(t, freeRanges{{Start: 7, End: 8}}, f, "exhausted range must be removed")

	idx, _ = f.take()
	assert.Equal(t, uint32(7), idx)
	_, ok = f.take()
	assert.False(t, ok)
}

func TestFreeRangesInsertKeepsOrder(t *testing.T) {
	var f freeRanges
	for _, idx := range []uint32{10, 3, 7} {
		f.insert(idx)
	}
	assert.Equal(t, freeRanges{{3, 4}, {7, 8}, {10, 11}}, f)
}

func TestFreeRangesCoalesce(t *testing.T) {
	cases := []struct {
		name   string
		start  freeRanges
		insert uint32
		want   freeRanges
	}{
		{"extend previous", freeRanges{{2, 4}}, 4, freeRanges{{2, 5}}},
		{"extend next", freeRanges{{5, 8}}, 4, freeRanges{{4, 8}}},
		{"bridge both", freeRanges{{2, 4}, {5, 8}}, 4, freeRanges{{2, 8}}},
		{"isolated", freeRanges{{2, 4}, {9, 10}}, 6, freeRanges{{2, 4}, {6, 7}, {9, 10}}},
		{"before all", freeRanges{{5, 6}}, 0, freeRanges{{0, 1}, {5, 6}}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := append(freeRanges(nil), c.start...)
			f.insert(c.insert)
			assert.Equal(t, c.want, f)
		})
	}
}

func TestFreeRangesAdjacentFreesMerge(t *testing.T) {
	var f freeRanges
	f.insert(5)
	f.insert(6)
	assert.Equal(t, freeRanges{{5, 7}}, f)
	assert.Equal(t, uint32(2), f.count())
}

func TestFreeRangesDoubleFreePanics(t *testing.T) {
	f := freeRanges{{2, 5}}
	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.True(t, errors.Is(err, ErrInvariantViolation))
	}()
	f.insert(3)
}

func TestFreeRangesTrimTail(t *testing.T) {
	f := freeRanges{{1, 2}, {4, 9}}
	assert.Equal(t, uint32(12), f.trimTail(12), "range not at the end stays")
	assert.Equal(t, uint32(4), f.trimTail(9))
	assert.Equal(t, freeRanges{{1, 2}}, f)
}

func TestFreeRangesContains(t *testing.T) {
	f := freeRanges{{1, 3}, {6, 7}}
	for idx, want := range map[uint32]bool{0: false, 1: true, 2: true, 3: false, 6: true, 7: false} {
		assert.Equal(t, want, f.contains(idx), "slot %d", idx)
	}
}
