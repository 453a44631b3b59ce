package bitset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitSetVisitTracking(t *testing.T) {
	// one bit per vertex, sized past a word boundary
	visited := NewBitSet(100)
	require.Len(t, visited, 2)

	for _, vertex := range []uint64{0, 63, 64, 99} {
		visited.Set(vertex)
	}
	for _, vertex := range []uint64{0, 63, 64, 99} {
		assert.True(t, visited.IsSet(vertex), "vertex %d not marked", vertex)
	}
	assert.False(t, visited.IsSet(1))
	assert.False(t, visited.IsSet(65))
}

func TestBitSetUnset(t *testing.T) {
	visited := NewBitSet(100)
	visited.Set(10)
	visited.Set(20)
	visited.Set(30)

	visited.Unset(20)

	assert.False(t, visited.IsSet(20))
	assert.True(t, visited.IsSet(10))
	assert.True(t, visited.IsSet(30))
}

func TestBitSetClear(t *testing.T) {
	visited := NewBitSet(128)
	visited.Set(0)
	visited.Set(127)

	visited.Clear()

	assert.False(t, visited.IsSet(0))
	assert.False(t, visited.IsSet(127))
}

func TestBitSetSetFrom(t *testing.T) {
	src := BitSet{0b1010, 0b1111}
	dst := BitSet{0, 0}

	dst.SetFrom(src)
	assert.Equal(t, src, dst)

	// the copy restarts a search from a prior frontier, sizes must agree
	short := BitSet{0}
	assert.Panics(t, func() { short.SetFrom(src) })
}
