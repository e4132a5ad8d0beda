package malloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassOfRejectsZero(t *testing.T) {
	_, _, ok := ClassOf(0)
	assert.False(t, ok)
}

func TestClassOfOversize(t *testing.T) {
	size := MaxCachedUnitSize + 8
	classSize, index, ok := ClassOf(size)
	assert.False(t, ok)
	assert.Equal(t, OversizeIndex, index)
	assert.Equal(t, size, classSize)
}

func TestClassOfRoundsUp(t *testing.T) {
	for _, n := range []uintptr{1, 3, 5, 7, 9, 15, 17, 33} {
		classSize, _, ok := ClassOf(n)
		require.True(t, ok)
		assert.GreaterOrEqual(t, classSize, n)
	}
}

// Size-class idempotence: round_up(round_up(n)) == round_up(n), and
// index(n) == index(round_up(n)), spec.md section 8.
func TestSizeClassIdempotence(t *testing.T) {
	for n := uintptr(1); n <= MaxCachedUnitSize; n += 37 {
		r1 := RoundUp(n)
		r2 := RoundUp(r1)
		assert.Equal(t, r1, r2)

		_, i1, ok1 := ClassOf(n)
		_, i2, ok2 := ClassOf(r1)
		require.Equal(t, ok1, ok2)
		if ok1 {
			assert.Equal(t, i1, i2)
		}
	}
}

func TestSizeClassBoundary(t *testing.T) {
	classSize, _, ok := ClassOf(MaxCachedUnitSize)
	require.True(t, ok)
	assert.Equal(t, MaxCachedUnitSize, classSize)

	_, index, ok := ClassOf(MaxCachedUnitSize + 1)
	assert.False(t, ok)
	assert.Equal(t, OversizeIndex, index)
}
