package malloc

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCentralCacheFetchReleaseRoundtrip(t *testing.T) {
	cc := NewCentralCache(NewPageCache())
	classSize, index, ok := ClassOf(128)
	require.True(t, ok)

	chain, got, ok := cc.fetch(classSize, index, 10)
	require.True(t, ok)
	assert.Equal(t, 10, got)

	seen := map[unsafe.Pointer]bool{}
	for p := chain; p != nil; p = listNext(p) {
		assert.False(t, seen[p], "duplicate block in chain")
		seen[p] = true
		assert.Zero(t, uintptr(p)%Alignment)
	}
	assert.Len(t, seen, 10)

	// Releasing all ten blocks empties their pageSpan, which is recycled
	// to the PageCache along with every free-list block it owned.
	cc.release(chain, classSize, index, got)
	assert.Equal(t, int64(0), cc.classes[index].count)
}

// Allocating 3000 blocks then freeing them all must recycle at least
// one pagespan back to PageCache and leave the class usable
// afterwards, spec.md section 8 scenario 3.
func TestCentralCacheRecyclesEmptySpans(t *testing.T) {
	cc := NewCentralCache(NewPageCache())
	classSize, index, ok := ClassOf(128)
	require.True(t, ok)

	type batch struct {
		head unsafe.Pointer
		n    int
	}
	var batches []batch
	total := 0
	for total < 3000 {
		want := 64
		if total+want > 3000 {
			want = 3000 - total
		}
		chain, got, ok := cc.fetch(classSize, index, want)
		require.True(t, ok)
		batches = append(batches, batch{chain, got})
		total += got
	}
	require.Equal(t, 3000, total)

	spansBefore := len(cc.classes[index].spans)
	require.Greater(t, spansBefore, 0)

	for _, b := range batches {
		cc.release(b.head, classSize, index, b.n)
	}

	assert.Empty(t, cc.classes[index].spans, "all spans should have been recycled")

	_, got, ok := cc.fetch(classSize, index, 1)
	require.True(t, ok)
	assert.Equal(t, 1, got)
}

// Halving symmetry: after K refills followed by K drains on one size
// class, next_page_group_count returns to within a factor of 2 of its
// starting value, spec.md section 8.
func TestCentralCacheNextPageGroupCountHalvingSymmetry(t *testing.T) {
	cc := NewCentralCache(NewPageCache())
	classSize, index, ok := ClassOf(64)
	require.True(t, ok)
	start := cc.classes[index].nextPageGroupCount

	var chains []struct {
		head unsafe.Pointer
		n    int
	}
	for i := 0; i < 5; i++ {
		chain, got, ok := cc.fetch(classSize, index, 1<<20/int(classSize)+1)
		require.True(t, ok)
		chains = append(chains, struct {
			head unsafe.Pointer
			n    int
		}{chain, got})
	}

	for _, c := range chains {
		cc.release(c.head, classSize, index, c.n)
	}

	end := cc.classes[index].nextPageGroupCount
	assert.LessOrEqual(t, end, start*2+1)
	assert.GreaterOrEqual(t, end*2+1, start)
}
