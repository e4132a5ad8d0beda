package malloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageCacheAllocateReleaseRoundtrip(t *testing.T) {
	pc := NewPageCache()
	span, ok := pc.allocatePages(4)
	require.True(t, ok)
	assert.Equal(t, uintptr(4), span.Pages())
	assert.Zero(t, span.Base%PageSize)

	pc.releasePages(span)
	assert.Len(t, pc.addressIndex, 1)
}

// Coalescing: releasing a page run adjacent to existing free runs
// reduces the index entry count by exactly the number of adjacencies,
// spec.md section 8.
func TestPageCacheCoalescesAdjacentRuns(t *testing.T) {
	pc := NewPageCache()

	full, ok := pc.allocatePages(PageCacheBulkPages)
	require.True(t, ok)

	left, rest := full.Split(10)
	mid, right := rest.Split(10)

	pc.releasePages(left)
	pc.releasePages(right)
	assert.Len(t, pc.addressIndex, 2)

	pc.releasePages(mid) // adjacent to both left and right: one merged run
	assert.Len(t, pc.addressIndex, 1)
	assert.Equal(t, full, pc.addressIndex[0])
}

func TestPageCacheBestFit(t *testing.T) {
	pc := NewPageCache()
	full, ok := pc.allocatePages(PageCacheBulkPages)
	require.True(t, ok)

	small, rest := full.Split(5)
	_, rest = rest.Split(1) // keep one page allocated so small and big do not coalesce
	big, _ := rest.Split(50)
	pc.releasePages(small)
	pc.releasePages(big)

	got, ok := pc.allocatePages(5)
	require.True(t, ok)
	assert.Equal(t, small, got)
}

func TestPageCacheOversizeRoundtrip(t *testing.T) {
	pc := NewPageCache()
	span, ok := pc.allocateOversize(1024 * 1024)
	require.True(t, ok)
	assert.Equal(t, uintptr(1024*1024), span.Length)
	pc.releaseOversize(span)
}

func TestPageCacheShutdownIdempotent(t *testing.T) {
	pc := NewPageCache()
	_, ok := pc.allocatePages(4)
	require.True(t, ok)
	pc.Shutdown()
	pc.Shutdown()
}
