package malloc

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestThreadCache() *ThreadCache {
	return NewThreadCache(NewCentralCache(NewPageCache()))
}

func TestThreadCacheAllocateAlignment(t *testing.T) {
	tc := newTestThreadCache()
	for _, n := range []uintptr{1, 3, 5, 7, 9, 15, 17, 33} {
		p, ok := tc.Allocate(n)
		require.True(t, ok)
		assert.Zero(t, uintptr(p)%Alignment)
		tc.Deallocate(p, n)
	}
}

func TestThreadCacheZeroSizeIsNoop(t *testing.T) {
	tc := newTestThreadCache()
	_, ok := tc.Allocate(0)
	assert.False(t, ok)
	tc.Deallocate(nil, 0) // must not panic
}

func TestThreadCacheDistinctLiveAddresses(t *testing.T) {
	tc := newTestThreadCache()
	seen := map[unsafe.Pointer]bool{}
	var live []unsafe.Pointer
	for i := 0; i < 100; i++ {
		p, ok := tc.Allocate(64)
		require.True(t, ok)
		assert.False(t, seen[p], "address reused while still live")
		seen[p] = true
		live = append(live, p)
	}
	for _, p := range live {
		tc.Deallocate(p, 64)
	}
}

// Allocate 3000 blocks of 128 bytes sequentially then deallocate all
// 3000; a subsequent allocate(128) must succeed. spec.md section 8
// scenario 3. 3000*128 bytes stays below ThreadCacheMaxBytesPerList, so
// every block stays on the local list and no drain to the CentralCache
// happens here.
func TestThreadCacheAllocateAfterBulkCycle(t *testing.T) {
	tc := newTestThreadCache()
	ptrs := make([]unsafe.Pointer, 0, 3000)
	for i := 0; i < 3000; i++ {
		p, ok := tc.Allocate(128)
		require.True(t, ok)
		ptrs = append(ptrs, p)
	}
	for _, p := range ptrs {
		tc.Deallocate(p, 128)
	}
	_, ok := tc.Allocate(128)
	assert.True(t, ok)
}

// Oversize boundary: the last cached class (32KiB) and the first
// oversize request (32KiB+8), spec.md section 8 scenario 4.
func TestOversizeBoundary(t *testing.T) {
	tc := newTestThreadCache()

	p1, ok := tc.Allocate(32 * 1024)
	require.True(t, ok)
	tc.Deallocate(p1, 32*1024)

	p2, ok := tc.Allocate(32*1024 + 8)
	require.True(t, ok)
	tc.Deallocate(p2, 32*1024+8)
}

// Allocate 1MiB oversize, write/read the boundary bytes, deallocate.
// spec.md section 8 scenario 6.
func TestOversizeWriteReadBoundary(t *testing.T) {
	tc := newTestThreadCache()
	const n = 1024 * 1024
	p, ok := tc.Allocate(n)
	require.True(t, ok)

	buf := unsafe.Slice((*byte)(p), n)
	buf[0] = 0xff
	buf[n-1] = 0xff
	assert.Equal(t, byte(0xff), buf[0])
	assert.Equal(t, byte(0xff), buf[n-1])

	tc.Deallocate(p, n)
}
