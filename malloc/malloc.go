// Package malloc implements tcalloc's three-tier cache hierarchy:
// ThreadCache, the process-wide CentralCache, and the process-wide
// PageCache, composed leaves-first as spec.md section 2 describes.
//
// Types and functions in this package follow the teacher's own
// (_examples/bnclabs-gostore/malloc) convention of raw unsafe.Pointer
// in, unsafe.Pointer out, sized-free: the caller is responsible for
// passing the exact size back to Deallocate that was passed to
// Allocate.
package malloc

import "unsafe"

// defaultPageCache and defaultCentralCache are the process-wide
// singletons spec.md section 4.9 calls for. Embedders that want to
// avoid global state construct their own PageCache/CentralCache pair
// and their own ThreadCache instances instead of using this
// package-level convenience API.
var (
	defaultPageCache       = NewPageCache()
	defaultCentralCache    = NewCentralCache(defaultPageCache)
	defaultThreadCachePool = newThreadCachePool(defaultCentralCache)
)

// Allocate returns a pointer-width-aligned region of at least size
// bytes, or ok=false if size==0 (InvalidArgument) or the OS refused
// more memory (AllocationFailure).
func Allocate(size uintptr) (ptr unsafe.Pointer, ok bool) {
	tc := defaultThreadCachePool.get()
	defer defaultThreadCachePool.put(tc)
	return tc.Allocate(size)
}

// Deallocate returns ptr, previously obtained from Allocate(size), to
// the allocator. size must equal the size passed to the matching
// Allocate call. A nil ptr or size==0 is a no-op.
func Deallocate(ptr unsafe.Pointer, size uintptr) {
	tc := defaultThreadCachePool.get()
	defer defaultThreadCachePool.put(tc)
	tc.Deallocate(ptr, size)
}

// Shutdown unmaps every page run ever obtained from the OS. Intended
// for process teardown; further allocator use after Shutdown is
// undefined, matching PageCache.Shutdown's own contract.
func Shutdown() {
	defaultPageCache.Shutdown()
}
