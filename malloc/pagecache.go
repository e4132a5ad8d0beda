package malloc

import (
	"sort"
	"sync"

	"github.com/bnclabs/tcalloc/internal/osmem"
	"github.com/bnclabs/tcalloc/log"
)

// PageCache is the process-wide singleton that obtains large page runs
// from the OS, maintains free page runs indexed by length (best-fit)
// and by address (coalescing), and services oversize allocations
// directly. One coarse mutex covers both indices and the retention
// list; every operation holds it for its entire body, per spec.md
// section 4.2.
type PageCache struct {
	mu sync.Mutex

	// sizeIndex is the free-run "multiset keyed by page count": kept
	// sorted by (Length, Base) so the first entry with Length >= wanted
	// is the best fit. addressIndex mirrors the same spans keyed by
	// base address for coalescing lookups. Go has no built-in ordered
	// map/multiset, so both are backed by sorted slices with
	// sort.Search binary lookup, the same substitution CentralCache
	// makes for its page-span map (see centralcache.go).
	sizeIndex    []MemorySpan
	addressIndex []MemorySpan

	retained []MemorySpan // every span ever obtained from the OS
	oversize map[uintptr]MemorySpan

	shutdownOnce sync.Once
}

// NewPageCache constructs an empty PageCache. Applications that want to
// avoid the package-level singleton (spec.md section 9's note on
// embedding shared state in an application-supplied context) can hold
// their own instance and thread it through ThreadCache/CentralCache
// construction explicitly.
func NewPageCache() *PageCache {
	return &PageCache{oversize: make(map[uintptr]MemorySpan)}
}

// allocatePages returns a span of exactly n pages, best-fit from the
// free-run index, else refilled from the OS in PageCacheBulkPages-page
// batches.
func (pc *PageCache) allocatePages(n uintptr) (MemorySpan, bool) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if span, ok := pc.takeBestFit(n); ok {
		return span, true
	}

	bulk := n
	if bulk < PageCacheBulkPages {
		bulk = PageCacheBulkPages
	}
	addr, ok := osmem.Map(bulk * PageSize)
	if !ok {
		log.Errorf("pagecache: OS refused mapping of %d pages", bulk)
		return MemorySpan{}, false
	}
	full := MemorySpan{Base: addr, Length: bulk * PageSize}
	pc.retained = append(pc.retained, full)

	head, rest := full.Split(n)
	if rest.Length > 0 {
		pc.insert(rest)
	}
	log.Debugf("pagecache: OS refill of %d pages (requested %d)", bulk, n)
	return head, true
}

// takeBestFit removes and returns the smallest free run of at least n
// pages, splitting and reinserting the remainder.
func (pc *PageCache) takeBestFit(n uintptr) (MemorySpan, bool) {
	i := sort.Search(len(pc.sizeIndex), func(i int) bool { return pc.sizeIndex[i].Pages() >= n })
	if i == len(pc.sizeIndex) {
		return MemorySpan{}, false
	}
	found := pc.sizeIndex[i]
	pc.removeFromIndices(found)

	head, rest := found.Split(n)
	if rest.Length > 0 {
		pc.insert(rest)
	}
	return head, true
}

// releasePages returns a page-multiple span, coalescing it with
// physically adjacent free neighbours on either side, bounded to
// coalesceStepBound steps per side against pathological traversal.
func (pc *PageCache) releasePages(span MemorySpan) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	merged := span
	for steps := 0; steps < coalesceStepBound; steps++ {
		pred, ok := pc.findPredecessor(merged)
		if !ok {
			break
		}
		pc.removeFromIndices(pred)
		merged = MemorySpan{Base: pred.Base, Length: pred.Length + merged.Length}
	}
	for steps := 0; steps < coalesceStepBound; steps++ {
		succ, ok := pc.findSuccessor(merged)
		if !ok {
			break
		}
		pc.removeFromIndices(succ)
		merged = MemorySpan{Base: merged.Base, Length: merged.Length + succ.Length}
	}
	pc.insert(merged)
}

func (pc *PageCache) findPredecessor(span MemorySpan) (MemorySpan, bool) {
	i := sort.Search(len(pc.addressIndex), func(i int) bool { return pc.addressIndex[i].Base >= span.Base })
	if i == 0 {
		return MemorySpan{}, false
	}
	cand := pc.addressIndex[i-1]
	return cand, cand.Adjacent(span)
}

func (pc *PageCache) findSuccessor(span MemorySpan) (MemorySpan, bool) {
	i := sort.Search(len(pc.addressIndex), func(i int) bool { return pc.addressIndex[i].Base >= span.End() })
	if i == len(pc.addressIndex) || pc.addressIndex[i].Base != span.End() {
		return MemorySpan{}, false
	}
	return pc.addressIndex[i], true
}

// insert adds span to both indices, keeping each sorted.
func (pc *PageCache) insert(span MemorySpan) {
	ai := sort.Search(len(pc.addressIndex), func(i int) bool { return pc.addressIndex[i].Base >= span.Base })
	pc.addressIndex = append(pc.addressIndex, MemorySpan{})
	copy(pc.addressIndex[ai+1:], pc.addressIndex[ai:])
	pc.addressIndex[ai] = span

	si := sort.Search(len(pc.sizeIndex), func(i int) bool {
		if pc.sizeIndex[i].Pages() != span.Pages() {
			return pc.sizeIndex[i].Pages() > span.Pages()
		}
		return pc.sizeIndex[i].Base >= span.Base
	})
	pc.sizeIndex = append(pc.sizeIndex, MemorySpan{})
	copy(pc.sizeIndex[si+1:], pc.sizeIndex[si:])
	pc.sizeIndex[si] = span
}

// removeFromIndices removes an exact span from both indices.
func (pc *PageCache) removeFromIndices(span MemorySpan) {
	ai := sort.Search(len(pc.addressIndex), func(i int) bool { return pc.addressIndex[i].Base >= span.Base })
	if ai < len(pc.addressIndex) && pc.addressIndex[ai].Base == span.Base {
		pc.addressIndex = append(pc.addressIndex[:ai], pc.addressIndex[ai+1:]...)
	}
	si := sort.Search(len(pc.sizeIndex), func(i int) bool {
		if pc.sizeIndex[i].Pages() != span.Pages() {
			return pc.sizeIndex[i].Pages() > span.Pages()
		}
		return pc.sizeIndex[i].Base >= span.Base
	})
	if si < len(pc.sizeIndex) && pc.sizeIndex[si].Base == span.Base {
		pc.sizeIndex = append(pc.sizeIndex[:si], pc.sizeIndex[si+1:]...)
	}
}

// allocateOversize services a request above MaxCachedUnitSize. Per
// spec.md section 4.2 this routes to the generic system heap, not the
// mmap path: in Go terms that is the runtime's own allocator via make,
// kept alive against garbage collection for the caller's lifetime by
// registering the slice in oversizeLive (pc.oversize records only the
// span) until releaseOversize is called.
func (pc *PageCache) allocateOversize(n uintptr) (MemorySpan, bool) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	buf := make([]byte, n)
	addr := sliceAddr(buf)
	span := MemorySpan{Base: addr, Length: n}
	pc.oversize[addr] = span
	oversizeLive.store(addr, buf)
	return span, true
}

// releaseOversize is the symmetric release: it drops the pin, allowing
// the Go garbage collector to reclaim the backing array.
func (pc *PageCache) releaseOversize(span MemorySpan) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	delete(pc.oversize, span.Base)
	oversizeLive.delete(span.Base)
}

// Shutdown unmaps every span ever obtained from the OS. Idempotent;
// further calls after shutdown are undefined per spec.md section 4.2.
func (pc *PageCache) Shutdown() {
	pc.shutdownOnce.Do(func() {
		pc.mu.Lock()
		defer pc.mu.Unlock()
		for _, span := range pc.retained {
			osmem.Unmap(span.Base, span.Length)
		}
		pc.retained = nil
		pc.sizeIndex = nil
		pc.addressIndex = nil
	})
}
