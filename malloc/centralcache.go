package malloc

import (
	"sort"
	"unsafe"

	"github.com/bnclabs/tcalloc/log"
)

// classState is one size class's shard of the CentralCache: a shared
// free-list, its length, the spinlock guarding both, the set of
// pageSpans this class currently owns (kept sorted by base address so
// the owning span for any block address is found by upper-bound then
// predecessor, per spec.md section 4.3), and the adaptive
// next-page-group-count driving how many pages to request from
// PageCache on the next miss.
type classState struct {
	lock  spinlock
	head  unsafe.Pointer
	count int64

	spans []*pageSpan // sorted by spans[i].span.Base

	nextPageGroupCount int64
}

// CentralCache is the process-wide, per-size-class-sharded free list
// sitting between ThreadCache and PageCache, per spec.md section 4.3.
type CentralCache struct {
	pc       *PageCache
	classes  []classState
	tunables Tunables
}

// NewCentralCache constructs a CentralCache backed by pc, one shard per
// cached size class.
func NewCentralCache(pc *PageCache) *CentralCache {
	tun := DefaultTunables()
	classes := make([]classState, NumClasses())
	for i := range classes {
		classes[i].nextPageGroupCount = tun.initGroupCount()
	}
	return &CentralCache{pc: pc, classes: classes, tunables: tun}
}

// fetch returns a chain of up to n blocks of the given class. For the
// oversize class it delegates to PageCache.allocateOversize and always
// returns a single-block chain.
func (cc *CentralCache) fetch(classSize uintptr, index int, n int) (chain unsafe.Pointer, got int, ok bool) {
	if index == OversizeIndex {
		span, ok := cc.pc.allocateOversize(classSize)
		if !ok {
			return nil, 0, false
		}
		return unsafe.Pointer(span.Base), 1, true
	}

	cs := &cc.classes[index]
	cs.lock.Lock()
	defer cs.lock.Unlock()

	if cs.count >= int64(n) {
		head, _, got := listDetach(&cs.head, n)
		cs.count -= int64(got)
		cc.markChainAllocated(cs, head)
		return head, got, true
	}

	pages := ceilDiv(uintptr(cs.nextPageGroupCount)*ThreadCacheMaxBytesPerList, PageSize)
	span, ok := cc.pc.allocatePages(pages)
	if !ok {
		// AllocationFailure: propagated as an empty result, not retried,
		// and not salvaged from partial class inventory.
		return nil, 0, false
	}
	cs.nextPageGroupCount++ // slow-start: grow only on a true PageCache miss.

	ps := newPageSpan(span, classSize)
	cc.insertSpan(cs, ps)
	log.Debugf("centralcache: new pagespan class=%d units=%d", classSize, ps.units)

	take := n
	if take > ps.units {
		take = ps.units
	}
	var head, tail unsafe.Pointer
	for i := 0; i < take; i++ {
		addr := ps.unitAt(i)
		ps.markAllocated(addr)
		p := unsafe.Pointer(addr)
		if head == nil {
			head = p
		} else {
			listSetNext(tail, p)
		}
		tail = p
	}
	if tail != nil {
		listSetNext(tail, nil)
	}
	for i := ps.units - 1; i >= take; i-- {
		listPush(&cs.head, unsafe.Pointer(ps.unitAt(i)))
		cs.count++
	}
	return head, take, true
}

// release returns a chain of n blocks of the given class to the shared
// free-list, recycling any pageSpan that becomes fully empty back to
// the PageCache.
func (cc *CentralCache) release(chain unsafe.Pointer, classSize uintptr, index int, n int) {
	if index == OversizeIndex {
		cc.pc.releaseOversize(MemorySpan{Base: uintptr(chain), Length: classSize})
		return
	}

	cs := &cc.classes[index]
	cs.lock.Lock()
	defer cs.lock.Unlock()

	for p := chain; p != nil; {
		next := listNext(p)
		addr := uintptr(p)
		ps := cc.ownerOf(cs, addr)
		invariant(ps != nil, "block %#x not owned by any span in class %d", addr, index)
		ps.markFree(addr)
		listPush(&cs.head, p)
		cs.count++
		if ps.isEmpty() {
			cc.recycleSpan(cs, ps)
		}
		p = next
	}
}

func (cc *CentralCache) markChainAllocated(cs *classState, chain unsafe.Pointer) {
	for p := chain; p != nil; p = listNext(p) {
		ps := cc.ownerOf(cs, uintptr(p))
		invariant(ps != nil, "block %#x not owned by any span", uintptr(p))
		ps.markAllocated(uintptr(p))
	}
}

// ownerOf finds the pageSpan governing addr via upper-bound then
// predecessor over the sorted spans slice, as spec.md section 4.3
// prescribes for the page_map lookup.
func (cc *CentralCache) ownerOf(cs *classState, addr uintptr) *pageSpan {
	i := sort.Search(len(cs.spans), func(i int) bool { return cs.spans[i].span.Base > addr })
	if i == 0 {
		return nil
	}
	cand := cs.spans[i-1]
	if cand.contains(addr) {
		return cand
	}
	return nil
}

func (cc *CentralCache) insertSpan(cs *classState, ps *pageSpan) {
	i := sort.Search(len(cs.spans), func(i int) bool { return cs.spans[i].span.Base >= ps.span.Base })
	cs.spans = append(cs.spans, nil)
	copy(cs.spans[i+1:], cs.spans[i:])
	cs.spans[i] = ps
}

func (cc *CentralCache) removeSpan(cs *classState, ps *pageSpan) {
	i := sort.Search(len(cs.spans), func(i int) bool { return cs.spans[i].span.Base >= ps.span.Base })
	if i < len(cs.spans) && cs.spans[i] == ps {
		cs.spans = append(cs.spans[:i], cs.spans[i+1:]...)
	}
}

// recycleSpan unlinks every free-list block owned by ps, removes ps
// from the class's span map, halves the class's next-page-group-count
// (min 1, the "fast-halve" pressure response of spec.md section 4.3),
// and hands the underlying pages back to PageCache.
func (cc *CentralCache) recycleSpan(cs *classState, ps *pageSpan) {
	var kept, tail unsafe.Pointer
	var count int64
	for p := cs.head; p != nil; {
		next := listNext(p)
		if !ps.contains(uintptr(p)) {
			listSetNext(p, nil)
			if kept == nil {
				kept = p
			} else {
				listSetNext(tail, p)
			}
			tail = p
			count++
		}
		p = next
	}
	cs.head, cs.count = kept, count

	cc.removeSpan(cs, ps)

	cs.nextPageGroupCount /= 2
	if cs.nextPageGroupCount < 1 {
		cs.nextPageGroupCount = 1
	}
	log.Verbosef("centralcache: recycling empty pagespan base=%#x", ps.span.Base)
	cc.pc.releasePages(ps.span)
}

func ceilDiv(a, b uintptr) uintptr {
	if a%b == 0 {
		return a / b
	}
	return a/b + 1
}
