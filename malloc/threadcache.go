package malloc

import "unsafe"

// threadClassState is one size class's slot inside a ThreadCache: a
// local free-list, its length, and the adaptive next-fetch-count
// driving the next refill's batch size.
type threadClassState struct {
	head           unsafe.Pointer
	count          int64
	nextFetchCount int64
}

// ThreadCache is the fast-path front-end cache, one instance per
// logical thread of control (spec.md section 4.4). Go has no
// first-class thread-local storage, so this type is an explicit
// handle: callers that want per-OS-thread affinity pair it with
// runtime.LockOSThread, and the package-level Allocate/Deallocate
// convenience API (malloc.go) hands one out per call from a sync.Pool
// -- see SPEC_FULL.md section 4.4 for the full rationale. Operations
// on a single ThreadCache are never called concurrently by design (it
// is either held by one goroutine directly, or on loan from the pool),
// so no synchronization guards these fields.
type ThreadCache struct {
	cc       *CentralCache
	tunables Tunables
	classes  []threadClassState
}

// NewThreadCache constructs a ThreadCache refilling from and draining
// to cc.
func NewThreadCache(cc *CentralCache) *ThreadCache {
	return &ThreadCache{
		cc:       cc,
		tunables: DefaultTunables(),
		classes:  make([]threadClassState, NumClasses()),
	}
}

// Allocate returns a pointer-aligned region of at least size bytes, or
// ok=false on AllocationFailure (OS refusal) or InvalidArgument
// (size==0).
func (tc *ThreadCache) Allocate(size uintptr) (unsafe.Pointer, bool) {
	classSize, index, ok := ClassOf(size)
	if !ok {
		if size == 0 {
			return nil, false
		}
		chain, got, ok := tc.cc.fetch(classSize, OversizeIndex, 1)
		if !ok || got == 0 {
			return nil, false
		}
		return chain, true
	}

	cls := &tc.classes[index]
	if cls.head != nil {
		p := listPop(&cls.head)
		cls.count--
		return p, true
	}
	if !tc.refill(classSize, index) {
		return nil, false
	}
	p := listPop(&cls.head)
	cls.count--
	return p, true
}

// Deallocate returns ptr, previously obtained from Allocate(size), to
// the local free-list, draining half of it to the CentralCache once
// the list exceeds ThreadCacheMaxBytesPerList. A nil ptr or size==0 is
// a silent no-op (InvalidArgument).
func (tc *ThreadCache) Deallocate(ptr unsafe.Pointer, size uintptr) {
	if ptr == nil || size == 0 {
		return
	}
	classSize, index, ok := ClassOf(size)
	if !ok {
		tc.cc.release(ptr, classSize, OversizeIndex, 1)
		return
	}

	cls := &tc.classes[index]
	listPush(&cls.head, ptr)
	cls.count++

	if uintptr(cls.count)*classSize > ThreadCacheMaxBytesPerList {
		drain := int(cls.count / 2)
		chain, _, got := listDetach(&cls.head, drain)
		cls.count -= int64(got)
		tc.cc.release(chain, classSize, index, got)

		cls.nextFetchCount /= 2
		if floor := tc.tunables.minFetchFloor(); cls.nextFetchCount < floor {
			cls.nextFetchCount = floor
		}
	}
}

// refill fetches a fresh batch from the CentralCache and leaves it on
// the local free-list. The batch size is the class's adaptive
// next-fetch-count, clamped to [minBatch, maxBatchFor(classSize)] and
// further capped so a single refill cannot itself exceed
// ThreadCacheMaxBytesPerList, per spec.md section 4.4. The minimum
// applies on every refill, even when next-fetch-count would be
// smaller -- the Open Question resolution in spec.md section 9.
func (tc *ThreadCache) refill(classSize uintptr, index int) bool {
	cls := &tc.classes[index]

	b := cls.nextFetchCount
	if min := tc.tunables.minBatch(); b < min {
		b = min
	}
	if max := maxBatchFor(classSize); b > max {
		b = max
	}
	if byteCap := int64(ThreadCacheMaxBytesPerList / (2 * classSize)); b > byteCap {
		b = byteCap
	}
	if b < 1 {
		b = 1
	}

	chain, got, ok := tc.cc.fetch(classSize, index, int(b))
	if !ok || got == 0 {
		return false
	}
	listPrependChain(&cls.head, chain, chainTail(chain))
	cls.count += int64(got)

	next := b * 2
	if max := maxBatchFor(classSize); next > max {
		next = max
	}
	if byteCap := int64(ThreadCacheMaxBytesPerList / (2 * classSize)); next > byteCap {
		next = byteCap
	}
	cls.nextFetchCount = next
	return true
}

// chainTail walks to the last node of a chain returned by
// CentralCache.fetch (whose tail already has a nil next).
func chainTail(chain unsafe.Pointer) unsafe.Pointer {
	if chain == nil {
		return nil
	}
	p := chain
	for next := listNext(p); next != nil; next = listNext(p) {
		p = next
	}
	return p
}
