package malloc

import "sync"

// threadCachePool approximates "one ThreadCache per thread, created on
// first use, destroyed at thread exit" (spec.md section 4.4 and the
// thread-local-storage design note in section 9) for the package-level
// convenience API. Go exposes neither OS thread identity nor
// destructors, so instead of a hidden global keyed by goroutine ID
// (which Go deliberately does not expose) this is a sync.Pool of
// ThreadCache instances: sync.Pool already hands callers per-P locally
// cached items when possible, which is the closest idiomatic Go
// analogue to per-thread affinity, and guarantees no two callers ever
// hold the same instance concurrently. Embedders that need the exact
// semantics of spec.md (a cache that lives exactly as long as one OS
// thread and flushes on that thread's exit) should call
// runtime.LockOSThread and hold a *ThreadCache from NewThreadCache
// directly instead of going through this pool.
type threadCachePool struct {
	pool sync.Pool
}

func newThreadCachePool(cc *CentralCache) *threadCachePool {
	p := &threadCachePool{}
	p.pool.New = func() interface{} { return NewThreadCache(cc) }
	return p
}

func (p *threadCachePool) get() *ThreadCache {
	return p.pool.Get().(*ThreadCache)
}

func (p *threadCachePool) put(tc *ThreadCache) {
	p.pool.Put(tc)
}
