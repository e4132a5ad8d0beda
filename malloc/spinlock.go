package malloc

import (
	"runtime"
	"sync/atomic"
)

// spinlock is a test-and-set spin lock with a cooperative yield on
// contention, sufficient for the sub-microsecond critical sections
// CentralCache's per-class operations need (spec.md section 4.3): a
// linked-list splice and one map lookup. Grounded on the CAS-retry
// idiom in _examples/momentics-hioload-ws/core/concurrency/lock_free_queue.go,
// adapted from a lock-free ring buffer's slot claim to a plain mutual
// exclusion flag.
type spinlock struct {
	flag int32
}

func (l *spinlock) Lock() {
	for !atomic.CompareAndSwapInt32(&l.flag, 0, 1) {
		runtime.Gosched()
	}
}

func (l *spinlock) Unlock() {
	atomic.StoreInt32(&l.flag, 0)
}
