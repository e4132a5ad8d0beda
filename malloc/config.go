package malloc

import (
	"unsafe"

	s "github.com/prataprc/gosettings"
)

// Compile-time constants, as spec.md section 6.
const (
	// PageSize is the unit of currency between CentralCache and PageCache.
	PageSize = uintptr(4096)

	// MaxCachedUnitSize is the largest request the cache hierarchy
	// services; anything larger is oversize and bypasses the class
	// tables straight to the PageCache.
	MaxCachedUnitSize = uintptr(32 * 1024)

	// ThreadCacheMaxBytesPerList bounds how much a single ThreadCache
	// size-class list may hold before it drains half of itself to the
	// CentralCache.
	ThreadCacheMaxBytesPerList = uintptr(2 * 1024 * 1024)

	// PageCacheBulkPages is the floor on how many pages PageCache
	// requests from the OS on a miss, amortising the OS call.
	PageCacheBulkPages = uintptr(2048)

	// coalesceStepBound caps consecutive coalesce steps on either side
	// of a released span, guarding against pathological traversal.
	coalesceStepBound = 100
)

// Alignment is the machine pointer width; every address tcalloc hands
// back is aligned to at least this many bytes.
var Alignment = unsafe.Sizeof(uintptr(0))

// Tunables holds the allocator's adaptive, overridable knobs, layered
// over github.com/prataprc/gosettings.Settings the same way the
// teacher's malloc/config.go layers Defaultsettings() over
// s.Settings -- compile-time invariants (PageSize, Alignment, the size
// class table) stay Go consts; only the rate-control parameters that a
// deployment might reasonably want to retune are exposed here.
type Tunables struct {
	settings s.Settings
}

// DefaultTunables returns the reference rate-control parameters quoted
// throughout spec.md section 4: a minimum ThreadCache refill batch of
// 16 blocks, an initial CentralCache page-group count of 1, and a
// minimum post-drain fetch count of 4.
func DefaultTunables() Tunables {
	return Tunables{settings: s.Settings{
		"threadcache.minbatch":        int64(16),
		"threadcache.minfetchfloor":   int64(4),
		"centralcache.initgroupcount": int64(1),
	}}
}

func (t Tunables) minBatch() int64      { return t.settings.Int64("threadcache.minbatch") }
func (t Tunables) minFetchFloor() int64 { return t.settings.Int64("threadcache.minfetchfloor") }
func (t Tunables) initGroupCount() int64 {
	return t.settings.Int64("centralcache.initgroupcount")
}

// Mixin overrides the default tunables with caller-supplied settings,
// mirroring lib.Settings.Mixin in the teacher's own config layer.
func (t Tunables) Mixin(overrides s.Settings) Tunables {
	merged := s.Settings{}
	merged.Mixin(map[string]interface{}(t.settings), map[string]interface{}(overrides))
	return Tunables{settings: merged}
}

// maxBatchFor returns the per-class ceiling on a single refill batch: more
// generous for small classes, tighter for large ones, as spec.md
// section 4.4 prescribes.
func maxBatchFor(classSize uintptr) int64 {
	switch {
	case classSize <= 128:
		return 256
	case classSize <= 1024:
		return 128
	default:
		return 64
	}
}
