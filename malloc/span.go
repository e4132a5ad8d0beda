package malloc

import "github.com/bnclabs/tcalloc/internal/bitops"

// MemorySpan names a contiguous byte range; it carries no ownership of
// its own, per spec.md section 3 -- it is a value object some other
// structure (PageCache's indices, a pageSpan) owns.
type MemorySpan struct {
	Base   uintptr
	Length uintptr
}

// End returns the address one past the span.
func (s MemorySpan) End() uintptr { return s.Base + s.Length }

// Pages returns how many PageSize-sized pages the span spans.
func (s MemorySpan) Pages() uintptr { return s.Length / PageSize }

// Less orders spans by base address, the total order spec.md requires.
func (s MemorySpan) Less(other MemorySpan) bool { return s.Base < other.Base }

// Split carves off the leading n-page prefix of s, returning the head
// and the (possibly zero-length) remainder.
func (s MemorySpan) Split(pages uintptr) (head, rest MemorySpan) {
	n := pages * PageSize
	head = MemorySpan{Base: s.Base, Length: n}
	rest = MemorySpan{Base: s.Base + n, Length: s.Length - n}
	return head, rest
}

// Adjacent reports whether s immediately precedes other in memory.
func (s MemorySpan) Adjacent(other MemorySpan) bool { return s.End() == other.Base }

// pageSpan is a page run carved into uniform units of one size class,
// with per-unit occupancy tracked in a bitmap. It is the ownership
// boundary between CentralCache (holder) and PageCache (ultimate owner
// of the underlying pages), per spec.md section 3.
type pageSpan struct {
	span     MemorySpan
	unitSize uintptr
	units    int
	bits     *bitops.Bitmap
}

func newPageSpan(span MemorySpan, unitSize uintptr) *pageSpan {
	units := int(span.Length / unitSize)
	return &pageSpan{span: span, unitSize: unitSize, units: units, bits: bitops.New(units)}
}

// contains reports whether addr lies inside this span.
func (ps *pageSpan) contains(addr uintptr) bool {
	return addr >= ps.span.Base && addr < ps.span.End()
}

// indexOf returns the unit index for addr, which must be unit-aligned
// and inside the span (asserted by a debug-only invariant check, see
// invariant_debug.go).
func (ps *pageSpan) indexOf(addr uintptr) int {
	invariant(ps.contains(addr) && (addr-ps.span.Base)%ps.unitSize == 0,
		"block %#x is not a unit boundary of span %#x", addr, ps.span.Base)
	return int((addr - ps.span.Base) / ps.unitSize)
}

// unitAt returns the address of the i'th unit.
func (ps *pageSpan) unitAt(i int) uintptr {
	return ps.span.Base + uintptr(i)*ps.unitSize
}

func (ps *pageSpan) markAllocated(addr uintptr) { ps.bits.Set(ps.indexOf(addr)) }
func (ps *pageSpan) markFree(addr uintptr)      { ps.bits.Clear(ps.indexOf(addr)) }
func (ps *pageSpan) isEmpty() bool              { return ps.bits.IsEmpty() }
func (ps *pageSpan) allocatedUnits() int        { return ps.bits.Count() }
