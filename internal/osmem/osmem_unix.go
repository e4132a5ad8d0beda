//go:build unix

package osmem

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// osMap maps anonymous, zero-filled, read-write memory via mmap(2). This
// is the ecosystem sibling of the teacher's own golang.org/x/exp/mmap
// import: that package maps a file read-only, which cannot serve an
// anonymous read-write region, so we reach for golang.org/x/sys/unix
// instead (same organisation, same idiom as the teacher's own flock
// package picking syscall.Flock for its OS primitive).
func osMap(n uintptr) (uintptr, bool) {
	b, err := unix.Mmap(-1, 0, int(n), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return 0, false
	}
	return uintptr(unsafe.Pointer(&b[0])), true
}

func osUnmap(addr, n uintptr) {
	b := unsafe.Slice((*byte)(unsafe.Pointer(addr)), int(n))
	unix.Munmap(b)
}
