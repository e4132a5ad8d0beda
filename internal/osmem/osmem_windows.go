//go:build windows

package osmem

import "golang.org/x/sys/windows"

// osMap reserves and commits anonymous memory via VirtualAlloc, the
// Windows equivalent of anonymous mmap, grounded on the teacher's own
// kernel32-via-syscall.NewLazyDLL idiom in flock/mutex_windows.go
// (there: LockFileEx/UnlockFileEx; here: VirtualAlloc/VirtualFree,
// exposed directly by golang.org/x/sys/windows rather than hand-rolled
// via syscall.NewLazyDLL, since the ecosystem package already wraps it).
func osMap(n uintptr) (uintptr, bool) {
	addr, err := windows.VirtualAlloc(0, n, windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return 0, false
	}
	return addr, true
}

func osUnmap(addr, n uintptr) {
	windows.VirtualFree(addr, 0, windows.MEM_RELEASE)
}
