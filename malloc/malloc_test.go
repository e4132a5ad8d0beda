package malloc

import (
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

// Four threads each perform 100 allocate+write+verify+deallocate
// cycles on 128-byte blocks, writing the thread id into every byte and
// reading it back; every read must equal the writing thread id.
// spec.md section 8 scenario 5, grounded directly on the
// testallocator/testfree goroutine-pair idiom in
// _examples/bnclabs-gostore/malloc/concur_test.go.
func TestConcurrentThreadCachesReadYourWrites(t *testing.T) {
	cc := NewCentralCache(NewPageCache())
	const nworkers, repeat, size = 4, 100, 128

	var wg sync.WaitGroup
	wg.Add(nworkers)
	for id := 0; id < nworkers; id++ {
		go func(id byte) {
			defer wg.Done()
			tc := NewThreadCache(cc)
			for i := 0; i < repeat; i++ {
				p, ok := tc.Allocate(size)
				require.True(t, ok)

				buf := unsafe.Slice((*byte)(p), size)
				for j := range buf {
					buf[j] = id
				}
				for j := range buf {
					require.Equal(t, id, buf[j])
				}

				tc.Deallocate(p, size)
			}
		}(byte(id))
	}
	wg.Wait()
}

// Package-level Allocate/Deallocate round-trips through the
// sync.Pool-backed convenience API.
func TestPackageLevelAllocateDeallocate(t *testing.T) {
	p, ok := Allocate(64)
	require.True(t, ok)
	Deallocate(p, 64)

	_, ok = Allocate(0)
	require.False(t, ok)
}
