package malloc

// Error kinds, per spec.md section 7.
//
// AllocationFailure: the OS refuses a mapping and no free run suffices.
// Propagated as a false ok return out of Allocate; never retried.
//
// InvalidArgument: zero-size allocation, or null/zero-size
// deallocation. Handled locally: Allocate returns (nil, false);
// Deallocate returns silently.
//
// Internal invariant breach: a block whose address is not governed by
// any pageSpan in its class map, or similar programming errors. These
// cannot occur if the caller obeys the sized-free contract; they are
// raised as a fatal check under the debug build tag (invariant_debug.go)
// and compiled out otherwise (invariant_release.go), mirroring the
// teacher's own production.go/+build !debug split for initblock.
