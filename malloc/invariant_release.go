//go:build !debug

package malloc

// invariant is a no-op in release builds: these conditions cannot occur
// if the caller obeys the sized-free contract, so paying for the check
// on every hot-path call is not worthwhile outside debug builds.
func invariant(cond bool, format string, args ...interface{}) {}
