//go:build debug

package malloc

import "fmt"

// invariant panics with a formatted message when cond is false. Only
// compiled into debug builds (go build -tags debug), matching the
// teacher's own debug.go/production.go split for initblock.
func invariant(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(fmt.Errorf("tcalloc: invariant breach: "+format, args...))
	}
}
