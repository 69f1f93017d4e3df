package parallel

import (
	"sync/atomic"
)

// MaxInt64 raises *addr to x if x is larger, atomically. This is the
// max-reduction used by displacement tracking: many workers race to
// publish their largest value and the winner is whichever is biggest.
func MaxInt64(addr *int64, x int64) {
	for {
		old := atomic.LoadInt64(addr)
		if x <= old {
			return
		}
		if atomic.CompareAndSwapInt64(addr, old, x) {
			return
		}
	}
}
