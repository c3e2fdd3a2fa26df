package status

import "sync/atomic"

// StoreMax raises v to val if val is larger, returns the resulting value
func StoreMax(v *atomic.Int64, val int64) int64 {
	for {
		cur := v.Load()
		if val <= cur {
			return cur
		}
		if v.CompareAndSwap(cur, val) {
			return val
		}
	}
}
