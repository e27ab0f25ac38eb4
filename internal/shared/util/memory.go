package util

import "runtime"

// HeapAllocMB reports the live heap in MiB. It is logged with run totals so
// large corpora can be sized against worker counts.
func HeapAllocMB() uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.Alloc >> 20
}
