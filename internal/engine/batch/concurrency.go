// internal/engine/batch/concurrency.go
package batch

import (
	"runtime"
)

const (
	maxAutoConcurrency = 50
	// Rough footprint of one browser tab when pages are rendered.
	browserTabMB = 50
)

// OptimalConcurrency picks a worker count for a run configured with
// concurrency 0. Fetches are I/O bound, so it allows three per CPU, capped
// by free memory when a browser renders pages.
func OptimalConcurrency(rendering bool) int {
	numCPU := runtime.NumCPU()
	optimal := min(max(numCPU*3, numCPU), maxAutoConcurrency)

	if !rendering {
		return optimal
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	availMB := int((m.Sys - m.Alloc) / 1024 / 1024)
	if byMemory := availMB / browserTabMB; byMemory > 0 && byMemory < optimal {
		return byMemory
	}
	return optimal
}
