package grid

import (
	"runtime"
	"sync"
)

// parallelThreshold is the minimum iteration count to use parallel chunks.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 4096

// maxWorkers returns the number of workers used for grid sweeps.
func maxWorkers() int { return runtime.GOMAXPROCS(0) }

// parallelRange splits [0,n) into contiguous chunks and runs fn on each from
// its own goroutine. fn receives the worker index so callers can keep
// per-worker scratch (FFT plans are stateful and must not be shared).
// There is no inter-point dependency within a sweep, so any partitioning is
// safe; the call blocks until all chunks are done.
func parallelRange(n int, fn func(worker, start, end int)) {
	workers := maxWorkers()
	if workers > n {
		workers = n
	}
	if workers <= 1 || n < parallelThreshold {
		fn(0, 0, n)
		return
	}

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > n {
			end = n
		}
		if start >= end {
			break
		}
		wg.Add(1)
		go func(w, start, end int) {
			defer wg.Done()
			fn(w, start, end)
		}(w, start, end)
	}
	wg.Wait()
}

// parallelRows is parallelRange without the small-n cutoff, for row sweeps
// where each iteration is itself a full FFT pass.
func parallelRows(n int, fn func(worker, start, end int)) {
	workers := maxWorkers()
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		fn(0, 0, n)
		return
	}
	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > n {
			end = n
		}
		if start >= end {
			break
		}
		wg.Add(1)
		go func(w, start, end int) {
			defer wg.Done()
			fn(w, start, end)
		}(w, start, end)
	}
	wg.Wait()
}
