package img2gba

import (
	"runtime"
	"sync"
)

// defaultWorkers is the worker count used when none is configured.
func defaultWorkers() int {
	return runtime.NumCPU()
}

// splitRows divides [0, n) into at most workers contiguous bands and
// calls fn(worker, start, end) for each band on its own goroutine. It
// returns once every band is done. Bands are assigned in order, so
// worker i always gets the same rows for a given n and worker count.
func splitRows(n, workers int, fn func(worker, start, end int)) int {
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		fn(0, 0, n)
		return 1
	}

	var wg sync.WaitGroup
	band := (n + workers - 1) / workers
	used := 0
	for start := 0; start < n; start += band {
		end := min(start+band, n)
		wg.Add(1)
		go func(worker, start, end int) {
			defer wg.Done()
			fn(worker, start, end)
		}(used, start, end)
		used++
	}
	wg.Wait()
	return used
}
