package compute

import (
	"runtime"
	"sync"
)

type CPUBackend struct {
	workers int
}

// NewCPUBackend uses one goroutine per CPU when workers is not positive.
func NewCPUBackend(workers int) *CPUBackend {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &CPUBackend{workers: workers}
}

func (c *CPUBackend) Name() string { return "cpu" }
func (c *CPUBackend) Workers() int { return c.workers }

func (c *CPUBackend) ParallelFor(n, minChunk int, fn func(start, end int)) {
	ranges := chunks(n, minChunk, c.workers)
	if len(ranges) == 1 {
		fn(0, n)
		return
	}

	var wg sync.WaitGroup
	wg.Add(len(ranges))
	for _, r := range ranges {
		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(r[0], r[1])
	}
	wg.Wait()
}

// Gather runs fn over the chunks of [0, n) on b and concatenates what each
// chunk appended, in index order.
func Gather[T any](b Backend, n, minChunk int, fn func(start, end int, dst []T) []T) []T {
	ranges := chunks(n, minChunk, b.Workers())
	if len(ranges) <= 1 {
		return fn(0, n, nil)
	}

	local := make([][]T, len(ranges))
	b.ParallelFor(len(ranges), 1, func(first, last int) {
		for i := first; i < last; i++ {
			local[i] = fn(ranges[i][0], ranges[i][1], nil)
		}
	})

	total := 0
	for _, l := range local {
		total += len(l)
	}
	out := make([]T, 0, total)
	for _, l := range local {
		out = append(out, l...)
	}
	return out
}
