package compute

// Backend runs index ranges of independent work.
type Backend interface {
	Name() string
	Workers() int
	// ParallelFor calls fn over disjoint ranges covering [0, n) and returns
	// once every call has finished.
	ParallelFor(n, minChunk int, fn func(start, end int))
}

// Serial runs everything on the calling goroutine.
var Serial Backend = NewCPUBackend(1)

// chunks cuts [0, n) into at most workers ranges of at least minChunk
// items. It returns a single range when splitting is not worth it.
func chunks(n, minChunk, workers int) [][2]int {
	if n <= 0 {
		return nil
	}
	if minChunk < 1 {
		minChunk = 1
	}
	workers = min(workers, n/minChunk)
	if workers <= 1 {
		return [][2]int{{0, n}}
	}

	size := (n + workers - 1) / workers
	out := make([][2]int, 0, workers)
	for start := 0; start < n; start += size {
		out = append(out, [2]int{start, min(start+size, n)})
	}
	return out
}
