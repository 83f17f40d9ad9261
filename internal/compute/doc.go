// Package compute splits independent work across CPU goroutines.
//
// Work is cut into contiguous chunks, one per worker, and results gathered
// in chunk order so a parallel pass produces the same output as a serial
// one:
//
//	b := compute.NewCPUBackend(4)
//	scores := compute.Gather(b, len(trials), 1, func(start, end int, dst []float64) []float64 {
//		for i := start; i < end; i++ {
//			dst = append(dst, score(trials[i]))
//		}
//		return dst
//	})
//
// Inputs smaller than the minimum chunk run on the calling goroutine.
package compute
