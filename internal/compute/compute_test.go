package compute

import (
	"sync/atomic"
	"testing"
)

func TestChunks(t *testing.T) {
	tests := []struct {
		name                 string
		n, minChunk, workers int
		want                 int
	}{
		{"empty", 0, 4, 4, 0},
		{"below min chunk", 10, 16, 4, 1},
		{"single worker", 100, 1, 1, 1},
		{"limited by min chunk", 100, 40, 8, 2},
		{"one per worker", 100, 1, 4, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := chunks(tt.n, tt.minChunk, tt.workers)
			if len(got) != tt.want {
				t.Fatalf("got %d chunks %v, want %d", len(got), got, tt.want)
			}
			next := 0
			for _, r := range got {
				if r[0] != next || r[1] <= r[0] {
					t.Fatalf("chunks not contiguous: %v", got)
				}
				next = r[1]
			}
			if tt.n > 0 && next != tt.n {
				t.Errorf("chunks end at %d, want %d", next, tt.n)
			}
		})
	}
}

func TestParallelForCoversRange(t *testing.T) {
	b := NewCPUBackend(4)
	seen := make([]int32, 1000)
	b.ParallelFor(len(seen), 10, func(start, end int) {
		for i := start; i < end; i++ {
			atomic.AddInt32(&seen[i], 1)
		}
	})
	for i, v := range seen {
		if v != 1 {
			t.Fatalf("index %d visited %d times", i, v)
		}
	}
}

func TestGatherKeepsOrder(t *testing.T) {
	collect := func(start, end int, dst []int) []int {
		for i := start; i < end; i++ {
			if i%3 == 0 {
				dst = append(dst, i)
			}
		}
		return dst
	}

	serial := Gather(Serial, 500, 8, collect)
	parallel := Gather(NewCPUBackend(6), 500, 8, collect)
	if len(serial) != 167 || len(parallel) != len(serial) {
		t.Fatalf("got %d serial and %d parallel items", len(serial), len(parallel))
	}
	for i := range serial {
		if serial[i] != parallel[i] {
			t.Fatalf("order differs at %d: %d vs %d", i, serial[i], parallel[i])
		}
	}
}

func TestNewCPUBackendDefaults(t *testing.T) {
	if NewCPUBackend(0).Workers() < 1 {
		t.Error("default backend needs at least one worker")
	}
	if Serial.Workers() != 1 {
		t.Error("serial backend should have one worker")
	}
}
