package experiment

import "math"

// Accumulator converts wall-clock deltas into whole fixed ticks. Leftover
// time carries into the next call.
type Accumulator struct {
	Tick     float64
	MaxTicks int // ticks per Advance before the backlog is dropped; 0 is unlimited

	pending float64
}

func NewAccumulator(tick float64, maxTicks int) *Accumulator {
	return &Accumulator{Tick: tick, MaxTicks: maxTicks}
}

// Advance adds elapsed seconds and returns how many ticks to run now.
func (a *Accumulator) Advance(elapsed float64) int {
	if !(a.Tick > 0) || !(elapsed > 0) {
		return 0
	}
	a.pending += elapsed

	n := int(math.Floor(a.pending / a.Tick))
	if a.MaxTicks > 0 && n > a.MaxTicks {
		a.pending = 0
		return a.MaxTicks
	}
	a.pending -= float64(n) * a.Tick
	return n
}

// Alpha is the fraction of a tick still pending, in [0, 1).
func (a *Accumulator) Alpha() float64 {
	if !(a.Tick > 0) {
		return 0
	}
	return a.pending / a.Tick
}

func (a *Accumulator) Reset() { a.pending = 0 }
