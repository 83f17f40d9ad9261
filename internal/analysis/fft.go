package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// PowerSpectrum returns |X_k| for k < n/2 of the real signal data. Any
// length works.
func PowerSpectrum(data []float64) []float64 {
	if len(data) == 0 {
		return nil
	}
	spectrum := fft.FFTReal(data)
	ps := make([]float64, len(spectrum)/2)

	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}

	return ps
}

// DominantFrequency returns the frequency in Hz of the strongest spectral
// peak of data sampled every dt seconds, ignoring the mean. It returns 0
// for signals shorter than 4 samples or without oscillation.
func DominantFrequency(data []float64, dt float64) float64 {
	n := len(data)
	if n < 4 || dt <= 0 {
		return 0
	}

	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(n)

	centred := make([]float64, n)
	for i, v := range data {
		centred[i] = v - mean
	}
	window.Apply(centred, window.Hann)

	ps := PowerSpectrum(centred)
	best, peak := 0, 0.0
	for k := 1; k < len(ps); k++ {
		if ps[k] > peak {
			best, peak = k, ps[k]
		}
	}
	if best == 0 {
		return 0
	}
	return float64(best) / (float64(n) * dt)
}
