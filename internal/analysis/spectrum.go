package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/stat"
)

// PowerSpectrum returns |X(k)| of the real series xs for the non-negative
// frequencies k = 0..n/2.
func PowerSpectrum(xs []float64) []float64 {
	if len(xs) == 0 {
		return nil
	}
	spectrum := fft.FFTReal(xs)
	ps := make([]float64, len(spectrum)/2+1)
	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}
	return ps
}

// Fluctuations returns xs minus its mean.
func Fluctuations(xs []float64) []float64 {
	mean := stat.Mean(xs, nil)
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = x - mean
	}
	return out
}

// DominantFrequency returns the frequency, in cycles per unit time, of the
// strongest non-zero bin of the spectrum of xs sampled every dt.
func DominantFrequency(xs []float64, dt float64) (float64, float64) {
	ps := PowerSpectrum(Fluctuations(xs))
	if len(ps) < 2 || dt <= 0 {
		return 0, 0
	}
	best := 1
	for i := 2; i < len(ps); i++ {
		if ps[i] > ps[best] {
			best = i
		}
	}
	return float64(best) / (float64(len(xs)) * dt), ps[best]
}
