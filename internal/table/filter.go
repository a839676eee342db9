package table

import (
	"fmt"
	"math"
)

// lowPass applies a second-order Butterworth low-pass filter forward and
// backward over the samples, giving a zero-phase response.
func lowPass(data []float64, cutoffHz, sampleHz float64) ([]float64, error) {
	if cutoffHz <= 0 {
		return nil, fmt.Errorf("table: cutoff must be positive, got %f", cutoffHz)
	}
	if cutoffHz >= sampleHz/2 {
		// At or above Nyquist the filter is a pass-through.
		return append([]float64(nil), data...), nil
	}
	if len(data) < 3 {
		return append([]float64(nil), data...), nil
	}

	c := 1.0 / math.Tan(math.Pi*cutoffHz/sampleHz)
	a0 := 1.0 / (1.0 + math.Sqrt2*c + c*c)
	a1 := 2 * a0
	a2 := a0
	b1 := 2 * a0 * (1 - c*c)
	b2 := a0 * (1 - math.Sqrt2*c + c*c)

	forward := biquad(data, a0, a1, a2, b1, b2)
	reverse(forward)
	backward := biquad(forward, a0, a1, a2, b1, b2)
	reverse(backward)
	return backward, nil
}

func biquad(x []float64, a0, a1, a2, b1, b2 float64) []float64 {
	y := make([]float64, len(x))
	y[0] = x[0]
	y[1] = a0*x[1] + a1*x[0] - b1*y[0]
	for i := 2; i < len(x); i++ {
		y[i] = a0*x[i] + a1*x[i-1] + a2*x[i-2] - b1*y[i-1] - b2*y[i-2]
	}
	return y
}

func reverse(v []float64) {
	for i, j := 0, len(v)-1; i < j; i, j = i+1, j-1 {
		v[i], v[j] = v[j], v[i]
	}
}

// sampleRate estimates the sampling frequency from the mean time step.
func sampleRate(times []float64) float64 {
	if len(times) < 2 {
		return 0
	}
	span := times[len(times)-1] - times[0]
	if span <= 0 {
		return 0
	}
	return float64(len(times)-1) / span
}
