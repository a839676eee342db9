package analysis

import (
	"math"
	"math/cmplx"
)

func FFT(data []float64) []complex128 {
	n := len(data)
	if n <= 1 {
		result := make([]complex128, n)
		for i := range data {
			result[i] = complex(data[i], 0)
		}
		return result
	}

	if n%2 != 0 {
		panic("fft requires power of 2 length")
	}

	even := make([]float64, n/2)
	odd := make([]float64, n/2)

	for i := 0; i < n/2; i++ {
		even[i] = data[2*i]
		odd[i] = data[2*i+1]
	}

	feven := FFT(even)
	fodd := FFT(odd)

	result := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n)))
		result[k] = feven[k] + w*fodd[k]
		result[k+n/2] = feven[k] - w*fodd[k]
	}

	return result
}

func PowerSpectrum(data []float64) []float64 {
	padded := padToPowerOfTwo(data)
	fft := FFT(padded)
	ps := make([]float64, len(fft)/2)

	for i := range ps {
		ps[i] = cmplx.Abs(fft[i])
	}

	return ps
}

// padToPowerOfTwo removes the mean and zero-pads, so trends do not swamp the
// oscillatory content.
func padToPowerOfTwo(data []float64) []float64 {
	n := 1
	for n < len(data) {
		n *= 2
	}
	mean := 0.0
	for _, v := range data {
		mean += v
	}
	if len(data) > 0 {
		mean /= float64(len(data))
	}
	padded := make([]float64, n)
	for i, v := range data {
		padded[i] = v - mean
	}
	return padded
}

// DominantFrequency returns the frequency in Hz with the strongest spectral
// power, skipping the zero-frequency bin. For a gait trial fed a joint angle
// this is the stride frequency.
func DominantFrequency(times, data []float64) float64 {
	if len(times) < 2 || len(data) < 2 {
		return 0
	}
	span := times[len(times)-1] - times[0]
	if span <= 0 {
		return 0
	}
	sampleHz := float64(len(times)-1) / span

	ps := PowerSpectrum(data)
	if len(ps) < 2 {
		return 0
	}
	n := len(ps) * 2

	best, bestPower := 0, 0.0
	for i := 1; i < len(ps); i++ {
		if ps[i] > bestPower {
			best, bestPower = i, ps[i]
		}
	}
	return float64(best) * sampleHz / float64(n)
}
