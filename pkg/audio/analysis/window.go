package analysis

import "math"

// WindowGenerator produces and caches analysis window coefficients.
type WindowGenerator struct {
	cache map[int][]float64
}

// NewWindowGenerator creates a new window generator
func NewWindowGenerator() *WindowGenerator {
	return &WindowGenerator{cache: make(map[int][]float64)}
}

// Hann returns Hann window coefficients of the given length.
func (wg *WindowGenerator) Hann(length int) []float64 {
	if w, ok := wg.cache[length]; ok {
		return w
	}
	w := make([]float64, length)
	if length == 1 {
		w[0] = 1
	} else {
		for i := range length {
			w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(length-1)))
		}
	}
	wg.cache[length] = w
	return w
}

// Apply multiplies the signal by the window in place and returns it.
func (wg *WindowGenerator) Apply(frame []float64) []float64 {
	w := wg.Hann(len(frame))
	for i := range frame {
		frame[i] *= w[i]
	}
	return frame
}
