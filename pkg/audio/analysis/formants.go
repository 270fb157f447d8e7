package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

const (
	preEmphasisCoeff      = 0.97
	maxFormantBandwidthHz = 400.0 // wider LPC roots are spurious
	minFormantHz          = 90.0
)

// FormantAnalyzer estimates vocal tract resonances F1-F4 per frame using
// linear prediction and polynomial root solving.
type FormantAnalyzer struct {
	sampleRate      int
	order           int
	windowGenerator *WindowGenerator
}

// NewFormantAnalyzer creates a formant analyzer. The LPC order follows the
// usual 2 + fs/1000 rule.
func NewFormantAnalyzer(sampleRate int) *FormantAnalyzer {
	return &FormantAnalyzer{
		sampleRate:      sampleRate,
		order:           2 + sampleRate/1000,
		windowGenerator: NewWindowGenerator(),
	}
}

// EstimateFrame returns formant frequencies found in one voiced frame, sorted
// ascending, at most four. Degenerate frames return nil; callers exclude them
// from aggregation.
func (fa *FormantAnalyzer) EstimateFrame(frame []float64) []float64 {
	if len(frame) <= fa.order*2 {
		return nil
	}

	// Pre-emphasis flattens the glottal spectral tilt so LPC poles settle on
	// the vocal tract resonances.
	emphasized := make([]float64, len(frame))
	emphasized[0] = frame[0]
	for i := 1; i < len(frame); i++ {
		emphasized[i] = frame[i] - preEmphasisCoeff*frame[i-1]
	}
	fa.windowGenerator.Apply(emphasized)

	coeffs, ok := fa.lpc(emphasized)
	if !ok {
		return nil
	}

	roots := fa.polynomialRoots(coeffs)

	formants := make([]float64, 0, 4)
	nyquist := float64(fa.sampleRate) / 2.0
	for _, r := range roots {
		im := imag(r)
		if im <= 0 {
			continue
		}
		re := real(r)
		freq := math.Atan2(im, re) * float64(fa.sampleRate) / (2 * math.Pi)
		radius := math.Hypot(re, im)
		if radius <= 0 || radius >= 1 {
			continue
		}
		bandwidth := -math.Log(radius) * float64(fa.sampleRate) / math.Pi
		if freq < minFormantHz || freq > nyquist-50 || bandwidth > maxFormantBandwidthHz {
			continue
		}
		formants = append(formants, freq)
	}

	sort.Float64s(formants)
	if len(formants) > 4 {
		formants = formants[:4]
	}
	return formants
}

// lpc computes linear prediction coefficients via Levinson-Durbin recursion.
// The returned slice holds a[1..order]; the implicit a[0] is 1.
func (fa *FormantAnalyzer) lpc(signal []float64) ([]float64, bool) {
	order := fa.order

	autocorr := make([]float64, order+1)
	for lag := 0; lag <= order; lag++ {
		sum := 0.0
		for i := 0; i+lag < len(signal); i++ {
			sum += signal[i] * signal[i+lag]
		}
		autocorr[lag] = sum
	}
	if autocorr[0] <= 1e-10 {
		return nil, false
	}

	a := make([]float64, order+1)
	errVal := autocorr[0]
	for m := 1; m <= order; m++ {
		acc := autocorr[m]
		for i := 1; i < m; i++ {
			acc -= a[i] * autocorr[m-i]
		}
		k := acc / errVal

		prev := make([]float64, order+1)
		copy(prev, a)
		a[m] = k
		for i := 1; i < m; i++ {
			a[i] = prev[i] - k*prev[m-i]
		}

		errVal *= 1 - k*k
		if errVal <= 0 {
			return nil, false
		}
	}
	return a[1:], true
}

// polynomialRoots solves A(z) = 1 - a1*z^-1 - ... - aN*z^-N for its zeros via
// the companion matrix eigenvalues.
func (fa *FormantAnalyzer) polynomialRoots(coeffs []float64) []complex128 {
	n := len(coeffs)
	if n == 0 {
		return nil
	}

	// Companion matrix of z^n - a1*z^(n-1) - ... - aN.
	companion := mat.NewDense(n, n, nil)
	for j := range n {
		companion.Set(0, j, coeffs[j])
	}
	for i := 1; i < n; i++ {
		companion.Set(i, i-1, 1)
	}

	var eig mat.Eigen
	if ok := eig.Factorize(companion, mat.EigenNone); !ok {
		return nil
	}
	return eig.Values(nil)
}
