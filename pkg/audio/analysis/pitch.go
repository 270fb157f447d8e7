package analysis

import "math"

// voicingThreshold is the minimum normalized autocorrelation peak for a frame
// to count as voiced.
const voicingThreshold = 0.30

// PitchTracker estimates fundamental frequency per frame via normalized
// autocorrelation, restricted to a configurable F0 search range.
type PitchTracker struct {
	sampleRate int
	minF0      float64
	maxF0      float64
}

// NewPitchTracker creates a pitch tracker for the given search range.
func NewPitchTracker(sampleRate int, minF0, maxF0 float64) *PitchTracker {
	return &PitchTracker{
		sampleRate: sampleRate,
		minF0:      minF0,
		maxF0:      maxF0,
	}
}

// FrameLength returns the analysis frame length needed to cover three periods
// of the lowest trackable F0.
func (pt *PitchTracker) FrameLength() int {
	return int(3.0 * float64(pt.sampleRate) / pt.minF0)
}

// DetectFrame returns the frame's F0 in Hz and the voicing strength (the
// normalized autocorrelation peak). F0 is 0 for unvoiced frames.
func (pt *PitchTracker) DetectFrame(frame []float64) (f0, strength float64) {
	minLag := int(float64(pt.sampleRate) / pt.maxF0)
	maxLag := int(float64(pt.sampleRate) / pt.minF0)
	if minLag < 2 {
		minLag = 2
	}
	if maxLag >= len(frame) {
		maxLag = len(frame) - 1
	}
	if maxLag <= minLag {
		return 0, 0
	}

	// Remove DC so sustained offsets do not masquerade as periodicity.
	mean := 0.0
	for _, s := range frame {
		mean += s
	}
	mean /= float64(len(frame))

	centered := make([]float64, len(frame))
	energy := 0.0
	for i, s := range frame {
		centered[i] = s - mean
		energy += centered[i] * centered[i]
	}
	if energy < 1e-10 {
		return 0, 0
	}

	bestLag := 0
	bestCorr := 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		num := 0.0
		e1 := 0.0
		e2 := 0.0
		for i := 0; i+lag < len(centered); i++ {
			num += centered[i] * centered[i+lag]
			e1 += centered[i] * centered[i]
			e2 += centered[i+lag] * centered[i+lag]
		}
		if e1 <= 0 || e2 <= 0 {
			continue
		}
		corr := num / math.Sqrt(e1*e2)
		if corr > bestCorr {
			bestCorr = corr
			bestLag = lag
		}
	}

	if bestLag == 0 || bestCorr < voicingThreshold {
		return 0, bestCorr
	}
	return float64(pt.sampleRate) / float64(bestLag), bestCorr
}

// HNRFromStrength converts a voicing strength into a harmonics-to-noise ratio
// in dB. Strength r models the harmonic energy fraction, so HNR is
// 10*log10(r/(1-r)).
func HNRFromStrength(r float64) float64 {
	if r < 1e-6 {
		r = 1e-6
	}
	if r > 1-1e-6 {
		r = 1 - 1e-6
	}
	return 10 * math.Log10(r/(1-r))
}

// PerturbationPercent computes the mean absolute consecutive difference of a
// series relative to its mean, as a percentage. Applied to pitch periods it
// yields jitter; applied to peak amplitudes it yields shimmer.
func PerturbationPercent(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	if mean == 0 {
		return 0
	}

	diffSum := 0.0
	for i := 1; i < len(values); i++ {
		diffSum += math.Abs(values[i] - values[i-1])
	}
	return diffSum / float64(len(values)-1) / mean * 100.0
}
