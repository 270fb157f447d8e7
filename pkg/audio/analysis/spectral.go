package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// SpectralAnalyzer provides FFT and magnitude-spectrum measurements for a
// fixed sample rate.
type SpectralAnalyzer struct {
	windowGenerator *WindowGenerator
	sampleRate      int
}

// NewSpectralAnalyzer creates a new spectral analyzer
func NewSpectralAnalyzer(sampleRate int) *SpectralAnalyzer {
	return &SpectralAnalyzer{
		windowGenerator: NewWindowGenerator(),
		sampleRate:      sampleRate,
	}
}

// MagnitudeSpectrum windows the frame with a Hann window and returns the
// positive-frequency magnitude spectrum (DC through Nyquist).
func (sa *SpectralAnalyzer) MagnitudeSpectrum(frame []float64) []float64 {
	if len(frame) == 0 {
		return nil
	}

	windowed := make([]float64, len(frame))
	copy(windowed, frame)
	sa.windowGenerator.Apply(windowed)

	fftResult := fft.FFTReal(windowed)
	freqBins := len(fftResult)/2 + 1
	freqBins = min(len(fftResult), freqBins)

	magnitude := make([]float64, freqBins)
	for i := range freqBins {
		magnitude[i] = cmplx.Abs(fftResult[i])
	}
	return magnitude
}

// GetFrequencyBins returns the center frequency of each FFT bin.
func (sa *SpectralAnalyzer) GetFrequencyBins(numBins int) []float64 {
	freqs := make([]float64, numBins)
	for i := range numBins {
		freqs[i] = float64(i) * float64(sa.sampleRate) / float64((numBins-1)*2)
	}
	return freqs
}

// SpectralCentroid computes the magnitude-weighted mean frequency.
func (sa *SpectralAnalyzer) SpectralCentroid(spectrum, freqs []float64) float64 {
	if len(spectrum) != len(freqs) {
		return 0
	}

	numerator := 0.0
	denominator := 0.0
	for i := range spectrum {
		numerator += freqs[i] * spectrum[i]
		denominator += spectrum[i]
	}
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

// SpectralRolloff returns the frequency below which the given fraction of
// spectral energy is contained.
func (sa *SpectralAnalyzer) SpectralRolloff(spectrum, freqs []float64, threshold float64) float64 {
	totalEnergy := 0.0
	for _, mag := range spectrum {
		totalEnergy += mag * mag
	}
	if totalEnergy == 0 {
		return 0
	}

	targetEnergy := threshold * totalEnergy
	cumulativeEnergy := 0.0
	for i := range spectrum {
		cumulativeEnergy += spectrum[i] * spectrum[i]
		if cumulativeEnergy >= targetEnergy {
			if i < len(freqs) {
				return freqs[i]
			}
			break
		}
	}

	if len(freqs) > 0 {
		return freqs[len(freqs)-1]
	}
	return 0
}

// BandEnergyRatio returns the fraction of spectral energy inside
// [lowHz, highHz]. Used for the 2.5-3.5 kHz ring index and the replay
// detector's high-band probe.
func (sa *SpectralAnalyzer) BandEnergyRatio(spectrum, freqs []float64, lowHz, highHz float64) float64 {
	if len(spectrum) != len(freqs) {
		return 0
	}

	bandEnergy := 0.0
	totalEnergy := 0.0
	for i := range spectrum {
		e := spectrum[i] * spectrum[i]
		totalEnergy += e
		if freqs[i] >= lowHz && freqs[i] <= highHz {
			bandEnergy += e
		}
	}
	if totalEnergy == 0 {
		return 0
	}
	return bandEnergy / totalEnergy
}

// HarmonicAmplitudeDB returns the peak magnitude in dB within a small window
// around targetHz. Used for H1/H2 measurement at F0 and 2*F0.
func (sa *SpectralAnalyzer) HarmonicAmplitudeDB(spectrum, freqs []float64, targetHz, toleranceHz float64) float64 {
	if len(spectrum) != len(freqs) || targetHz <= 0 {
		return math.Inf(-1)
	}

	peak := 0.0
	found := false
	for i := range spectrum {
		if math.Abs(freqs[i]-targetHz) <= toleranceHz {
			if spectrum[i] > peak {
				peak = spectrum[i]
			}
			found = true
		}
	}
	if !found || peak <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(peak)
}

// Energy computes total spectral energy.
func (sa *SpectralAnalyzer) Energy(spectrum []float64) float64 {
	energy := 0.0
	for _, mag := range spectrum {
		energy += mag * mag
	}
	return energy
}
