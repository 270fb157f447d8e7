package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// CepstralAnalyzer computes cepstrum-domain measurements: Cepstral Peak
// Prominence, MFCCs, and chroma.
type CepstralAnalyzer struct {
	sampleRate      int
	windowGenerator *WindowGenerator
	melFilterCache  map[melFilterKey][][]float64
}

type melFilterKey struct {
	numFilters int
	freqBins   int
}

// NewCepstralAnalyzer creates a new cepstral analyzer
func NewCepstralAnalyzer(sampleRate int) *CepstralAnalyzer {
	return &CepstralAnalyzer{
		sampleRate:      sampleRate,
		windowGenerator: NewWindowGenerator(),
		melFilterCache:  make(map[melFilterKey][][]float64),
	}
}

// CPP computes Cepstral Peak Prominence for one frame: the height of the
// cepstral peak in the voice quefrency range above a linear regression line
// fitted across that range. Returns NaN for frames with no usable peak;
// callers exclude those from aggregation.
func (ca *CepstralAnalyzer) CPP(frame []float64, minF0, maxF0 float64) float64 {
	if len(frame) < 64 {
		return math.NaN()
	}

	windowed := make([]float64, len(frame))
	copy(windowed, frame)
	ca.windowGenerator.Apply(windowed)

	spectrum := fft.FFTReal(windowed)

	// Log magnitude in dB over the full symmetric spectrum keeps the inverse
	// transform real-valued.
	logMag := make([]complex128, len(spectrum))
	for i, c := range spectrum {
		mag := cmplx.Abs(c)
		if mag < 1e-10 {
			mag = 1e-10
		}
		logMag[i] = complex(20*math.Log10(mag), 0)
	}

	cepstrum := fft.IFFT(logMag)

	minQ := int(float64(ca.sampleRate) / maxF0)
	maxQ := int(float64(ca.sampleRate) / minF0)
	if minQ < 2 {
		minQ = 2
	}
	if maxQ >= len(cepstrum)/2 {
		maxQ = len(cepstrum)/2 - 1
	}
	if maxQ <= minQ {
		return math.NaN()
	}

	// Peak search and regression line over the same quefrency span.
	peakVal := math.Inf(-1)
	peakQ := minQ
	n := 0
	sumX, sumY, sumXY, sumXX := 0.0, 0.0, 0.0, 0.0
	for q := minQ; q <= maxQ; q++ {
		v := real(cepstrum[q])
		if v > peakVal {
			peakVal = v
			peakQ = q
		}
		x := float64(q)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
		n++
	}
	if n < 2 {
		return math.NaN()
	}

	denominator := float64(n)*sumXX - sumX*sumX
	if denominator == 0 {
		return math.NaN()
	}
	slope := (float64(n)*sumXY - sumX*sumY) / denominator
	intercept := (sumY - slope*sumX) / float64(n)

	prominence := peakVal - (slope*float64(peakQ) + intercept)
	if math.IsNaN(prominence) || math.IsInf(prominence, 0) {
		return math.NaN()
	}
	return prominence
}

// MFCC computes mel-frequency cepstral coefficients for one magnitude
// spectrum frame.
func (ca *CepstralAnalyzer) MFCC(magnitude []float64, numFilters, numCoeffs int) []float64 {
	filterBank := ca.melFilterBank(numFilters, len(magnitude))
	melSpectrum := make([]float64, numFilters)
	for f, filter := range filterBank {
		sum := 0.0
		for i, w := range filter {
			sum += magnitude[i] * w
		}
		if sum < 1e-10 {
			sum = 1e-10
		}
		melSpectrum[f] = math.Log(sum)
	}
	return dctII(melSpectrum, numCoeffs)
}

// Chroma folds spectral energy into 12 pitch classes. Bins below 55 Hz are
// ignored; output is normalized to sum to 1 (all zeros for silent frames).
func (ca *CepstralAnalyzer) Chroma(magnitude, freqs []float64) []float64 {
	chroma := make([]float64, 12)
	total := 0.0
	for i := range magnitude {
		if freqs[i] < 55.0 {
			continue
		}
		midi := 12.0*math.Log2(freqs[i]/440.0) + 69.0
		pc := int(math.Round(midi)) % 12
		if pc < 0 {
			pc += 12
		}
		e := magnitude[i] * magnitude[i]
		chroma[pc] += e
		total += e
	}
	if total > 0 {
		for i := range chroma {
			chroma[i] /= total
		}
	}
	return chroma
}

func (ca *CepstralAnalyzer) melFilterBank(numFilters, freqBins int) [][]float64 {
	key := melFilterKey{numFilters: numFilters, freqBins: freqBins}
	if bank, ok := ca.melFilterCache[key]; ok {
		return bank
	}

	lowMel := hzToMel(0)
	highMel := hzToMel(float64(ca.sampleRate) / 2.0)

	// Filter center points spaced evenly on the mel scale.
	melPoints := make([]float64, numFilters+2)
	for i := range melPoints {
		melPoints[i] = lowMel + (highMel-lowMel)*float64(i)/float64(numFilters+1)
	}

	binOf := func(mel float64) int {
		hz := melToHz(mel)
		bin := int(hz / (float64(ca.sampleRate) / 2.0) * float64(freqBins-1))
		if bin < 0 {
			bin = 0
		}
		if bin >= freqBins {
			bin = freqBins - 1
		}
		return bin
	}

	bank := make([][]float64, numFilters)
	for f := range numFilters {
		filter := make([]float64, freqBins)
		left := binOf(melPoints[f])
		center := binOf(melPoints[f+1])
		right := binOf(melPoints[f+2])

		for i := left; i <= center && i < freqBins; i++ {
			if center > left {
				filter[i] = float64(i-left) / float64(center-left)
			} else {
				filter[i] = 1
			}
		}
		for i := center; i <= right && i < freqBins; i++ {
			if right > center {
				filter[i] = float64(right-i) / float64(right-center)
			}
		}
		bank[f] = filter
	}

	ca.melFilterCache[key] = bank
	return bank
}

func hzToMel(hz float64) float64 {
	return 2595.0 * math.Log10(1.0+hz/700.0)
}

func melToHz(mel float64) float64 {
	return 700.0 * (math.Pow(10, mel/2595.0) - 1.0)
}

// dctII computes the type-II discrete cosine transform, keeping numCoeffs
// coefficients.
func dctII(input []float64, numCoeffs int) []float64 {
	n := len(input)
	if numCoeffs > n {
		numCoeffs = n
	}
	out := make([]float64, numCoeffs)
	for k := range numCoeffs {
		sum := 0.0
		for i := range n {
			sum += input[i] * math.Cos(math.Pi*float64(k)*(float64(i)+0.5)/float64(n))
		}
		out[k] = sum
	}
	return out
}
