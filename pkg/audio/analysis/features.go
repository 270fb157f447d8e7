package analysis

import "math"

// Formants holds averaged formant frequencies in Hz.
type Formants struct {
	F1 float64 `json:"f1"`
	F2 float64 `json:"f2"`
	F3 float64 `json:"f3"`
	F4 float64 `json:"f4"`
}

// AcousticFeatures is the aggregated feature record for one analyzed sample.
// All Hz/dB values are finite; degenerate frames are excluded before
// aggregation, never propagated.
type AcousticFeatures struct {
	SpectralCentroid float64   `json:"spectral_centroid"` // Hz, brightness proxy
	SpectralRolloff  float64   `json:"spectral_rolloff"`  // Hz, 85th percentile energy
	HNR              float64   `json:"hnr"`               // dB, breathiness/roughness proxy
	CPP              float64   `json:"cpp"`               // dB, vocal-fold closure proxy
	H1H2             float64   `json:"h1_h2"`             // dB, open-quotient proxy
	F0Mean           float64   `json:"f0_mean"`           // Hz, 0 when unvoiced
	F0Range          []float64 `json:"f0_range"`          // [min, max] Hz; nil when unvoiced
	Formants         Formants  `json:"formants"`
	MFCCs            []float64 `json:"mfccs,omitempty"`
	Jitter           *float64  `json:"jitter,omitempty"`  // %, pitch period irregularity
	Shimmer          *float64  `json:"shimmer,omitempty"` // %, amplitude irregularity

	// RingEnergyRatio is the fraction of spectral energy in the 2.5-3.5 kHz
	// singer's formant band. Feeds the placement scores; not part of the
	// response contract.
	RingEnergyRatio float64 `json:"-"`

	// Voiced reports whether any voiced frames were found. When false the
	// pitch-dependent fields hold fallback values and scoring runs in
	// spectral-only mode.
	Voiced bool `json:"-"`
}

// meanValid averages a series excluding NaN and Inf entries. Returns
// (0, false) when nothing valid remains.
func meanValid(values []float64) (float64, bool) {
	sum := 0.0
	count := 0
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		sum += v
		count++
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

// minMaxValid returns the extrema of a series excluding NaN and Inf entries.
func minMaxValid(values []float64) (minVal, maxVal float64, ok bool) {
	minVal = math.Inf(1)
	maxVal = math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
		ok = true
	}
	if !ok {
		return 0, 0, false
	}
	return minVal, maxVal, true
}
