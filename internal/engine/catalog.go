package engine

import (
	"fmt"

	"github.com/voxmaster/voice-engine/pkg/audio/analysis"
)

// FeatureCatalog groups the acoustic features the analysis pipeline reports,
// keyed the way clients render them.
func FeatureCatalog() map[string][]string {
	numCoeffs := analysis.DefaultConfig().MFCCCoefficients
	mfccs := make([]string, 0, numCoeffs)
	for i := 1; i <= numCoeffs; i++ {
		mfccs = append(mfccs, fmt.Sprintf("mfcc_%d", i))
	}

	return map[string][]string{
		"spectral": {"spectral_centroid", "spectral_rolloff"},
		"harmonic": {"hnr", "cpp", "h1_h2"},
		"formants": {"f1", "f2", "f3", "f4"},
		"cepstral": mfccs,
		"pitch":    {"f0_mean", "f0_range", "jitter", "shimmer"},
	}
}

// ScoringMethodology describes how each perceptual scale is derived from the
// acoustic features.
func ScoringMethodology() map[string]map[string]string {
	return map[string]map[string]string{
		"timbre": {
			"brightness":  "Spectral centroid normalized over 1-4 kHz (0-100)",
			"breathiness": "Inverse HNR over 5-30 dB (0-100)",
			"warmth":      "Inverse brightness with a warm-bias offset (0-100)",
			"roughness":   "Weighted jitter and shimmer (0-100)",
		},
		"weight": {
			"weight":  "CPP blended with inverse H1-H2, light (0) to heavy (100)",
			"pressed": "Inverse H1-H2, breathy (0) to pressed (100)",
		},
		"placement": {
			"forwardness": "F2/F1 ratio blended with spectral centroid (0-100)",
			"ring_index":  "F3 proximity to the 3 kHz singer's formant (0-100)",
			"nasality":    "Inverse F1-F2 spacing (0-100)",
		},
		"sweet_spot": {
			"formula": "0.25*clarity + 0.20*warmth + 0.20*presence + 0.15*smoothness - 0.20*harshness_penalty",
			"range":   "0-100, clamped",
		},
	}
}
