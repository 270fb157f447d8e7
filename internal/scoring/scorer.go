package scoring

import (
	"math"

	"github.com/voxmaster/voice-engine/pkg/audio/analysis"
	"github.com/voxmaster/voice-engine/pkg/audio/common"
)

// Fallback values substituted when a pitch-dependent feature is unavailable.
// They sit at the center of typical speech ranges so spectral-only scoring
// stays plausible instead of collapsing to an extreme.
const (
	defaultJitter  = 0.5
	defaultShimmer = 3.0
	defaultF1      = 500.0
	defaultF2      = 1500.0
	defaultF3      = 2500.0
)

// TimbreScores rates spectral color on 0-100 scales.
type TimbreScores struct {
	Brightness  float64 `json:"brightness"`
	Breathiness float64 `json:"breathiness"`
	Warmth      float64 `json:"warmth"`
	Roughness   float64 `json:"roughness"`
}

// WeightScores rates vocal source strength.
type WeightScores struct {
	Weight  float64 `json:"weight"`  // light (0) to heavy (100)
	Pressed float64 `json:"pressed"` // breathy (0) to pressed (100)
}

// PlacementScores rates resonance placement.
type PlacementScores struct {
	Forwardness float64 `json:"forwardness"`
	RingIndex   float64 `json:"ring_index"`
	Nasality    float64 `json:"nasality"`
}

// SweetSpotScore is the weighted composite across all perceptual dimensions.
type SweetSpotScore struct {
	Clarity          float64 `json:"clarity"`
	Warmth           float64 `json:"warmth"`
	Presence         float64 `json:"presence"`
	Smoothness       float64 `json:"smoothness"`
	HarshnessPenalty float64 `json:"harshness_penalty"`
	Total            float64 `json:"total"`
}

// PerceptualScore is the full scoring result for one sample.
type PerceptualScore struct {
	Timbre    TimbreScores    `json:"timbre"`
	Weight    WeightScores    `json:"weight"`
	Placement PlacementScores `json:"placement"`
	SweetSpot SweetSpotScore  `json:"sweet_spot"`

	// LowConfidence marks scores computed without voiced frames, where the
	// pitch-dependent features fell back to typical-range defaults.
	LowConfidence bool `json:"low_confidence"`
}

// Scorer maps acoustic features onto perceptual 0-100 scales. It is a pure
// function of its input: identical features always produce identical scores.
type Scorer struct{}

// NewScorer creates a perceptual scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score computes the perceptual profile for one feature record.
func (s *Scorer) Score(features *analysis.AcousticFeatures, audioType common.AudioType) *PerceptualScore {
	timbre := s.timbre(features)
	weight := s.weight(features)
	placement := s.placement(features)
	sweetSpot := s.sweetSpot(timbre, weight, placement, features)

	return &PerceptualScore{
		Timbre:        timbre,
		Weight:        weight,
		Placement:     placement,
		SweetSpot:     sweetSpot,
		LowConfidence: !features.Voiced,
	}
}

func (s *Scorer) timbre(features *analysis.AcousticFeatures) TimbreScores {
	brightness := normalizeTo100(features.SpectralCentroid, 1000, 4000)
	breathiness := 100 - normalizeTo100(features.HNR, 5, 30)

	warmth := clamp(100-brightness*0.6+30, 0, 100)

	jitter := defaultJitter
	if features.Jitter != nil {
		jitter = *features.Jitter
	}
	shimmer := defaultShimmer
	if features.Shimmer != nil {
		shimmer = *features.Shimmer
	}
	roughness := clamp(jitter*10+shimmer*3, 0, 100)

	return TimbreScores{
		Brightness:  brightness,
		Breathiness: breathiness,
		Warmth:      warmth,
		Roughness:   roughness,
	}
}

func (s *Scorer) weight(features *analysis.AcousticFeatures) WeightScores {
	cppScore := normalizeTo100(features.CPP, 5, 20)
	h1h2Score := 100 - normalizeTo100(features.H1H2, -5, 15)

	return WeightScores{
		Weight:  clamp(cppScore*0.6+h1h2Score*0.4, 0, 100),
		Pressed: clamp(h1h2Score, 0, 100),
	}
}

func (s *Scorer) placement(features *analysis.AcousticFeatures) PlacementScores {
	f1 := features.Formants.F1
	if f1 <= 0 {
		f1 = defaultF1
	}
	f2 := features.Formants.F2
	if f2 <= 0 {
		f2 = defaultF2
	}
	f3 := features.Formants.F3
	if f3 <= 0 {
		f3 = defaultF3
	}

	forwardness := normalizeTo100(f2/f1, 2.0, 4.0) * 0.5
	forwardness += normalizeTo100(features.SpectralCentroid, 1500, 3500) * 0.5

	// Ring index from F3 proximity to the 3 kHz singer's formant.
	ringDistance := math.Abs(f3 - 3000)
	ringIndex := 100 - normalizeTo100(ringDistance, 0, 1500)

	// Narrow F1-F2 spacing reads as nasal.
	nasality := 100 - normalizeTo100(f2-f1, 500, 1500)

	return PlacementScores{
		Forwardness: clamp(forwardness, 0, 100),
		RingIndex:   clamp(ringIndex, 0, 100),
		Nasality:    clamp(nasality, 0, 100),
	}
}

func (s *Scorer) sweetSpot(timbre TimbreScores, weight WeightScores, placement PlacementScores, features *analysis.AcousticFeatures) SweetSpotScore {
	clarity := normalizeTo100(features.HNR, 10, 25) * 0.7
	clarity += (100 - timbre.Breathiness) * 0.3
	clarity = clamp(clarity, 0, 100)

	warmth := timbre.Warmth
	presence := placement.Forwardness*0.6 + placement.RingIndex*0.4
	smoothness := 100 - timbre.Roughness

	harshness := 0.0
	if timbre.Brightness > 80 {
		harshness += (timbre.Brightness - 80) * 0.5
	}
	harshness += timbre.Roughness * 0.3
	harshness = clamp(harshness, 0, 100)

	total := 0.25*clarity +
		0.20*warmth +
		0.20*presence +
		0.15*smoothness -
		0.20*harshness

	return SweetSpotScore{
		Clarity:          clarity,
		Warmth:           warmth,
		Presence:         presence,
		Smoothness:       smoothness,
		HarshnessPenalty: harshness,
		Total:            clamp(total, 0, 100),
	}
}

// normalizeTo100 maps value onto 0-100 over [minVal, maxVal], clamped.
func normalizeTo100(value, minVal, maxVal float64) float64 {
	if maxVal == minVal {
		return 50.0
	}
	return clamp((value-minVal)/(maxVal-minVal)*100, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
