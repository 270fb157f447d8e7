package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxmaster/voice-engine/pkg/audio/analysis"
	"github.com/voxmaster/voice-engine/pkg/audio/common"
)

func voicedFeatures() *analysis.AcousticFeatures {
	jitter := 0.4
	shimmer := 2.5
	return &analysis.AcousticFeatures{
		SpectralCentroid: 2200,
		SpectralRolloff:  4500,
		HNR:              18,
		CPP:              12,
		H1H2:             4,
		F0Mean:           140,
		F0Range:          []float64{120, 165},
		Formants:         analysis.Formants{F1: 550, F2: 1600, F3: 2800, F4: 3600},
		Jitter:           &jitter,
		Shimmer:          &shimmer,
		Voiced:           true,
	}
}

func TestScoreRanges(t *testing.T) {
	scorer := NewScorer()
	score := scorer.Score(voicedFeatures(), common.AudioTypeSpoken)
	require.NotNil(t, score)

	for name, v := range map[string]float64{
		"brightness":  score.Timbre.Brightness,
		"breathiness": score.Timbre.Breathiness,
		"warmth":      score.Timbre.Warmth,
		"roughness":   score.Timbre.Roughness,
		"weight":      score.Weight.Weight,
		"pressed":     score.Weight.Pressed,
		"forwardness": score.Placement.Forwardness,
		"ring_index":  score.Placement.RingIndex,
		"nasality":    score.Placement.Nasality,
		"clarity":     score.SweetSpot.Clarity,
		"presence":    score.SweetSpot.Presence,
		"smoothness":  score.SweetSpot.Smoothness,
		"total":       score.SweetSpot.Total,
	} {
		assert.GreaterOrEqual(t, v, 0.0, name)
		assert.LessOrEqual(t, v, 100.0, name)
	}
	assert.False(t, score.LowConfidence)
}

func TestScoreDeterministic(t *testing.T) {
	scorer := NewScorer()
	first := scorer.Score(voicedFeatures(), common.AudioTypeSpoken)
	second := scorer.Score(voicedFeatures(), common.AudioTypeSpoken)
	assert.Equal(t, first, second, "scoring must be a pure function of features")
}

func TestBrightnessTracksCentroid(t *testing.T) {
	scorer := NewScorer()

	dark := voicedFeatures()
	dark.SpectralCentroid = 1200
	bright := voicedFeatures()
	bright.SpectralCentroid = 3800

	darkScore := scorer.Score(dark, common.AudioTypeSpoken)
	brightScore := scorer.Score(bright, common.AudioTypeSpoken)

	assert.Greater(t, brightScore.Timbre.Brightness, darkScore.Timbre.Brightness)
	assert.Greater(t, darkScore.Timbre.Warmth, brightScore.Timbre.Warmth,
		"warmth moves opposite to brightness")
}

func TestBreathinessTracksHNR(t *testing.T) {
	scorer := NewScorer()

	breathy := voicedFeatures()
	breathy.HNR = 7
	clear := voicedFeatures()
	clear.HNR = 26

	breathyScore := scorer.Score(breathy, common.AudioTypeSpoken)
	clearScore := scorer.Score(clear, common.AudioTypeSpoken)

	assert.Greater(t, breathyScore.Timbre.Breathiness, clearScore.Timbre.Breathiness)
	assert.Greater(t, clearScore.SweetSpot.Clarity, breathyScore.SweetSpot.Clarity)
}

func TestRoughnessFromPerturbation(t *testing.T) {
	scorer := NewScorer()

	rough := voicedFeatures()
	j, sh := 3.0, 8.0
	rough.Jitter = &j
	rough.Shimmer = &sh

	smooth := scorer.Score(voicedFeatures(), common.AudioTypeSpoken)
	roughScore := scorer.Score(rough, common.AudioTypeSpoken)

	assert.Greater(t, roughScore.Timbre.Roughness, smooth.Timbre.Roughness)
	assert.Less(t, roughScore.SweetSpot.Smoothness, smooth.SweetSpot.Smoothness)
}

func TestRingIndexPeaksAtSingersFormant(t *testing.T) {
	scorer := NewScorer()

	ringing := voicedFeatures()
	ringing.Formants.F3 = 3000
	dull := voicedFeatures()
	dull.Formants.F3 = 2100

	assert.Greater(t,
		scorer.Score(ringing, common.AudioTypeSpoken).Placement.RingIndex,
		scorer.Score(dull, common.AudioTypeSpoken).Placement.RingIndex)
}

func TestHarshnessPenalizesExcessBrightness(t *testing.T) {
	scorer := NewScorer()

	harsh := voicedFeatures()
	harsh.SpectralCentroid = 4000 // brightness pegs at 100

	score := scorer.Score(harsh, common.AudioTypeSpoken)
	assert.Greater(t, score.SweetSpot.HarshnessPenalty, 0.0)

	mild := voicedFeatures()
	mild.SpectralCentroid = 2000
	mildScore := scorer.Score(mild, common.AudioTypeSpoken)
	assert.Greater(t, score.SweetSpot.HarshnessPenalty, mildScore.SweetSpot.HarshnessPenalty)
}

func TestSweetSpotWeighting(t *testing.T) {
	scorer := NewScorer()
	score := scorer.Score(voicedFeatures(), common.AudioTypeSpoken)

	expected := 0.25*score.SweetSpot.Clarity +
		0.20*score.SweetSpot.Warmth +
		0.20*score.SweetSpot.Presence +
		0.15*score.SweetSpot.Smoothness -
		0.20*score.SweetSpot.HarshnessPenalty

	assert.InDelta(t, expected, score.SweetSpot.Total, 1e-9)
}

func TestUnvoicedFallback(t *testing.T) {
	scorer := NewScorer()

	features := &analysis.AcousticFeatures{
		SpectralCentroid: 2500,
		SpectralRolloff:  5000,
		HNR:              -10,
		Voiced:           false,
	}

	score := scorer.Score(features, common.AudioTypeSpoken)
	require.NotNil(t, score)

	assert.True(t, score.LowConfidence)
	// All fields still populated from spectral features and defaults.
	assert.GreaterOrEqual(t, score.SweetSpot.Total, 0.0)
	assert.LessOrEqual(t, score.SweetSpot.Total, 100.0)
	assert.Greater(t, score.Timbre.Breathiness, 90.0, "negative HNR reads as maximally breathy")
}
