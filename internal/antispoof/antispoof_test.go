package antispoof

import (
	"context"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxmaster/voice-engine/pkg/audio/common"
)

const testSampleRate = 16000

func audioOf(pcm []float64) *common.AudioData {
	return &common.AudioData{
		PCM:        pcm,
		SampleRate: testSampleRate,
		Channels:   1,
		Duration:   time.Duration(len(pcm)) * time.Second / time.Duration(testSampleRate),
	}
}

func sampleOf(pcm []float64) *Sample {
	audio := audioOf(pcm)
	return &Sample{
		Harmonic:   audio,
		Perceptual: audio,
		AudioType:  common.AudioTypeSpoken,
	}
}

// naturalVoice simulates live phonation: full-band harmonics, slow vibrato
// with per-sample pitch wander, amplitude modulation, and breath noise.
func naturalVoice(duration time.Duration) []float64 {
	rng := rand.New(rand.NewSource(7))
	numSamples := int(float64(testSampleRate) * duration.Seconds())
	pcm := make([]float64, numSamples)

	baseF0 := 150.0
	nyquist := float64(testSampleRate) / 2
	numHarmonics := int(nyquist-100) / int(baseF0)

	phases := make([]float64, numHarmonics+1)
	wander := 0.0
	for i := range pcm {
		t := float64(i) / float64(testSampleRate)
		wander += rng.NormFloat64() * 0.0004
		wander *= 0.9995
		f0 := baseF0 * (1 + 0.03*math.Sin(2*math.Pi*5*t) + wander)
		envelope := 0.6 + 0.35*math.Sin(2*math.Pi*2.7*t)

		sum := 0.0
		for h := 1; h <= numHarmonics; h++ {
			phases[h] += 2 * math.Pi * float64(h) * f0 / float64(testSampleRate)
			sum += math.Sin(phases[h]) / float64(h)
		}
		pcm[i] = envelope*sum*0.35 + 0.01*rng.NormFloat64()
	}
	return pcm
}

// syntheticVoice is a perfectly stable full-band harmonic series: frozen
// pitch, frozen amplitude.
func syntheticVoice(duration time.Duration) []float64 {
	numSamples := int(float64(testSampleRate) * duration.Seconds())
	pcm := make([]float64, numSamples)

	f0 := 150.0
	nyquist := float64(testSampleRate) / 2
	numHarmonics := int(nyquist-100) / int(f0)

	for i := range pcm {
		t := float64(i) / float64(testSampleRate)
		sum := 0.0
		for h := 1; h <= numHarmonics; h++ {
			sum += math.Sin(2*math.Pi*float64(h)*f0*t) / float64(h)
		}
		pcm[i] = sum * 0.35
	}
	return pcm
}

// bandlimitedVoice keeps harmonics only below 3.5 kHz, the signature of a
// playback-and-recapture chain.
func bandlimitedVoice(duration time.Duration) []float64 {
	numSamples := int(float64(testSampleRate) * duration.Seconds())
	pcm := make([]float64, numSamples)

	f0 := 150.0
	numHarmonics := int(3500 / f0)

	for i := range pcm {
		t := float64(i) / float64(testSampleRate)
		sum := 0.0
		for h := 1; h <= numHarmonics; h++ {
			sum += math.Sin(2*math.Pi*float64(h)*f0*t) / float64(h)
		}
		pcm[i] = sum * 0.35
	}
	return pcm
}

func fullbandNoise(duration time.Duration) []float64 {
	rng := rand.New(rand.NewSource(11))
	numSamples := int(float64(testSampleRate) * duration.Seconds())
	pcm := make([]float64, numSamples)
	for i := range pcm {
		pcm[i] = 0.3 * (2*rng.Float64() - 1)
	}
	return pcm
}

func TestReplayCheck(t *testing.T) {
	check := NewReplayCheck(DefaultConfig())
	ctx := context.Background()

	flagged, err := check.Assess(ctx, sampleOf(bandlimitedVoice(2*time.Second)))
	require.NoError(t, err)
	assert.True(t, flagged, "band-limited audio should read as replayed")

	flagged, err = check.Assess(ctx, sampleOf(fullbandNoise(2*time.Second)))
	require.NoError(t, err)
	assert.False(t, flagged, "full-band audio should not read as replayed")

	flagged, err = check.Assess(ctx, sampleOf(naturalVoice(2*time.Second)))
	require.NoError(t, err)
	assert.False(t, flagged)
}

func TestSynthesisCheck(t *testing.T) {
	check := NewSynthesisCheck(DefaultConfig())
	ctx := context.Background()

	flagged, err := check.Assess(ctx, sampleOf(syntheticVoice(2*time.Second)))
	require.NoError(t, err)
	assert.True(t, flagged, "frozen pitch and amplitude should read as synthetic")

	flagged, err = check.Assess(ctx, sampleOf(naturalVoice(2*time.Second)))
	require.NoError(t, err)
	assert.False(t, flagged, "natural micro-variation should pass")

	// Unvoiced audio cannot be assessed and must not flag.
	flagged, err = check.Assess(ctx, sampleOf(fullbandNoise(2*time.Second)))
	require.NoError(t, err)
	assert.False(t, flagged)
}

func TestLivenessCheck(t *testing.T) {
	check := NewLivenessCheck(DefaultConfig())
	ctx := context.Background()

	live, err := check.Assess(ctx, sampleOf(naturalVoice(2*time.Second)))
	require.NoError(t, err)
	assert.True(t, live, "modulated voiced audio should verify as live")

	live, err = check.Assess(ctx, sampleOf(syntheticVoice(2*time.Second)))
	require.NoError(t, err)
	assert.False(t, live, "frozen trajectories must fail liveness")

	live, err = check.Assess(ctx, sampleOf(fullbandNoise(2*time.Second)))
	require.NoError(t, err)
	assert.False(t, live, "unvoiced audio cannot verify as live")
}

func TestEvaluatorVerdicts(t *testing.T) {
	evaluator := NewEvaluator(nil, nil)
	ctx := context.Background()

	natural, err := evaluator.Evaluate(ctx, sampleOf(naturalVoice(2*time.Second)))
	require.NoError(t, err)
	assert.False(t, natural.ReplayDetected)
	assert.False(t, natural.AIGenerated)
	assert.True(t, natural.LivenessVerified)
	assert.False(t, natural.FraudSuspected())

	synthetic, err := evaluator.Evaluate(ctx, sampleOf(syntheticVoice(2*time.Second)))
	require.NoError(t, err)
	assert.True(t, synthetic.AIGenerated)
	assert.True(t, synthetic.FraudSuspected())
}

func TestEvaluatorCancellation(t *testing.T) {
	evaluator := NewEvaluator(nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := evaluator.Evaluate(ctx, sampleOf(naturalVoice(time.Second)))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResultFraudSuspected(t *testing.T) {
	assert.False(t, Result{LivenessVerified: true}.FraudSuspected())
	assert.True(t, Result{ReplayDetected: true}.FraudSuspected())
	assert.True(t, Result{AIGenerated: true}.FraudSuspected())
}
