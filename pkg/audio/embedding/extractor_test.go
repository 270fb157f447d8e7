package embedding

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

func testAudio(pcm []float64, sampleRate int) *common.AudioData {
	return &common.AudioData{
		PCM:        pcm,
		SampleRate: sampleRate,
		Channels:   1,
		Duration:   time.Duration(len(pcm)) * time.Second / time.Duration(sampleRate),
	}
}

func harmonicSignal(sampleRate int, duration time.Duration, f0 float64, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	numSamples := int(float64(sampleRate) * duration.Seconds())
	pcm := make([]float64, numSamples)
	for h := 1; h <= 8; h++ {
		freq := float64(h) * f0
		amp := (0.5 + 0.5*rng.Float64()) / float64(h)
		phase := rng.Float64() * 2 * math.Pi
		for i := range pcm {
			t := float64(i) / float64(sampleRate)
			pcm[i] += amp * math.Sin(2*math.Pi*freq*t+phase)
		}
	}
	peak := 0.0
	for _, s := range pcm {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	for i := range pcm {
		pcm[i] = pcm[i] / peak * 0.7
	}
	return pcm
}

func TestExtractDeterministic(t *testing.T) {
	extractor := NewExtractor(nil)
	audio := testAudio(harmonicSignal(16000, 2*time.Second, 140, 1), 16000)

	first, err := extractor.Extract(context.Background(), audio)
	require.NoError(t, err)
	second, err := extractor.Extract(context.Background(), audio)
	require.NoError(t, err)

	assert.Equal(t, first.Vector, second.Vector,
		"same audio must always map to the same embedding")
}

func TestExtractShape(t *testing.T) {
	extractor := NewExtractor(nil)
	audio := testAudio(harmonicSignal(16000, 2*time.Second, 140, 1), 16000)

	result, err := extractor.Extract(context.Background(), audio)
	require.NoError(t, err)
	require.Len(t, result.Vector, Dimensions)

	// L2 norm of 1 within float tolerance.
	sum := 0.0
	for _, v := range result.Vector {
		sum += v * v
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-9)

	// The tail past the feature statistics is zero padding.
	for i := 2*40 + 12; i < Dimensions; i++ {
		assert.Zero(t, result.Vector[i])
	}
}

func TestExtractSeparatesVoices(t *testing.T) {
	extractor := NewExtractor(nil)
	ctx := context.Background()

	lowA := testAudio(harmonicSignal(16000, 2*time.Second, 110, 7), 16000)
	lowB := testAudio(harmonicSignal(16000, 2*time.Second, 112, 7), 16000)
	high := testAudio(harmonicSignal(16000, 2*time.Second, 300, 8), 16000)

	embLowA, err := extractor.Extract(ctx, lowA)
	require.NoError(t, err)
	embLowB, err := extractor.Extract(ctx, lowB)
	require.NoError(t, err)
	embHigh, err := extractor.Extract(ctx, high)
	require.NoError(t, err)

	same, err := CosineSimilarity(embLowA.Vector, embLowB.Vector)
	require.NoError(t, err)
	diff, err := CosineSimilarity(embLowA.Vector, embHigh.Vector)
	require.NoError(t, err)

	assert.Greater(t, same, diff,
		"near-identical voices should be closer than dissimilar ones")
}

func TestExtractTooShort(t *testing.T) {
	extractor := NewExtractor(nil)
	audio := testAudio(make([]float64, 100), 16000)

	_, err := extractor.Extract(context.Background(), audio)
	require.Error(t, err)
	assert.Equal(t, common.ErrCodeInsufficientAudio, common.ErrorCode(err))
}

func TestExtractCancellation(t *testing.T) {
	extractor := NewExtractor(nil)
	audio := testAudio(harmonicSignal(16000, 2*time.Second, 140, 1), 16000)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := extractor.Extract(ctx, audio)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQualityScore(t *testing.T) {
	// Three seconds of moderate signal scores well on all three factors.
	good := testAudio(harmonicSignal(16000, 3*time.Second, 140, 1), 16000)
	assert.Greater(t, QualityScore(good), 80.0)

	// Half a second costs most of the duration component.
	short := testAudio(harmonicSignal(16000, 500*time.Millisecond, 140, 1), 16000)
	assert.Less(t, QualityScore(short), QualityScore(good))

	// Hard-clipped audio loses the clipping component.
	clipped := testAudio(harmonicSignal(16000, 3*time.Second, 140, 1), 16000)
	for i := range clipped.PCM {
		clipped.PCM[i] = math.Copysign(1.0, clipped.PCM[i])
	}
	assert.Less(t, QualityScore(clipped), QualityScore(good))

	// Near-silence loses the level component.
	quiet := testAudio(make([]float64, 16000*3), 16000)
	for i := range quiet.PCM {
		quiet.PCM[i] = 0.00001 * math.Sin(float64(i))
	}
	assert.Less(t, QualityScore(quiet), 60.0)
}

func TestCosineSimilarity(t *testing.T) {
	a := []float64{1, 0, 0}
	b := []float64{0, 1, 0}

	cos, err := CosineSimilarity(a, a)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, cos, 1e-12)

	cos, err = CosineSimilarity(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, cos, 1e-12)

	neg := []float64{-1, 0, 0}
	cos, err = CosineSimilarity(a, neg)
	require.NoError(t, err)
	assert.InDelta(t, -1.0, cos, 1e-12)
}

func TestCosineSimilarityDimensionMismatch(t *testing.T) {
	_, err := CosineSimilarity([]float64{1, 0}, []float64{1, 0, 0})
	require.Error(t, err)
	assert.Equal(t, common.ErrCodeEmbeddingDimMismatch, common.ErrorCode(err))
}

func TestConfidence(t *testing.T) {
	assert.InDelta(t, 100.0, Confidence(1.0), 1e-12)
	assert.InDelta(t, 50.0, Confidence(0.0), 1e-12)
	assert.InDelta(t, 0.0, Confidence(-1.0), 1e-12)
}
