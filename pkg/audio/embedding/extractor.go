package embedding

import (
	"context"
	"math"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"gonum.org/v1/gonum/floats"

	"github.com/voxmaster/voice-engine/pkg/audio/analysis"
	"github.com/voxmaster/voice-engine/pkg/audio/common"
)

// Dimensions is the fixed speaker embedding dimensionality.
const Dimensions = 256

const (
	mfccCount   = 40
	windowMs    = 25
	hopMs       = 10
	clippingCap = 0.99
)

// Result carries one extracted embedding with its reliability score.
type Result struct {
	Vector  []float64 // L2-normalized, Dimensions long
	Quality float64   // 0-100
}

// Extractor derives fixed-length speaker vectors from normalized PCM. The
// vector is a deterministic function of the audio: identical input always
// produces an identical embedding.
type Extractor struct {
	logger logging.Logger
}

// NewExtractor creates an embedding extractor.
func NewExtractor(logger logging.Logger) *Extractor {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Extractor{logger: logger}
}

// Extract computes the speaker embedding for one sample: per-frame MFCC and
// chroma statistics concatenated, zero-padded to Dimensions, L2-normalized.
// Fails with INSUFFICIENT_AUDIO when no frames carry signal.
func (e *Extractor) Extract(ctx context.Context, audio *common.AudioData) (*Result, error) {
	windowLen := audio.SampleRate * windowMs / 1000
	hopLen := audio.SampleRate * hopMs / 1000
	if len(audio.PCM) < windowLen {
		return nil, common.NewEngineError(common.ErrCodeInsufficientAudio,
			"audio shorter than one embedding frame", nil)
	}

	spectral := analysis.NewSpectralAnalyzer(audio.SampleRate)
	cepstral := analysis.NewCepstralAnalyzer(audio.SampleRate)

	mfccSum := make([]float64, mfccCount)
	mfccSqSum := make([]float64, mfccCount)
	chromaSum := make([]float64, 12)
	frames := 0
	var freqs []float64

	for start := 0; start+windowLen <= len(audio.PCM); start += hopLen {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		frame := audio.PCM[start : start+windowLen]
		magnitude := spectral.MagnitudeSpectrum(frame)
		if freqs == nil {
			freqs = spectral.GetFrequencyBins(len(magnitude))
		}

		mfcc := cepstral.MFCC(magnitude, mfccCount, mfccCount)
		chroma := cepstral.Chroma(magnitude, freqs)

		valid := true
		for _, c := range mfcc {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				valid = false
				break
			}
		}
		if !valid {
			continue
		}

		for i, c := range mfcc {
			mfccSum[i] += c
			mfccSqSum[i] += c * c
		}
		floats.Add(chromaSum, chroma)
		frames++
	}

	if frames == 0 {
		return nil, common.NewEngineError(common.ErrCodeInsufficientAudio,
			"no usable frames for embedding extraction", nil)
	}

	n := float64(frames)
	vector := make([]float64, Dimensions)
	for i := range mfccCount {
		mean := mfccSum[i] / n
		variance := mfccSqSum[i]/n - mean*mean
		if variance < 0 {
			variance = 0
		}
		vector[i] = mean
		vector[mfccCount+i] = math.Sqrt(variance)
	}
	for i := range chromaSum {
		vector[2*mfccCount+i] = chromaSum[i] / n
	}

	norm := floats.Norm(vector, 2)
	if norm > 1e-8 {
		floats.Scale(1/norm, vector)
	}

	quality := QualityScore(audio)

	e.logger.Debug("Speaker embedding extracted", logging.Fields{
		"frames":  frames,
		"quality": quality,
	})

	return &Result{Vector: vector, Quality: quality}, nil
}

// QualityScore rates how reliable an embedding from this audio will be,
// combining duration adequacy, clipping, and signal level into 0-100.
func QualityScore(audio *common.AudioData) float64 {
	duration := audio.Duration.Seconds()

	var durationScore float64
	switch {
	case duration < 1:
		durationScore = duration * 50
	case duration <= 4:
		durationScore = 100
	default:
		durationScore = math.Max(50, 100-(duration-4)*5)
	}

	clipped := 0
	for _, s := range audio.PCM {
		if math.Abs(s) > clippingCap {
			clipped++
		}
	}
	clippingRatio := 0.0
	if len(audio.PCM) > 0 {
		clippingRatio = float64(clipped) / float64(len(audio.PCM))
	}
	clippingScore := 100 - clippingRatio*200

	rmsScore := math.Min(100, audio.RMS()*1000)

	quality := 0.4*durationScore + 0.3*clippingScore + 0.3*rmsScore
	return math.Max(0, math.Min(100, quality))
}

// CosineSimilarity returns the cosine of the angle between two embeddings.
// Vectors must share the fixed dimensionality.
func CosineSimilarity(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, common.NewEngineError(common.ErrCodeEmbeddingDimMismatch,
			"embedding dimensions differ", nil)
	}
	normA := floats.Norm(a, 2)
	normB := floats.Norm(b, 2)
	if normA < 1e-12 || normB < 1e-12 {
		return 0, nil
	}
	return floats.Dot(a, b) / (normA * normB), nil
}

// Confidence maps a cosine similarity in [-1, 1] onto a 0-100 scale.
func Confidence(cosine float64) float64 {
	c := (cosine + 1) * 50
	return math.Max(0, math.Min(100, c))
}
