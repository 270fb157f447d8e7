package biometrics

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"

	"github.com/voxmaster/voice-engine/pkg/audio/common"
	"github.com/voxmaster/voice-engine/pkg/audio/embedding"
)

// MinEnrollmentSamples is the minimum number of valid samples required to
// build a signature.
const MinEnrollmentSamples = 3

// cohesionFloor is the sample-to-centroid cosine below which a sample set is
// considered fully dispersed for quality purposes.
const cohesionFloor = 0.4

// BuildSignature aggregates enrollment samples into a new signature with one
// centroid per audio type present. Fails with INSUFFICIENT_SAMPLES when fewer
// than MinEnrollmentSamples valid samples are supplied.
func BuildSignature(name string, samples []SampleEmbedding) (*VoiceSignature, error) {
	if len(samples) < MinEnrollmentSamples {
		return nil, common.NewEngineError(common.ErrCodeInsufficientSamples,
			fmt.Sprintf("enrollment requires at least %d valid samples, got %d",
				MinEnrollmentSamples, len(samples)), nil)
	}

	dims := len(samples[0].Vector)
	byType := make(map[common.AudioType][][]float64)
	for i, sample := range samples {
		if len(sample.Vector) != dims {
			return nil, common.NewEngineError(common.ErrCodeEmbeddingDimMismatch,
				fmt.Sprintf("sample %d has %d dimensions, expected %d",
					i, len(sample.Vector), dims), nil)
		}
		byType[sample.AudioType] = append(byType[sample.AudioType], sample.Vector)
	}

	centroids := make(map[common.AudioType][]float64, len(byType))
	for audioType, vectors := range byType {
		centroids[audioType] = centroidOf(vectors, dims)
	}

	now := time.Now().UTC()
	return &VoiceSignature{
		ID:           uuid.NewString(),
		Name:         name,
		CreatedAt:    now,
		UpdatedAt:    now,
		Status:       StatusActive,
		QualityScore: signatureQuality(samples, centroids),
		Samples:      samples,
		Centroids:    centroids,
	}, nil
}

// centroidOf is the L2-normalized mean of a vector set.
func centroidOf(vectors [][]float64, dims int) []float64 {
	centroid := make([]float64, dims)
	for _, v := range vectors {
		floats.Add(centroid, v)
	}
	floats.Scale(1/float64(len(vectors)), centroid)

	if norm := floats.Norm(centroid, 2); norm > 1e-12 {
		floats.Scale(1/norm, centroid)
	}
	return centroid
}

// signatureQuality combines mean sample quality with embedding cohesion: the
// average cosine between each sample and its mode centroid. Tight clusters
// keep the full sample quality; divergent samples collapse toward zero and
// flag the enrollment for re-recording.
func signatureQuality(samples []SampleEmbedding, centroids map[common.AudioType][]float64) float64 {
	qualitySum := 0.0
	cohesionSum := 0.0
	cohesionCount := 0

	for _, sample := range samples {
		qualitySum += sample.Quality
		centroid, ok := centroids[sample.AudioType]
		if !ok {
			continue
		}
		cos, err := embedding.CosineSimilarity(sample.Vector, centroid)
		if err != nil {
			continue
		}
		cohesionSum += cos
		cohesionCount++
	}

	meanQuality := qualitySum / float64(len(samples))
	if cohesionCount == 0 {
		return 0
	}
	cohesion := cohesionSum / float64(cohesionCount)

	factor := (cohesion - cohesionFloor) / (1 - cohesionFloor)
	factor = math.Max(0, math.Min(1, factor))

	return math.Max(0, math.Min(100, meanQuality*factor))
}
