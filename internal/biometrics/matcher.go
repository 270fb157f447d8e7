package biometrics

import (
	"math"

	"github.com/RyanBlaney/latency-benchmark-common/logging"

	"github.com/voxmaster/voice-engine/pkg/audio/common"
	"github.com/voxmaster/voice-engine/pkg/audio/embedding"
)

const (
	// DefaultThreshold is the minimum probe-to-centroid cosine for a match.
	DefaultThreshold = 0.72
	// DefaultMargin is the minimum top-vs-second cosine gap in 1:N mode.
	// Two near-equidistant signatures must not produce a confident accept.
	DefaultMargin = 0.05
)

// Matcher scores probe embeddings against stored signatures.
type Matcher struct {
	threshold float64
	margin    float64
	logger    logging.Logger
}

// NewMatcher creates a matcher. Non-positive threshold or margin select the
// defaults.
func NewMatcher(threshold, margin float64, logger logging.Logger) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if margin <= 0 {
		margin = DefaultMargin
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Matcher{threshold: threshold, margin: margin, logger: logger}
}

// VerifyAgainst scores a probe against one target signature (1:1).
func (m *Matcher) VerifyAgainst(probe []float64, audioType common.AudioType, target *VoiceSignature) (*MatchResult, error) {
	centroid, ok := target.CentroidFor(audioType)
	if !ok {
		return &MatchResult{Confidence: 0}, nil
	}

	cos, err := embedding.CosineSimilarity(probe, centroid)
	if err != nil {
		return nil, err
	}

	result := &MatchResult{
		Match:      cos >= m.threshold,
		Confidence: embedding.Confidence(cos),
		Cosine:     cos,
	}
	if result.Match {
		result.MatchedID = target.ID
		result.MatchedName = target.Name
	}

	m.logger.Debug("Verification scored", logging.Fields{
		"signature_id": target.ID,
		"cosine":       cos,
		"match":        result.Match,
	})
	return result, nil
}

// Identify scores a probe against every candidate (1:N). A match requires the
// best cosine to clear the threshold and lead the runner-up by the margin.
// An empty candidate set or a sub-threshold best is a normal no-match result.
func (m *Matcher) Identify(probe []float64, audioType common.AudioType, candidates []*VoiceSignature) (*MatchResult, error) {
	best := math.Inf(-1)
	second := math.Inf(-1)
	var bestSig *VoiceSignature

	for _, candidate := range candidates {
		centroid, ok := candidate.CentroidFor(audioType)
		if !ok {
			continue
		}
		cos, err := embedding.CosineSimilarity(probe, centroid)
		if err != nil {
			return nil, err
		}
		if cos > best {
			second = best
			best = cos
			bestSig = candidate
		} else if cos > second {
			second = cos
		}
	}

	if bestSig == nil {
		return &MatchResult{Confidence: 0}, nil
	}

	result := &MatchResult{
		Confidence: embedding.Confidence(best),
		Cosine:     best,
	}

	clearsThreshold := best >= m.threshold
	clearsMargin := math.IsInf(second, -1) || best-second >= m.margin
	if clearsThreshold && clearsMargin {
		result.Match = true
		result.MatchedID = bestSig.ID
		result.MatchedName = bestSig.Name
	}

	m.logger.Debug("Identification scored", logging.Fields{
		"candidates":    len(candidates),
		"best_cosine":   best,
		"second_cosine": second,
		"match":         result.Match,
	})
	return result, nil
}
