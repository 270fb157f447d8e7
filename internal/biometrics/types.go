package biometrics

import (
	"time"

	"github.com/voxmaster/voice-engine/pkg/audio/common"
)

// SignatureStatus marks whether a signature can still match probes.
type SignatureStatus string

const (
	StatusActive  SignatureStatus = "active"
	StatusRevoked SignatureStatus = "revoked"
)

// SampleEmbedding is one enrollment sample's contribution to a signature.
// Only derived vectors are kept; the audio that produced them is gone by the
// time this struct exists.
type SampleEmbedding struct {
	Vector    []float64        `json:"vector"`
	Quality   float64          `json:"quality"`
	AudioType common.AudioType `json:"audio_type"`
	Duration  time.Duration    `json:"duration"`
}

// VoiceSignature is an enrolled voice identity: per-mode centroids aggregated
// from the contributing samples, plus the quality score that rates how
// trustworthy matches against it are.
type VoiceSignature struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Status       SignatureStatus `json:"status"`
	QualityScore float64         `json:"quality_score"`

	Samples   []SampleEmbedding              `json:"samples"`
	Centroids map[common.AudioType][]float64 `json:"centroids"`
}

// HasCentroid reports whether a centroid exists for the given mode.
func (s *VoiceSignature) HasCentroid(t common.AudioType) bool {
	_, ok := s.Centroids[t]
	return ok
}

// CentroidFor returns the centroid for the requested mode, falling back to
// the other mode when the requested one was never enrolled. A probe spoken
// against a sung-only signature still gets a best-effort comparison.
func (s *VoiceSignature) CentroidFor(t common.AudioType) ([]float64, bool) {
	if c, ok := s.Centroids[t]; ok {
		return c, true
	}
	for _, c := range s.Centroids {
		return c, true
	}
	return nil, false
}

// clone returns a deep copy whose vectors share no backing arrays with the
// receiver, so readers and the store can never observe each other's writes.
func (s *VoiceSignature) clone() *VoiceSignature {
	out := *s
	out.Samples = make([]SampleEmbedding, len(s.Samples))
	copy(out.Samples, s.Samples)
	for i := range out.Samples {
		out.Samples[i].Vector = append([]float64(nil), s.Samples[i].Vector...)
	}
	out.Centroids = make(map[common.AudioType][]float64, len(s.Centroids))
	for t, c := range s.Centroids {
		out.Centroids[t] = append([]float64(nil), c...)
	}
	return &out
}

// MatchResult is the outcome of scoring one probe against the signature set.
type MatchResult struct {
	Match       bool    `json:"match"`
	Confidence  float64 `json:"confidence"`
	MatchedID   string  `json:"matched_signature_id,omitempty"`
	MatchedName string  `json:"matched_signature_name,omitempty"`

	// Cosine is the raw similarity behind Confidence, for logging.
	Cosine float64 `json:"-"`
}
