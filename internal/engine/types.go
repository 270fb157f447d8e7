package engine

import (
	"time"

	"github.com/voxmaster/voice-engine/internal/antispoof"
	"github.com/voxmaster/voice-engine/internal/scoring"
	"github.com/voxmaster/voice-engine/pkg/audio/analysis"
)

// PromptType describes the recording task the sample came from.
type PromptType string

const (
	PromptSustained PromptType = "sustained"
	PromptPassage   PromptType = "passage"
	PromptVerse     PromptType = "verse"
)

// ParsePromptType maps a request string to a PromptType, defaulting to
// sustained.
func ParsePromptType(s string) PromptType {
	switch PromptType(s) {
	case PromptPassage:
		return PromptPassage
	case PromptVerse:
		return PromptVerse
	default:
		return PromptSustained
	}
}

// VoiceType selects a delivery style for generation.
type VoiceType string

const (
	VoiceCommand     VoiceType = "command"
	VoiceIntimate    VoiceType = "intimate"
	VoiceStoryteller VoiceType = "storyteller"
	VoiceWhisper     VoiceType = "whisper"
	VoiceUrgent      VoiceType = "urgent"
)

// VoiceTypes lists the supported delivery styles.
func VoiceTypes() []VoiceType {
	return []VoiceType{VoiceCommand, VoiceIntimate, VoiceStoryteller, VoiceWhisper, VoiceUrgent}
}

// Valid reports whether the voice type is one of the closed set.
func (v VoiceType) Valid() bool {
	switch v {
	case VoiceCommand, VoiceIntimate, VoiceStoryteller, VoiceWhisper, VoiceUrgent:
		return true
	}
	return false
}

// PerceptualProfile selects target perceptual metrics for generation.
type PerceptualProfile string

const (
	ProfilePodcast   PerceptualProfile = "podcast"
	ProfileWarm      PerceptualProfile = "warm"
	ProfileBroadcast PerceptualProfile = "broadcast"
	ProfileASMR      PerceptualProfile = "asmr"
)

// PerceptualProfiles lists the supported optimization profiles.
func PerceptualProfiles() []PerceptualProfile {
	return []PerceptualProfile{ProfilePodcast, ProfileWarm, ProfileBroadcast, ProfileASMR}
}

// Valid reports whether the profile is one of the closed set.
func (p PerceptualProfile) Valid() bool {
	switch p {
	case ProfilePodcast, ProfileWarm, ProfileBroadcast, ProfileASMR:
		return true
	}
	return false
}

// AudioPayload is one uploaded sample: encoded bytes plus declared metadata.
type AudioPayload struct {
	Data      []byte
	MimeType  string
	Filename  string
	AudioType string
}

// AnalyzeRequest asks for perceptual analysis of one sample.
type AnalyzeRequest struct {
	Audio      AudioPayload
	PromptType string
}

// AnalysisResponse is the full perceptual analysis result.
type AnalysisResponse struct {
	Filename      string                     `json:"filename"`
	AudioType     string                     `json:"audio_type"`
	PromptType    string                     `json:"prompt_type"`
	Timbre        scoring.TimbreScores       `json:"timbre"`
	Weight        scoring.WeightScores       `json:"weight"`
	Placement     scoring.PlacementScores    `json:"placement"`
	SweetSpot     scoring.SweetSpotScore     `json:"sweet_spot"`
	Features      *analysis.AcousticFeatures `json:"features"`
	LowConfidence bool                       `json:"low_confidence"`
	AnalyzedAt    time.Time                  `json:"analyzed_at"`
}

// EnrollRequest creates a voice signature from multiple samples.
type EnrollRequest struct {
	Name    string
	Samples []AudioPayload
}

// EnrollmentResponse reports the created signature.
type EnrollmentResponse struct {
	SignatureID        string  `json:"signature_id"`
	Name               string  `json:"name"`
	SamplesCount       int     `json:"samples_count"`
	QualityScore       float64 `json:"quality_score"`
	HasSpokenCentroid  bool    `json:"has_spoken_centroid"`
	HasSingingCentroid bool    `json:"has_singing_centroid"`
	Status             string  `json:"status"`
}

// VerifyRequest scores a probe against one signature (1:1, SignatureID set)
// or the whole set (1:N, SignatureID empty).
type VerifyRequest struct {
	Audio       AudioPayload
	SignatureID string
}

// VerificationResponse is the verification outcome. "No match" is a normal
// result carried in Match, never an error.
type VerificationResponse struct {
	Match                bool             `json:"match"`
	Confidence           float64          `json:"confidence"`
	MatchedSignatureID   string           `json:"matched_signature_id,omitempty"`
	MatchedSignatureName string           `json:"matched_signature_name,omitempty"`
	AntiSpoofing         antispoof.Result `json:"anti_spoofing"`
}

// SignatureSummary is the listing view of a stored signature.
type SignatureSummary struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	EnrolledAt         time.Time `json:"enrolled_at"`
	SamplesCount       int       `json:"samples_count"`
	QualityScore       float64   `json:"quality_score"`
	Status             string    `json:"status"`
	HasSpokenCentroid  bool      `json:"has_spoken_centroid"`
	HasSingingCentroid bool      `json:"has_singing_centroid"`
}

// GenerationScoreRequest asks for verification scores of generated audio
// against its target signature and requested style.
type GenerationScoreRequest struct {
	Audio             AudioPayload
	SignatureID       string
	VoiceType         VoiceType
	PerceptualProfile PerceptualProfile
}

// VerificationScores rates generated audio on identity and style fidelity.
type VerificationScores struct {
	IdentityMatch     float64 `json:"identity_match"`
	VoiceTypeAccuracy float64 `json:"voice_type_accuracy"`
	PerceptualMatch   float64 `json:"perceptual_match"`
}
