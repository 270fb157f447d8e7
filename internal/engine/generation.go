package engine

import (
	"context"
	"math"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/voxmaster/voice-engine/internal/scoring"
	"github.com/voxmaster/voice-engine/pkg/audio/analysis"
	"github.com/voxmaster/voice-engine/pkg/audio/common"
	"github.com/voxmaster/voice-engine/pkg/audio/embedding"
)

// styleTargets are the perceptual values a voice type is expected to land
// on: vocal weight, pitch variance, and presence, each 0-100.
type styleTargets struct {
	weight        float64
	pitchVariance float64
	presence      float64
	description   string
}

var voiceTypeTargets = map[VoiceType]styleTargets{
	VoiceCommand:     {weight: 75, pitchVariance: 25, presence: 75, description: "Authoritative, high presence"},
	VoiceIntimate:    {weight: 25, pitchVariance: 50, presence: 50, description: "Warm, soft, close proximity"},
	VoiceStoryteller: {weight: 50, pitchVariance: 75, presence: 50, description: "Engaging, dynamic range"},
	VoiceWhisper:     {weight: 25, pitchVariance: 25, presence: 25, description: "Breathy, low volume"},
	VoiceUrgent:      {weight: 75, pitchVariance: 50, presence: 75, description: "Fast-paced, high energy"},
}

// profileTargets are the clarity/warmth/presence metrics a perceptual
// profile optimizes toward.
type profileTargets struct {
	clarity  float64
	warmth   float64
	presence float64
	name     string
}

var perceptualProfileTargets = map[PerceptualProfile]profileTargets{
	ProfilePodcast:   {clarity: 85, warmth: 60, presence: 75, name: "Podcast Clarity"},
	ProfileWarm:      {clarity: 65, warmth: 85, presence: 55, name: "Warm/Intimate"},
	ProfileBroadcast: {clarity: 90, warmth: 50, presence: 80, name: "Broadcast"},
	ProfileASMR:      {clarity: 70, warmth: 75, presence: 40, name: "ASMR"},
}

var titleCaser = cases.Title(language.English)

// VoiceTypeInfo describes one delivery style for catalog endpoints.
type VoiceTypeInfo struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Targets     map[string]float64 `json:"targets"`
}

// VoiceTypeCatalog lists the supported voice types with their targets.
func VoiceTypeCatalog() []VoiceTypeInfo {
	out := make([]VoiceTypeInfo, 0, len(voiceTypeTargets))
	for _, vt := range VoiceTypes() {
		t := voiceTypeTargets[vt]
		out = append(out, VoiceTypeInfo{
			ID:          string(vt),
			Name:        titleCaser.String(string(vt)),
			Description: t.description,
			Targets: map[string]float64{
				"weight":         t.weight,
				"pitch_variance": t.pitchVariance,
				"presence":       t.presence,
			},
		})
	}
	return out
}

// ProfileInfo describes one perceptual profile for catalog endpoints.
type ProfileInfo struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	TargetMetrics map[string]float64 `json:"target_metrics"`
}

// PerceptualProfileCatalog lists the supported profiles with their targets.
func PerceptualProfileCatalog() []ProfileInfo {
	out := make([]ProfileInfo, 0, len(perceptualProfileTargets))
	for _, p := range PerceptualProfiles() {
		t := perceptualProfileTargets[p]
		out = append(out, ProfileInfo{
			ID:   string(p),
			Name: t.name,
			TargetMetrics: map[string]float64{
				"clarity":  t.clarity,
				"warmth":   t.warmth,
				"presence": t.presence,
			},
		})
	}
	return out
}

// ScoreGeneration re-runs the analysis and matching pipeline over generated
// audio and rates it against the target signature and requested style.
func (e *Engine) ScoreGeneration(ctx context.Context, req *GenerationScoreRequest) (*VerificationScores, error) {
	ctx, cancel := context.WithTimeout(ctx, e.config.ProcessingTimeout)
	defer cancel()

	if !req.VoiceType.Valid() {
		req.VoiceType = VoiceStoryteller
	}
	if !req.PerceptualProfile.Valid() {
		req.PerceptualProfile = ProfilePodcast
	}

	target, err := e.store.Get(req.SignatureID)
	if err != nil {
		return nil, err
	}

	audioType := common.ParseAudioType(req.Audio.AudioType)
	ingested, err := e.ingestor.Ingest(ctx, req.Audio.Data, req.Audio.MimeType, audioType, e.config.MinAnalysisDuration)
	if err != nil {
		return nil, e.wrapTimeout(ctx, err)
	}
	defer ingested.Zero()

	var (
		probe    *embedding.Result
		features *analysis.AcousticFeatures
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		probe, err = e.embedder.Extract(gctx, ingested.Embedding)
		return err
	})
	g.Go(func() error {
		var err error
		features, err = e.features.ExtractFeatures(gctx, ingested.Perceptual, ingested.Embedding, audioType)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, e.wrapTimeout(ctx, err)
	}

	score := e.scorer.Score(features, audioType)

	identity := 0.0
	if centroid, ok := target.CentroidFor(audioType); ok {
		cos, err := embedding.CosineSimilarity(probe.Vector, centroid)
		if err != nil {
			return nil, err
		}
		identity = embedding.Confidence(cos)
	}

	scores := &VerificationScores{
		IdentityMatch:     identity,
		VoiceTypeAccuracy: voiceTypeAccuracy(req.VoiceType, score, features),
		PerceptualMatch:   perceptualMatch(req.PerceptualProfile, score),
	}

	e.logger.Info("Generation scored", logging.Fields{
		"signature_id":   req.SignatureID,
		"voice_type":     string(req.VoiceType),
		"profile":        string(req.PerceptualProfile),
		"identity_match": scores.IdentityMatch,
	})
	return scores, nil
}

// voiceTypeAccuracy measures how close the generated delivery landed on the
// requested style's weight, pitch variance, and presence targets.
func voiceTypeAccuracy(voiceType VoiceType, score *scoring.PerceptualScore, features *analysis.AcousticFeatures) float64 {
	targets := voiceTypeTargets[voiceType]

	presence := score.SweetSpot.Presence
	weight := score.Weight.Weight
	pitchVariance := pitchVarianceScore(features)

	deviation := (math.Abs(weight-targets.weight) +
		math.Abs(pitchVariance-targets.pitchVariance) +
		math.Abs(presence-targets.presence)) / 3

	return clampScore(100 - deviation)
}

// pitchVarianceScore maps the relative F0 excursion onto 0-100. A range of
// 60% of the mean F0 or more counts as maximally varied delivery.
func pitchVarianceScore(features *analysis.AcousticFeatures) float64 {
	if !features.Voiced || len(features.F0Range) != 2 || features.F0Mean <= 0 {
		return 0
	}
	relative := (features.F0Range[1] - features.F0Range[0]) / features.F0Mean
	return clampScore(relative / 0.6 * 100)
}

// perceptualMatch measures distance from the profile's clarity, warmth, and
// presence targets.
func perceptualMatch(profile PerceptualProfile, score *scoring.PerceptualScore) float64 {
	targets := perceptualProfileTargets[profile]

	deviation := (math.Abs(score.SweetSpot.Clarity-targets.clarity) +
		math.Abs(score.SweetSpot.Warmth-targets.warmth) +
		math.Abs(score.SweetSpot.Presence-targets.presence)) / 3

	return clampScore(100 - deviation)
}

func clampScore(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
