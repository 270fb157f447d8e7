package antispoof

import (
	"context"

	"github.com/RyanBlaney/latency-benchmark-common/logging"

	"github.com/voxmaster/voice-engine/pkg/audio/common"
)

// Result carries the three independent verdicts over one ingested sample.
type Result struct {
	ReplayDetected   bool `json:"replay_detected"`
	AIGenerated      bool `json:"ai_generated"`
	LivenessVerified bool `json:"liveness_verified"`
}

// FraudSuspected reports whether a fraud signal fired. Verification fails
// closed on these regardless of embedding similarity.
func (r Result) FraudSuspected() bool {
	return r.ReplayDetected || r.AIGenerated
}

// Sample bundles the ingested views a check may inspect.
type Sample struct {
	// Harmonic is the embedding-rate view used for pitch-domain checks.
	Harmonic *common.AudioData
	// Perceptual is the full-bandwidth view used for spectral checks.
	Perceptual *common.AudioData
	AudioType  common.AudioType
}

// Check is one anti-spoofing strategy. Checks are independent: each sees the
// same sample and answers only its own question.
type Check interface {
	Name() string
	Assess(ctx context.Context, sample *Sample) (bool, error)
}

// Config holds the evaluator's heuristic thresholds.
type Config struct {
	// ReplayHighBandCutoffHz is where the replay check starts measuring
	// high-band energy. Loudspeaker playback re-captured by a mic loses most
	// content above this point.
	ReplayHighBandCutoffHz float64
	// ReplayHighBandMinRatio is the minimum high-band energy fraction a live
	// capture is expected to retain.
	ReplayHighBandMinRatio float64

	// SynthesisMaxJitter and SynthesisMaxShimmer bound how stable a natural
	// voice can be. Trajectories smoother than both read as synthetic.
	SynthesisMaxJitter  float64
	SynthesisMaxShimmer float64

	// LivenessMinJitter is the micro-variation floor for a live utterance.
	LivenessMinJitter float64
	// LivenessMinLevelVariation is the minimum coefficient of variation of
	// frame RMS levels; frozen dynamics fail liveness.
	LivenessMinLevelVariation float64
}

// DefaultConfig returns the tuned thresholds.
func DefaultConfig() *Config {
	return &Config{
		ReplayHighBandCutoffHz:    7000,
		ReplayHighBandMinRatio:    0.0001,
		SynthesisMaxJitter:        0.05,
		SynthesisMaxShimmer:       0.5,
		LivenessMinJitter:         0.05,
		LivenessMinLevelVariation: 0.05,
	}
}

// Evaluator runs the configured checks over one sample.
type Evaluator struct {
	replay    Check
	synthesis Check
	liveness  Check
	logger    logging.Logger
}

// NewEvaluator creates an evaluator with the three standard checks. A nil
// config selects DefaultConfig.
func NewEvaluator(config *Config, logger logging.Logger) *Evaluator {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Evaluator{
		replay:    NewReplayCheck(config),
		synthesis: NewSynthesisCheck(config),
		liveness:  NewLivenessCheck(config),
		logger:    logger,
	}
}

// Evaluate runs all three checks and merges their verdicts.
func (e *Evaluator) Evaluate(ctx context.Context, sample *Sample) (*Result, error) {
	replay, err := e.replay.Assess(ctx, sample)
	if err != nil {
		return nil, err
	}
	synthetic, err := e.synthesis.Assess(ctx, sample)
	if err != nil {
		return nil, err
	}
	live, err := e.liveness.Assess(ctx, sample)
	if err != nil {
		return nil, err
	}

	result := &Result{
		ReplayDetected:   replay,
		AIGenerated:      synthetic,
		LivenessVerified: live,
	}

	e.logger.Debug("Anti-spoofing evaluated", logging.Fields{
		"replay_detected":   result.ReplayDetected,
		"ai_generated":      result.AIGenerated,
		"liveness_verified": result.LivenessVerified,
	})
	return result, nil
}
