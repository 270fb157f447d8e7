package antispoof

import (
	"context"
	"math"

	"github.com/voxmaster/voice-engine/pkg/audio/analysis"
)

// LivenessCheck is the positive counterpart to the two fraud checks: it looks
// for the micro-variation a live human utterance exhibits. Voiced frames must
// carry pitch perturbation and the level contour must actually move.
type LivenessCheck struct {
	minJitter         float64
	minLevelVariation float64
}

// NewLivenessCheck creates the liveness verifier.
func NewLivenessCheck(config *Config) *LivenessCheck {
	return &LivenessCheck{
		minJitter:         config.LivenessMinJitter,
		minLevelVariation: config.LivenessMinLevelVariation,
	}
}

func (c *LivenessCheck) Name() string { return "liveness" }

// Assess verifies natural micro-variation. A sample with no voiced frames, a
// frozen pitch contour, or flat dynamics fails.
func (c *LivenessCheck) Assess(ctx context.Context, sample *Sample) (bool, error) {
	periods, _, err := voicedTrajectory(ctx, sample)
	if err != nil {
		return false, err
	}
	if len(periods) < 10 {
		return false, nil
	}
	if analysis.PerturbationPercent(periods) < c.minJitter {
		return false, nil
	}

	variation, err := c.levelVariation(ctx, sample.Harmonic.PCM, sample.Harmonic.SampleRate)
	if err != nil {
		return false, err
	}
	return variation >= c.minLevelVariation, nil
}

// levelVariation is the coefficient of variation of frame RMS levels.
func (c *LivenessCheck) levelVariation(ctx context.Context, pcm []float64, sampleRate int) (float64, error) {
	windowLen := sampleRate * 25 / 1000
	hopLen := sampleRate * 10 / 1000
	if len(pcm) < windowLen {
		return 0, nil
	}

	var levels []float64
	for start := 0; start+windowLen <= len(pcm); start += hopLen {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		sum := 0.0
		for _, s := range pcm[start : start+windowLen] {
			sum += s * s
		}
		levels = append(levels, math.Sqrt(sum/float64(windowLen)))
	}
	if len(levels) < 2 {
		return 0, nil
	}

	mean := 0.0
	for _, l := range levels {
		mean += l
	}
	mean /= float64(len(levels))
	if mean < 1e-10 {
		return 0, nil
	}

	variance := 0.0
	for _, l := range levels {
		variance += (l - mean) * (l - mean)
	}
	variance /= float64(len(levels))

	return math.Sqrt(variance) / mean, nil
}
