package antispoof

import (
	"context"
	"math"

	"github.com/voxmaster/voice-engine/pkg/audio/analysis"
)

// SynthesisCheck flags unnaturally smooth pitch and amplitude trajectories.
// Human phonation always carries cycle-to-cycle perturbation; a trajectory
// below the jitter and shimmer floors at the same time reads as synthetic.
type SynthesisCheck struct {
	maxJitter  float64
	maxShimmer float64
}

// NewSynthesisCheck creates the AI-generation detector.
func NewSynthesisCheck(config *Config) *SynthesisCheck {
	return &SynthesisCheck{
		maxJitter:  config.SynthesisMaxJitter,
		maxShimmer: config.SynthesisMaxShimmer,
	}
}

func (c *SynthesisCheck) Name() string { return "synthesis" }

// Assess tracks pitch over the sample and measures trajectory perturbation.
// Unvoiced samples cannot be assessed and pass.
func (c *SynthesisCheck) Assess(ctx context.Context, sample *Sample) (bool, error) {
	periods, peaks, err := voicedTrajectory(ctx, sample)
	if err != nil {
		return false, err
	}
	if len(periods) < 10 {
		return false, nil
	}

	jitter := analysis.PerturbationPercent(periods)
	shimmer := analysis.PerturbationPercent(peaks)

	return jitter < c.maxJitter && shimmer < c.maxShimmer, nil
}

// voicedTrajectory collects pitch periods and frame peak amplitudes over the
// voiced frames of the harmonic view.
func voicedTrajectory(ctx context.Context, sample *Sample) (periods, peaks []float64, err error) {
	audio := sample.Harmonic
	minF0, maxF0 := sample.AudioType.PitchBounds()
	tracker := analysis.NewPitchTracker(audio.SampleRate, minF0, maxF0)

	frameLen := tracker.FrameLength()
	hopLen := audio.SampleRate * 10 / 1000
	if len(audio.PCM) < frameLen {
		return nil, nil, nil
	}

	for start := 0; start+frameLen <= len(audio.PCM); start += hopLen {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		frame := audio.PCM[start : start+frameLen]
		f0, _ := tracker.DetectFrame(frame)
		if f0 == 0 {
			continue
		}

		peak := 0.0
		for _, s := range frame {
			if a := math.Abs(s); a > peak {
				peak = a
			}
		}
		periods = append(periods, 1.0/f0)
		peaks = append(peaks, peak)
	}
	return periods, peaks, nil
}
