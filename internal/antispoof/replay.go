package antispoof

import (
	"context"

	"github.com/voxmaster/voice-engine/pkg/audio/analysis"
)

// ReplayCheck looks for the band-limiting left by a playback-and-recapture
// chain. Live captures keep measurable energy above the cutoff from breath
// noise and fricatives; a loudspeaker re-recording loses it.
type ReplayCheck struct {
	cutoffHz float64
	minRatio float64
}

// NewReplayCheck creates the replay detector.
func NewReplayCheck(config *Config) *ReplayCheck {
	return &ReplayCheck{
		cutoffHz: config.ReplayHighBandCutoffHz,
		minRatio: config.ReplayHighBandMinRatio,
	}
}

func (c *ReplayCheck) Name() string { return "replay" }

// Assess averages the high-band energy fraction over active frames. A sample
// with effectively zero energy above the cutoff is flagged as replayed.
func (c *ReplayCheck) Assess(ctx context.Context, sample *Sample) (bool, error) {
	audio := sample.Perceptual
	nyquist := float64(audio.SampleRate) / 2
	if c.cutoffHz >= nyquist {
		// View too narrow to measure the band; cannot flag.
		return false, nil
	}

	analyzer := analysis.NewSpectralAnalyzer(audio.SampleRate)
	windowLen := audio.SampleRate * 25 / 1000
	hopLen := audio.SampleRate * 10 / 1000
	if len(audio.PCM) < windowLen {
		return false, nil
	}

	ratioSum := 0.0
	frames := 0
	var freqs []float64

	for start := 0; start+windowLen <= len(audio.PCM); start += hopLen {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		frame := audio.PCM[start : start+windowLen]
		magnitude := analyzer.MagnitudeSpectrum(frame)
		if freqs == nil {
			freqs = analyzer.GetFrequencyBins(len(magnitude))
		}
		if analyzer.Energy(magnitude) < 1e-10 {
			continue
		}

		ratioSum += analyzer.BandEnergyRatio(magnitude, freqs, c.cutoffHz, nyquist)
		frames++
	}

	if frames == 0 {
		return false, nil
	}
	return ratioSum/float64(frames) < c.minRatio, nil
}
