package ingest

import (
	"math"

	"github.com/voxmaster/voice-engine/pkg/audio/common"
)

// TrimSilence removes leading and trailing low-energy audio using a frame RMS
// gate. Interior pauses are kept; only the edges are cut.
func TrimSilence(audio *common.AudioData, threshold float64, frameMs int) *common.AudioData {
	if len(audio.PCM) == 0 {
		return audio
	}
	frameLen := audio.SampleRate * frameMs / 1000
	if frameLen <= 0 {
		frameLen = 1
	}

	start := 0
	for ; start+frameLen <= len(audio.PCM); start += frameLen {
		if frameRMS(audio.PCM[start:start+frameLen]) >= threshold {
			break
		}
	}

	end := len(audio.PCM)
	for ; end-frameLen >= start; end -= frameLen {
		if frameRMS(audio.PCM[end-frameLen:end]) >= threshold {
			break
		}
	}

	if start >= end {
		return &common.AudioData{
			PCM:        nil,
			SampleRate: audio.SampleRate,
			Channels:   1,
			Duration:   0,
		}
	}

	trimmed := audio.PCM[start:end]
	return &common.AudioData{
		PCM:        trimmed,
		SampleRate: audio.SampleRate,
		Channels:   1,
		Duration:   durationOf(len(trimmed), audio.SampleRate),
	}
}

// NormalizeLoudness scales the buffer to the target RMS level in dBFS so that
// downstream thresholds are comparable across recordings. Samples are clamped
// to [-1, 1] after scaling.
func NormalizeLoudness(audio *common.AudioData, targetDB float64) {
	rms := audio.RMS()
	if rms <= 0 {
		return
	}
	targetRMS := math.Pow(10, targetDB/20.0)
	gain := targetRMS / rms
	for i, s := range audio.PCM {
		v := s * gain
		if v > 1.0 {
			v = 1.0
		} else if v < -1.0 {
			v = -1.0
		}
		audio.PCM[i] = v
	}
}

// ClippingRatio reports the fraction of samples at or near full scale.
// Measured before loudness normalization so the gain does not mask or invent
// clipping.
func ClippingRatio(audio *common.AudioData) float64 {
	if len(audio.PCM) == 0 {
		return 0
	}
	clipped := 0
	for _, s := range audio.PCM {
		if math.Abs(s) > 0.99 {
			clipped++
		}
	}
	return float64(clipped) / float64(len(audio.PCM))
}

func frameRMS(frame []float64) float64 {
	sum := 0.0
	for _, s := range frame {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(frame)))
}
