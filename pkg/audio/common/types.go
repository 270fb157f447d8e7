package common

import (
	"math"
	"time"
)

// AudioType distinguishes spoken from sung material. It selects pitch search
// bounds during analysis and the centroid stream an embedding contributes to.
type AudioType string

const (
	AudioTypeSpoken AudioType = "spoken"
	AudioTypeSung   AudioType = "sung"
)

// ParseAudioType maps a request string to an AudioType, defaulting to spoken.
func ParseAudioType(s string) AudioType {
	if AudioType(s) == AudioTypeSung {
		return AudioTypeSung
	}
	return AudioTypeSpoken
}

// PitchBounds returns the F0 search range in Hz for this audio type.
func (t AudioType) PitchBounds() (minHz, maxHz float64) {
	if t == AudioTypeSung {
		return 50.0, 1000.0
	}
	return 75.0, 500.0
}

// AudioData holds decoded mono PCM in [-1, 1].
//
// Buffers are ephemeral: they exist only for the lifetime of a request and
// must be scrubbed with Zero once feature and embedding extraction completes.
type AudioData struct {
	PCM        []float64     `json:"-"`
	SampleRate int           `json:"sample_rate"`
	Channels   int           `json:"channels"`
	Duration   time.Duration `json:"duration"`
}

// Zero overwrites the PCM buffer and drops the reference. Raw audio never
// outlives the request that carried it.
func (a *AudioData) Zero() {
	if a == nil {
		return
	}
	for i := range a.PCM {
		a.PCM[i] = 0
	}
	a.PCM = nil
}

// RMS returns the root-mean-square level of the buffer.
func (a *AudioData) RMS() float64 {
	if a == nil || len(a.PCM) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range a.PCM {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(a.PCM)))
}
