package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/RyanBlaney/latency-benchmark-common/logging"

	"github.com/voxmaster/voice-engine/pkg/audio/common"
)

// Config controls decoding and normalization.
type Config struct {
	EmbeddingSampleRate  int           // canonical rate for embeddings and anti-spoofing
	PerceptualSampleRate int           // retained rate for perceptual feature analysis
	SilenceThreshold     float64       // frame RMS gate for edge trimming
	SilenceFrameMs       int           // gate frame length in milliseconds
	TargetLoudnessDB     float64       // RMS normalization target in dBFS
	MinDuration          time.Duration // minimum post-trim duration
}

// DefaultConfig returns ingest settings matching the analysis pipeline's
// expectations: 16 kHz embedding view, 44.1 kHz perceptual view, -23 dBFS.
func DefaultConfig() *Config {
	return &Config{
		EmbeddingSampleRate:  16000,
		PerceptualSampleRate: 44100,
		SilenceThreshold:     0.02,
		SilenceFrameMs:       25,
		TargetLoudnessDB:     -23.0,
		MinDuration:          500 * time.Millisecond,
	}
}

// Result carries the two resampled views of one ingested sample. Both views
// share the request's lifetime; callers scrub them with Zero when extraction
// is done.
type Result struct {
	Embedding  *common.AudioData
	Perceptual *common.AudioData
	Type       common.AudioType
}

// Zero scrubs both PCM views.
func (r *Result) Zero() {
	if r == nil {
		return
	}
	r.Embedding.Zero()
	r.Perceptual.Zero()
}

// Ingestor decodes, trims, loudness-normalizes, and resamples request audio.
type Ingestor struct {
	config *Config
	logger logging.Logger
}

// NewIngestor creates an ingestor. A nil config selects DefaultConfig.
func NewIngestor(config *Config, logger logging.Logger) *Ingestor {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Ingestor{config: config, logger: logger}
}

// Ingest turns encoded bytes into the normalized views the extractors expect.
// minDuration overrides the configured minimum when positive (enrollment
// demands longer samples than verification).
func (i *Ingestor) Ingest(ctx context.Context, data []byte, mimeType string, audioType common.AudioType, minDuration time.Duration) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if minDuration <= 0 {
		minDuration = i.config.MinDuration
	}

	decoded, err := Decode(data, mimeType)
	if err != nil {
		return nil, err
	}
	if decoded.Duration == 0 {
		return nil, common.NewEngineError(common.ErrCodeUnsupportedFormat,
			"decoded audio has zero duration", nil)
	}

	trimmed := TrimSilence(decoded, i.config.SilenceThreshold, i.config.SilenceFrameMs)
	if trimmed.Duration < minDuration {
		return nil, common.NewEngineError(common.ErrCodeInsufficientAudio,
			fmt.Sprintf("audio too short after silence trimming: %.2fs remaining, %.2fs required",
				trimmed.Duration.Seconds(), minDuration.Seconds()), nil)
	}

	clipping := ClippingRatio(trimmed)
	NormalizeLoudness(trimmed, i.config.TargetLoudnessDB)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	embeddingView, err := Resample(trimmed, i.config.EmbeddingSampleRate)
	if err != nil {
		return nil, common.NewEngineError(common.ErrCodeUnsupportedFormat,
			"failed to resample to embedding rate", err)
	}
	perceptualView, err := Resample(trimmed, i.config.PerceptualSampleRate)
	if err != nil {
		return nil, common.NewEngineError(common.ErrCodeUnsupportedFormat,
			"failed to resample to perceptual rate", err)
	}

	// The intermediate decode buffer is no longer needed.
	decoded.Zero()

	i.logger.Debug("Audio ingested", logging.Fields{
		"source_rate": decoded.SampleRate,
		"duration_s":  perceptualView.Duration.Seconds(),
		"audio_type":  string(audioType),
		"clipping":    clipping,
	})

	return &Result{
		Embedding:  embeddingView,
		Perceptual: perceptualView,
		Type:       audioType,
	}, nil
}
