package analysis

import (
	"context"
	"math"

	"github.com/RyanBlaney/latency-benchmark-common/logging"

	"github.com/voxmaster/voice-engine/pkg/audio/common"
)

// Config controls frame geometry for feature extraction.
type Config struct {
	WindowMs         int // spectral analysis window
	HopMs            int // hop between frames
	MFCCCoefficients int
	MelFilters       int
	RolloffThreshold float64
	FrameEnergyFloor float64 // RMS below this is treated as silence
}

// DefaultConfig returns the standard 25 ms / 10 ms frame geometry.
func DefaultConfig() *Config {
	return &Config{
		WindowMs:         25,
		HopMs:            10,
		MFCCCoefficients: 13,
		MelFilters:       26,
		RolloffThreshold: 0.85,
		FrameEnergyFloor: 0.005,
	}
}

// FeatureExtractor computes the aggregated AcousticFeatures record from the
// two normalized views of a sample: the perceptual-rate view feeds spectral
// shape measurements, the embedding-rate view feeds pitch, harmonic, and
// formant analysis.
type FeatureExtractor struct {
	config *Config
	logger logging.Logger
}

// NewFeatureExtractor creates a feature extractor. A nil config selects
// DefaultConfig.
func NewFeatureExtractor(config *Config, logger logging.Logger) *FeatureExtractor {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &FeatureExtractor{config: config, logger: logger}
}

// ExtractFeatures analyzes one sample. Per-frame numeric failures (NaN
// formants, unvoiced frames) are excluded from aggregation; if exclusion
// leaves no usable frames the extraction fails with INSUFFICIENT_AUDIO.
// Cancellation is honored at frame boundaries.
func (fe *FeatureExtractor) ExtractFeatures(ctx context.Context, perceptual, harmonic *common.AudioData, audioType common.AudioType) (*AcousticFeatures, error) {
	spectralStats, err := fe.extractSpectral(ctx, perceptual)
	if err != nil {
		return nil, err
	}

	pitchStats, err := fe.extractHarmonic(ctx, harmonic, audioType)
	if err != nil {
		return nil, err
	}

	features := &AcousticFeatures{
		SpectralCentroid: spectralStats.centroid,
		SpectralRolloff:  spectralStats.rolloff,
		RingEnergyRatio:  spectralStats.ringRatio,
		MFCCs:            spectralStats.mfccs,
		HNR:              pitchStats.hnr,
		CPP:              pitchStats.cpp,
		H1H2:             pitchStats.h1h2,
		Voiced:           pitchStats.voiced,
	}

	if pitchStats.voiced {
		features.F0Mean = pitchStats.f0Mean
		features.F0Range = []float64{pitchStats.f0Min, pitchStats.f0Max}
		features.Formants = pitchStats.formants
		jitter := pitchStats.jitter
		shimmer := pitchStats.shimmer
		features.Jitter = &jitter
		features.Shimmer = &shimmer
	}

	fe.logger.Debug("Acoustic features extracted", logging.Fields{
		"centroid_hz": features.SpectralCentroid,
		"hnr_db":      features.HNR,
		"cpp_db":      features.CPP,
		"f0_mean_hz":  features.F0Mean,
		"voiced":      features.Voiced,
	})

	return features, nil
}

type spectralStats struct {
	centroid  float64
	rolloff   float64
	ringRatio float64
	mfccs     []float64
}

func (fe *FeatureExtractor) extractSpectral(ctx context.Context, audio *common.AudioData) (*spectralStats, error) {
	analyzer := NewSpectralAnalyzer(audio.SampleRate)
	cepstral := NewCepstralAnalyzer(audio.SampleRate)

	windowLen := audio.SampleRate * fe.config.WindowMs / 1000
	hopLen := audio.SampleRate * fe.config.HopMs / 1000
	if windowLen <= 0 || hopLen <= 0 || len(audio.PCM) < windowLen {
		return nil, common.NewEngineError(common.ErrCodeInsufficientAudio,
			"audio shorter than one analysis window", nil)
	}

	var centroids, rolloffs, ringRatios []float64
	mfccSums := make([]float64, fe.config.MFCCCoefficients)
	mfccFrames := 0
	var freqs []float64

	for start := 0; start+windowLen <= len(audio.PCM); start += hopLen {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		frame := audio.PCM[start : start+windowLen]
		if frameRMSLevel(frame) < fe.config.FrameEnergyFloor {
			continue
		}

		magnitude := analyzer.MagnitudeSpectrum(frame)
		if freqs == nil {
			freqs = analyzer.GetFrequencyBins(len(magnitude))
		}

		centroid := analyzer.SpectralCentroid(magnitude, freqs)
		rolloff := analyzer.SpectralRolloff(magnitude, freqs, fe.config.RolloffThreshold)
		ring := analyzer.BandEnergyRatio(magnitude, freqs, 2500, 3500)
		if !math.IsNaN(centroid) && !math.IsInf(centroid, 0) {
			centroids = append(centroids, centroid)
		}
		if !math.IsNaN(rolloff) && !math.IsInf(rolloff, 0) {
			rolloffs = append(rolloffs, rolloff)
		}
		if !math.IsNaN(ring) && !math.IsInf(ring, 0) {
			ringRatios = append(ringRatios, ring)
		}

		mfcc := cepstral.MFCC(magnitude, fe.config.MelFilters, fe.config.MFCCCoefficients)
		valid := true
		for _, c := range mfcc {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				valid = false
				break
			}
		}
		if valid {
			for i, c := range mfcc {
				mfccSums[i] += c
			}
			mfccFrames++
		}
	}

	centroidMean, ok := meanValid(centroids)
	if !ok {
		return nil, common.NewEngineError(common.ErrCodeInsufficientAudio,
			"no frames above the energy floor; audio is effectively silent", nil)
	}
	rolloffMean, _ := meanValid(rolloffs)
	ringMean, _ := meanValid(ringRatios)

	mfccs := make([]float64, fe.config.MFCCCoefficients)
	if mfccFrames > 0 {
		for i := range mfccs {
			mfccs[i] = mfccSums[i] / float64(mfccFrames)
		}
	}

	return &spectralStats{
		centroid:  centroidMean,
		rolloff:   rolloffMean,
		ringRatio: ringMean,
		mfccs:     mfccs,
	}, nil
}

type harmonicStats struct {
	voiced   bool
	f0Mean   float64
	f0Min    float64
	f0Max    float64
	hnr      float64
	cpp      float64
	h1h2     float64
	jitter   float64
	shimmer  float64
	formants Formants
}

func (fe *FeatureExtractor) extractHarmonic(ctx context.Context, audio *common.AudioData, audioType common.AudioType) (*harmonicStats, error) {
	minF0, maxF0 := audioType.PitchBounds()
	tracker := NewPitchTracker(audio.SampleRate, minF0, maxF0)
	analyzer := NewSpectralAnalyzer(audio.SampleRate)
	cepstral := NewCepstralAnalyzer(audio.SampleRate)
	formantAnalyzer := NewFormantAnalyzer(audio.SampleRate)

	frameLen := tracker.FrameLength()
	hopLen := audio.SampleRate * fe.config.HopMs / 1000
	if hopLen <= 0 {
		hopLen = 1
	}
	if len(audio.PCM) < frameLen {
		// Too short for the lowest trackable pitch; report unvoiced rather
		// than failing, the spectral pass already vouched for signal energy.
		return &harmonicStats{voiced: false}, nil
	}

	var (
		f0s, hnrs, cpps, h1h2s []float64
		periods, peakAmps      []float64
		formantSums            [4]float64
		formantCounts          [4]int
		bestUnvoicedStrength   float64
	)
	var freqs []float64

	for start := 0; start+frameLen <= len(audio.PCM); start += hopLen {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		frame := audio.PCM[start : start+frameLen]
		if frameRMSLevel(frame) < fe.config.FrameEnergyFloor {
			continue
		}

		f0, strength := tracker.DetectFrame(frame)
		if f0 == 0 {
			if strength > bestUnvoicedStrength {
				bestUnvoicedStrength = strength
			}
			continue
		}

		f0s = append(f0s, f0)
		periods = append(periods, 1.0/f0)
		peakAmps = append(peakAmps, framePeak(frame))
		hnrs = append(hnrs, HNRFromStrength(strength))

		if cpp := cepstral.CPP(frame, minF0, maxF0); !math.IsNaN(cpp) {
			cpps = append(cpps, cpp)
		}

		magnitude := analyzer.MagnitudeSpectrum(frame)
		if freqs == nil {
			freqs = analyzer.GetFrequencyBins(len(magnitude))
		}
		tolerance := math.Max(f0*0.15, 2*float64(audio.SampleRate)/float64(frameLen))
		h1 := analyzer.HarmonicAmplitudeDB(magnitude, freqs, f0, tolerance)
		h2 := analyzer.HarmonicAmplitudeDB(magnitude, freqs, 2*f0, tolerance)
		if !math.IsInf(h1, 0) && !math.IsInf(h2, 0) {
			h1h2s = append(h1h2s, h1-h2)
		}

		if formants := formantAnalyzer.EstimateFrame(frame); len(formants) > 0 {
			for i, f := range formants {
				if i >= 4 {
					break
				}
				formantSums[i] += f
				formantCounts[i]++
			}
		}
	}

	if len(f0s) == 0 {
		// No voiced frames is a reported condition, not a failure. HNR from
		// the strongest unvoiced correlation still bounds the noise level.
		return &harmonicStats{
			voiced: false,
			hnr:    HNRFromStrength(bestUnvoicedStrength),
		}, nil
	}

	f0Mean, _ := meanValid(f0s)
	f0Min, f0Max, _ := minMaxValid(f0s)
	hnrMean, _ := meanValid(hnrs)
	cppMean, _ := meanValid(cpps)
	h1h2Mean, _ := meanValid(h1h2s)

	var formants Formants
	slots := []*float64{&formants.F1, &formants.F2, &formants.F3, &formants.F4}
	for i, slot := range slots {
		if formantCounts[i] > 0 {
			*slot = formantSums[i] / float64(formantCounts[i])
		}
	}

	return &harmonicStats{
		voiced:   true,
		f0Mean:   f0Mean,
		f0Min:    f0Min,
		f0Max:    f0Max,
		hnr:      hnrMean,
		cpp:      cppMean,
		h1h2:     h1h2Mean,
		jitter:   PerturbationPercent(periods),
		shimmer:  PerturbationPercent(peakAmps),
		formants: formants,
	}, nil
}

func frameRMSLevel(frame []float64) float64 {
	sum := 0.0
	for _, s := range frame {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(frame)))
}

func framePeak(frame []float64) float64 {
	peak := 0.0
	for _, s := range frame {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	return peak
}
