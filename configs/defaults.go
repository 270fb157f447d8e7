package configs

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// SetDefaults sets default configuration values for all components
func SetDefaults(v *viper.Viper) {
	// Application defaults
	v.SetDefault("verbose", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("output_format", "table")

	home, _ := os.UserHomeDir()
	v.SetDefault("data_dir", filepath.Join(home, ".local", "share", "voice-engine"))

	// Engine request policy defaults
	v.SetDefault("engine.processing_timeout", 30*time.Second)
	v.SetDefault("engine.min_analysis_duration", 500*time.Millisecond)
	v.SetDefault("engine.min_enrollment_duration", 3*time.Second)
	v.SetDefault("engine.snapshot_path", "")

	// Ingest defaults
	v.SetDefault("ingest.embedding_sample_rate", 16000)
	v.SetDefault("ingest.perceptual_sample_rate", 44100)
	v.SetDefault("ingest.silence_threshold", 0.02)
	v.SetDefault("ingest.silence_frame_ms", 25)
	v.SetDefault("ingest.target_loudness_db", -23.0)
	v.SetDefault("ingest.min_duration", 500*time.Millisecond)

	// Analysis defaults
	v.SetDefault("analysis.window_ms", 25)
	v.SetDefault("analysis.hop_ms", 10)
	v.SetDefault("analysis.mfcc_coefficients", 13)
	v.SetDefault("analysis.mel_filters", 26)
	v.SetDefault("analysis.rolloff_threshold", 0.85)
	v.SetDefault("analysis.frame_energy_floor", 0.005)

	// Matcher defaults
	v.SetDefault("matcher.threshold", 0.72)
	v.SetDefault("matcher.margin", 0.05)

	// Anti-spoofing defaults
	v.SetDefault("antispoof.replay_high_band_cutoff_hz", 7000.0)
	v.SetDefault("antispoof.replay_high_band_min_ratio", 0.0001)
	v.SetDefault("antispoof.synthesis_max_jitter", 0.05)
	v.SetDefault("antispoof.synthesis_max_shimmer", 0.5)
	v.SetDefault("antispoof.liveness_min_jitter", 0.05)
	v.SetDefault("antispoof.liveness_min_level_variation", 0.05)

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.debug", false)
	v.SetDefault("server.read_timeout", 60*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
}

// GetDefaultConfig returns a fully populated default configuration
func GetDefaultConfig() *Config {
	home, _ := os.UserHomeDir()

	return &Config{
		Verbose:      false,
		LogLevel:     "info",
		OutputFormat: "table",
		DataDir:      filepath.Join(home, ".local", "share", "voice-engine"),
		Engine:       GetDefaultEngineConfig(),
		Ingest:       GetDefaultIngestConfig(),
		Analysis:     GetDefaultAnalysisConfig(),
		Matcher:      GetDefaultMatcherConfig(),
		AntiSpoof:    GetDefaultAntiSpoofConfig(),
		Server:       GetDefaultServerConfig(),
	}
}

// GetDefaultEngineConfig returns default engine policy
func GetDefaultEngineConfig() EngineConfig {
	return EngineConfig{
		ProcessingTimeout:     30 * time.Second,
		MinAnalysisDuration:   500 * time.Millisecond,
		MinEnrollmentDuration: 3 * time.Second,
	}
}

// GetDefaultIngestConfig returns default ingest settings
func GetDefaultIngestConfig() IngestConfig {
	return IngestConfig{
		EmbeddingSampleRate:  16000,
		PerceptualSampleRate: 44100,
		SilenceThreshold:     0.02,
		SilenceFrameMs:       25,
		TargetLoudnessDB:     -23.0,
		MinDuration:          500 * time.Millisecond,
	}
}

// GetDefaultAnalysisConfig returns default analysis frame geometry
func GetDefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		WindowMs:         25,
		HopMs:            10,
		MFCCCoefficients: 13,
		MelFilters:       26,
		RolloffThreshold: 0.85,
		FrameEnergyFloor: 0.005,
	}
}

// GetDefaultMatcherConfig returns default verification thresholds
func GetDefaultMatcherConfig() MatcherConfig {
	return MatcherConfig{
		Threshold: 0.72,
		Margin:    0.05,
	}
}

// GetDefaultAntiSpoofConfig returns default anti-spoofing thresholds
func GetDefaultAntiSpoofConfig() AntiSpoofConfig {
	return AntiSpoofConfig{
		ReplayHighBandCutoffHz:    7000.0,
		ReplayHighBandMinRatio:    0.0001,
		SynthesisMaxJitter:        0.05,
		SynthesisMaxShimmer:       0.5,
		LivenessMinJitter:         0.05,
		LivenessMinLevelVariation: 0.05,
	}
}

// GetDefaultServerConfig returns default HTTP server settings
func GetDefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		Debug:        false,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
}
