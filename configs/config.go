package configs

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	// Application settings
	Verbose      bool   `mapstructure:"verbose"`
	LogLevel     string `mapstructure:"log_level"`
	OutputFormat string `mapstructure:"output_format"`
	DataDir      string `mapstructure:"data_dir"`

	// Engine request policy
	Engine EngineConfig `mapstructure:"engine"`

	// Ingest and normalization settings
	Ingest IngestConfig `mapstructure:"ingest"`

	// Feature extraction settings
	Analysis AnalysisConfig `mapstructure:"analysis"`

	// Verification matcher thresholds
	Matcher MatcherConfig `mapstructure:"matcher"`

	// Anti-spoofing heuristic thresholds
	AntiSpoof AntiSpoofConfig `mapstructure:"antispoof"`

	// HTTP server settings
	Server ServerConfig `mapstructure:"server"`
}

// EngineConfig contains request-level policy
type EngineConfig struct {
	ProcessingTimeout     time.Duration `mapstructure:"processing_timeout"`
	MinAnalysisDuration   time.Duration `mapstructure:"min_analysis_duration"`
	MinEnrollmentDuration time.Duration `mapstructure:"min_enrollment_duration"`
	SnapshotPath          string        `mapstructure:"snapshot_path"`
}

// IngestConfig contains decode and normalization settings
type IngestConfig struct {
	EmbeddingSampleRate  int           `mapstructure:"embedding_sample_rate"`
	PerceptualSampleRate int           `mapstructure:"perceptual_sample_rate"`
	SilenceThreshold     float64       `mapstructure:"silence_threshold"`
	SilenceFrameMs       int           `mapstructure:"silence_frame_ms"`
	TargetLoudnessDB     float64       `mapstructure:"target_loudness_db"`
	MinDuration          time.Duration `mapstructure:"min_duration"`
}

// AnalysisConfig contains frame geometry for feature extraction
type AnalysisConfig struct {
	WindowMs         int     `mapstructure:"window_ms"`
	HopMs            int     `mapstructure:"hop_ms"`
	MFCCCoefficients int     `mapstructure:"mfcc_coefficients"`
	MelFilters       int     `mapstructure:"mel_filters"`
	RolloffThreshold float64 `mapstructure:"rolloff_threshold"`
	FrameEnergyFloor float64 `mapstructure:"frame_energy_floor"`
}

// MatcherConfig contains verification decision thresholds
type MatcherConfig struct {
	Threshold float64 `mapstructure:"threshold"`
	Margin    float64 `mapstructure:"margin"`
}

// AntiSpoofConfig contains the anti-spoofing heuristic thresholds
type AntiSpoofConfig struct {
	ReplayHighBandCutoffHz    float64 `mapstructure:"replay_high_band_cutoff_hz"`
	ReplayHighBandMinRatio    float64 `mapstructure:"replay_high_band_min_ratio"`
	SynthesisMaxJitter        float64 `mapstructure:"synthesis_max_jitter"`
	SynthesisMaxShimmer       float64 `mapstructure:"synthesis_max_shimmer"`
	LivenessMinJitter         float64 `mapstructure:"liveness_min_jitter"`
	LivenessMinLevelVariation float64 `mapstructure:"liveness_min_level_variation"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Debug        bool          `mapstructure:"debug"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// LoadConfig loads configuration from viper
func LoadConfig() (*Config, error) {
	config := &Config{}

	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode configuration: %w", err)
	}

	return config, nil
}

// ValidateConfig validates the configuration
func ValidateConfig(config *Config) error {
	if config.Engine.ProcessingTimeout <= 0 {
		return fmt.Errorf("processing timeout must be positive")
	}

	if config.Ingest.EmbeddingSampleRate <= 0 {
		return fmt.Errorf("embedding sample rate must be positive")
	}

	if config.Ingest.PerceptualSampleRate <= 0 {
		return fmt.Errorf("perceptual sample rate must be positive")
	}

	if config.Ingest.SilenceThreshold < 0 || config.Ingest.SilenceThreshold > 1 {
		return fmt.Errorf("silence threshold must be between 0 and 1")
	}

	if config.Analysis.WindowMs <= 0 || config.Analysis.HopMs <= 0 {
		return fmt.Errorf("analysis window and hop must be positive")
	}

	if config.Matcher.Threshold < 0 || config.Matcher.Threshold > 1 {
		return fmt.Errorf("matcher threshold must be between 0 and 1")
	}

	if config.Matcher.Margin < 0 || config.Matcher.Margin > 1 {
		return fmt.Errorf("matcher margin must be between 0 and 1")
	}

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535")
	}

	return nil
}
