package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/RyanBlaney/latency-benchmark-common/logging"

	"github.com/voxmaster/voice-engine/configs"
	"github.com/voxmaster/voice-engine/internal/antispoof"
	"github.com/voxmaster/voice-engine/internal/engine"
	"github.com/voxmaster/voice-engine/pkg/audio/analysis"
	"github.com/voxmaster/voice-engine/pkg/audio/ingest"
)

// loadEngine builds the engine from the resolved configuration. CLI runs
// persist signatures under the data directory so enroll and verify work
// across invocations.
func loadEngine() (*engine.Engine, *configs.Config, logging.Logger, error) {
	cfg, err := configs.LoadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	if err := configs.ValidateConfig(cfg); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.NewDefaultLogger()

	snapshotPath := cfg.Engine.SnapshotPath
	if snapshotPath == "" {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		snapshotPath = filepath.Join(cfg.DataDir, "signatures.json")
	}

	eng, err := engine.NewEngine(buildEngineConfig(cfg, snapshotPath), logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return eng, cfg, logger, nil
}

func buildEngineConfig(cfg *configs.Config, snapshotPath string) *engine.Config {
	return &engine.Config{
		ProcessingTimeout:     cfg.Engine.ProcessingTimeout,
		MinAnalysisDuration:   cfg.Engine.MinAnalysisDuration,
		MinEnrollmentDuration: cfg.Engine.MinEnrollmentDuration,
		MatchThreshold:        cfg.Matcher.Threshold,
		MatchMargin:           cfg.Matcher.Margin,
		SnapshotPath:          snapshotPath,
		Ingest: &ingest.Config{
			EmbeddingSampleRate:  cfg.Ingest.EmbeddingSampleRate,
			PerceptualSampleRate: cfg.Ingest.PerceptualSampleRate,
			SilenceThreshold:     cfg.Ingest.SilenceThreshold,
			SilenceFrameMs:       cfg.Ingest.SilenceFrameMs,
			TargetLoudnessDB:     cfg.Ingest.TargetLoudnessDB,
			MinDuration:          cfg.Ingest.MinDuration,
		},
		Analysis: &analysis.Config{
			WindowMs:         cfg.Analysis.WindowMs,
			HopMs:            cfg.Analysis.HopMs,
			MFCCCoefficients: cfg.Analysis.MFCCCoefficients,
			MelFilters:       cfg.Analysis.MelFilters,
			RolloffThreshold: cfg.Analysis.RolloffThreshold,
			FrameEnergyFloor: cfg.Analysis.FrameEnergyFloor,
		},
		Antispoof: &antispoof.Config{
			ReplayHighBandCutoffHz:    cfg.AntiSpoof.ReplayHighBandCutoffHz,
			ReplayHighBandMinRatio:    cfg.AntiSpoof.ReplayHighBandMinRatio,
			SynthesisMaxJitter:        cfg.AntiSpoof.SynthesisMaxJitter,
			SynthesisMaxShimmer:       cfg.AntiSpoof.SynthesisMaxShimmer,
			LivenessMinJitter:         cfg.AntiSpoof.LivenessMinJitter,
			LivenessMinLevelVariation: cfg.AntiSpoof.LivenessMinLevelVariation,
		},
	}
}

// readAudioFile loads one audio file as an engine payload, inferring the
// MIME type from the extension.
func readAudioFile(path, audioType string) (engine.AudioPayload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return engine.AudioPayload{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return engine.AudioPayload{
		Data:      data,
		MimeType:  mimeFromPath(path),
		Filename:  filepath.Base(path),
		AudioType: audioType,
	}, nil
}

func mimeFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return "audio/wav"
	case ".mp3":
		return "audio/mpeg"
	default:
		return ""
	}
}
