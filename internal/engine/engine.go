package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"golang.org/x/sync/errgroup"

	"github.com/voxmaster/voice-engine/internal/antispoof"
	"github.com/voxmaster/voice-engine/internal/biometrics"
	"github.com/voxmaster/voice-engine/internal/scoring"
	"github.com/voxmaster/voice-engine/pkg/audio/analysis"
	"github.com/voxmaster/voice-engine/pkg/audio/common"
	"github.com/voxmaster/voice-engine/pkg/audio/embedding"
	"github.com/voxmaster/voice-engine/pkg/audio/ingest"
)

// Config controls engine-level policy. Component-level knobs live in the
// embedded sub-configs.
type Config struct {
	// ProcessingTimeout bounds one request's decode and extraction work.
	ProcessingTimeout time.Duration
	// MinAnalysisDuration is the post-trim floor for analysis and probes.
	MinAnalysisDuration time.Duration
	// MinEnrollmentDuration is the post-trim floor per enrollment sample.
	MinEnrollmentDuration time.Duration
	// MatchThreshold and MatchMargin tune the matcher; zero selects defaults.
	MatchThreshold float64
	MatchMargin    float64
	// SnapshotPath persists signatures as JSON; empty keeps them in memory.
	SnapshotPath string

	Ingest    *ingest.Config
	Analysis  *analysis.Config
	Antispoof *antispoof.Config
}

// DefaultConfig returns the standard engine policy.
func DefaultConfig() *Config {
	return &Config{
		ProcessingTimeout:     30 * time.Second,
		MinAnalysisDuration:   500 * time.Millisecond,
		MinEnrollmentDuration: 3 * time.Second,
		Ingest:                ingest.DefaultConfig(),
		Analysis:              analysis.DefaultConfig(),
		Antispoof:             antispoof.DefaultConfig(),
	}
}

// Engine wires the full pipeline: ingest, feature extraction, perceptual
// scoring, embedding, signature matching, and anti-spoofing.
type Engine struct {
	config    *Config
	logger    logging.Logger
	ingestor  *ingest.Ingestor
	features  *analysis.FeatureExtractor
	scorer    *scoring.Scorer
	embedder  *embedding.Extractor
	store     *biometrics.Store
	matcher   *biometrics.Matcher
	evaluator *antispoof.Evaluator
}

// NewEngine creates an engine. A nil config selects DefaultConfig.
func NewEngine(config *Config, logger logging.Logger) (*Engine, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	store, err := biometrics.NewStore(config.SnapshotPath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open signature store: %w", err)
	}

	return &Engine{
		config:    config,
		logger:    logger,
		ingestor:  ingest.NewIngestor(config.Ingest, logger),
		features:  analysis.NewFeatureExtractor(config.Analysis, logger),
		scorer:    scoring.NewScorer(),
		embedder:  embedding.NewExtractor(logger),
		store:     store,
		matcher:   biometrics.NewMatcher(config.MatchThreshold, config.MatchMargin, logger),
		evaluator: antispoof.NewEvaluator(config.Antispoof, logger),
	}, nil
}

// Analyze runs the perceptual pipeline over one sample.
func (e *Engine) Analyze(ctx context.Context, req *AnalyzeRequest) (*AnalysisResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, e.config.ProcessingTimeout)
	defer cancel()

	audioType := common.ParseAudioType(req.Audio.AudioType)
	ingested, err := e.ingestor.Ingest(ctx, req.Audio.Data, req.Audio.MimeType, audioType, e.config.MinAnalysisDuration)
	if err != nil {
		return nil, e.wrapTimeout(ctx, err)
	}
	defer ingested.Zero()

	features, err := e.features.ExtractFeatures(ctx, ingested.Perceptual, ingested.Embedding, audioType)
	if err != nil {
		return nil, e.wrapTimeout(ctx, err)
	}

	score := e.scorer.Score(features, audioType)

	e.logger.Info("Analysis completed", logging.Fields{
		"filename":   req.Audio.Filename,
		"audio_type": string(audioType),
		"sweet_spot": score.SweetSpot.Total,
		"low_conf":   score.LowConfidence,
	})

	return &AnalysisResponse{
		Filename:      req.Audio.Filename,
		AudioType:     string(audioType),
		PromptType:    string(ParsePromptType(req.PromptType)),
		Timbre:        score.Timbre,
		Weight:        score.Weight,
		Placement:     score.Placement,
		SweetSpot:     score.SweetSpot,
		Features:      features,
		LowConfidence: score.LowConfidence,
		AnalyzedAt:    time.Now().UTC(),
	}, nil
}

// Enroll builds a voice signature from the request's samples. Samples that
// fail ingest or embedding extraction are filtered out; enrollment fails with
// INSUFFICIENT_SAMPLES when fewer than three survive.
func (e *Engine) Enroll(ctx context.Context, req *EnrollRequest) (*EnrollmentResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, e.config.ProcessingTimeout)
	defer cancel()

	// Results are indexed by request position so the contributing samples
	// keep the order the caller submitted them in.
	results := make([]*biometrics.SampleEmbedding, len(req.Samples))

	g, gctx := errgroup.WithContext(ctx)
	for i, payload := range req.Samples {
		g.Go(func() error {
			sample, err := e.extractSample(gctx, payload)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				e.logger.Warn("Enrollment sample rejected", logging.Fields{
					"filename": payload.Filename,
					"error":    err.Error(),
				})
				return nil
			}
			results[i] = sample
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, e.wrapTimeout(ctx, err)
	}

	samples := make([]biometrics.SampleEmbedding, 0, len(results))
	for _, sample := range results {
		if sample != nil {
			samples = append(samples, *sample)
		}
	}

	signature, err := biometrics.BuildSignature(req.Name, samples)
	if err != nil {
		return nil, err
	}
	if err := e.store.Save(signature); err != nil {
		return nil, err
	}

	return &EnrollmentResponse{
		SignatureID:        signature.ID,
		Name:               signature.Name,
		SamplesCount:       len(signature.Samples),
		QualityScore:       signature.QualityScore,
		HasSpokenCentroid:  signature.HasCentroid(common.AudioTypeSpoken),
		HasSingingCentroid: signature.HasCentroid(common.AudioTypeSung),
		Status:             string(signature.Status),
	}, nil
}

// extractSample ingests one enrollment payload and derives its embedding.
// The PCM views are scrubbed before returning.
func (e *Engine) extractSample(ctx context.Context, payload AudioPayload) (*biometrics.SampleEmbedding, error) {
	audioType := common.ParseAudioType(payload.AudioType)
	ingested, err := e.ingestor.Ingest(ctx, payload.Data, payload.MimeType, audioType, e.config.MinEnrollmentDuration)
	if err != nil {
		return nil, err
	}
	defer ingested.Zero()

	result, err := e.embedder.Extract(ctx, ingested.Embedding)
	if err != nil {
		return nil, err
	}

	return &biometrics.SampleEmbedding{
		Vector:    result.Vector,
		Quality:   result.Quality,
		AudioType: audioType,
		Duration:  ingested.Embedding.Duration,
	}, nil
}

// Verify scores a probe against one signature or the whole set. Embedding
// extraction and anti-spoofing run concurrently over the ingested views; a
// fraud signal downgrades any similarity match to a rejection.
func (e *Engine) Verify(ctx context.Context, req *VerifyRequest) (*VerificationResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, e.config.ProcessingTimeout)
	defer cancel()

	audioType := common.ParseAudioType(req.Audio.AudioType)
	ingested, err := e.ingestor.Ingest(ctx, req.Audio.Data, req.Audio.MimeType, audioType, e.config.MinAnalysisDuration)
	if err != nil {
		return nil, e.wrapTimeout(ctx, err)
	}
	defer ingested.Zero()

	var (
		probe      *embedding.Result
		spoofState *antispoof.Result
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		probe, err = e.embedder.Extract(gctx, ingested.Embedding)
		return err
	})
	g.Go(func() error {
		var err error
		spoofState, err = e.evaluator.Evaluate(gctx, &antispoof.Sample{
			Harmonic:   ingested.Embedding,
			Perceptual: ingested.Perceptual,
			AudioType:  audioType,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, e.wrapTimeout(ctx, err)
	}

	var match *biometrics.MatchResult
	if req.SignatureID != "" {
		target, err := e.store.Get(req.SignatureID)
		if err != nil {
			return nil, err
		}
		match, err = e.matcher.VerifyAgainst(probe.Vector, audioType, target)
		if err != nil {
			return nil, err
		}
	} else {
		match, err = e.matcher.Identify(probe.Vector, audioType, e.store.List())
		if err != nil {
			return nil, err
		}
	}

	response := &VerificationResponse{
		Match:                match.Match,
		Confidence:           match.Confidence,
		MatchedSignatureID:   match.MatchedID,
		MatchedSignatureName: match.MatchedName,
		AntiSpoofing:         *spoofState,
	}

	// Fail closed: similarity alone is never sufficient when a fraud signal
	// fired.
	if spoofState.FraudSuspected() {
		response.Match = false
		response.MatchedSignatureID = ""
		response.MatchedSignatureName = ""
	}

	e.logger.Info("Verification completed", logging.Fields{
		"match":      response.Match,
		"confidence": response.Confidence,
		"fraud":      spoofState.FraudSuspected(),
	})
	return response, nil
}

// Signatures lists all enrolled signatures.
func (e *Engine) Signatures() []SignatureSummary {
	stored := e.store.List()
	out := make([]SignatureSummary, 0, len(stored))
	for _, sig := range stored {
		out = append(out, SignatureSummary{
			ID:                 sig.ID,
			Name:               sig.Name,
			EnrolledAt:         sig.CreatedAt,
			SamplesCount:       len(sig.Samples),
			QualityScore:       sig.QualityScore,
			Status:             string(sig.Status),
			HasSpokenCentroid:  sig.HasCentroid(common.AudioTypeSpoken),
			HasSingingCentroid: sig.HasCentroid(common.AudioTypeSung),
		})
	}
	return out
}

// DeleteSignature removes a signature synchronously and irreversibly.
func (e *Engine) DeleteSignature(id string) error {
	return e.store.Delete(id)
}

// wrapTimeout converts a deadline expiry into the structured timeout error;
// other errors pass through.
func (e *Engine) wrapTimeout(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil {
		return common.NewEngineError(common.ErrCodeProcessingTimeout,
			"processing exceeded the configured timeout", err)
	}
	return err
}
