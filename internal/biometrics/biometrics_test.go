package biometrics

import (
	"math"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxmaster/voice-engine/pkg/audio/common"
	"github.com/voxmaster/voice-engine/pkg/audio/embedding"
)

func unitVector(dims int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	v := make([]float64, dims)
	for i := range v {
		v[i] = rng.NormFloat64()
	}
	return normalize(v)
}

func normalize(v []float64) []float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	norm := math.Sqrt(sum)
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

// perturb returns a unit vector close to base, with noise scaled by epsilon.
func perturb(base []float64, epsilon float64, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, len(base))
	for i, x := range base {
		out[i] = x + epsilon*rng.NormFloat64()
	}
	return normalize(out)
}

func sampleOf(vector []float64, quality float64, audioType common.AudioType) SampleEmbedding {
	return SampleEmbedding{
		Vector:    vector,
		Quality:   quality,
		AudioType: audioType,
		Duration:  3 * time.Second,
	}
}

func TestBuildSignatureRequiresThreeSamples(t *testing.T) {
	base := unitVector(embedding.Dimensions, 1)
	samples := []SampleEmbedding{
		sampleOf(base, 90, common.AudioTypeSpoken),
		sampleOf(perturb(base, 0.01, 2), 90, common.AudioTypeSpoken),
	}

	_, err := BuildSignature("two samples", samples)
	require.Error(t, err)
	assert.Equal(t, common.ErrCodeInsufficientSamples, common.ErrorCode(err))
}

func TestBuildSignatureTightClusterScoresHigh(t *testing.T) {
	base := unitVector(embedding.Dimensions, 1)
	samples := []SampleEmbedding{
		sampleOf(base, 95, common.AudioTypeSpoken),
		sampleOf(perturb(base, 0.01, 2), 95, common.AudioTypeSpoken),
		sampleOf(perturb(base, 0.01, 3), 95, common.AudioTypeSpoken),
	}

	sig, err := BuildSignature("consistent voice", samples)
	require.NoError(t, err)

	assert.Greater(t, sig.QualityScore, 85.0,
		"near-identical samples should produce a high quality signature")
	assert.Equal(t, StatusActive, sig.Status)
	assert.NotEmpty(t, sig.ID)
	assert.True(t, sig.HasCentroid(common.AudioTypeSpoken))
	assert.False(t, sig.HasCentroid(common.AudioTypeSung))
}

func TestBuildSignatureDivergentSamplesScoreLow(t *testing.T) {
	samples := []SampleEmbedding{
		sampleOf(unitVector(embedding.Dimensions, 10), 95, common.AudioTypeSpoken),
		sampleOf(unitVector(embedding.Dimensions, 20), 95, common.AudioTypeSpoken),
		sampleOf(unitVector(embedding.Dimensions, 30), 95, common.AudioTypeSpoken),
	}

	sig, err := BuildSignature("inconsistent voice", samples)
	require.NoError(t, err)

	assert.Less(t, sig.QualityScore, 50.0,
		"divergent samples should be flagged by a markedly lower quality score")
}

func TestBuildSignaturePerModeCentroids(t *testing.T) {
	spoken := unitVector(embedding.Dimensions, 1)
	sung := unitVector(embedding.Dimensions, 2)
	samples := []SampleEmbedding{
		sampleOf(spoken, 90, common.AudioTypeSpoken),
		sampleOf(perturb(spoken, 0.02, 3), 90, common.AudioTypeSpoken),
		sampleOf(sung, 90, common.AudioTypeSung),
		sampleOf(perturb(sung, 0.02, 4), 90, common.AudioTypeSung),
	}

	sig, err := BuildSignature("bimodal", samples)
	require.NoError(t, err)

	require.True(t, sig.HasCentroid(common.AudioTypeSpoken))
	require.True(t, sig.HasCentroid(common.AudioTypeSung))

	// Each centroid is unit length.
	for _, c := range sig.Centroids {
		sum := 0.0
		for _, x := range c {
			sum += x * x
		}
		assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-9)
	}
}

func TestBuildSignatureDimensionMismatch(t *testing.T) {
	base := unitVector(embedding.Dimensions, 1)
	samples := []SampleEmbedding{
		sampleOf(base, 90, common.AudioTypeSpoken),
		sampleOf(unitVector(128, 2), 90, common.AudioTypeSpoken),
		sampleOf(base, 90, common.AudioTypeSpoken),
	}

	_, err := BuildSignature("skewed", samples)
	require.Error(t, err)
	assert.Equal(t, common.ErrCodeEmbeddingDimMismatch, common.ErrorCode(err))
}

func enrolledSignature(t *testing.T, name string, seed int64) *VoiceSignature {
	t.Helper()
	base := unitVector(embedding.Dimensions, seed)
	sig, err := BuildSignature(name, []SampleEmbedding{
		sampleOf(base, 90, common.AudioTypeSpoken),
		sampleOf(perturb(base, 0.01, seed+1), 90, common.AudioTypeSpoken),
		sampleOf(perturb(base, 0.01, seed+2), 90, common.AudioTypeSpoken),
	})
	require.NoError(t, err)
	return sig
}

func TestMatcherVerifyAgainst(t *testing.T) {
	matcher := NewMatcher(0, 0, nil)
	sig := enrolledSignature(t, "alice", 1)

	// A probe near the enrolled cluster matches.
	probe := perturb(sig.Centroids[common.AudioTypeSpoken], 0.01, 99)
	result, err := matcher.VerifyAgainst(probe, common.AudioTypeSpoken, sig)
	require.NoError(t, err)
	assert.True(t, result.Match)
	assert.Equal(t, sig.ID, result.MatchedID)
	assert.Equal(t, "alice", result.MatchedName)
	assert.Greater(t, result.Confidence, 85.0)

	// An unrelated voice does not.
	stranger := unitVector(embedding.Dimensions, 500)
	result, err = matcher.VerifyAgainst(stranger, common.AudioTypeSpoken, sig)
	require.NoError(t, err)
	assert.False(t, result.Match)
	assert.Empty(t, result.MatchedID)
}

func TestMatcherIdentify(t *testing.T) {
	matcher := NewMatcher(0, 0, nil)
	alice := enrolledSignature(t, "alice", 1)
	bob := enrolledSignature(t, "bob", 100)

	probe := perturb(alice.Centroids[common.AudioTypeSpoken], 0.01, 99)
	result, err := matcher.Identify(probe, common.AudioTypeSpoken, []*VoiceSignature{alice, bob})
	require.NoError(t, err)
	assert.True(t, result.Match)
	assert.Equal(t, alice.ID, result.MatchedID)
}

func TestMatcherIdentifyMarginTieBreak(t *testing.T) {
	matcher := NewMatcher(0, 0, nil)

	// Two signatures sharing one centroid: the probe sits equidistant, so the
	// margin rule must refuse to pick either.
	alice := enrolledSignature(t, "alice", 1)
	twin := enrolledSignature(t, "twin", 2)
	twin.Centroids[common.AudioTypeSpoken] = append([]float64(nil),
		alice.Centroids[common.AudioTypeSpoken]...)

	probe := perturb(alice.Centroids[common.AudioTypeSpoken], 0.005, 99)
	result, err := matcher.Identify(probe, common.AudioTypeSpoken, []*VoiceSignature{alice, twin})
	require.NoError(t, err)

	assert.False(t, result.Match, "near-equidistant candidates must not produce a match")
	assert.Greater(t, result.Confidence, 85.0, "confidence is still reported")
}

func TestMatcherIdentifyEmptySet(t *testing.T) {
	matcher := NewMatcher(0, 0, nil)
	probe := unitVector(embedding.Dimensions, 1)

	result, err := matcher.Identify(probe, common.AudioTypeSpoken, nil)
	require.NoError(t, err)
	assert.False(t, result.Match)
	assert.Zero(t, result.Confidence)
}

func TestMatcherModeFallback(t *testing.T) {
	matcher := NewMatcher(0, 0, nil)
	sig := enrolledSignature(t, "spoken only", 1)

	// Sung probe against a spoken-only signature compares to the spoken
	// centroid instead of failing.
	probe := perturb(sig.Centroids[common.AudioTypeSpoken], 0.01, 99)
	result, err := matcher.VerifyAgainst(probe, common.AudioTypeSung, sig)
	require.NoError(t, err)
	assert.True(t, result.Match)
}

func TestStoreLifecycle(t *testing.T) {
	store, err := NewStore("", nil)
	require.NoError(t, err)

	sig := enrolledSignature(t, "alice", 1)
	require.NoError(t, store.Save(sig))
	assert.Equal(t, 1, store.Count())

	got, err := store.Get(sig.ID)
	require.NoError(t, err)
	assert.Equal(t, sig.Name, got.Name)

	_, err = store.Get("nonexistent")
	require.Error(t, err)
	assert.Equal(t, common.ErrCodeSignatureNotFound, common.ErrorCode(err))
}

func TestStoreListOrdered(t *testing.T) {
	store, err := NewStore("", nil)
	require.NoError(t, err)

	first := enrolledSignature(t, "first", 1)
	first.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	second := enrolledSignature(t, "second", 2)
	second.CreatedAt = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(second))
	require.NoError(t, store.Save(first))

	list := store.List()
	require.Len(t, list, 2)
	assert.Equal(t, "first", list[0].Name)
	assert.Equal(t, "second", list[1].Name)
}

func TestStoreDeleteErasure(t *testing.T) {
	store, err := NewStore("", nil)
	require.NoError(t, err)
	matcher := NewMatcher(0, 0, nil)

	sig := enrolledSignature(t, "alice", 1)
	probe := perturb(sig.Centroids[common.AudioTypeSpoken], 0.01, 99)
	require.NoError(t, store.Save(sig))

	require.NoError(t, store.Delete(sig.ID))
	assert.Zero(t, store.Count())

	_, err = store.Get(sig.ID)
	require.Error(t, err)

	// Erasure invariant: no subsequent probe can match the deleted identity.
	result, err := matcher.Identify(probe, common.AudioTypeSpoken, store.List())
	require.NoError(t, err)
	assert.False(t, result.Match)

	err = store.Delete(sig.ID)
	require.Error(t, err)
	assert.Equal(t, common.ErrCodeSignatureNotFound, common.ErrorCode(err))
}

func TestStoreHandsOutIsolatedCopies(t *testing.T) {
	store, err := NewStore("", nil)
	require.NoError(t, err)
	matcher := NewMatcher(0, 0, nil)

	sig := enrolledSignature(t, "alice", 1)
	require.NoError(t, store.Save(sig))

	held, err := store.Get(sig.ID)
	require.NoError(t, err)
	probe := perturb(held.Centroids[common.AudioTypeSpoken], 0.01, 99)

	require.NoError(t, store.Delete(sig.ID))

	// A copy fetched before the delete keeps its vectors; the scrub only
	// touches the store's own instance.
	result, err := matcher.VerifyAgainst(probe, common.AudioTypeSpoken, held)
	require.NoError(t, err)
	assert.True(t, result.Match)
	assert.Equal(t, StatusActive, held.Status)

	// Writes through a returned copy never reach the store.
	bob := enrolledSignature(t, "bob", 50)
	require.NoError(t, store.Save(bob))
	got, err := store.Get(bob.ID)
	require.NoError(t, err)
	got.Centroids[common.AudioTypeSpoken][0] = 42
	again, err := store.Get(bob.ID)
	require.NoError(t, err)
	assert.NotEqual(t, 42.0, again.Centroids[common.AudioTypeSpoken][0])
}

func TestStoreDeleteDuringVerify(t *testing.T) {
	store, err := NewStore("", nil)
	require.NoError(t, err)
	matcher := NewMatcher(0, 0, nil)

	sig := enrolledSignature(t, "alice", 1)
	probe := perturb(sig.Centroids[common.AudioTypeSpoken], 0.01, 99)
	require.NoError(t, store.Save(sig))

	// Matching against already-fetched candidates must not observe the
	// scrub that a concurrent delete performs.
	done := make(chan struct{})
	candidates := store.List()
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			for _, candidate := range candidates {
				if _, err := matcher.VerifyAgainst(probe, common.AudioTypeSpoken, candidate); err != nil {
					t.Error(err)
					return
				}
			}
		}
	}()

	require.NoError(t, store.Delete(sig.ID))
	<-done
}

func TestStoreSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signatures.json")

	store, err := NewStore(path, nil)
	require.NoError(t, err)

	sig := enrolledSignature(t, "alice", 1)
	require.NoError(t, store.Save(sig))

	reloaded, err := NewStore(path, nil)
	require.NoError(t, err)
	require.Equal(t, 1, reloaded.Count())

	got, err := reloaded.Get(sig.ID)
	require.NoError(t, err)
	assert.Equal(t, sig.Name, got.Name)
	assert.InDelta(t, sig.QualityScore, got.QualityScore, 1e-9)
	assert.Equal(t, sig.Centroids[common.AudioTypeSpoken], got.Centroids[common.AudioTypeSpoken])

	// Deletion also persists.
	require.NoError(t, reloaded.Delete(sig.ID))
	third, err := NewStore(path, nil)
	require.NoError(t, err)
	assert.Zero(t, third.Count())
}
