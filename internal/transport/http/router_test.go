package httptransport

import (
	"bytes"
	"encoding/json"
	"math"
	"math/rand"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxmaster/voice-engine/internal/engine"
)

const testRate = 16000

func buildRouter(t *testing.T) *Router {
	t.Helper()
	eng, err := engine.NewEngine(nil, nil)
	require.NoError(t, err)
	router, err := Build(Options{Engine: eng})
	require.NoError(t, err)
	return router
}

func wavBytes(t *testing.T, pcm []float64) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sample.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	encoder := wav.NewEncoder(f, testRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: testRate},
		SourceBitDepth: 16,
		Data:           make([]int, len(pcm)),
	}
	for i, s := range pcm {
		buf.Data[i] = int(math.Round(s * 32767))
	}
	require.NoError(t, encoder.Write(buf))
	require.NoError(t, encoder.Close())
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func voicePCM(duration time.Duration, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	numSamples := int(float64(testRate) * duration.Seconds())
	pcm := make([]float64, numSamples)

	baseF0 := 150.0
	numHarmonics := int((float64(testRate)/2 - 100) / baseF0)
	phases := make([]float64, numHarmonics+1)

	for i := range pcm {
		t := float64(i) / float64(testRate)
		f0 := baseF0 * (1 + 0.03*math.Sin(2*math.Pi*5*t))
		envelope := 0.6 + 0.35*math.Sin(2*math.Pi*2.7*t)

		sum := 0.0
		for h := 1; h <= numHarmonics; h++ {
			phases[h] += 2 * math.Pi * float64(h) * f0 / float64(testRate)
			sum += math.Sin(phases[h]) / float64(h)
		}
		pcm[i] = envelope*sum*0.35 + 0.01*rng.NormFloat64()
	}
	return pcm
}

// multipartBody builds a form with one audio file part plus extra fields.
func multipartBody(t *testing.T, field, filename string, data []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition",
		`form-data; name="`+field+`"; filename="`+filename+`"`)
	header.Set("Content-Type", "audio/wav")
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)

	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestHealth(t *testing.T) {
	router := buildRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	router.Engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestAnalyzeEndpoint(t *testing.T) {
	router := buildRouter(t)

	data := wavBytes(t, voicePCM(1500*time.Millisecond, 1))
	body, contentType := multipartBody(t, "file", "voice.wav", data, map[string]string{
		"audio_type":  "spoken",
		"prompt_type": "sustained",
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", contentType)
	router.Engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp engine.AnalysisResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "voice.wav", resp.Filename)
	assert.Equal(t, "spoken", resp.AudioType)
	assert.GreaterOrEqual(t, resp.SweetSpot.Total, 0.0)
	assert.LessOrEqual(t, resp.SweetSpot.Total, 100.0)
}

func TestAnalyzeMissingFile(t *testing.T) {
	router := buildRouter(t)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("audio_type", "spoken"))
	require.NoError(t, writer.Close())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	router.Engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyzeUnsupportedFormat(t *testing.T) {
	router := buildRouter(t)

	body, contentType := multipartBody(t, "file", "junk.bin", []byte("not audio at all"), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", contentType)
	router.Engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "UNSUPPORTED_FORMAT", resp["code"])
}

func TestVerifyNoSignatures(t *testing.T) {
	router := buildRouter(t)

	data := wavBytes(t, voicePCM(1500*time.Millisecond, 1))
	body, contentType := multipartBody(t, "file", "probe.wav", data, map[string]string{
		"audio_type": "spoken",
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/biometrics/verify", body)
	req.Header.Set("Content-Type", contentType)
	router.Engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp engine.VerificationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Match, "empty store is a no-match, not an error")
}

func TestListAndDeleteSignatures(t *testing.T) {
	router := buildRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/biometrics/signatures", nil)
	router.Engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string][]engine.SignatureSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp["signatures"])

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/api/biometrics/signatures/nonexistent", nil)
	router.Engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEnrollValidation(t *testing.T) {
	router := buildRouter(t)

	// Missing name.
	data := wavBytes(t, voicePCM(1500*time.Millisecond, 1))
	body, contentType := multipartBody(t, "samples", "one.wav", data, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/biometrics/enroll", body)
	req.Header.Set("Content-Type", contentType)
	router.Engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Too few samples surfaces the structured error.
	body, contentType = multipartBody(t, "samples", "one.wav", data, map[string]string{
		"name": "alice",
	})
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/biometrics/enroll", body)
	req.Header.Set("Content-Type", contentType)
	router.Engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestCatalogEndpoints(t *testing.T) {
	router := buildRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/generate/voice-types", nil)
	router.Engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var types map[string][]engine.VoiceTypeInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &types))
	assert.Len(t, types["voice_types"], 5)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/generate/perceptual-profiles", nil)
	router.Engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var profiles map[string][]engine.ProfileInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profiles))
	assert.Len(t, profiles["profiles"], 4)
}

func TestAnalyzeCatalogEndpoints(t *testing.T) {
	router := buildRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/analyze/features", nil)
	router.Engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var features map[string]map[string][]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &features))
	assert.Contains(t, features["features"], "spectral")
	assert.Contains(t, features["features"], "pitch")
	assert.Len(t, features["features"]["cepstral"], 13)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/analyze/scoring-info", nil)
	router.Engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var info map[string]map[string]map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Contains(t, info["methodology"], "timbre")
	assert.Contains(t, info["methodology"]["sweet_spot"]["formula"], "0.25*clarity")
}

func TestScoreGenerationValidation(t *testing.T) {
	router := buildRouter(t)

	data := wavBytes(t, voicePCM(1500*time.Millisecond, 1))
	body, contentType := multipartBody(t, "file", "gen.wav", data, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/generate/score", body)
	req.Header.Set("Content-Type", contentType)
	router.Engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code, "signature_id is required")
}
