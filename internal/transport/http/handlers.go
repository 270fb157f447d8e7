package httptransport

import (
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/gin-gonic/gin"

	"github.com/voxmaster/voice-engine/internal/engine"
	"github.com/voxmaster/voice-engine/pkg/audio/common"
)

// maxUploadBytes bounds one uploaded audio file.
const maxUploadBytes = 50 << 20

type handler struct {
	engine *engine.Engine
	logger logging.Logger
}

func newHandler(eng *engine.Engine, logger logging.Logger) *handler {
	return &handler{engine: eng, logger: logger}
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"signatures": len(h.engine.Signatures()),
		"time":       time.Now().UTC(),
	})
}

func (h *handler) analyze(c *gin.Context) {
	payload, ok := h.filePayload(c, "file")
	if !ok {
		return
	}

	resp, err := h.engine.Analyze(c.Request.Context(), &engine.AnalyzeRequest{
		Audio:      payload,
		PromptType: c.PostForm("prompt_type"),
	})
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) featureCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"features": engine.FeatureCatalog()})
}

func (h *handler) scoringInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"methodology": engine.ScoringMethodology()})
}

func (h *handler) enroll(c *gin.Context) {
	name := c.PostForm("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form required"})
		return
	}
	files := form.File["samples"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one sample file is required"})
		return
	}

	audioType := c.PostForm("audio_type")
	samples := make([]engine.AudioPayload, 0, len(files))
	for _, file := range files {
		payload, ok := h.readUpload(c, file, audioType)
		if !ok {
			return
		}
		samples = append(samples, payload)
	}

	resp, err := h.engine.Enroll(c.Request.Context(), &engine.EnrollRequest{
		Name:    name,
		Samples: samples,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *handler) verify(c *gin.Context) {
	payload, ok := h.filePayload(c, "file")
	if !ok {
		return
	}

	resp, err := h.engine.Verify(c.Request.Context(), &engine.VerifyRequest{
		Audio:       payload,
		SignatureID: c.PostForm("signature_id"),
	})
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) listSignatures(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"signatures": h.engine.Signatures()})
}

func (h *handler) deleteSignature(c *gin.Context) {
	if err := h.engine.DeleteSignature(c.Param("id")); err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *handler) scoreGeneration(c *gin.Context) {
	payload, ok := h.filePayload(c, "file")
	if !ok {
		return
	}

	signatureID := c.PostForm("signature_id")
	if signatureID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "signature_id is required"})
		return
	}

	scores, err := h.engine.ScoreGeneration(c.Request.Context(), &engine.GenerationScoreRequest{
		Audio:             payload,
		SignatureID:       signatureID,
		VoiceType:         engine.VoiceType(c.PostForm("voice_type")),
		PerceptualProfile: engine.PerceptualProfile(c.PostForm("perceptual_profile")),
	})
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"verification_scores": scores})
}

func (h *handler) voiceTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"voice_types": engine.VoiceTypeCatalog()})
}

func (h *handler) perceptualProfiles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"profiles": engine.PerceptualProfileCatalog()})
}

// filePayload reads the named upload plus the declared audio type from the
// multipart form. On failure a response has already been written.
func (h *handler) filePayload(c *gin.Context, field string) (engine.AudioPayload, bool) {
	file, err := c.FormFile(field)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio file is required"})
		return engine.AudioPayload{}, false
	}
	return h.readUpload(c, file, c.PostForm("audio_type"))
}

func (h *handler) readUpload(c *gin.Context, file *multipart.FileHeader, audioType string) (engine.AudioPayload, bool) {
	if file.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "uploaded file too large"})
		return engine.AudioPayload{}, false
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read upload"})
		return engine.AudioPayload{}, false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read upload"})
		return engine.AudioPayload{}, false
	}

	return engine.AudioPayload{
		Data:      data,
		MimeType:  file.Header.Get("Content-Type"),
		Filename:  file.Filename,
		AudioType: audioType,
	}, true
}

// renderError maps structured engine errors onto HTTP statuses.
func (h *handler) renderError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch common.ErrorCode(err) {
	case common.ErrCodeUnsupportedFormat:
		status = http.StatusUnsupportedMediaType
	case common.ErrCodeInsufficientAudio, common.ErrCodeInsufficientSamples:
		status = http.StatusUnprocessableEntity
	case common.ErrCodeSignatureNotFound:
		status = http.StatusNotFound
	case common.ErrCodeProcessingTimeout:
		status = http.StatusGatewayTimeout
	}

	h.logger.Warn("Request failed", logging.Fields{
		"path":   c.Request.URL.Path,
		"status": status,
		"error":  err.Error(),
	})
	c.JSON(status, gin.H{
		"error": err.Error(),
		"code":  common.ErrorCode(err),
	})
}
