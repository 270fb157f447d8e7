package common

import "errors"

// EngineError represents a structured processing error surfaced to callers.
type EngineError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *EngineError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *EngineError) Unwrap() error {
	return e.Cause
}

// Common error codes
const (
	ErrCodeUnsupportedFormat    = "UNSUPPORTED_FORMAT"
	ErrCodeInsufficientAudio    = "INSUFFICIENT_AUDIO"
	ErrCodeInsufficientSamples  = "INSUFFICIENT_SAMPLES"
	ErrCodeProcessingTimeout    = "PROCESSING_TIMEOUT"
	ErrCodeSignatureNotFound    = "SIGNATURE_NOT_FOUND"
	ErrCodeEmbeddingDimMismatch = "EMBEDDING_DIMENSION_MISMATCH"
)

// NewEngineError creates a new engine error
func NewEngineError(code, message string, cause error) *EngineError {
	return &EngineError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ErrorCode extracts the engine error code from err, or "" if err is not an
// EngineError.
func ErrorCode(err error) string {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ""
}
