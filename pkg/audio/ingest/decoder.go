package ingest

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-audio/wav"
	mp3 "github.com/hajimehoshi/go-mp3"
	resampling "github.com/tphakala/go-audio-resampling"

	"github.com/voxmaster/voice-engine/pkg/audio/common"
)

// Decode converts encoded audio bytes into mono float64 PCM at the source
// sample rate. The declared MIME type is tried first; when it is missing or
// wrong the container magic decides.
func Decode(data []byte, mimeType string) (*common.AudioData, error) {
	if len(data) == 0 {
		return nil, common.NewEngineError(common.ErrCodeUnsupportedFormat,
			"empty audio payload", nil)
	}

	switch detectFormat(data, mimeType) {
	case formatWAV:
		return decodeWAV(data)
	case formatMP3:
		return decodeMP3(data)
	default:
		return nil, common.NewEngineError(common.ErrCodeUnsupportedFormat,
			fmt.Sprintf("unrecognized audio format (mime %q)", mimeType), nil)
	}
}

type audioFormat int

const (
	formatUnknown audioFormat = iota
	formatWAV
	formatMP3
)

func detectFormat(data []byte, mimeType string) audioFormat {
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "audio/wav", "audio/x-wav", "audio/wave", "audio/vnd.wave":
		return formatWAV
	case "audio/mpeg", "audio/mp3", "audio/mpeg3":
		return formatMP3
	}

	// Fall back to container magic when the declared type is unhelpful.
	if len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")) {
		return formatWAV
	}
	if len(data) >= 3 && bytes.Equal(data[0:3], []byte("ID3")) {
		return formatMP3
	}
	if len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0 {
		return formatMP3
	}
	return formatUnknown
}

func decodeWAV(data []byte) (*common.AudioData, error) {
	decoder := wav.NewDecoder(bytes.NewReader(data))
	if !decoder.IsValidFile() {
		return nil, common.NewEngineError(common.ErrCodeUnsupportedFormat,
			"invalid WAV container", nil)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, common.NewEngineError(common.ErrCodeUnsupportedFormat,
			"failed to decode WAV data", err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, common.NewEngineError(common.ErrCodeUnsupportedFormat,
			"WAV file contains no samples", nil)
	}

	channels := buf.Format.NumChannels
	if channels <= 0 {
		channels = 1
	}
	sampleRate := buf.Format.SampleRate
	if sampleRate <= 0 {
		return nil, common.NewEngineError(common.ErrCodeUnsupportedFormat,
			"WAV file reports invalid sample rate", nil)
	}

	bitDepth := int(decoder.BitDepth)
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := float64(int64(1) << (bitDepth - 1))

	frames := len(buf.Data) / channels
	pcm := make([]float64, frames)
	for i := range frames {
		sum := 0.0
		for c := range channels {
			sum += float64(buf.Data[i*channels+c]) / scale
		}
		pcm[i] = sum / float64(channels)
	}

	return &common.AudioData{
		PCM:        pcm,
		SampleRate: sampleRate,
		Channels:   1,
		Duration:   durationOf(len(pcm), sampleRate),
	}, nil
}

func decodeMP3(data []byte) (*common.AudioData, error) {
	decoder, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, common.NewEngineError(common.ErrCodeUnsupportedFormat,
			"failed to decode MP3 data", err)
	}

	raw, err := io.ReadAll(decoder)
	if err != nil {
		return nil, common.NewEngineError(common.ErrCodeUnsupportedFormat,
			"failed to read MP3 stream", err)
	}

	// go-mp3 always emits 16-bit little-endian stereo.
	frames := len(raw) / 4
	if frames == 0 {
		return nil, common.NewEngineError(common.ErrCodeUnsupportedFormat,
			"MP3 stream contains no samples", nil)
	}

	pcm := make([]float64, frames)
	for i := range frames {
		left := int16(raw[i*4]) | int16(raw[i*4+1])<<8
		right := int16(raw[i*4+2]) | int16(raw[i*4+3])<<8
		pcm[i] = (float64(left) + float64(right)) / (2.0 * 32768.0)
	}

	return &common.AudioData{
		PCM:        pcm,
		SampleRate: decoder.SampleRate(),
		Channels:   1,
		Duration:   durationOf(len(pcm), decoder.SampleRate()),
	}, nil
}

// Resample converts mono PCM to the target sample rate. The input buffer is
// returned unchanged when the rates already match.
func Resample(audio *common.AudioData, targetRate int) (*common.AudioData, error) {
	if audio.SampleRate == targetRate {
		out := make([]float64, len(audio.PCM))
		copy(out, audio.PCM)
		return &common.AudioData{
			PCM:        out,
			SampleRate: targetRate,
			Channels:   1,
			Duration:   audio.Duration,
		}, nil
	}

	resampler, err := resampling.New(&resampling.Config{
		InputRate:  float64(audio.SampleRate),
		OutputRate: float64(targetRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create resampler: %w", err)
	}

	out, err := resampler.Process(audio.PCM)
	if err != nil {
		return nil, fmt.Errorf("resample error: %w", err)
	}

	return &common.AudioData{
		PCM:        out,
		SampleRate: targetRate,
		Channels:   1,
		Duration:   durationOf(len(out), targetRate),
	}, nil
}

func durationOf(samples, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(samples) / float64(sampleRate) * float64(time.Second))
}
