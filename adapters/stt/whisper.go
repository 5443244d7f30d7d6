package stt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"go.uber.org/zap"

	"github.com/gbarbosa9/retone/domain"
	"github.com/gbarbosa9/retone/domain/repositories"
	"github.com/gbarbosa9/retone/internal/audio"
)

// WhisperTranscriber runs local whisper.cpp inference through the CGO
// bindings. The model is loaded once at construction and shared for the
// process lifetime. Whisper contexts are not thread-safe, so inference is
// serialized; correctness over throughput.
type WhisperTranscriber struct {
	model    whisperlib.Model
	language string
	logger   *zap.Logger

	mu sync.Mutex
}

var _ repositories.Transcriber = (*WhisperTranscriber)(nil)

// NewWhisperTranscriber loads the whisper model at modelPath. language is a
// BCP-47 code, defaulting to "en".
func NewWhisperTranscriber(modelPath, language string, logger *zap.Logger) (*WhisperTranscriber, error) {
	if modelPath == "" {
		return nil, errors.New("whisper model path must not be empty")
	}
	model, err := whisperlib.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load whisper model %q: %w", modelPath, err)
	}
	if language == "" {
		language = "en"
	}
	logger.Info("whisper model loaded", zap.String("path", modelPath))
	return &WhisperTranscriber{model: model, language: language, logger: logger}, nil
}

// Close releases the whisper model.
func (w *WhisperTranscriber) Close() error {
	if w.model != nil {
		return w.model.Close()
	}
	return nil
}

// Transcribe decodes the canonical WAV at wavPath and runs inference on it.
// Silence yields an empty string, not an error.
func (w *WhisperTranscriber) Transcribe(ctx context.Context, wavPath string) (string, error) {
	samples, err := audio.ReadMonoFloat32(wavPath)
	if err != nil {
		return "", err
	}
	if len(samples) == 0 {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	wctx, err := w.model.NewContext()
	if err != nil {
		return "", domain.Upstreamf("create whisper context: %v", err)
	}
	if err := wctx.SetLanguage(w.language); err != nil {
		w.logger.Warn("failed to set whisper language, using default",
			zap.String("language", w.language), zap.Error(err))
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return "", domain.Upstreamf("whisper inference: %v", err)
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", domain.Upstreamf("read whisper segment: %v", err)
		}
		if text := strings.TrimSpace(segment.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), nil
}
