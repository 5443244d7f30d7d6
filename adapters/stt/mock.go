package stt

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/gbarbosa9/retone/domain/repositories"
)

// MockTranscriber is a placeholder transcription backend for development and
// tests. It returns a fixed transcript without touching any model.
type MockTranscriber struct {
	logger *zap.Logger

	// Text is the transcript returned for every call.
	Text string
	// Err, when set, is returned instead.
	Err error

	calls atomic.Int64
}

var _ repositories.Transcriber = (*MockTranscriber)(nil)

// NewMockTranscriber creates a mock returning text for every file.
func NewMockTranscriber(text string, logger *zap.Logger) *MockTranscriber {
	return &MockTranscriber{Text: text, logger: logger}
}

// Transcribe returns the configured transcript.
func (m *MockTranscriber) Transcribe(ctx context.Context, wavPath string) (string, error) {
	m.calls.Add(1)
	if m.logger != nil {
		m.logger.Debug("mock transcription", zap.String("path", wavPath))
	}
	if m.Err != nil {
		return "", m.Err
	}
	return m.Text, nil
}

// Calls reports how many times Transcribe ran.
func (m *MockTranscriber) Calls() int {
	return int(m.calls.Load())
}
