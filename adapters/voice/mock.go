package voice

import (
	"context"
	"os"
	"sync/atomic"

	"github.com/gbarbosa9/retone/domain/repositories"
)

// MockSynthesizer is a placeholder synthesis backend for development and
// tests. It writes a tiny stub file instead of invoking any model.
type MockSynthesizer struct {
	// Err, when set, is returned without writing anything.
	Err error

	calls atomic.Int64
}

var _ repositories.SpeechSynthesizer = (*MockSynthesizer)(nil)

// Synthesize writes a stub output file.
func (m *MockSynthesizer) Synthesize(ctx context.Context, text, embeddingPath, outputPath string) error {
	m.calls.Add(1)
	if m.Err != nil {
		return m.Err
	}
	return os.WriteFile(outputPath, []byte("RIFF"), 0o644)
}

// Calls reports how many times Synthesize ran.
func (m *MockSynthesizer) Calls() int {
	return int(m.calls.Load())
}

// MockExtractor is a placeholder embedding extractor. It records the
// reference audio it was handed and writes a stub embedding file.
type MockExtractor struct {
	// Err, when set, is returned without writing anything.
	Err error

	calls   atomic.Int64
	lastRef atomic.Value
}

var _ repositories.EmbeddingExtractor = (*MockExtractor)(nil)

// Extract writes a stub embedding file.
func (m *MockExtractor) Extract(ctx context.Context, refAudioPath, outputPath string) error {
	m.calls.Add(1)
	m.lastRef.Store(refAudioPath)
	if m.Err != nil {
		return m.Err
	}
	return os.WriteFile(outputPath, []byte("embedding"), 0o644)
}

// Calls reports how many times Extract ran.
func (m *MockExtractor) Calls() int {
	return int(m.calls.Load())
}

// LastRef returns the reference audio path of the most recent call.
func (m *MockExtractor) LastRef() string {
	if v := m.lastRef.Load(); v != nil {
		return v.(string)
	}
	return ""
}
