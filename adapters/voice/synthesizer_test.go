package voice

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRenderer struct {
	err   error
	calls int
}

func (f *fakeRenderer) Render(ctx context.Context, text, outputPath string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(outputPath, []byte("neutral:"+text), 0o644)
}

type fakeConverter struct {
	err     error
	lastSrc string
	lastSE  string
}

func (f *fakeConverter) Convert(ctx context.Context, srcPath, embeddingPath, outputPath string) error {
	f.lastSrc = srcPath
	f.lastSE = embeddingPath
	if f.err != nil {
		return f.err
	}
	src, err := os.ReadFile(srcPath)
	if err != nil {
		return err
	}
	return os.WriteFile(outputPath, append([]byte("cloned:"), src...), 0o644)
}

func TestSynthesizeRendersThenConverts(t *testing.T) {
	scratch := t.TempDir()
	renderer := &fakeRenderer{}
	converter := &fakeConverter{}
	s := NewClonedSynthesizer(renderer, converter, scratch, zap.NewNop())

	out := filepath.Join(t.TempDir(), "rewritten_x.wav")
	require.NoError(t, s.Synthesize(context.Background(), "hello", "alice.se", out))

	payload, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "cloned:neutral:hello", string(payload))
	assert.Equal(t, "alice.se", converter.lastSE)

	// The neutral intermediate never outlives the call.
	entries, err := os.ReadDir(scratch)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSynthesizeRenderFailureSkipsConversion(t *testing.T) {
	renderer := &fakeRenderer{err: errors.New("tts down")}
	converter := &fakeConverter{}
	s := NewClonedSynthesizer(renderer, converter, t.TempDir(), zap.NewNop())

	out := filepath.Join(t.TempDir(), "rewritten_x.wav")
	err := s.Synthesize(context.Background(), "hello", "alice.se", out)
	require.Error(t, err)
	assert.Empty(t, converter.lastSrc, "conversion must not run without a rendering")
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestSynthesizeConversionFailureLeavesNoPartialOutput(t *testing.T) {
	scratch := t.TempDir()
	s := NewClonedSynthesizer(&fakeRenderer{}, &fakeConverter{err: errors.New("bad embedding")}, scratch, zap.NewNop())

	outDir := t.TempDir()
	out := filepath.Join(outDir, "rewritten_x.wav")
	err := s.Synthesize(context.Background(), "hello", "alice.se", out)
	require.Error(t, err)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "neither the output nor its .part file may remain")

	scratchEntries, err := os.ReadDir(scratch)
	require.NoError(t, err)
	assert.Empty(t, scratchEntries)
}
