package usecase

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gbarbosa9/retone/adapters/voice"
	"github.com/gbarbosa9/retone/domain"
	"github.com/gbarbosa9/retone/internal/audio"
	"github.com/gbarbosa9/retone/internal/embedding"
)

type enrollFixture struct {
	service     *EnrollmentService
	extractor   *voice.MockExtractor
	synthesizer *voice.MockSynthesizer
	embeddings  *embedding.Cache
	enrollDir   string
	audioDir    string
}

func newEnrollFixture(t *testing.T) *enrollFixture {
	t.Helper()
	root := t.TempDir()
	enrollDir := filepath.Join(root, "users")
	audioDir := filepath.Join(root, "audio")
	require.NoError(t, os.MkdirAll(enrollDir, 0o755))
	require.NoError(t, os.MkdirAll(audioDir, 0o755))

	logger := zap.NewNop()
	embeddings, err := embedding.NewCache(filepath.Join(root, "se"), logger)
	require.NoError(t, err)

	f := &enrollFixture{
		extractor:   &voice.MockExtractor{},
		synthesizer: &voice.MockSynthesizer{},
		embeddings:  embeddings,
		enrollDir:   enrollDir,
		audioDir:    audioDir,
	}
	f.service = NewEnrollmentService(
		audio.NewNormalizer("ffmpeg", logger),
		f.extractor,
		f.synthesizer,
		embeddings,
		enrollDir, audioDir,
		logger)
	return f
}

// wavBytes encodes samples as a canonical mono PCM WAV in memory.
func wavBytes(t *testing.T, data []int) []byte {
	t.Helper()
	tmp := filepath.Join(t.TempDir(), "clip.wav")
	out, err := os.Create(tmp)
	require.NoError(t, err)

	enc := wav.NewEncoder(out, audio.CanonicalSampleRate, 16, 1, 1)
	buf := &gaudio.IntBuffer{
		Format:         &gaudio.Format{SampleRate: audio.CanonicalSampleRate, NumChannels: 1},
		Data:           data,
		SourceBitDepth: 16,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
	require.NoError(t, out.Close())

	payload, err := os.ReadFile(tmp)
	require.NoError(t, err)
	return payload
}

func (f *enrollFixture) savePrompt(t *testing.T, userID, promptID string, data []int) {
	t.Helper()
	err := f.service.SavePrompt(context.Background(), userID, promptID,
		bytes.NewReader(wavBytes(t, data)), promptID+".wav")
	require.NoError(t, err)
}

func TestSavePromptRequiresIdentifiers(t *testing.T) {
	f := newEnrollFixture(t)
	clip := bytes.NewReader(wavBytes(t, []int{1, 2}))

	err := f.service.SavePrompt(context.Background(), "", "prompt1", clip, "p.wav")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	err = f.service.SavePrompt(context.Background(), "alice", "", clip, "p.wav")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestSavePromptStoresClipPerUser(t *testing.T) {
	f := newEnrollFixture(t)
	f.savePrompt(t, "alice", "prompt1", []int{10, 20})

	assert.FileExists(t, filepath.Join(f.enrollDir, "alice", "prompt1.wav"))
}

func TestSavePromptOverwritesSamePromptID(t *testing.T) {
	f := newEnrollFixture(t)
	f.savePrompt(t, "alice", "prompt1", []int{10, 20})
	f.savePrompt(t, "alice", "prompt1", []int{30, 40, 50})

	entries, err := os.ReadDir(filepath.Join(f.enrollDir, "alice"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "re-upload must replace, not accumulate")
}

func TestCompleteWithoutPromptsFails(t *testing.T) {
	f := newEnrollFixture(t)

	_, err := f.service.Complete(context.Background(), "nobody")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.Equal(t, 0, f.extractor.Calls())
}

func TestCompleteSinglePromptUsesItDirectly(t *testing.T) {
	f := newEnrollFixture(t)
	f.savePrompt(t, "alice", "prompt1", []int{10, 20, 30})

	previewURL, err := f.service.Complete(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "/setup/preview/alice", previewURL)

	assert.Equal(t, 1, f.extractor.Calls())
	assert.Equal(t, filepath.Join(f.enrollDir, "alice", "prompt1.wav"), f.extractor.LastRef())
	assert.True(t, f.service.HasSetup("alice"))
	assert.FileExists(t, f.service.PreviewPath("alice"))
}

func TestCompleteConcatenatesPromptsInOrder(t *testing.T) {
	f := newEnrollFixture(t)
	f.savePrompt(t, "bob", "prompt2", []int{300, 400})
	f.savePrompt(t, "bob", "prompt1", []int{100, 200})

	_, err := f.service.Complete(context.Background(), "bob")
	require.NoError(t, err)

	// The merged reference track is removed after extraction.
	ref := f.extractor.LastRef()
	assert.True(t, strings.HasPrefix(filepath.Base(ref), "ref_"), "got %q", ref)
	_, statErr := os.Stat(ref)
	assert.True(t, os.IsNotExist(statErr))
	assert.True(t, f.service.HasSetup("bob"))
}

func TestCompletePreviewFailureIsNonFatal(t *testing.T) {
	f := newEnrollFixture(t)
	f.synthesizer.Err = errors.New("tts server down")
	f.savePrompt(t, "carol", "prompt1", []int{1, 2, 3})

	previewURL, err := f.service.Complete(context.Background(), "carol")
	require.NoError(t, err, "preview is best-effort once the embedding is cached")
	assert.Equal(t, "/setup/preview/carol", previewURL)
	assert.True(t, f.service.HasSetup("carol"))
}

func TestCompleteReEnrollmentReplacesEmbedding(t *testing.T) {
	f := newEnrollFixture(t)
	f.savePrompt(t, "dave", "prompt1", []int{5, 6})

	_, err := f.service.Complete(context.Background(), "dave")
	require.NoError(t, err)
	_, err = f.service.Complete(context.Background(), "dave")
	require.NoError(t, err)

	assert.Equal(t, 2, f.extractor.Calls(), "re-enrollment always re-extracts")
	assert.True(t, f.service.HasSetup("dave"))
}
