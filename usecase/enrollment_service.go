package usecase

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gbarbosa9/retone/domain"
	"github.com/gbarbosa9/retone/domain/repositories"
	"github.com/gbarbosa9/retone/internal/audio"
	"github.com/gbarbosa9/retone/internal/embedding"
)

// PreviewText is the fixed phrase synthesized after enrollment so the user
// can confirm the cloned voice.
const PreviewText = "This is a preview of your cloned voice."

// EnrollmentService manages per-user reference recordings and speaker
// embedding creation: collect prompts, concatenate, extract, cache, preview.
type EnrollmentService struct {
	normalizer  *audio.Normalizer
	extractor   repositories.EmbeddingExtractor
	synthesizer repositories.SpeechSynthesizer
	embeddings  *embedding.Cache
	enrollDir   string
	audioDir    string
	logger      *zap.Logger
}

// NewEnrollmentService wires the enrollment flow. enrollDir holds one
// subdirectory of prompt recordings per user; audioDir receives previews.
func NewEnrollmentService(
	normalizer *audio.Normalizer,
	extractor repositories.EmbeddingExtractor,
	synthesizer repositories.SpeechSynthesizer,
	embeddings *embedding.Cache,
	enrollDir, audioDir string,
	logger *zap.Logger,
) *EnrollmentService {
	return &EnrollmentService{
		normalizer:  normalizer,
		extractor:   extractor,
		synthesizer: synthesizer,
		embeddings:  embeddings,
		enrollDir:   enrollDir,
		audioDir:    audioDir,
		logger:      logger,
	}
}

// SavePrompt stores one enrollment clip under the user's directory, keyed by
// prompt id. Re-uploading the same prompt id overwrites the previous clip.
// The clip is normalized to canonical WAV on the way in.
func (s *EnrollmentService) SavePrompt(ctx context.Context, userID, promptID string, clip io.Reader, filename string) error {
	if userID == "" {
		return domain.Validationf("user_id is required")
	}
	if promptID == "" {
		return domain.Validationf("prompt_id is required")
	}

	userDir := s.userDir(userID)
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		return domain.Filesystemf("create enrollment dir %s: %v", userDir, err)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = audio.CanonicalExt
	}
	rawPath := filepath.Join(userDir, embedding.SafeID(promptID)+ext)
	if err := saveUpload(rawPath, clip); err != nil {
		return err
	}

	wavPath, err := s.normalizer.Normalize(ctx, rawPath)
	if err != nil {
		if rmErr := os.Remove(rawPath); rmErr != nil && !os.IsNotExist(rmErr) {
			s.logger.Warn("failed to remove rejected clip",
				zap.String("path", rawPath), zap.Error(rmErr))
		}
		return err
	}

	s.logger.Info("enrollment clip stored",
		zap.String("user_id", userID),
		zap.String("prompt_id", promptID),
		zap.String("path", wavPath))
	return nil
}

// Complete finalizes enrollment for userID: concatenates the stored prompts
// in lexicographic filename order, extracts and caches the speaker
// embedding, then synthesizes a short preview. Preview failure is non-fatal;
// the embedding is already cached.
func (s *EnrollmentService) Complete(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", domain.Validationf("user_id is required")
	}

	prompts, err := s.promptPaths(userID)
	if err != nil {
		return "", err
	}
	if len(prompts) == 0 {
		return "", domain.Validationf("no prompt audio found for user %q", userID)
	}

	refPath := prompts[0]
	if len(prompts) > 1 {
		refPath = filepath.Join(s.enrollDir, "ref_"+uuid.NewString()+audio.CanonicalExt)
		if err := audio.Concat(prompts, refPath); err != nil {
			return "", err
		}
		defer func() {
			if err := os.Remove(refPath); err != nil && !os.IsNotExist(err) {
				s.logger.Warn("failed to remove reference track",
					zap.String("path", refPath), zap.Error(err))
			}
		}()
	}

	embeddingPath, err := s.embeddings.Put(ctx, userID, refPath, s.extractor)
	if err != nil {
		return "", err
	}

	previewPath := s.PreviewPath(userID)
	if err := s.synthesizer.Synthesize(ctx, PreviewText, embeddingPath, previewPath); err != nil {
		s.logger.Warn("preview synthesis failed",
			zap.String("user_id", userID), zap.Error(err))
	}

	return "/setup/preview/" + userID, nil
}

// HasSetup reports whether userID has a usable cached embedding.
func (s *EnrollmentService) HasSetup(userID string) bool {
	return s.embeddings.Has(userID)
}

// PreviewPath returns where the user's preview audio lives, whether or not
// it exists yet.
func (s *EnrollmentService) PreviewPath(userID string) string {
	return filepath.Join(s.audioDir, "preview_"+embedding.SafeID(userID)+audio.CanonicalExt)
}

func (s *EnrollmentService) userDir(userID string) string {
	return filepath.Join(s.enrollDir, embedding.SafeID(userID))
}

// promptPaths lists the user's stored canonical clips in lexicographic
// order, keeping embeddings reproducible across repeated enrollments with
// the same inputs.
func (s *EnrollmentService) promptPaths(userID string) ([]string, error) {
	entries, err := os.ReadDir(s.userDir(userID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, domain.Filesystemf("list enrollment dir for %q: %v", userID, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), audio.CanonicalExt) {
			continue
		}
		paths = append(paths, filepath.Join(s.userDir(userID), entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
