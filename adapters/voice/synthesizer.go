package voice

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gbarbosa9/retone/domain"
	"github.com/gbarbosa9/retone/domain/repositories"
)

// NeutralRenderer produces a neutral-voice WAV rendering of text.
type NeutralRenderer interface {
	Render(ctx context.Context, text, outputPath string) error
}

// ToneConverter re-colors neutral audio toward a speaker embedding.
type ToneConverter interface {
	Convert(ctx context.Context, srcPath, embeddingPath, outputPath string) error
}

// ClonedSynthesizer produces speech in a target voice: a neutral rendering
// first, then tone-color conversion toward the cached speaker embedding. The
// neutral rendering is scratch state, removed on every path, and conversion
// writes through a temp name so a failure never leaves a partial file where
// the file-serving endpoint could see it.
type ClonedSynthesizer struct {
	renderer   NeutralRenderer
	converter  ToneConverter
	scratchDir string
	logger     *zap.Logger
}

var _ repositories.SpeechSynthesizer = (*ClonedSynthesizer)(nil)

// NewClonedSynthesizer composes renderer and converter, using scratchDir for
// intermediate neutral audio.
func NewClonedSynthesizer(renderer NeutralRenderer, converter ToneConverter, scratchDir string, logger *zap.Logger) *ClonedSynthesizer {
	return &ClonedSynthesizer{
		renderer:   renderer,
		converter:  converter,
		scratchDir: scratchDir,
		logger:     logger,
	}
}

// Synthesize renders text and converts it toward the embedding at
// embeddingPath, writing the final audio to outputPath.
func (s *ClonedSynthesizer) Synthesize(ctx context.Context, text, embeddingPath, outputPath string) error {
	neutralPath := filepath.Join(s.scratchDir, fmt.Sprintf("neutral_%s.wav", uuid.NewString()))
	defer func() {
		if err := os.Remove(neutralPath); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to remove neutral rendering",
				zap.String("path", neutralPath), zap.Error(err))
		}
	}()

	if err := s.renderer.Render(ctx, text, neutralPath); err != nil {
		return err
	}

	partPath := outputPath + ".part"
	if err := s.converter.Convert(ctx, neutralPath, embeddingPath, partPath); err != nil {
		os.Remove(partPath)
		return err
	}
	if err := os.Rename(partPath, outputPath); err != nil {
		os.Remove(partPath)
		return domain.Filesystemf("finalize %s: %v", outputPath, err)
	}

	s.logger.Info("cloned synthesis complete", zap.String("path", outputPath))
	return nil
}
