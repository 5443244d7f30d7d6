// Package usecase orchestrates the voice-transformation pipelines on top of
// the adapter ports.
package usecase

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gbarbosa9/retone/domain"
	"github.com/gbarbosa9/retone/domain/entities"
	"github.com/gbarbosa9/retone/domain/repositories"
	"github.com/gbarbosa9/retone/internal/audio"
	"github.com/gbarbosa9/retone/internal/embedding"
	"github.com/gbarbosa9/retone/internal/history"
	"github.com/gbarbosa9/retone/internal/sanitize"
)

// ProcessService drives the per-request pipeline:
// normalize -> transcribe -> rewrite -> synthesize -> log -> respond.
// Every stage runs sequentially; temp artifacts are removed on all exit
// paths.
type ProcessService struct {
	normalizer  *audio.Normalizer
	transcriber repositories.Transcriber
	rewriter    repositories.Rewriter
	synthesizer repositories.SpeechSynthesizer
	extractor   repositories.EmbeddingExtractor
	embeddings  *embedding.Cache
	history     *history.Log
	tempDir     string
	audioDir    string
	allowedExts map[string]bool
	logger      *zap.Logger
}

// ProcessRequest is one uploaded recording plus its processing parameters.
type ProcessRequest struct {
	Filename string
	Audio    io.Reader
	Tone     entities.Tone
	UserID   string
}

// ProcessResult carries the text results and, when synthesis succeeded, the
// serving URL of the synthesized audio.
type ProcessResult struct {
	Original  string
	Rewritten string
	Tone      entities.Tone
	AudioURL  *string
}

// NewProcessService wires the pipeline. allowedExts entries are lowercase
// extensions including the dot.
func NewProcessService(
	normalizer *audio.Normalizer,
	transcriber repositories.Transcriber,
	rewriter repositories.Rewriter,
	synthesizer repositories.SpeechSynthesizer,
	extractor repositories.EmbeddingExtractor,
	embeddings *embedding.Cache,
	historyLog *history.Log,
	tempDir, audioDir string,
	allowedExts []string,
	logger *zap.Logger,
) *ProcessService {
	exts := make(map[string]bool, len(allowedExts))
	for _, ext := range allowedExts {
		exts[strings.ToLower(ext)] = true
	}
	return &ProcessService{
		normalizer:  normalizer,
		transcriber: transcriber,
		rewriter:    rewriter,
		synthesizer: synthesizer,
		extractor:   extractor,
		embeddings:  embeddings,
		history:     historyLog,
		tempDir:     tempDir,
		audioDir:    audioDir,
		allowedExts: exts,
		logger:      logger,
	}
}

// Process runs the full pipeline for one request. Validation failures return
// before any file is written or model invoked. Synthesis failure is
// non-fatal: the text results are returned with a null audio URL.
func (s *ProcessService) Process(ctx context.Context, req ProcessRequest) (*ProcessResult, error) {
	ext := strings.ToLower(filepath.Ext(req.Filename))
	if !s.allowedExts[ext] {
		return nil, domain.Validationf("unsupported audio format %q", ext)
	}
	if _, err := entities.ParseTone(string(req.Tone)); err != nil {
		return nil, err
	}

	tempID := uuid.NewString()
	inputPath := filepath.Join(s.tempDir, "temp_"+tempID+ext)
	if err := saveUpload(inputPath, req.Audio); err != nil {
		return nil, err
	}

	// wavPath tracks whichever canonical file the pipeline is consuming;
	// both it and the original upload are gone once the request ends.
	wavPath := inputPath
	defer func() {
		for _, p := range []string{inputPath, wavPath} {
			if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
				s.logger.Warn("failed to remove temp file",
					zap.String("path", p), zap.Error(err))
			}
		}
	}()

	var err error
	wavPath, err = s.normalizer.Normalize(ctx, inputPath)
	if err != nil {
		return nil, err
	}

	original, err := s.transcriber.Transcribe(ctx, wavPath)
	if err != nil {
		return nil, err
	}
	s.logger.Info("transcription complete",
		zap.String("request_id", tempID), zap.Int("length", len(original)))

	result := &ProcessResult{Original: original, Tone: req.Tone}

	// Silence is a valid transcription result. There is nothing to rewrite
	// or speak, so the request completes with empty text and no audio.
	if strings.TrimSpace(original) == "" {
		s.appendHistory(req.Tone, original, "")
		return result, nil
	}

	rewritten, err := s.rewriter.Rewrite(ctx, original, req.Tone)
	if err != nil {
		return nil, err
	}
	result.Rewritten = rewritten

	if req.UserID != "" {
		result.AudioURL = s.synthesize(ctx, req.UserID, rewritten, wavPath, tempID)
	}

	s.appendHistory(req.Tone, original, rewritten)
	return result, nil
}

// synthesize produces the cloned rendering and returns its serving URL, or
// nil on failure. The user's cached embedding is used when present; a first
// request without enrollment falls back to extracting one from the request's
// own recording.
func (s *ProcessService) synthesize(ctx context.Context, userID, rewritten, wavPath, tempID string) *string {
	embeddingPath, err := s.embeddings.GetOrCreate(ctx, userID, wavPath, s.extractor)
	if err != nil {
		s.logger.Error("embedding unavailable, returning text only",
			zap.String("user_id", userID), zap.Error(err))
		return nil
	}

	safeText := sanitize.ForSynthesis(rewritten)
	if safeText == "" {
		s.logger.Warn("nothing left to synthesize after sanitization",
			zap.String("request_id", tempID))
		return nil
	}

	outName := "rewritten_" + tempID + audio.CanonicalExt
	outPath := filepath.Join(s.audioDir, outName)
	if err := s.synthesizer.Synthesize(ctx, safeText, embeddingPath, outPath); err != nil {
		s.logger.Error("synthesis failed, returning text only",
			zap.String("user_id", userID), zap.Error(err))
		return nil
	}

	url := "/files/" + outName
	return &url
}

func (s *ProcessService) appendHistory(tone entities.Tone, input, output string) {
	err := s.history.Append(entities.Interaction{Tone: tone, Input: input, Output: output})
	if err != nil {
		s.logger.Warn("failed to append interaction log", zap.Error(err))
	}
}

func saveUpload(path string, r io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return domain.Filesystemf("save upload %s: %v", path, err)
	}
	_, werr := io.Copy(f, r)
	cerr := f.Close()
	if werr != nil {
		os.Remove(path)
		return domain.Filesystemf("save upload %s: %v", path, werr)
	}
	if cerr != nil {
		os.Remove(path)
		return domain.Filesystemf("save upload %s: %v", path, cerr)
	}
	return nil
}
