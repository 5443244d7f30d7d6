// Package audio handles canonical waveform plumbing: normalizing uploads to
// the mono PCM WAV every downstream model expects, concatenating enrollment
// clips, and decoding WAV data into samples for local inference.
package audio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/gbarbosa9/retone/domain"
)

const (
	// CanonicalExt is the single audio format all downstream models require.
	CanonicalExt = ".wav"

	// CanonicalSampleRate is the sample rate of normalized audio in Hz.
	CanonicalSampleRate = 16000
)

// Normalizer converts arbitrary uploaded audio containers into canonical
// mono PCM WAV by shelling out to ffmpeg.
type Normalizer struct {
	ffmpegPath string
	logger     *zap.Logger
}

// NewNormalizer creates a Normalizer using the ffmpeg binary at ffmpegPath,
// or "ffmpeg" from PATH when empty.
func NewNormalizer(ffmpegPath string, logger *zap.Logger) *Normalizer {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Normalizer{ffmpegPath: ffmpegPath, logger: logger}
}

// Normalize returns the canonical WAV path for the audio at inputPath. An
// already-canonical input is returned as-is with no copy. Otherwise the
// input is decoded and re-encoded next to it as 16 kHz mono PCM WAV and the
// original container file is removed on success: exactly one file written,
// exactly one removed.
func (n *Normalizer) Normalize(ctx context.Context, inputPath string) (string, error) {
	ext := filepath.Ext(inputPath)
	if strings.EqualFold(ext, CanonicalExt) {
		return inputPath, nil
	}

	wavPath := strings.TrimSuffix(inputPath, ext) + CanonicalExt
	cmd := exec.CommandContext(ctx, n.ffmpegPath,
		"-y",
		"-i", inputPath,
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(CanonicalSampleRate),
		"-ac", "1",
		wavPath)

	output, err := cmd.CombinedOutput()
	if err != nil {
		if rmErr := os.Remove(wavPath); rmErr != nil && !os.IsNotExist(rmErr) {
			n.logger.Warn("failed to remove partial wav output",
				zap.String("path", wavPath), zap.Error(rmErr))
		}
		return "", fmt.Errorf("%w: unsupported or malformed audio %q: %v: %s",
			domain.ErrValidation, filepath.Base(inputPath), err, bytes.TrimSpace(output))
	}

	if err := os.Remove(inputPath); err != nil {
		n.logger.Warn("failed to remove original upload",
			zap.String("path", inputPath), zap.Error(err))
	}

	n.logger.Debug("normalized upload",
		zap.String("input", inputPath), zap.String("wav", wavPath))
	return wavPath, nil
}
