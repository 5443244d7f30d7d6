// Package voice implements speaker-targeted synthesis: tone-color conversion
// and speaker-embedding extraction via the OpenVoice command line tool, plus
// the two-stage synthesizer that composes them with a neutral renderer.
package voice

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/gbarbosa9/retone/domain"
	"github.com/gbarbosa9/retone/domain/repositories"
)

// OpenVoice wraps the OpenVoice CLI as an external-process adapter. The
// contract is arguments in, file path out, exit code as the success signal;
// stderr is captured into the error detail.
type OpenVoice struct {
	binPath string
	logger  *zap.Logger
}

var _ repositories.EmbeddingExtractor = (*OpenVoice)(nil)

// NewOpenVoice creates the adapter for the binary at binPath.
func NewOpenVoice(binPath string, logger *zap.Logger) (*OpenVoice, error) {
	if binPath == "" {
		return nil, errors.New("openvoice binary path must not be empty")
	}
	return &OpenVoice{binPath: binPath, logger: logger}, nil
}

// Extract derives a speaker embedding from the reference audio at
// refAudioPath and writes it to outputPath.
func (o *OpenVoice) Extract(ctx context.Context, refAudioPath, outputPath string) error {
	return o.run(ctx, "extract-se", "--ref", refAudioPath, "--out", outputPath)
}

// Convert re-colors the neutral rendering at srcPath toward the speaker
// embedding at embeddingPath, writing the result to outputPath.
func (o *OpenVoice) Convert(ctx context.Context, srcPath, embeddingPath, outputPath string) error {
	return o.run(ctx, "convert", "--src", srcPath, "--se", embeddingPath, "--out", outputPath)
}

func (o *OpenVoice) run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, o.binPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return domain.Upstreamf("%s %s: %v: %s",
			filepath.Base(o.binPath), args[0], err, bytes.TrimSpace(output))
	}
	o.logger.Debug("openvoice command complete", zap.Strings("args", args))
	return nil
}
