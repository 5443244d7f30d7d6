package stt

import (
	"context"
	"fmt"
	"os"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"

	"github.com/gbarbosa9/retone/domain"
	"github.com/gbarbosa9/retone/domain/repositories"
	"github.com/gbarbosa9/retone/internal/audio"
)

// GoogleTranscriber implements Transcriber using Google Cloud
// Speech-to-Text in batch (non-streaming) mode. The gRPC client is safe for
// concurrent use, so no additional serialization is needed.
type GoogleTranscriber struct {
	client   *speech.Client
	language string
	logger   *zap.Logger
}

var _ repositories.Transcriber = (*GoogleTranscriber)(nil)

// NewGoogleTranscriber creates the Speech client using ambient Google Cloud
// credentials. language is a BCP-47 code such as "en-US".
func NewGoogleTranscriber(ctx context.Context, language string, logger *zap.Logger) (*GoogleTranscriber, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create speech client: %w", err)
	}
	if language == "" {
		language = "en-US"
	}
	return &GoogleTranscriber{client: client, language: language, logger: logger}, nil
}

// Close releases the underlying gRPC connection.
func (g *GoogleTranscriber) Close() error {
	return g.client.Close()
}

// Transcribe submits the canonical WAV at wavPath for recognition and joins
// the result transcripts.
func (g *GoogleTranscriber) Transcribe(ctx context.Context, wavPath string) (string, error) {
	data, err := os.ReadFile(wavPath)
	if err != nil {
		return "", domain.Filesystemf("read wav %s: %v", wavPath, err)
	}

	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz: int32(audio.CanonicalSampleRate),
			LanguageCode:    g.language,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: data},
		},
	})
	if err != nil {
		return "", domain.Upstreamf("google speech recognize: %v", err)
	}

	var parts []string
	for _, result := range resp.Results {
		if len(result.Alternatives) > 0 {
			parts = append(parts, strings.TrimSpace(result.Alternatives[0].Transcript))
		}
	}
	text := strings.TrimSpace(strings.Join(parts, " "))
	g.logger.Debug("google transcription complete", zap.Int("results", len(resp.Results)))
	return text, nil
}
