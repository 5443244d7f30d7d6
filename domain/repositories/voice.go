package repositories

import "context"

// SpeechSynthesizer produces speech in a target voice.
//
// Synthesis is a two-stage pipeline: a neutral-voice rendering of the text,
// then tone-color conversion toward the speaker embedding at embeddingPath.
// The intermediate neutral audio is scratch state and is removed regardless
// of outcome. A failed call must not leave a partial file at outputPath.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, embeddingPath, outputPath string) error
}

// EmbeddingExtractor derives a speaker embedding from reference audio.
// Extraction is expensive; callers cache the result per user.
type EmbeddingExtractor interface {
	Extract(ctx context.Context, refAudioPath, outputPath string) error
}
