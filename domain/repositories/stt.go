package repositories

import "context"

// Transcriber abstracts speech recognition backends.
//
// Implementations own a single model instance per process, initialized at
// startup and shared read-only across concurrent requests. If the underlying
// runtime is not safely reentrant the implementation must serialize
// inference internally.
type Transcriber interface {
	// Transcribe converts the canonical WAV file at wavPath to text.
	// Empty output is a valid result for silent or unintelligible audio,
	// not an error.
	Transcribe(ctx context.Context, wavPath string) (string, error)
}
