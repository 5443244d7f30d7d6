// Package domain holds the error taxonomy shared by adapters, usecases and
// the HTTP layer. Adapters wrap causes with one of the sentinel kinds below;
// the API layer is the single place that translates them to status codes.
package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks client mistakes: bad tone, unsupported upload
	// extension, missing enrollment audio. No model work is attempted.
	ErrValidation = errors.New("validation error")

	// ErrNotFound marks a missing file for the serving endpoints.
	ErrNotFound = errors.New("not found")

	// ErrUpstream marks a failure in one of the external model backends
	// (transcription, rewrite, synthesis, embedding extraction).
	ErrUpstream = errors.New("upstream model error")

	// ErrFilesystem marks a failed temp or cache file operation. Fatal to
	// the current request only.
	ErrFilesystem = errors.New("filesystem error")
)

// Validationf builds a client-facing validation error.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Upstreamf builds an error describing a model backend failure.
func Upstreamf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUpstream, fmt.Sprintf(format, args...))
}

// Filesystemf builds an error describing a failed file operation.
func Filesystemf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrFilesystem, fmt.Sprintf(format, args...))
}
