package repositories

import (
	"context"

	"github.com/gbarbosa9/retone/domain/entities"
)

// Rewriter abstracts the text generation backend used for tone rewriting.
//
// Implementations build a fixed instruction template embedding the tone and
// the source text. Sampling-based generation is acceptable, so the same
// (text, tone) pair may yield different wording across calls, but a
// successful call always returns non-empty output. Backend failures surface
// as typed upstream errors and never crash the request pipeline.
type Rewriter interface {
	Rewrite(ctx context.Context, text string, tone entities.Tone) (string, error)
}
