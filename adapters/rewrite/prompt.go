// Package rewrite provides text-rewriting backends. Every backend shares one
// instruction template so the output register depends on the requested tone,
// not on which provider served the request.
package rewrite

import (
	"fmt"
	"strings"

	"github.com/gbarbosa9/retone/domain/entities"
)

const promptTemplate = "Rewrite the following text to sound more %s. " +
	"Keep the original meaning and reply with the rewritten text only.\n\n%s"

// buildPrompt embeds the tone name and source text into the fixed template.
func buildPrompt(text string, tone entities.Tone) string {
	return fmt.Sprintf(promptTemplate, tone, strings.TrimSpace(text))
}
