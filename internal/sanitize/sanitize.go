// Package sanitize prepares rewritten text for speech synthesis. The
// synthesis backend is intolerant of unexpected symbols, so text is
// transliterated to ASCII, filtered against an allow-list and length-capped
// before it reaches the model.
package sanitize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxSynthesisLen caps the text handed to the synthesis model.
const MaxSynthesisLen = 300

// asciiFold decomposes accented characters, strips the combining marks and
// drops whatever non-ASCII remains.
var asciiFold = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
)

// ForSynthesis returns text reduced to the character set the synthesis model
// accepts: ASCII letters, digits, space and basic punctuation, at most
// MaxSynthesisLen bytes, trimmed.
func ForSynthesis(text string) string {
	folded, _, err := transform.String(asciiFold, text)
	if err != nil {
		folded = text
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if allowed(r) {
			b.WriteRune(r)
		}
	}

	out := strings.TrimSpace(b.String())
	if len(out) > MaxSynthesisLen {
		out = strings.TrimSpace(out[:MaxSynthesisLen])
	}
	return out
}

func allowed(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	switch r {
	case ' ', '.', ',', '?', '!', '\'', '"', '-':
		return true
	}
	return false
}
