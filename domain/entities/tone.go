package entities

import "github.com/gbarbosa9/retone/domain"

// Tone is a named register of communication that the rewrite step targets.
type Tone string

const (
	ToneConfident Tone = "confident"
	TonePolite    Tone = "polite"
	ToneConcise   Tone = "concise"
)

// Tones returns every valid tone in presentation order. The listing endpoint
// and the validation step both read from here, so the two can never drift.
func Tones() []Tone {
	return []Tone{ToneConfident, TonePolite, ToneConcise}
}

// ToneNames returns the tones as plain strings for JSON responses.
func ToneNames() []string {
	tones := Tones()
	names := make([]string, len(tones))
	for i, t := range tones {
		names[i] = string(t)
	}
	return names
}

// ParseTone validates a user-supplied tone value. Anything outside the
// enumerated set is rejected before any model work begins.
func ParseTone(value string) (Tone, error) {
	for _, t := range Tones() {
		if string(t) == value {
			return t, nil
		}
	}
	return "", domain.Validationf("invalid tone %q", value)
}
