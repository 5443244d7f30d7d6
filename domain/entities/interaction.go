package entities

import "time"

// Interaction is one processed request, recorded to the append-only history
// log. Write-only from the service's perspective; never read back.
type Interaction struct {
	Timestamp time.Time `json:"timestamp"`
	Tone      Tone      `json:"tone"`
	Input     string    `json:"input"`
	Output    string    `json:"output"`
}
