package api

// ProcessResponse is the result of one /process/ request. AudioURL is null
// when synthesis was skipped or failed.
type ProcessResponse struct {
	Original  string  `json:"original"`
	Rewritten string  `json:"rewritten"`
	Tone      string  `json:"tone"`
	AudioURL  *string `json:"audio_url"`
}

// MessageResponse is a simple confirmation payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// SetupCompleteResponse confirms enrollment and points at the preview.
type SetupCompleteResponse struct {
	Message string `json:"message"`
	Preview string `json:"preview"`
}

// HasSetupResponse reports a user's enrollment state.
type HasSetupResponse struct {
	UserID        string `json:"user_id"`
	HasVoiceSetup bool   `json:"has_voice_setup"`
}

// ErrorResponse carries a human-readable failure description.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
