package dto

// SynthesizeRequest asks for spoken audio of a text.
type SynthesizeRequest struct {
	Text     string `json:"text" validate:"required"`
	Language string `json:"language"`
	VoiceID  string `json:"voiceId"`
}

// MeetingNotesRequest triggers a synchronous notes generation.
type MeetingNotesRequest struct {
	RoomID string `json:"roomId" validate:"required"`
}

// MeetingNotesResponse carries the generated document.
type MeetingNotesResponse struct {
	Success bool   `json:"success"`
	Notes   string `json:"notes"`
}

// CheckVoiceCloneResponse reports whether a username owns a cloned
// voice.
type CheckVoiceCloneResponse struct {
	Found   bool   `json:"found"`
	VoiceID string `json:"voiceId,omitempty"`
}

// HealthResponse is the health check body.
type HealthResponse struct {
	Status      string `json:"status"`
	Environment string `json:"environment"`
	Rooms       int    `json:"rooms"`
	Connections int    `json:"connections"`
}
