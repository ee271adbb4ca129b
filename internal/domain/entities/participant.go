package entities

import "time"

// Participant represents one live connection in a room. A participant
// exists from join until leave/disconnect; connection ids are not
// stable across reconnects.
type Participant struct {
	ConnectionID  string    `json:"id"`
	Username      string    `json:"username"`
	Language      string    `json:"language"`
	NotesLanguage string    `json:"-"`
	VoiceID       string    `json:"-"`
	JoinedAt      time.Time `json:"-"`
}

// HasVoiceClone reports whether a cloned synthesis voice is known for
// this participant.
func (p *Participant) HasVoiceClone() bool {
	return p.VoiceID != ""
}

// EffectiveNotesLanguage is the language meeting notes should be
// delivered in: the explicit notes preference when set, otherwise the
// conversation language.
func (p *Participant) EffectiveNotesLanguage() string {
	if p.NotesLanguage != "" {
		return p.NotesLanguage
	}
	return p.Language
}

// Summary is the roster view broadcast to clients.
type Summary struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Language      string `json:"language"`
	HasVoiceClone bool   `json:"hasVoiceClone"`
}

// Summarize returns the broadcast view of the participant.
func (p *Participant) Summarize() Summary {
	return Summary{
		ID:            p.ConnectionID,
		Username:      p.Username,
		Language:      p.Language,
		HasVoiceClone: p.HasVoiceClone(),
	}
}
