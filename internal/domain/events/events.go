// Package events defines the outbound event contract between the core
// engine and the client-facing transport.
package events

import (
	"time"

	"github.com/thinkingjet/SpeakSync/internal/domain/entities"
)

// Event names mirror the wire protocol.
const (
	RoomState        = "room-state"
	UserJoined       = "user-joined"
	UserLeft         = "user-left"
	NewMessage       = "new-message"
	InterimMessage   = "interim-message"
	SpeakingStarted  = "user-speaking-started"
	SpeakingStopped  = "user-speaking-stopped"
	ReactionUpdated  = "message-reaction-updated"
	NotesUpdated     = "meeting-notes-updated"
	VoiceUpdated     = "user-voice-updated"
	StreamReady      = "stream-ready"
	StreamError      = "stream-error"
	PlayTTS          = "play-tts"
	Error            = "error"
)

// Event is one outbound frame: a name plus a JSON-serializable payload.
type Event struct {
	Name    string `json:"event"`
	Payload any    `json:"data"`
}

// Emitter delivers events to individual connections. Emitting to a
// connection that no longer exists is a no-op, never an error; a
// participant disconnecting mid-translation simply loses the frame.
type Emitter interface {
	Emit(connectionID string, event Event)
}

// RoomStatePayload is sent to a participant on join.
type RoomStatePayload struct {
	Users    []entities.Summary `json:"users"`
	Messages []entities.Message `json:"messages"`
}

// MembershipPayload carries the full roster plus the delta member.
type MembershipPayload struct {
	Users  []entities.Summary `json:"users"`
	Joined *entities.Summary  `json:"joinedUser,omitempty"`
	Left   *entities.Summary  `json:"leftUser,omitempty"`
}

// OutgoingMessage is the personalized per-recipient view of a stored
// message. Translated recipients always see the original source
// language so the UI can show provenance.
type OutgoingMessage struct {
	entities.Message
	Translated              bool   `json:"isTranslated,omitempty"`
	OriginalLanguage        string `json:"originalLanguage,omitempty"`
	OriginalLanguageDisplay string `json:"originalLanguageDisplay,omitempty"`
}

// InterimPayload is a personalized non-final transcript fragment.
type InterimPayload struct {
	UserID                  string `json:"userId"`
	Username                string `json:"username"`
	Text                    string `json:"text"`
	Language                string `json:"language"`
	LanguageDisplay         string `json:"languageDisplay"`
	Translated              bool   `json:"isTranslated,omitempty"`
	OriginalLanguage        string `json:"originalLanguage,omitempty"`
	OriginalLanguageDisplay string `json:"originalLanguageDisplay,omitempty"`
	IsFinal                 bool   `json:"isFinal"`
	WordCount               int    `json:"wordCount"`
}

// SpeakingPayload announces speaking-state transitions.
type SpeakingPayload struct {
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	WordCount int    `json:"wordCount,omitempty"`
}

// ReactionPayload carries the full updated reaction map for a message.
type ReactionPayload struct {
	MessageID string             `json:"messageId"`
	Reactions entities.Reactions `json:"reactions"`
}

// NotesPayload is a personalized meeting-notes delivery.
type NotesPayload struct {
	Notes               string    `json:"notes"`
	Timestamp           time.Time `json:"timestamp"`
	AutoGenerated       bool      `json:"isAutoGenerated"`
	GeneratedByID       string    `json:"generatedByUserId,omitempty"`
	GeneratedByUsername string    `json:"generatedByUsername,omitempty"`
	Translated          bool      `json:"isTranslated"`
}

// VoicePayload announces that a participant gained a cloned voice.
type VoicePayload struct {
	UserID        string `json:"userId"`
	Username      string `json:"username"`
	HasVoiceClone bool   `json:"hasVoiceClone"`
}

// TTSPayload asks a client to play synthesized speech.
type TTSPayload struct {
	Text      string `json:"text"`
	Language  string `json:"language"`
	MessageID string `json:"messageId,omitempty"`
	VoiceID   string `json:"voiceId"`
}

// ErrorPayload is a participant-facing error, delivered only to the
// originating connection.
type ErrorPayload struct {
	Message string `json:"message"`
}
