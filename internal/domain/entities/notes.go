package entities

import "time"

// MeetingNote is one generated meeting-notes document for a room. The
// stored text is the untranslated (English) summary; per-recipient
// translations are computed at delivery time.
type MeetingNote struct {
	Text                string    `json:"text"`
	Timestamp           time.Time `json:"timestamp"`
	MessageCount        int       `json:"messageCount"`
	AutoGenerated       bool      `json:"isAutoGenerated"`
	GeneratedByID       string    `json:"generatedByUserId,omitempty"`
	GeneratedByUsername string    `json:"generatedByUsername,omitempty"`
}
