// Package dto defines the request and response shapes of the REST
// API.
package dto

// TranscriptMessage is one transcript entry submitted for export
// translation. The wire shape matches the stored message shape so
// clients can submit their message history directly.
type TranscriptMessage struct {
	ID           string `json:"id,omitempty"`
	UserID       string `json:"userId,omitempty"`
	Username     string `json:"username,omitempty"`
	Text         string `json:"text"`
	Language     string `json:"language,omitempty"`
	Timestamp    string `json:"timestamp,omitempty"`
	IsSystem     bool   `json:"isSystem,omitempty"`
	OriginalText string `json:"originalText,omitempty"`
	IsTranslated bool   `json:"isTranslated,omitempty"`
}

// TranslateTranscriptRequest asks for a whole transcript in one
// target language.
type TranslateTranscriptRequest struct {
	Messages       []TranscriptMessage `json:"messages" validate:"required,min=1"`
	TargetLanguage string              `json:"targetLanguage" validate:"required"`
}

// TranslateTranscriptResponse returns the transcript with translated
// entries. System messages and same-language entries pass through
// unchanged.
type TranslateTranscriptResponse struct {
	Success  bool                `json:"success"`
	Messages []TranscriptMessage `json:"messages"`
}
