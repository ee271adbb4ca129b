package ai

import (
	"context"
	"fmt"
	"io"
	"os"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"

	"github.com/thinkingjet/SpeakSync/pkg/config"
)

// Transcriber transcribes recorded push-to-talk clips through the
// official AssemblyAI SDK.
type Transcriber struct {
	client *aai.Client
}

// NewTranscriber creates a transcriber using the provided config. If
// cfg is nil, falls back to environment variables.
func NewTranscriber(cfg *config.AssemblyAIConfig) *Transcriber {
	var apiKey string
	if cfg != nil {
		apiKey = cfg.APIKey
	}
	if apiKey == "" {
		apiKey = os.Getenv("ASSEMBLYAI_API_KEY")
	}
	return &Transcriber{client: aai.NewClient(apiKey)}
}

// Transcribe uploads the audio clip and blocks until the transcript
// completes. A known speaker language is passed as a hint; an empty
// or multilingual language enables automatic detection.
func (t *Transcriber) Transcribe(ctx context.Context, audio io.Reader, languageCode string) (string, error) {
	params := &aai.TranscriptOptionalParams{}
	if languageCode == "" || languageCode == "multi" {
		params.LanguageDetection = aai.Bool(true)
	} else {
		params.LanguageCode = aai.TranscriptLanguageCode(languageCode)
	}

	transcript, err := t.client.Transcripts.TranscribeFromReader(ctx, audio, params)
	if err != nil {
		return "", fmt.Errorf("assemblyai transcription: %w", err)
	}
	if transcript.Status == aai.TranscriptStatusError {
		reason := "unknown error"
		if transcript.Error != nil {
			reason = *transcript.Error
		}
		return "", fmt.Errorf("assemblyai transcription failed: %s", reason)
	}
	if transcript.Text == nil {
		return "", nil
	}
	return *transcript.Text, nil
}
