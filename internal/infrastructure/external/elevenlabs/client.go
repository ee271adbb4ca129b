// Package elevenlabs is a minimal client for the ElevenLabs speech
// synthesis and voice library APIs.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/thinkingjet/SpeakSync/pkg/config"
)

// Model used for synthesis; flash supports an explicit language_code.
const defaultModel = "eleven_flash_v2_5"

// languageCodes maps normalized language short codes to the codes the
// flash model accepts. Unknown languages fall back to English.
var languageCodes = map[string]string{
	"multi": "en",
	"ar":    "ar",
	"bg":    "bg",
	"cs":    "cs",
	"da":    "da",
	"de":    "de",
	"el":    "el",
	"en":    "en",
	"es":    "es",
	"fi":    "fi",
	"fil":   "fil",
	"fr":    "fr",
	"hi":    "hi",
	"hr":    "hr",
	"hu":    "hu",
	"id":    "id",
	"it":    "it",
	"ja":    "ja",
	"ko":    "ko",
	"ms":    "ms",
	"nl":    "nl",
	"no":    "no",
	"pl":    "pl",
	"pt":    "pt",
	"ro":    "ro",
	"ru":    "ru",
	"sk":    "sk",
	"sv":    "sv",
	"ta":    "ta",
	"tr":    "tr",
	"uk":    "uk",
	"vi":    "vi",
	"zh":    "zh-cn",
	"zh-cn": "zh-cn",
}

// LanguageCode normalizes any language tag to a synthesis language
// code, stripping regional suffixes and defaulting to English.
func LanguageCode(language string) string {
	lang := strings.ToLower(strings.TrimSpace(language))
	if lang == "" {
		return "en"
	}
	if code, ok := languageCodes[lang]; ok {
		return code
	}
	if i := strings.Index(lang, "-"); i > 0 {
		if code, ok := languageCodes[lang[:i]]; ok {
			return code
		}
	}
	return "en"
}

// Client is a minimal ElevenLabs API client.
type Client struct {
	apiKey         string
	baseURL        string
	defaultVoiceID string
	client         *http.Client
}

// NewClient creates a client using the provided config. Pass a nil
// config to fall back to environment variables and defaults.
func NewClient(cfg *config.ElevenLabsConfig) *Client {
	var apiKey string
	if cfg != nil {
		apiKey = cfg.APIKey
	}
	if apiKey == "" {
		apiKey = os.Getenv("ELEVENLABS_API_KEY")
	}

	var base string
	if cfg != nil && cfg.BaseURL != "" {
		base = cfg.BaseURL
	} else {
		base = os.Getenv("ELEVENLABS_API_URL")
		if base == "" {
			base = "https://api.elevenlabs.io"
		}
	}

	defaultVoice := "21m00Tcm4TlvDq8ikWAM"
	if cfg != nil && cfg.DefaultVoiceID != "" {
		defaultVoice = cfg.DefaultVoiceID
	}

	return &Client{
		apiKey:         apiKey,
		baseURL:        base,
		defaultVoiceID: defaultVoice,
		client:         &http.Client{Timeout: 30 * time.Second},
	}
}

// DefaultVoiceID returns the voice used for speakers without a clone.
func (c *Client) DefaultVoiceID() string {
	return c.defaultVoiceID
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

type synthesizeRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	LanguageCode  string        `json:"language_code,omitempty"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

// Synthesize renders text to MPEG audio in the given language using
// the given voice. An empty voiceID uses the default voice.
func (c *Client) Synthesize(ctx context.Context, text, language, voiceID string) ([]byte, error) {
	if voiceID == "" {
		voiceID = c.defaultVoiceID
	}

	body := synthesizeRequest{
		Text:         text,
		ModelID:      defaultModel,
		LanguageCode: LanguageCode(language),
		VoiceSettings: voiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.8,
			Style:           0.0,
			UseSpeakerBoost: true,
		},
	}
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	endpoint := c.baseURL + "/v1/text-to-speech/" + url.PathEscape(voiceID)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("elevenlabs returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

type voicesResponse struct {
	Voices []struct {
		VoiceID string `json:"voice_id"`
		Name    string `json:"name"`
	} `json:"voices"`
}

// FindVoiceByName looks up a personal cloned voice whose name matches
// the username, case-insensitively. Returns an empty id when no such
// voice exists.
func (c *Client) FindVoiceByName(ctx context.Context, name string) (string, error) {
	endpoint := c.baseURL + "/v2/voices?voice_type=personal"
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("elevenlabs returned status %d", resp.StatusCode)
	}

	var vr voicesResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return "", err
	}
	for _, v := range vr.Voices {
		if strings.EqualFold(v.Name, name) {
			return v.VoiceID, nil
		}
	}
	return "", nil
}
