package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/thinkingjet/SpeakSync/pkg/config"
)

// OpenRouterClient is a minimal client for OpenRouter chat completions,
// used to summarize room transcripts into meeting notes.
type OpenRouterClient struct {
	apiKey      string
	baseURL     string
	model       string
	maxTokens   int
	temperature float64
	referer     string
	title       string
	client      *http.Client
}

// NewOpenRouterClient creates an OpenRouter client using values from
// the provided config. Pass a nil config to fall back to environment
// variables and defaults.
func NewOpenRouterClient(cfg *config.NotesConfig) *OpenRouterClient {
	var apiKey string
	if cfg != nil {
		apiKey = cfg.APIKey
	}
	if apiKey == "" {
		apiKey = os.Getenv("OPENROUTER_API_KEY")
	}

	var base string
	if cfg != nil && cfg.BaseURL != "" {
		base = cfg.BaseURL
	} else {
		base = os.Getenv("OPENROUTER_API_URL")
		if base == "" {
			base = "https://openrouter.ai"
		}
	}

	c := &OpenRouterClient{
		apiKey:      apiKey,
		baseURL:     base,
		model:       "deepseek/deepseek-chat-v3-0324:free",
		maxTokens:   1000,
		temperature: 0.7,
		referer:     "https://speaksync.app",
		title:       "SpeakSync Meeting Room",
		client:      &http.Client{Timeout: 60 * time.Second},
	}
	if cfg != nil {
		if cfg.Model != "" {
			c.model = cfg.Model
		}
		if cfg.MaxTokens > 0 {
			c.maxTokens = cfg.MaxTokens
		}
		if cfg.Temperature > 0 {
			c.temperature = cfg.Temperature
		}
		if cfg.Referer != "" {
			c.referer = cfg.Referer
		}
		if cfg.Title != "" {
			c.title = cfg.Title
		}
		if cfg.RequestTimeout > 0 {
			c.client.Timeout = cfg.RequestTimeout
		}
	}
	return c
}

// ChatMessage is one chat turn in a completion request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the shape for chat completion requests.
type ChatRequest struct {
	Model       string        `json:"model,omitempty"`
	Messages    []ChatMessage `json:"messages,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// ChatResponse is a minimal response shape.
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Summarize sends the system and user prompts to OpenRouter and
// returns the assistant content.
func (c *OpenRouterClient) Summarize(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	reqBody := ChatRequest{
		Model: c.model,
		Messages: []ChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	endpoint := c.baseURL + "/api/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("HTTP-Referer", c.referer)
	req.Header.Set("X-Title", c.title)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("openrouter returned status %d", resp.StatusCode)
	}

	var cr ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", err
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("empty response from openrouter")
	}
	return cr.Choices[0].Message.Content, nil
}
