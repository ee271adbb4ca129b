package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	Server      ServerConfig
	Redis       RedisConfig
	Translation TranslationConfig
	Notes       NotesConfig
	ElevenLabs  ElevenLabsConfig
	Assembly    AssemblyAIConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string   `envconfig:"PORT" default:"8080"`
	Host            string   `envconfig:"HOST" default:"0.0.0.0"`
	Environment     string   `envconfig:"ENVIRONMENT" default:"development"`
	AllowedOrigins  []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
	ShutdownTimeout int      `envconfig:"SHUTDOWN_TIMEOUT" default:"10"`
}

// RedisConfig holds the voice-identity cache backend configuration.
// When disabled, an in-memory store is used instead.
type RedisConfig struct {
	Enabled  bool   `envconfig:"REDIS_ENABLED" default:"false"`
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     string `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// TranslationConfig holds translation vendor configuration
type TranslationConfig struct {
	Endpoint       string        `envconfig:"TRANSLATION_ENDPOINT" default:"https://translate.googleapis.com/translate_a/single"`
	RequestTimeout time.Duration `envconfig:"TRANSLATION_TIMEOUT" default:"5s"`
	MaxRetries     uint64        `envconfig:"TRANSLATION_MAX_RETRIES" default:"2"`
	RateWindow     time.Duration `envconfig:"TRANSLATION_RATE_WINDOW" default:"60s"`
	RateThreshold  int           `envconfig:"TRANSLATION_RATE_THRESHOLD" default:"50"`
	ThrottleDelay  time.Duration `envconfig:"TRANSLATION_THROTTLE_DELAY" default:"1s"`
}

// NotesConfig holds meeting-notes summarization (OpenRouter) configuration
type NotesConfig struct {
	APIKey         string        `envconfig:"OPENROUTER_API_KEY" default:""`
	BaseURL        string        `envconfig:"OPENROUTER_API_URL" default:"https://openrouter.ai"`
	Model          string        `envconfig:"NOTES_MODEL" default:"deepseek/deepseek-chat-v3-0324:free"`
	MaxTokens      int           `envconfig:"NOTES_MAX_TOKENS" default:"1000"`
	Temperature    float64       `envconfig:"NOTES_TEMPERATURE" default:"0.7"`
	RequestTimeout time.Duration `envconfig:"NOTES_TIMEOUT" default:"60s"`
	Referer        string        `envconfig:"NOTES_HTTP_REFERER" default:"https://speaksync.app"`
	Title          string        `envconfig:"NOTES_HTTP_TITLE" default:"SpeakSync Meeting Room"`
}

// ElevenLabsConfig holds speech synthesis and voice lookup configuration
type ElevenLabsConfig struct {
	APIKey         string        `envconfig:"ELEVENLABS_API_KEY" default:""`
	BaseURL        string        `envconfig:"ELEVENLABS_API_URL" default:"https://api.elevenlabs.io"`
	DefaultVoiceID string        `envconfig:"ELEVENLABS_DEFAULT_VOICE" default:"21m00Tcm4TlvDq8ikWAM"`
	VoiceCacheTTL  time.Duration `envconfig:"VOICE_CACHE_TTL" default:"5m"`
}

// AssemblyAIConfig holds push-to-talk transcription configuration
type AssemblyAIConfig struct {
	APIKey string `envconfig:"ASSEMBLYAI_API_KEY" default:""`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	return cfg, nil
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// GetServerAddr returns the listen address
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}
