package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every tunable for the voice service. All fields come from the
// environment with defaults that match production telephony behavior at
// 8 kHz mu-law.
type Config struct {
	// HTTP / websocket listener
	Host string
	Port int

	// Audio format of the carrier media stream
	SampleRate int

	// VAD and utterance segmentation
	EnergyThreshold      float64       // RMS over decoded mu-law; above = speech
	MinUtteranceBytes    int           // shorter buffers are discarded on flush
	SilenceToProcess     time.Duration // silence gap that completes an utterance
	PostSpeechCooldown   time.Duration // ignore inbound audio after bot playback
	TrailingSilence      time.Duration // silence appended to a collecting buffer
	MaxUtteranceBytes    int           // force-flush ceiling
	GoodbyeSilenceWindow time.Duration // wait for confirmation before closing

	// Playback pacing
	ChunkBytes    int
	ChunkInterval time.Duration

	// OpenAI (Whisper + chat completions)
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	WhisperModel  string

	// Gemini (alternate dialogue engine)
	GeminiAPIKey string
	GeminiModel  string

	// ElevenLabs TTS
	ElevenLabsAPIKey  string
	ElevenLabsVoiceID string
	ElevenLabsModel   string

	// Which dialogue engine drives conversations: "openai" or "gemini"
	DialogueProvider string

	// Upstream call budget per request
	UpstreamTimeout time.Duration

	// Storage
	DatabaseURL string
	RedisURL    string
	SessionTTL  time.Duration

	// Webhook base URL the carrier uses to reach us (for Stream/action URLs)
	PublicBaseURL string
}

// Load reads .env (if present) and builds a Config from the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Host: envOr("HOST", "0.0.0.0"),
		Port: envIntOr("PORT", 8080),

		SampleRate: envIntOr("SAMPLE_RATE", 8000),

		EnergyThreshold:      envFloatOr("VAD_ENERGY_THRESHOLD", 500),
		MinUtteranceBytes:    envIntOr("MIN_UTTERANCE_BYTES", 4000),
		SilenceToProcess:     envDurationOr("SILENCE_TO_PROCESS", 1200*time.Millisecond),
		PostSpeechCooldown:   envDurationOr("POST_SPEECH_COOLDOWN", 1500*time.Millisecond),
		TrailingSilence:      envDurationOr("TRAILING_SILENCE", 300*time.Millisecond),
		MaxUtteranceBytes:    envIntOr("MAX_UTTERANCE_BYTES", 80000),
		GoodbyeSilenceWindow: envDurationOr("GOODBYE_SILENCE_WINDOW", 10*time.Second),

		ChunkBytes:    envIntOr("PLAYBACK_CHUNK_BYTES", 640),
		ChunkInterval: envDurationOr("PLAYBACK_CHUNK_INTERVAL", 80*time.Millisecond),

		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: envOr("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:   envOr("OPENAI_MODEL", "gpt-4o-mini"),
		WhisperModel:  envOr("WHISPER_MODEL", "whisper-1"),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  envOr("GEMINI_MODEL", "gemini-2.0-flash"),

		ElevenLabsAPIKey:  os.Getenv("ELEVENLABS_API_KEY"),
		ElevenLabsVoiceID: envOr("ELEVENLABS_VOICE_ID", "21m00Tcm4TlvDq8ikWAM"),
		ElevenLabsModel:   envOr("ELEVENLABS_MODEL", "eleven_turbo_v2_5"),

		DialogueProvider: envOr("DIALOGUE_PROVIDER", "openai"),

		UpstreamTimeout: envDurationOr("UPSTREAM_TIMEOUT", 30*time.Second),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    envOr("REDIS_URL", "redis://localhost:6379/0"),
		SessionTTL:  envDurationOr("SESSION_TTL", 1800*time.Second),

		PublicBaseURL: envOr("PUBLIC_BASE_URL", "http://localhost:8080"),
	}

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if c.DialogueProvider == "gemini" && c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required when DIALOGUE_PROVIDER=gemini")
	}
	if c.ElevenLabsAPIKey == "" {
		return fmt.Errorf("ELEVENLABS_API_KEY is required")
	}
	if c.ChunkBytes <= 0 {
		return fmt.Errorf("PLAYBACK_CHUNK_BYTES must be positive")
	}
	if c.MinUtteranceBytes > c.MaxUtteranceBytes {
		return fmt.Errorf("MIN_UTTERANCE_BYTES exceeds MAX_UTTERANCE_BYTES")
	}
	return nil
}

// Addr returns the host:port the HTTP server binds to.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

// envDurationOr accepts Go duration strings ("1.2s") or bare milliseconds.
func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		if ms, err := strconv.Atoi(v); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return fallback
}
