package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/square-key-labs/voxline/src/logger"
	"github.com/square-key-labs/voxline/src/services"
)

// TTSConfig configures the ElevenLabs synthesizer.
type TTSConfig struct {
	APIKey          string
	BaseURL         string
	VoiceID         string
	Model           string
	Stability       float64
	SimilarityBoost float64
	Timeout         time.Duration
}

// TTSService synthesizes speech through the ElevenLabs HTTP API. Output is
// MP3; conversion to the stream codec is the caller's job.
type TTSService struct {
	config TTSConfig
	client *http.Client
	log    *logger.Logger
}

func NewTTSService(config TTSConfig) *TTSService {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.elevenlabs.io/v1"
	}
	if config.VoiceID == "" {
		config.VoiceID = "21m00Tcm4TlvDq8ikWAM"
	}
	if config.Model == "" {
		config.Model = "eleven_turbo_v2_5"
	}
	if config.Stability == 0 {
		config.Stability = 0.5
	}
	if config.SimilarityBoost == 0 {
		config.SimilarityBoost = 0.75
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	return &TTSService{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		log:    logger.WithPrefix("ElevenLabsTTS"),
	}
}

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// Synthesize converts text to MP3 audio bytes.
func (s *TTSService) Synthesize(ctx context.Context, text string) ([]byte, error) {
	payload, err := json.Marshal(ttsRequest{
		Text:    text,
		ModelID: s.config.Model,
		VoiceSettings: voiceSettings{
			Stability:       s.config.Stability,
			SimilarityBoost: s.config.SimilarityBoost,
		},
	})
	if err != nil {
		return nil, &services.SynthesisError{Cause: err}
	}

	url := fmt.Sprintf("%s/text-to-speech/%s", s.config.BaseURL, s.config.VoiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &services.SynthesisError{Cause: err}
	}
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", s.config.APIKey)

	s.log.Debug("synthesizing %d chars", len(text))

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &services.UpstreamTimeout{Provider: "elevenlabs", Budget: s.config.Timeout}
		}
		return nil, &services.SynthesisError{Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &services.SynthesisError{
			Cause: fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))),
		}
	}

	mp3, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &services.SynthesisError{Cause: err}
	}
	s.log.Debug("received %d bytes of MP3", len(mp3))
	return mp3, nil
}
