package openai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/square-key-labs/voxline/src/logger"
	"github.com/square-key-labs/voxline/src/services"
)

// transcriptionPrompt biases Whisper toward phone-call audio; it noticeably
// cuts hallucinated fragments on noisy lines.
const transcriptionPrompt = "This is a phone conversation. The caller may have background noise. Listen carefully for their words."

// STTConfig configures the Whisper transcription gateway.
type STTConfig struct {
	APIKey   string
	BaseURL  string
	Model    string
	Language string
	Timeout  time.Duration
}

// STTService transcribes caller utterances through the OpenAI audio API.
type STTService struct {
	config STTConfig
	client *http.Client
	log    *logger.Logger
}

func NewSTTService(config STTConfig) *STTService {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.openai.com/v1"
	}
	if config.Model == "" {
		config.Model = "whisper-1"
	}
	if config.Language == "" {
		config.Language = "en"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	return &STTService{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		log:    logger.WithPrefix("OpenAISTT"),
	}
}

// Transcribe uploads a WAV payload and returns the transcript text.
func (s *STTService) Transcribe(ctx context.Context, wav []byte) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("model", s.config.Model); err != nil {
		return "", &services.TranscriptionError{Cause: err}
	}
	if err := writer.WriteField("response_format", "text"); err != nil {
		return "", &services.TranscriptionError{Cause: err}
	}
	if err := writer.WriteField("prompt", transcriptionPrompt); err != nil {
		return "", &services.TranscriptionError{Cause: err}
	}
	if err := writer.WriteField("language", s.config.Language); err != nil {
		return "", &services.TranscriptionError{Cause: err}
	}

	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", &services.TranscriptionError{Cause: err}
	}
	if _, err := part.Write(wav); err != nil {
		return "", &services.TranscriptionError{Cause: err}
	}
	if err := writer.Close(); err != nil {
		return "", &services.TranscriptionError{Cause: err}
	}

	url := s.config.BaseURL + "/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", &services.TranscriptionError{Cause: err}
	}
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	s.log.Debug("transcribing %d bytes of WAV", len(wav))

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", &services.UpstreamTimeout{Provider: "whisper", Budget: s.config.Timeout}
		}
		return "", &services.TranscriptionError{Cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &services.TranscriptionError{Cause: err}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &services.TranscriptionError{
			Cause: fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))),
		}
	}

	transcript := strings.TrimSpace(string(raw))
	s.log.Debug("transcript: %q", transcript)
	return transcript, nil
}
