package openai

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

// LLMConfig configures the chat-completions dialogue engine.
type LLMConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// LLMService produces assistant replies through the OpenAI chat API, with
// function calling enabled when tools are supplied.
type LLMService struct {
	config LLMConfig
	client *http.Client
	log    *logger.Logger
}

func NewLLMService(config LLMConfig) *LLMService {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.openai.com/v1"
	}
	if config.Model == "" {
		config.Model = "gpt-4o-mini"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	return &LLMService{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		log:    logger.WithPrefix("OpenAILLM"),
	}
}

type chatRequest struct {
	Model       string             `json:"model"`
	Messages    []services.Message `json:"messages"`
	Tools       []services.Tool    `json:"tools,omitempty"`
	ToolChoice  string             `json:"tool_choice,omitempty"`
	Temperature float64            `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   string              `json:"content"`
			ToolCalls []services.ToolCall `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete sends the conversation and returns the assistant's reply. When
// tools are provided, tool_choice is "auto" and the reply may carry tool
// calls instead of content.
func (s *LLMService) Complete(ctx context.Context, messages []services.Message, tools []services.Tool) (*services.Reply, error) {
	reqBody := chatRequest{
		Model:       s.config.Model,
		Messages:    messages,
		Temperature: s.config.Temperature,
	}
	if len(tools) > 0 {
		reqBody.Tools = tools
		reqBody.ToolChoice = "auto"
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &services.DialogueError{Cause: err}
	}

	url := s.config.BaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &services.DialogueError{Cause: err}
	}
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	s.log.Debug("completing with %d messages, %d tools", len(messages), len(tools))

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &services.UpstreamTimeout{Provider: "openai", Budget: s.config.Timeout}
		}
		return nil, &services.DialogueError{Cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &services.DialogueError{Cause: err}
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &services.DialogueError{Cause: fmt.Errorf("decode response: %w", err)}
	}
	if parsed.Error != nil {
		return nil, &services.DialogueError{
			Cause: fmt.Errorf("%s: %s", parsed.Error.Type, parsed.Error.Message),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &services.DialogueError{
			Cause: fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))),
		}
	}
	if len(parsed.Choices) == 0 {
		return nil, &services.DialogueError{Cause: fmt.Errorf("empty choices")}
	}

	msg := parsed.Choices[0].Message
	if len(msg.ToolCalls) > 0 {
		s.log.Debug("tool call requested: %s", msg.ToolCalls[0].Function.Name)
	}
	return &services.Reply{
		Content:   msg.Content,
		ToolCalls: msg.ToolCalls,
	}, nil
}
