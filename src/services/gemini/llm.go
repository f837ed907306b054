package gemini

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

// LLMConfig configures the Gemini dialogue engine.
type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// LLMService produces assistant replies through the Gemini REST API. It is a
// drop-in alternative to the OpenAI engine; conversation roles are mapped to
// Gemini's user/model convention and tool schemas to function declarations.
type LLMService struct {
	config LLMConfig
	client *http.Client
	log    *logger.Logger
}

func NewLLMService(config LLMConfig) *LLMService {
	if config.BaseURL == "" {
		config.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if config.Model == "" {
		config.Model = "gemini-2.0-flash"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	return &LLMService{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		log:    logger.WithPrefix("GeminiLLM"),
	}
}

type geminiPart struct {
	Text             string          `json:"text,omitempty"`
	FunctionCall     *geminiFuncCall `json:"functionCall,omitempty"`
	FunctionResponse *geminiFuncResp `json:"functionResponse,omitempty"`
}

type geminiFuncCall struct {
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args"`
}

type geminiFuncResp struct {
	Name     string                 `json:"name"`
	Response map[string]interface{} `json:"response"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Tools             []geminiTools   `json:"tools,omitempty"`
}

type geminiTools struct {
	FunctionDeclarations []geminiFuncDecl `json:"functionDeclarations"`
}

type geminiFuncDecl struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends the conversation and returns the model's reply.
func (s *LLMService) Complete(ctx context.Context, messages []services.Message, tools []services.Tool) (*services.Reply, error) {
	reqBody, err := s.buildRequest(messages, tools)
	if err != nil {
		return nil, &services.DialogueError{Cause: err}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &services.DialogueError{Cause: err}
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		s.config.BaseURL, s.config.Model, s.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &services.DialogueError{Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &services.UpstreamTimeout{Provider: "gemini", Budget: s.config.Timeout}
		}
		return nil, &services.DialogueError{Cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &services.DialogueError{Cause: err}
	}

	var parsed geminiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &services.DialogueError{Cause: fmt.Errorf("decode response: %w", err)}
	}
	if parsed.Error != nil {
		return nil, &services.DialogueError{
			Cause: fmt.Errorf("status %d: %s", parsed.Error.Code, parsed.Error.Message),
		}
	}
	if len(parsed.Candidates) == 0 {
		return nil, &services.DialogueError{Cause: fmt.Errorf("empty candidates")}
	}

	reply := &services.Reply{}
	var text strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		if part.Text != "" {
			text.WriteString(part.Text)
		}
		if part.FunctionCall != nil {
			args, err := json.Marshal(part.FunctionCall.Args)
			if err != nil {
				return nil, &services.DialogueError{Cause: err}
			}
			reply.ToolCalls = append(reply.ToolCalls, services.ToolCall{
				ID:   fmt.Sprintf("call-%d", len(reply.ToolCalls)),
				Type: "function",
				Function: services.ToolFunction{
					Name:      part.FunctionCall.Name,
					Arguments: string(args),
				},
			})
		}
	}
	reply.Content = strings.TrimSpace(text.String())
	return reply, nil
}

func (s *LLMService) buildRequest(messages []services.Message, tools []services.Tool) (*geminiRequest, error) {
	req := &geminiRequest{}

	// remembers which call ID maps to which function name so tool results
	// can be attributed
	callNames := map[string]string{}

	for _, m := range messages {
		switch m.Role {
		case services.RoleSystem:
			req.SystemInstruction = &geminiContent{
				Parts: []geminiPart{{Text: m.Content}},
			}
		case services.RoleUser:
			req.Contents = append(req.Contents, geminiContent{
				Role:  "user",
				Parts: []geminiPart{{Text: m.Content}},
			})
		case services.RoleAssistant:
			content := geminiContent{Role: "model"}
			if m.Content != "" {
				content.Parts = append(content.Parts, geminiPart{Text: m.Content})
			}
			for _, call := range m.ToolCalls {
				var args map[string]interface{}
				if call.Function.Arguments != "" {
					if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
						return nil, fmt.Errorf("tool call args: %w", err)
					}
				}
				callNames[call.ID] = call.Function.Name
				content.Parts = append(content.Parts, geminiPart{
					FunctionCall: &geminiFuncCall{Name: call.Function.Name, Args: args},
				})
			}
			if len(content.Parts) > 0 {
				req.Contents = append(req.Contents, content)
			}
		case services.RoleTool:
			req.Contents = append(req.Contents, geminiContent{
				Role: "user",
				Parts: []geminiPart{{
					FunctionResponse: &geminiFuncResp{
						Name:     callNames[m.ToolCallID],
						Response: map[string]interface{}{"result": m.Content},
					},
				}},
			})
		}
	}

	if len(tools) > 0 {
		decls := make([]geminiFuncDecl, 0, len(tools))
		for _, t := range tools {
			decls = append(decls, geminiFuncDecl{
				Name:        t.Function.Name,
				Description: t.Function.Description,
				Parameters:  t.Function.Parameters,
			})
		}
		req.Tools = []geminiTools{{FunctionDeclarations: decls}}
	}

	return req, nil
}
