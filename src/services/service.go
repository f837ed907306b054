package services

import "context"

// Message roles used across dialogue providers.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one entry in a conversation.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is a provider-requested function invocation.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolFunction carries the function name and its JSON-encoded arguments.
type ToolFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Tool describes a callable function to the dialogue provider.
type Tool struct {
	Type     string         `json:"type"`
	Function ToolDefinition `json:"function"`
}

// ToolDefinition is the JSON-schema description of a tool.
type ToolDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// Reply is a dialogue engine's answer to one turn: either text, or a set of
// tool calls that must be executed and fed back.
type Reply struct {
	Content   string
	ToolCalls []ToolCall
}

// Transcriber converts one utterance of caller audio (a WAV payload) to text.
type Transcriber interface {
	Transcribe(ctx context.Context, wav []byte) (string, error)
}

// DialogueEngine produces the next assistant reply for a conversation.
// Tools may be nil when tool calling is not wanted for the request.
type DialogueEngine interface {
	Complete(ctx context.Context, messages []Message, tools []Tool) (*Reply, error)
}

// Synthesizer converts text to audio. The returned bytes are in the
// provider's native format (MP3 for ElevenLabs); conversion to the stream
// codec happens downstream.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
