package services

// History holds a conversation and keeps it bounded. The first message is
// always the system prompt; when the conversation grows past the cap, the
// middle is dropped so the prompt and the most recent exchanges survive.
type History struct {
	messages []Message
	maxLen   int
	keepTail int
}

// NewHistory starts a conversation with the given system prompt. The default
// bound keeps 12 messages, trimming to the system prompt plus the last 10.
func NewHistory(systemPrompt string) *History {
	return &History{
		messages: []Message{{Role: RoleSystem, Content: systemPrompt}},
		maxLen:   12,
		keepTail: 10,
	}
}

// AddUser appends a caller turn.
func (h *History) AddUser(content string) {
	h.append(Message{Role: RoleUser, Content: content})
}

// AddAssistant appends a bot reply.
func (h *History) AddAssistant(content string) {
	h.append(Message{Role: RoleAssistant, Content: content})
}

// AddAssistantToolCalls appends the assistant message that requested tools.
func (h *History) AddAssistantToolCalls(calls []ToolCall) {
	h.append(Message{Role: RoleAssistant, ToolCalls: calls})
}

// AddToolResult appends a tool execution result keyed to its call ID.
func (h *History) AddToolResult(callID, content string) {
	h.append(Message{Role: RoleTool, ToolCallID: callID, Content: content})
}

func (h *History) append(m Message) {
	h.messages = append(h.messages, m)
	if len(h.messages) > h.maxLen {
		trimmed := make([]Message, 0, 1+h.keepTail)
		trimmed = append(trimmed, h.messages[0])
		trimmed = append(trimmed, h.messages[len(h.messages)-h.keepTail:]...)
		h.messages = trimmed
	}
}

// Messages returns a copy of the conversation for a provider request.
func (h *History) Messages() []Message {
	out := make([]Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Len returns the number of messages including the system prompt.
func (h *History) Len() int { return len(h.messages) }
