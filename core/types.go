package core

// ModelID is a string identifier for a model.
// Using string avoids coupling to service-specific enums.
type ModelID string

// Role represents a message participant role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is a single message in a chat conversation.
// Messages are immutable once constructed.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// SystemMessage constructs a system-role message.
func SystemMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleSystem, Content: content}
}

// UserMessage constructs a user-role message.
func UserMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleUser, Content: content}
}

// AssistantMessage constructs an assistant-role message.
func AssistantMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleAssistant, Content: content}
}

// ChatRequest represents a request to a chat-completion service.
//
// The transport forces Stream to true before transmission; callers cannot
// opt out of streaming delivery.
type ChatRequest struct {
	Model    ModelID       `json:"model"`
	Messages []ChatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

// Usage tracks token consumption for a request.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatStreamEvent is one decoded frame of a streaming response.
// Identification fields may be absent on some frames; Choices carries the
// incremental payload.
type ChatStreamEvent struct {
	ID      string        `json:"id,omitempty"`
	Object  string        `json:"object,omitempty"`
	Created int64         `json:"created,omitempty"`
	Model   ModelID       `json:"model,omitempty"`
	Choices []ChoiceDelta `json:"choices"`
	Usage   *Usage        `json:"usage,omitempty"`
}

// LastChoice returns the last choice in the event, or nil if there are none.
// Streaming responses are treated as single-choice; when a service sends
// more than one, the last is authoritative.
//
//	if c := event.LastChoice(); c != nil && c.Delta.Content != nil {
//	    // handle new text
//	}
func (e *ChatStreamEvent) LastChoice() *ChoiceDelta {
	if len(e.Choices) == 0 {
		return nil
	}
	return &e.Choices[len(e.Choices)-1]
}

// ChoiceDelta is one choice's increment within a stream event.
type ChoiceDelta struct {
	Index        int          `json:"index"`
	Delta        MessageDelta `json:"delta"`
	FinishReason *string      `json:"finish_reason,omitempty"`
}

// MessageDelta carries the incremental message fragment for one choice.
//
// Content distinguishes "no new text in this frame" (nil) from an explicit
// empty string. Role-only and finish-only frames leave Content nil; consumers
// MUST NOT treat nil as an empty-string insertion.
type MessageDelta struct {
	Role    Role    `json:"role,omitempty"`
	Content *string `json:"content,omitempty"`
}
