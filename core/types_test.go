package core

import (
	"encoding/json"
	"strings"
	"testing"
)

func strPtr(s string) *string { return &s }

func TestMessageHelpers(t *testing.T) {
	tests := []struct {
		name string
		msg  ChatMessage
		role Role
	}{
		{"system", SystemMessage("instructions"), RoleSystem},
		{"user", UserMessage("hello"), RoleUser},
		{"assistant", AssistantMessage("hi"), RoleAssistant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.msg.Role != tt.role {
				t.Errorf("Role = %q, want %q", tt.msg.Role, tt.role)
			}
		})
	}
}

func TestChatRequestMarshalShape(t *testing.T) {
	req := ChatRequest{
		Model: "gpt-4",
		Messages: []ChatMessage{
			SystemMessage("be brief"),
			UserMessage("hello"),
		},
		Stream: true,
	}

	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}

	got := string(data)
	for _, want := range []string{`"model":"gpt-4"`, `"stream":true`, `"role":"system"`, `"role":"user"`} {
		if !strings.Contains(got, want) {
			t.Errorf("json.Marshal() = %s, missing %s", got, want)
		}
	}
}

func TestLastChoiceEmpty(t *testing.T) {
	e := &ChatStreamEvent{}
	if c := e.LastChoice(); c != nil {
		t.Errorf("LastChoice() = %+v, want nil", c)
	}
}

func TestLastChoicePicksLast(t *testing.T) {
	e := &ChatStreamEvent{
		Choices: []ChoiceDelta{
			{Index: 0},
			{Index: 1, Delta: MessageDelta{Content: strPtr("X")}},
		},
	}

	c := e.LastChoice()
	if c == nil {
		t.Fatal("LastChoice() = nil, want last choice")
	}
	if c.Index != 1 {
		t.Errorf("LastChoice().Index = %d, want 1", c.Index)
	}
	if c.Delta.Content == nil || *c.Delta.Content != "X" {
		t.Errorf("LastChoice().Delta.Content = %v, want \"X\"", c.Delta.Content)
	}
}

// Absent and null content must decode to nil; an explicit empty string must
// decode to a non-nil pointer. Downstream insertion logic depends on the
// distinction.
func TestMessageDeltaContentAbsence(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantNil bool
		want    string
	}{
		{"absent", `{}`, true, ""},
		{"null", `{"content":null}`, true, ""},
		{"empty string", `{"content":""}`, false, ""},
		{"text", `{"content":"hi"}`, false, "hi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d MessageDelta
			if err := json.Unmarshal([]byte(tt.payload), &d); err != nil {
				t.Fatalf("json.Unmarshal() error = %v", err)
			}
			if tt.wantNil {
				if d.Content != nil {
					t.Errorf("Content = %q, want nil", *d.Content)
				}
				return
			}
			if d.Content == nil {
				t.Fatal("Content = nil, want non-nil")
			}
			if *d.Content != tt.want {
				t.Errorf("Content = %q, want %q", *d.Content, tt.want)
			}
		})
	}
}

func TestChatStreamEventDecodesWireFrame(t *testing.T) {
	payload := `{"id":"chatcmpl-1","object":"chat.completion.chunk","created":1700000000,` +
		`"model":"gpt-4","choices":[{"index":0,"delta":{"role":"assistant","content":"Hello"}}]}`

	var e ChatStreamEvent
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}

	if e.ID != "chatcmpl-1" {
		t.Errorf("ID = %q, want %q", e.ID, "chatcmpl-1")
	}
	if e.Created != 1700000000 {
		t.Errorf("Created = %d, want 1700000000", e.Created)
	}
	if e.Model != "gpt-4" {
		t.Errorf("Model = %q, want %q", e.Model, "gpt-4")
	}
	c := e.LastChoice()
	if c == nil {
		t.Fatal("LastChoice() = nil, want choice")
	}
	if c.Delta.Role != RoleAssistant {
		t.Errorf("Delta.Role = %q, want %q", c.Delta.Role, RoleAssistant)
	}
	if c.Delta.Content == nil || *c.Delta.Content != "Hello" {
		t.Errorf("Delta.Content = %v, want \"Hello\"", c.Delta.Content)
	}
}

func TestChatStreamEventFinishFrame(t *testing.T) {
	payload := `{"choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`

	var e ChatStreamEvent
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}

	c := e.LastChoice()
	if c == nil {
		t.Fatal("LastChoice() = nil, want choice")
	}
	if c.Delta.Content != nil {
		t.Errorf("Delta.Content = %q, want nil", *c.Delta.Content)
	}
	if c.FinishReason == nil || *c.FinishReason != "stop" {
		t.Errorf("FinishReason = %v, want \"stop\"", c.FinishReason)
	}
}
