package types

import (
	"strings"
	"time"
)

// Role represents the message role
type Role string

const (
	// RoleUser represents a user message
	RoleUser Role = "user"

	// RoleAssistant represents an assistant message
	RoleAssistant Role = "assistant"

	// RoleSystem represents a system message
	RoleSystem Role = "system"

	// RoleTool represents a tool result message
	RoleTool Role = "tool"
)

// Message represents a single message in a conversation between user and
// assistant. Supports user, assistant, system and tool roles, LLM tool-call
// requests, tool results correlated by call ID, and free-form metadata.
type Message struct {
	ID      string `json:"id,omitempty"`
	Role    Role   `json:"role"`
	Content string `json:"content,omitempty"`

	// ToolCalls holds function calls requested by the LLM (assistant messages).
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID correlates a tool result message with the call that produced it.
	ToolCallID string `json:"tool_call_id,omitempty"`

	// ToolName is the tool name for tool result messages.
	ToolName string `json:"tool_name,omitempty"`

	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp,omitempty"`
}

// ToolCall represents a function call requested by the LLM. Contains the tool
// name, an ID for correlating the result, and untyped JSON arguments.
type ToolCall struct {
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name,omitempty"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// IsUserMessage reports whether this message is from the user.
func (m *Message) IsUserMessage() bool {
	return m != nil && m.Role == RoleUser
}

// IsAssistantMessage reports whether this message is from the assistant.
func (m *Message) IsAssistantMessage() bool {
	return m != nil && m.Role == RoleAssistant
}

// IsSystemMessage reports whether this is a system message.
func (m *Message) IsSystemMessage() bool {
	return m != nil && m.Role == RoleSystem
}

// IsToolMessage reports whether this is a tool result message.
func (m *Message) IsToolMessage() bool {
	return m != nil && m.Role == RoleTool
}

// HasToolCalls reports whether this message carries tool calls from the LLM.
func (m *Message) HasToolCalls() bool {
	return m != nil && len(m.ToolCalls) > 0
}

// HasContent reports whether the message carries non-blank text content.
func (m *Message) HasContent() bool {
	return m != nil && strings.TrimSpace(m.Content) != ""
}
