package types

import (
	"fmt"
	"sort"
	"strings"
)

const (
	maxFlattenedArgsLength   = 200
	maxFlattenedResultLength = 2000
)

// FlattenToolMessages converts tool call interactions in a message list to
// plain text. Assistant messages with tool calls and their corresponding tool
// result messages are replaced with a single assistant message describing the
// tool invocations and results in human-readable format.
//
// This is used when switching LLM models mid-conversation or during
// compaction, to avoid sending provider-specific tool call metadata to a
// different provider.
//
// The function is idempotent: messages without tool calls pass through
// unchanged, and the input slice is never mutated.
func FlattenToolMessages(messages []*Message) []*Message {
	if len(messages) == 0 {
		return messages
	}

	// Index tool results by call ID for lookup.
	toolResultsByCallID := make(map[string]*Message)
	hasToolCalls := false
	for _, msg := range messages {
		if msg == nil {
			continue
		}
		if msg.IsToolMessage() && msg.ToolCallID != "" {
			toolResultsByCallID[msg.ToolCallID] = msg
		}
		if msg.HasToolCalls() {
			hasToolCalls = true
		}
	}

	if len(toolResultsByCallID) == 0 && !hasToolCalls {
		return messages
	}

	result := make([]*Message, 0, len(messages))
	consumed := make(map[string]bool)

	for _, msg := range messages {
		if msg == nil {
			continue
		}
		switch {
		case msg.IsToolMessage():
			if consumed[msg.ToolCallID] {
				continue // already folded into the assistant message
			}
			result = append(result, &Message{
				ID:        msg.ID,
				Role:      RoleAssistant,
				Content:   formatOrphanedToolResult(msg),
				Timestamp: msg.Timestamp,
				Metadata:  msg.Metadata,
			})

		case msg.IsAssistantMessage() && msg.HasToolCalls():
			var sb strings.Builder
			if msg.HasContent() {
				sb.WriteString(msg.Content)
				sb.WriteString("\n")
			}
			for _, tc := range msg.ToolCalls {
				sb.WriteString("\n[Tool: ")
				sb.WriteString(tc.Name)
				sb.WriteString(" | Args: ")
				sb.WriteString(truncateStr(formatArgs(tc.Arguments), maxFlattenedArgsLength))
				sb.WriteString("]\n")

				var toolResult *Message
				if tc.ID != "" {
					toolResult = toolResultsByCallID[tc.ID]
				}
				if toolResult != nil {
					consumed[tc.ID] = true
					if toolResult.Content == "" {
						sb.WriteString("[Result: <empty>]\n")
					} else {
						sb.WriteString("[Result: ")
						sb.WriteString(truncateStr(toolResult.Content, maxFlattenedResultLength))
						sb.WriteString("]\n")
					}
				} else {
					sb.WriteString("[Result: <no response>]\n")
				}
			}
			result = append(result, &Message{
				ID:        msg.ID,
				Role:      RoleAssistant,
				Content:   strings.TrimRight(sb.String(), " \t\n"),
				Timestamp: msg.Timestamp,
				Metadata:  msg.Metadata,
			})

		default:
			result = append(result, msg)
		}
	}

	return result
}

// formatArgs renders tool arguments as a compact JSON-like string with
// deterministic key order.
func formatArgs(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString("{")
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("\"")
		sb.WriteString(k)
		sb.WriteString("\": ")
		switch v := args[k].(type) {
		case string:
			sb.WriteString("\"")
			sb.WriteString(v)
			sb.WriteString("\"")
		default:
			fmt.Fprintf(&sb, "%v", v)
		}
	}
	sb.WriteString("}")
	return sb.String()
}

func truncateStr(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen] + "..."
}

func formatOrphanedToolResult(toolMsg *Message) string {
	toolName := toolMsg.ToolName
	if toolName == "" {
		toolName = "unknown"
	}
	content := toolMsg.Content
	if content == "" {
		content = "<empty>"
	} else {
		content = truncateStr(content, maxFlattenedResultLength)
	}
	return "[Tool: " + toolName + "]\n[Result: " + content + "]"
}
