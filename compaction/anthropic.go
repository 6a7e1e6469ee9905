package compaction

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
)

// AnthropicLLM implements LLM using Claude's streaming messages API.
type AnthropicLLM struct {
	client *anthropic.Client
}

// NewAnthropicLLM creates an Anthropic-backed summarization capability.
func NewAnthropicLLM(client *anthropic.Client) *AnthropicLLM {
	return &AnthropicLLM{client: client}
}

// IsAvailable reports whether an API client is configured.
func (l *AnthropicLLM) IsAvailable() bool {
	return l != nil && l.client != nil
}

// Complete executes the completion request and returns the accumulated
// response text.
func (l *AnthropicLLM) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if !l.IsAvailable() {
		return "", ErrLLMUnavailable
	}

	stream := l.client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		MaxTokens:   req.MaxTokens,
		Temperature: anthropic.Float(req.Temperature),
		System: []anthropic.TextBlockParam{
			{Text: req.SystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserPrompt)),
		},
	})

	message := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			return "", fmt.Errorf("%w: failed to accumulate stream: %v", ErrSummarizationFailed, err)
		}
	}

	if err := stream.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrSummarizationFailed, err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(tb.Text)
		}
	}

	if text.Len() == 0 {
		return "", fmt.Errorf("%w: empty response from summarizer", ErrSummarizationFailed)
	}

	return text.String(), nil
}
