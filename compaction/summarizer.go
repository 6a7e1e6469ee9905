package compaction

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alexk-dev/compactpg/types"
)

// Logger is the structured logging interface used throughout the package.
// log/slog's *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// nopLogger discards all log output.
type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// CompletionRequest describes a single summarization call to the LLM.
type CompletionRequest struct {
	Model        string
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int64
	Temperature  float64
}

// LLM is the summarization capability consumed by the Summarizer.
// Implementations issue one chat completion per call; the Summarizer bounds
// the call with a timeout and treats every failure as "no summary".
type LLM interface {
	// IsAvailable reports whether the capability is configured and operational.
	IsAvailable() bool

	// Complete executes the completion and returns the response text.
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Summarizer turns a transcript prefix into a short summary using an LLM,
// degrading gracefully when the LLM is unavailable or fails.
type Summarizer struct {
	llm    LLM
	config *Config
	logger Logger
	now    func() time.Time
}

// NewSummarizer creates a Summarizer. llm may be nil, in which case every
// Summarize call reports no summary. logger may be nil.
func NewSummarizer(llm LLM, config *Config, logger Logger) *Summarizer {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = nopLogger{}
	}
	return &Summarizer{
		llm:    llm,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// Summarize generates a summary of the given messages. It returns the empty
// string, without error, when the LLM is unavailable, the input is empty, the
// call fails or times out, or the response is blank. Otherwise it returns the
// trimmed summary text.
func (s *Summarizer) Summarize(ctx context.Context, messages []*types.Message) string {
	if len(messages) == 0 {
		return ""
	}

	if s.llm == nil || !s.llm.IsAvailable() {
		s.logger.Warn("llm not available, cannot summarize")
		return ""
	}

	callCtx, cancel := context.WithTimeout(ctx, s.config.SummaryTimeout)
	defer cancel()

	start := s.now()
	text, err := s.llm.Complete(callCtx, CompletionRequest{
		Model:        s.config.SummarizerModel,
		SystemPrompt: summarySystemPrompt,
		UserPrompt:   buildSummaryPrompt(messages),
		MaxTokens:    int64(s.config.SummarizerMaxTokens),
		Temperature:  s.config.SummaryTemperature,
	})
	elapsed := s.now().Sub(start)

	if err != nil {
		s.logger.Warn("llm summarization failed", "error", err)
		return ""
	}

	summary := strings.TrimSpace(text)
	if summary == "" {
		s.logger.Warn("llm returned empty summary")
		return ""
	}

	s.logger.Info("summarized messages",
		"count", len(messages),
		"duration_ms", elapsed.Milliseconds(),
		"chars", len(summary))
	return summary
}

// CreateSummaryMessage builds the system message that replaces the compacted
// transcript prefix.
func (s *Summarizer) CreateSummaryMessage(summary string) *types.Message {
	return &types.Message{
		ID:        uuid.New().String(),
		Role:      types.RoleSystem,
		Content:   "[Conversation summary]\n" + summary,
		Timestamp: s.now(),
	}
}
