package compaction

import (
	"fmt"
	"time"
)

// Default configuration values.
const (
	DefaultKeepLastMessages           = 10
	DefaultDetailsMaxItemsPerCategory = 50
	DefaultSummarizerModel            = "claude-3-5-haiku-20241022"
	DefaultSummarizerMaxTokens        = 500
	DefaultSummaryTimeout             = 15 * time.Second
	DefaultSummaryTemperature         = 0.3
)

// Config holds compaction configuration.
type Config struct {
	// KeepLastMessages is the default number of most recent messages to keep
	// when the caller does not request a specific count.
	// Default: 10
	KeepLastMessages int

	// PreserveTurnBoundaries controls whether the cut point is adjusted so
	// that a tool invocation and its result are never separated by the cut.
	// Default: true
	PreserveTurnBoundaries bool

	// DetailsEnabled controls whether the details projection is embedded in
	// the summary message's own metadata. The session-level projection is
	// always persisted.
	// Default: true
	DetailsEnabled bool

	// DetailsMaxItemsPerCategory caps each bounded collection in the details
	// record (tool names, read files, modified files, file changes).
	// Default: 50
	DetailsMaxItemsPerCategory int

	// SummarizerModel is the model to use for summarization.
	// Using a faster/cheaper model is recommended.
	// Default: "claude-3-5-haiku-20241022"
	SummarizerModel string

	// SummarizerMaxTokens is the output-length cap for the summarization
	// response, biasing toward terse summaries.
	// Default: 500
	SummarizerMaxTokens int

	// SummaryTimeout bounds the summarization call. On timeout the
	// compaction falls back to dropping messages without a summary.
	// Default: 15s
	SummaryTimeout time.Duration

	// SummaryTemperature is the sampling temperature for summarization.
	// Default: 0.3
	SummaryTemperature float64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		KeepLastMessages:           DefaultKeepLastMessages,
		PreserveTurnBoundaries:     true,
		DetailsEnabled:             true,
		DetailsMaxItemsPerCategory: DefaultDetailsMaxItemsPerCategory,
		SummarizerModel:            DefaultSummarizerModel,
		SummarizerMaxTokens:        DefaultSummarizerMaxTokens,
		SummaryTimeout:             DefaultSummaryTimeout,
		SummaryTemperature:         DefaultSummaryTemperature,
	}
}

// ApplyDefaults fills in zero values with defaults. Boolean fields are left
// as-is; use DefaultConfig as the starting point to get their defaults.
func (c *Config) ApplyDefaults() {
	if c.KeepLastMessages == 0 {
		c.KeepLastMessages = DefaultKeepLastMessages
	}
	if c.DetailsMaxItemsPerCategory == 0 {
		c.DetailsMaxItemsPerCategory = DefaultDetailsMaxItemsPerCategory
	}
	if c.SummarizerModel == "" {
		c.SummarizerModel = DefaultSummarizerModel
	}
	if c.SummarizerMaxTokens == 0 {
		c.SummarizerMaxTokens = DefaultSummarizerMaxTokens
	}
	if c.SummaryTimeout == 0 {
		c.SummaryTimeout = DefaultSummaryTimeout
	}
	if c.SummaryTemperature == 0 {
		c.SummaryTemperature = DefaultSummaryTemperature
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.KeepLastMessages < 1 {
		return fmt.Errorf("%w: keep_last_messages must be at least 1, got %d",
			ErrInvalidConfig, c.KeepLastMessages)
	}

	if c.DetailsMaxItemsPerCategory < 0 {
		return fmt.Errorf("%w: details_max_items_per_category must be non-negative, got %d",
			ErrInvalidConfig, c.DetailsMaxItemsPerCategory)
	}

	if c.SummarizerModel == "" {
		return fmt.Errorf("%w: summarizer_model is required", ErrInvalidConfig)
	}

	if c.SummarizerMaxTokens <= 0 {
		return fmt.Errorf("%w: summarizer_max_tokens must be positive, got %d",
			ErrInvalidConfig, c.SummarizerMaxTokens)
	}

	if c.SummaryTimeout <= 0 {
		return fmt.Errorf("%w: summary_timeout must be positive, got %s",
			ErrInvalidConfig, c.SummaryTimeout)
	}

	if c.SummaryTemperature < 0 || c.SummaryTemperature > 1.0 {
		return fmt.Errorf("%w: summary_temperature must be between 0 and 1, got %f",
			ErrInvalidConfig, c.SummaryTemperature)
	}

	return nil
}
