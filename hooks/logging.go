package hooks

import (
	"context"
	"log"

	"github.com/alexk-dev/compactpg/compaction"
)

// LoggingHooks provides built-in logging hooks for observability
type LoggingHooks struct {
	logger *log.Logger
}

// NewLoggingHooks creates logging hooks with the provided logger
func NewLoggingHooks(logger *log.Logger) *LoggingHooks {
	return &LoggingHooks{logger: logger}
}

// DefaultLoggingHooks creates logging hooks with default logger
func DefaultLoggingHooks() *LoggingHooks {
	return &LoggingHooks{logger: log.Default()}
}

// BeforeCompaction logs before a compaction run starts
func (h *LoggingHooks) BeforeCompaction(ctx context.Context, sessionID string, reason compaction.Reason) error {
	h.logger.Printf("[CompactPG] Starting compaction for session %s (reason: %s)", sessionID, reason)
	return nil
}

// AfterCompaction logs the outcome of a compaction run
func (h *LoggingHooks) AfterCompaction(ctx context.Context, sessionID string, result *compaction.Result) error {
	if result == nil {
		return nil
	}
	switch {
	case result.Removed < 0:
		h.logger.Printf("[CompactPG] Compaction skipped: session %s not found", sessionID)
	case result.Removed == 0:
		h.logger.Printf("[CompactPG] Compaction no-op for session %s: transcript already within bounds", sessionID)
	default:
		h.logger.Printf("[CompactPG] Compaction complete for session %s: %d messages removed, summary=%t",
			sessionID, result.Removed, result.UsedSummary)
	}
	return nil
}

// Register attaches the logging hooks to a registry.
func (h *LoggingHooks) Register(r *Registry) {
	r.OnBeforeCompaction(h.BeforeCompaction)
	r.OnAfterCompaction(h.AfterCompaction)
}
