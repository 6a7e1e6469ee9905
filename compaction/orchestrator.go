package compaction

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/alexk-dev/compactpg/storage"
	"github.com/alexk-dev/compactpg/types"
)

// Result reports the outcome of a compaction run.
type Result struct {
	// Removed is the number of messages dropped from the transcript. A value
	// of -1 means the session was not found; 0 means the transcript was
	// already within bounds and was left untouched.
	Removed int

	// UsedSummary reports whether an LLM summary message was spliced in.
	UsedSummary bool

	// SummaryMessage is the system message inserted in place of the removed
	// prefix. Nil when no summary was produced.
	SummaryMessage *types.Message

	// Details is the statistics record for this run. Nil only when the
	// session was not found.
	Details *Details
}

// Orchestrator runs the full compaction pipeline for a session: load the
// transcript, resolve a safe cut boundary, extract statistics from the
// removed prefix, summarize it, splice the transcript and persist.
//
// An Orchestrator is safe for concurrent use across distinct sessions, but
// concurrent compaction of the same session is a read-modify-write race the
// caller must serialize; Client does this with a per-session lock.
type Orchestrator struct {
	store      storage.Store
	summarizer *Summarizer
	config     *Config
	logger     Logger
	now        func() time.Time
}

// NewOrchestrator creates an Orchestrator. A nil config gets defaults; a nil
// logger discards all output.
func NewOrchestrator(store storage.Store, llm LLM, config *Config, logger Logger) (*Orchestrator, error) {
	if store == nil {
		return nil, NewCompactionError("new_orchestrator", errors.New("store is required"))
	}
	if config == nil {
		config = DefaultConfig()
	}
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = nopLogger{}
	}

	return &Orchestrator{
		store:      store,
		summarizer: NewSummarizer(llm, config, logger),
		config:     config,
		logger:     logger,
		now:        time.Now,
	}, nil
}

// Compact compacts the session's transcript, keeping its last keepLast
// messages (values below 1 are normalized to 1).
//
// An unknown session yields Result{Removed: -1} with a nil error and no side
// effects. Summarization failures never surface as errors; they degrade to
// the fallback path where the removed prefix is dropped without a summary and
// Result.UsedSummary is false. A non-nil error is returned only for storage
// failures, in which case the session was not modified durably.
func (o *Orchestrator) Compact(ctx context.Context, sessionID string, reason Reason, keepLast int) (*Result, error) {
	session, err := o.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			o.logger.Warn("compaction requested for unknown session", "session_id", sessionID)
			return &Result{Removed: -1}, nil
		}
		return nil, WrapErrorWithSession("load_session", sessionID, err)
	}

	prep := Prepare(sessionID, session.Messages, keepLast, reason, o.config.PreserveTurnBoundaries)

	if len(prep.MessagesToCompact) == 0 {
		details := ExtractDetails(ExtractInput{
			Reason:              reason,
			Messages:            nil,
			SummarizedCount:     0,
			KeptCount:           len(prep.MessagesToKeep),
			SplitTurnDetected:   prep.SplitTurnDetected,
			MaxItemsPerCategory: o.config.DetailsMaxItemsPerCategory,
		})
		session.SetMetadata(MetadataKeyLastDetails, details.AsMap())

		o.logger.Debug("nothing to compact",
			"session_id", sessionID,
			"total_messages", prep.TotalMessages,
			"keep_last", prep.KeepLastRequested)
		return &Result{Removed: 0, Details: details}, nil
	}

	start := o.now()
	summary := o.summarizer.Summarize(ctx, prep.MessagesToCompact)
	usedSummary := summary != ""

	// Flattening folds assistant tool-call turns into their results, so the
	// retained count is taken from the flattened list, not the raw suffix.
	kept := types.FlattenToolMessages(prep.MessagesToKeep)

	var summaryMessage *types.Message
	if usedSummary {
		summaryMessage = o.summarizer.CreateSummaryMessage(summary)
		session.Messages = append([]*types.Message{summaryMessage}, kept...)
	} else {
		o.logger.Warn("compacting without summary",
			"session_id", sessionID,
			"removed", len(prep.MessagesToCompact))
		session.Messages = kept
	}
	durationMS := o.now().Sub(start).Milliseconds()

	details := ExtractDetails(ExtractInput{
		Reason:              reason,
		Messages:            prep.MessagesToCompact,
		SummarizedCount:     len(prep.MessagesToCompact),
		KeptCount:           len(kept),
		UsedLLMSummary:      usedSummary,
		SummaryLength:       len(summary),
		SplitTurnDetected:   prep.SplitTurnDetected,
		FallbackUsed:        !usedSummary,
		DurationMS:          durationMS,
		MaxItemsPerCategory: o.config.DetailsMaxItemsPerCategory,
	})

	if summaryMessage != nil && o.config.DetailsEnabled {
		summaryMessage.Metadata = map[string]any{
			MetadataKeyCompactionDetails: details.AsMap(),
		}
	}

	session.SetMetadata(MetadataKeyLastDetails, details.AsMap())

	if err := o.store.SaveSession(ctx, session); err != nil {
		return nil, NewCompactionError("save_session", err).
			WithSession(sessionID).
			WithContext("removed", len(prep.MessagesToCompact))
	}

	o.recordEvent(ctx, prep, details)

	o.logger.Info("compacted session",
		"session_id", sessionID,
		"reason", string(reason),
		"removed", len(prep.MessagesToCompact),
		"kept", len(kept),
		"used_summary", usedSummary,
		"duration_ms", durationMS)

	return &Result{
		Removed:        len(prep.MessagesToCompact),
		UsedSummary:    usedSummary,
		SummaryMessage: summaryMessage,
		Details:        details,
	}, nil
}

// recordEvent writes the audit row. Audit failures are logged and swallowed;
// the transcript splice already succeeded and must not be reported as failed.
func (o *Orchestrator) recordEvent(ctx context.Context, prep *Preparation, details *Details) {
	event := &storage.CompactionEvent{
		ID:                uuid.New().String(),
		SessionID:         prep.SessionID,
		Reason:            string(details.Reason),
		MessagesRemoved:   details.SummarizedCount,
		MessagesKept:      details.KeptCount,
		UsedSummary:       details.UsedLLMSummary,
		SummaryLength:     details.SummaryLength,
		FallbackUsed:      details.FallbackUsed,
		SplitTurnDetected: details.SplitTurnDetected,
		ToolNames:         details.ToolNames,
		ReadFiles:         details.ReadFiles,
		ModifiedFiles:     details.ModifiedFiles,
		DurationMS:        details.DurationMS,
		CreatedAt:         o.now(),
	}
	if err := o.store.SaveCompactionEvent(ctx, event); err != nil {
		o.logger.Warn("failed to record compaction event",
			"session_id", prep.SessionID, "error", err)
	}
}
