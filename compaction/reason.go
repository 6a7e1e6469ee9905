package compaction

// Reason identifies what triggered a compaction run. The textual value is
// used verbatim in persisted details projections and audit events.
type Reason string

const (
	// ReasonManualCommand is an operator- or user-issued compaction request.
	ReasonManualCommand Reason = "MANUAL_COMMAND"

	// ReasonAutoThreshold is a compaction triggered by the caller's
	// context-usage threshold policy.
	ReasonAutoThreshold Reason = "AUTO_THRESHOLD"

	// ReasonContextOverflowRecovery is a compaction issued after a provider
	// rejected a request for exceeding its context window.
	ReasonContextOverflowRecovery Reason = "CONTEXT_OVERFLOW_RECOVERY"
)
