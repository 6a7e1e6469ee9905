package compaction

import (
	"github.com/alexk-dev/compactpg/types"
)

// Preparation describes a resolved compaction boundary for a transcript.
// MessagesToCompact and MessagesToKeep partition the original transcript:
// their concatenation always equals the input, and
// 0 <= AdjustedCutIndex <= RawCutIndex <= TotalMessages.
type Preparation struct {
	SessionID         string
	Reason            Reason
	TotalMessages     int
	KeepLastRequested int
	RawCutIndex       int
	AdjustedCutIndex  int
	SplitTurnDetected bool
	MessagesToCompact []*types.Message
	MessagesToKeep    []*types.Message
}

// Prepare computes a structurally-safe cut point for compacting a transcript
// while keeping its last keepLast messages.
//
// With preserveTurnBoundaries set, the raw cut index is adjusted in two steps.
// First, while the message just before the cut is an assistant message whose
// tool calls are not answered by the tool result sitting at the cut, the cut
// moves left one message at a time; this handles chains of dangling calls.
// Second, if the first retained message is a tool result whose originating
// call cannot be found anywhere in the to-be-removed prefix, the cut drops to
// zero and nothing is compacted: shifting cannot repair a result with no
// origin, so the conservative answer is to leave the transcript alone.
//
// Prepare never fails. Nil messages and malformed tool calls are treated as
// non-matching and otherwise ignored.
func Prepare(sessionID string, messages []*types.Message, keepLast int, reason Reason, preserveTurnBoundaries bool) *Preparation {
	total := len(messages)
	normalizedKeepLast := max(1, keepLast)
	rawCutIndex := max(0, total-normalizedKeepLast)
	adjustedCutIndex := rawCutIndex

	splitTurnDetected := false
	if preserveTurnBoundaries {
		adjustedCutIndex = moveCutIndexToSafeBoundary(messages, rawCutIndex)
		splitTurnDetected = adjustedCutIndex != rawCutIndex
	}

	toCompact := make([]*types.Message, adjustedCutIndex)
	copy(toCompact, messages[:adjustedCutIndex])
	toKeep := make([]*types.Message, total-adjustedCutIndex)
	copy(toKeep, messages[adjustedCutIndex:])

	return &Preparation{
		SessionID:         sessionID,
		Reason:            reason,
		TotalMessages:     total,
		KeepLastRequested: normalizedKeepLast,
		RawCutIndex:       rawCutIndex,
		AdjustedCutIndex:  adjustedCutIndex,
		SplitTurnDetected: splitTurnDetected,
		MessagesToCompact: toCompact,
		MessagesToKeep:    toKeep,
	}
}

func moveCutIndexToSafeBoundary(messages []*types.Message, rawCutIndex int) int {
	if rawCutIndex <= 0 || rawCutIndex >= len(messages) {
		return rawCutIndex
	}

	cutIndex := rawCutIndex
	for cutIndex > 0 && splitsDanglingCall(messages, cutIndex) {
		cutIndex--
	}

	if cutIndex > 0 && isUnresolvableOrphan(messages, cutIndex) {
		return 0
	}
	return cutIndex
}

// splitsDanglingCall reports whether cutting at cutIndex severs an assistant
// tool call from its result. The call dangles when the message before the cut
// is an assistant message with tool calls and the message at the cut is not a
// tool result answering one of them.
func splitsDanglingCall(messages []*types.Message, cutIndex int) bool {
	previous := messages[cutIndex-1]
	if previous == nil || !previous.IsAssistantMessage() || !previous.HasToolCalls() {
		return false
	}

	callIDs := make(map[string]bool)
	for _, toolCall := range previous.ToolCalls {
		if toolCall.ID != "" {
			callIDs[toolCall.ID] = true
		}
	}
	if len(callIDs) == 0 {
		return false
	}

	if cutIndex < len(messages) {
		first := messages[cutIndex]
		if first != nil && first.IsToolMessage() && callIDs[first.ToolCallID] {
			return false
		}
	}
	return true
}

// isUnresolvableOrphan reports whether the first retained message is a tool
// result with no originating tool call anywhere in the to-be-removed prefix.
func isUnresolvableOrphan(messages []*types.Message, cutIndex int) bool {
	if cutIndex >= len(messages) {
		return false
	}
	first := messages[cutIndex]
	if first == nil || !first.IsToolMessage() {
		return false
	}
	if first.ToolCallID == "" {
		return true
	}
	return !hasToolCallOrigin(messages[:cutIndex], first.ToolCallID)
}

func hasToolCallOrigin(prefix []*types.Message, toolCallID string) bool {
	for index := len(prefix) - 1; index >= 0; index-- {
		candidate := prefix[index]
		if candidate == nil || !candidate.IsAssistantMessage() || !candidate.HasToolCalls() {
			continue
		}
		for _, toolCall := range candidate.ToolCalls {
			if toolCall.ID == toolCallID {
				return true
			}
		}
	}
	return false
}
