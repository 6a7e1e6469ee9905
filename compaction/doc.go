// Package compaction implements conversation-context compaction for agent
// sessions.
//
// When a conversation grows past what the caller wants to carry, the package
// removes a prefix of the transcript, summarizes it with an LLM, and splices
// the summary back in as a single system message. The remaining transcript is
// guaranteed to stay structurally sound: a tool invocation and its result are
// never separated by the cut point in a way that leaves a dangling reference.
//
// # Pipeline
//
// Compaction runs in four stages, composed by the Orchestrator:
//
//   - Prepare computes a structurally-safe cut point for a "keep last N"
//     request. It shifts the cut left past assistant messages whose tool
//     calls would otherwise be severed from their results, and refuses to
//     compact at all when the first retained message is a tool result whose
//     origin cannot be found anywhere in the preceding transcript.
//
//   - ExtractDetails scans the messages destined for removal and produces a
//     bounded, deterministic record of tool activity: tool names, files read,
//     files modified, and per-file line deltas. Malformed input never aborts
//     the pass; unreadable entries are skipped.
//
//   - Summarizer builds a bounded role-tagged prompt from the messages to be
//     removed and asks the summarization capability for a terse recap. Any
//     failure (capability unavailable, call error, timeout, blank response)
//     degrades to "no summary" without surfacing an error.
//
//   - Orchestrator.Compact loads the session, runs the stages, replaces the
//     transcript prefix with the summary message (or drops the prefix when
//     summarization failed), and persists the details projection plus an
//     audit event.
//
// # Concurrency
//
// Prepare and ExtractDetails are pure functions, safe for any number of
// concurrent callers. The Orchestrator performs an unguarded read-modify-write
// across load, summarize and save: callers must serialize compaction per
// session ID. The root compactpg.Client provides that serialization.
package compaction
