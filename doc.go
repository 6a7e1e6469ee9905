// Package compactpg provides conversation-context compaction for AI agent
// sessions persisted in PostgreSQL.
//
// CompactPG is opinionated (Anthropic + PostgreSQL + pgx), modular, and built
// around one operation: shrink a session's transcript to its last N messages
// while preserving tool-call/tool-result pairing, replacing the removed
// prefix with an LLM-generated summary when one can be produced and dropping
// it outright when one cannot.
//
// # Key Features
//
//   - Turn-boundary-safe cut-point resolution (no dangling tool calls or
//     orphaned tool results across the cut)
//   - Bounded statistics extraction over the removed prefix (tool usage,
//     files read and modified, per-file line counts)
//   - Graceful degradation: every summarization failure falls back to
//     dropping without a summary, never to an error
//   - Per-session serialization of compaction runs
//   - Compaction audit history and a read-only dashboard
//   - Hooks for observability and debugging
//
// # Quick Start
//
//	pool, _ := pgxpool.New(ctx, connString)
//	client, err := compactpg.NewClient(&compactpg.ClientConfig{
//	    APIKey: os.Getenv("ANTHROPIC_API_KEY"),
//	    Store:  storage.NewPostgresStore(pool),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := client.Compact(ctx, sessionID, compaction.ReasonManualCommand)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log.Printf("removed %d messages (summary: %t)", result.Removed, result.UsedSummary)
//
// The compaction, storage, hooks and ui packages are usable on their own;
// Client only wires them together and serializes compactions per session.
package compactpg
