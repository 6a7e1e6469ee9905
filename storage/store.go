// Package storage defines the persistence interface for conversation
// sessions and compaction audit events, with PostgreSQL (pgx and
// database/sql) and in-memory implementations.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/alexk-dev/compactpg/types"
)

// ErrSessionNotFound indicates the requested session does not exist.
var ErrSessionNotFound = errors.New("session not found")

// Store defines the storage interface consumed by the compaction engine.
//
// SaveSession is an idempotent overwrite of the full session, transcript
// included. Save failures are not handled by the engine; they propagate to
// the caller.
type Store interface {
	// GetSession retrieves a session by ID. Returns ErrSessionNotFound when
	// the session does not exist.
	GetSession(ctx context.Context, sessionID string) (*types.Session, error)

	// SaveSession persists the session, overwriting any previous state.
	SaveSession(ctx context.Context, session *types.Session) error

	// ListSessions returns all sessions, most recently updated first.
	ListSessions(ctx context.Context) ([]*types.Session, error)

	// SaveCompactionEvent records a compaction audit event.
	SaveCompactionEvent(ctx context.Context, event *CompactionEvent) error

	// GetCompactionHistory returns a session's compaction events, most
	// recent first.
	GetCompactionHistory(ctx context.Context, sessionID string) ([]*CompactionEvent, error)
}

// CompactionEvent is the audit record of a single compaction run.
type CompactionEvent struct {
	ID                string    `json:"id"`
	SessionID         string    `json:"session_id"`
	Reason            string    `json:"reason"`
	MessagesRemoved   int       `json:"messages_removed"`
	MessagesKept      int       `json:"messages_kept"`
	UsedSummary       bool      `json:"used_summary"`
	SummaryLength     int       `json:"summary_length"`
	FallbackUsed      bool      `json:"fallback_used"`
	SplitTurnDetected bool      `json:"split_turn_detected"`
	ToolNames         []string  `json:"tool_names"`
	ReadFiles         []string  `json:"read_files"`
	ModifiedFiles     []string  `json:"modified_files"`
	DurationMS        int64     `json:"duration_ms"`
	CreatedAt         time.Time `json:"created_at"`
}
