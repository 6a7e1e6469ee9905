package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/alexk-dev/compactpg/types"
)

// SQLStore implements Store on top of database/sql with the lib/pq driver.
// Use it when the host application already manages a *sql.DB pool and cannot
// adopt pgx; PostgresStore is preferred otherwise.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore creates a new database/sql store.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// GetSession retrieves a session by ID.
func (s *SQLStore) GetSession(ctx context.Context, sessionID string) (*types.Session, error) {
	query := `
		SELECT id, channel_type, chat_id, messages, metadata, state, created_at, updated_at
		FROM compactpg_sessions
		WHERE id = $1
	`

	var session types.Session
	var messagesJSON, metadataJSON []byte

	err := s.db.QueryRowContext(ctx, query, sessionID).Scan(
		&session.ID,
		&session.ChannelType,
		&session.ChatID,
		&messagesJSON,
		&metadataJSON,
		&session.State,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if err := json.Unmarshal(messagesJSON, &session.Messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal messages: %w", err)
	}
	if err := json.Unmarshal(metadataJSON, &session.Metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}

	return &session, nil
}

// SaveSession upserts the full session row.
func (s *SQLStore) SaveSession(ctx context.Context, session *types.Session) error {
	if session == nil {
		return fmt.Errorf("session is required")
	}
	if session.ID == "" {
		return fmt.Errorf("session id is required")
	}

	messagesJSON, err := json.Marshal(session.Messages)
	if err != nil {
		return fmt.Errorf("failed to marshal messages: %w", err)
	}
	metadataJSON, err := json.Marshal(session.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		INSERT INTO compactpg_sessions (id, channel_type, chat_id, messages, metadata, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			channel_type = EXCLUDED.channel_type,
			chat_id = EXCLUDED.chat_id,
			messages = EXCLUDED.messages,
			metadata = EXCLUDED.metadata,
			state = EXCLUDED.state,
			updated_at = NOW()
	`

	_, err = s.db.ExecContext(ctx, query,
		session.ID, session.ChannelType, session.ChatID, messagesJSON, metadataJSON, session.State)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// ListSessions returns sessions ordered by most recently updated.
func (s *SQLStore) ListSessions(ctx context.Context) ([]*types.Session, error) {
	query := `
		SELECT id, channel_type, chat_id, messages, metadata, state, created_at, updated_at
		FROM compactpg_sessions
		ORDER BY updated_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*types.Session
	for rows.Next() {
		var session types.Session
		var messagesJSON, metadataJSON []byte

		err := rows.Scan(
			&session.ID,
			&session.ChannelType,
			&session.ChatID,
			&messagesJSON,
			&metadataJSON,
			&session.State,
			&session.CreatedAt,
			&session.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}

		if err := json.Unmarshal(messagesJSON, &session.Messages); err != nil {
			return nil, fmt.Errorf("failed to unmarshal messages: %w", err)
		}
		if err := json.Unmarshal(metadataJSON, &session.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}

		sessions = append(sessions, &session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}

	return sessions, nil
}

// SaveCompactionEvent records an audit row for a completed compaction.
func (s *SQLStore) SaveCompactionEvent(ctx context.Context, event *CompactionEvent) error {
	if event == nil {
		return fmt.Errorf("event is required")
	}

	query := `
		INSERT INTO compactpg_compaction_events
			(id, session_id, reason, messages_removed, messages_kept, used_summary,
			 summary_length, fallback_used, split_turn_detected, tool_names,
			 read_files, modified_files, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
	`

	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		event.SessionID,
		event.Reason,
		event.MessagesRemoved,
		event.MessagesKept,
		event.UsedSummary,
		event.SummaryLength,
		event.FallbackUsed,
		event.SplitTurnDetected,
		pq.Array(event.ToolNames),
		pq.Array(event.ReadFiles),
		pq.Array(event.ModifiedFiles),
		event.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("failed to save compaction event: %w", err)
	}

	return nil
}

// GetCompactionHistory returns compaction events for a session, most recent first.
func (s *SQLStore) GetCompactionHistory(ctx context.Context, sessionID string) ([]*CompactionEvent, error) {
	query := `
		SELECT id, session_id, reason, messages_removed, messages_kept, used_summary,
		       summary_length, fallback_used, split_turn_detected, tool_names,
		       read_files, modified_files, duration_ms, created_at
		FROM compactpg_compaction_events
		WHERE session_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get compaction history: %w", err)
	}
	defer rows.Close()

	var events []*CompactionEvent
	for rows.Next() {
		var event CompactionEvent
		err := rows.Scan(
			&event.ID,
			&event.SessionID,
			&event.Reason,
			&event.MessagesRemoved,
			&event.MessagesKept,
			&event.UsedSummary,
			&event.SummaryLength,
			&event.FallbackUsed,
			&event.SplitTurnDetected,
			pq.Array(&event.ToolNames),
			pq.Array(&event.ReadFiles),
			pq.Array(&event.ModifiedFiles),
			&event.DurationMS,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan compaction event: %w", err)
		}
		events = append(events, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate compaction events: %w", err)
	}

	return events, nil
}
