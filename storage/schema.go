package storage

// Schema is the DDL for the tables used by the PostgreSQL stores. Apply it
// with your migration tooling of choice; every statement is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS compactpg_sessions (
    id           TEXT PRIMARY KEY,
    channel_type TEXT NOT NULL DEFAULT '',
    chat_id      TEXT NOT NULL DEFAULT '',
    messages     JSONB NOT NULL DEFAULT '[]',
    metadata     JSONB NOT NULL DEFAULT '{}',
    state        TEXT NOT NULL DEFAULT 'active',
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS compactpg_compaction_events (
    id                  UUID PRIMARY KEY,
    session_id          TEXT NOT NULL REFERENCES compactpg_sessions(id) ON DELETE CASCADE,
    reason              TEXT NOT NULL,
    messages_removed    INTEGER NOT NULL,
    messages_kept       INTEGER NOT NULL,
    used_summary        BOOLEAN NOT NULL,
    summary_length      INTEGER NOT NULL,
    fallback_used       BOOLEAN NOT NULL,
    split_turn_detected BOOLEAN NOT NULL,
    tool_names          TEXT[] NOT NULL DEFAULT '{}',
    read_files          TEXT[] NOT NULL DEFAULT '{}',
    modified_files      TEXT[] NOT NULL DEFAULT '{}',
    duration_ms         BIGINT NOT NULL,
    created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_compactpg_compaction_events_session
    ON compactpg_compaction_events(session_id, created_at DESC);
`
