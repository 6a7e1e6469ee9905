package types

import (
	"time"
)

// SessionState represents the session lifecycle state.
type SessionState string

const (
	// SessionStateActive is a session currently accepting messages.
	SessionStateActive SessionState = "active"

	// SessionStatePaused is a session suspended by the operator.
	SessionStatePaused SessionState = "paused"

	// SessionStateTerminated is a closed session kept for audit.
	SessionStateTerminated SessionState = "terminated"
)

// Session represents a persistent conversation session with a user. Tracks
// message history, metadata and timestamps. Sessions are persisted to storage
// and can be resumed across restarts.
type Session struct {
	ID          string         `json:"id"`
	ChannelType string         `json:"channel_type,omitempty"`
	ChatID      string         `json:"chat_id,omitempty"`
	Messages    []*Message     `json:"messages"`
	Metadata    map[string]any `json:"metadata"`
	State       SessionState   `json:"state"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// AddMessage appends a message to the session history and updates the
// session timestamp.
func (s *Session) AddMessage(msg *Message) {
	if msg == nil {
		return
	}
	s.Messages = append(s.Messages, msg)
	s.UpdatedAt = time.Now()
}

// SetMetadata stores a metadata value, allocating the map on first use.
func (s *Session) SetMetadata(key string, value any) {
	if s.Metadata == nil {
		s.Metadata = make(map[string]any)
	}
	s.Metadata[key] = value
}
