package storage_test

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/alexk-dev/compactpg/storage"
	"github.com/alexk-dev/compactpg/types"
)

func setupSQL(t *testing.T) (*storage.SQLStore, context.Context) {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, storage.Schema); err != nil {
		t.Fatalf("apply schema: %v", err)
	}

	return storage.NewSQLStore(db), ctx
}

func TestSQLStoreSessionRoundTrip(t *testing.T) {
	store, ctx := setupSQL(t)

	session := &types.Session{
		ID:    uuid.New().String(),
		State: types.SessionStateActive,
		Messages: []*types.Message{
			{ID: "m1", Role: types.RoleUser, Content: "hello"},
		},
	}
	if err := store.SaveSession(ctx, session); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	got, err := store.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if len(got.Messages) != 1 || got.Messages[0].Content != "hello" {
		t.Errorf("transcript lost in round trip: %+v", got.Messages)
	}
}

func TestSQLStoreCompactionEventArrays(t *testing.T) {
	store, ctx := setupSQL(t)

	sessionID := uuid.New().String()
	if err := store.SaveSession(ctx, &types.Session{ID: sessionID}); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	event := &storage.CompactionEvent{
		ID:            uuid.New().String(),
		SessionID:     sessionID,
		Reason:        "AUTO_THRESHOLD",
		ToolNames:     []string{"shell"},
		ReadFiles:     []string{},
		ModifiedFiles: []string{"x.go", "y.go"},
	}
	if err := store.SaveCompactionEvent(ctx, event); err != nil {
		t.Fatalf("SaveCompactionEvent: %v", err)
	}

	history, err := store.GetCompactionHistory(ctx, sessionID)
	if err != nil {
		t.Fatalf("GetCompactionHistory: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 event, got %d", len(history))
	}
	if len(history[0].ModifiedFiles) != 2 {
		t.Errorf("text[] column lost: %v", history[0].ModifiedFiles)
	}
}
