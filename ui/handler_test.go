package ui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alexk-dev/compactpg/storage"
	"github.com/alexk-dev/compactpg/types"
)

func newTestHandler(t *testing.T) (http.Handler, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	return NewHandler(store, nil), store
}

func TestHandlerSessionList(t *testing.T) {
	handler, store := newTestHandler(t)
	ctx := context.Background()

	if err := store.SaveSession(ctx, &types.Session{
		ID:          "session-abc",
		ChannelType: "telegram",
		State:       types.SessionStateActive,
		Messages:    []*types.Message{{Role: types.RoleUser, Content: "hi"}},
	}); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/sessions", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "session-abc") || !strings.Contains(body, "telegram") {
		t.Errorf("session row missing from list: %s", body)
	}
}

func TestHandlerSessionDetailRendersMarkdown(t *testing.T) {
	handler, store := newTestHandler(t)

	if err := store.SaveSession(context.Background(), &types.Session{
		ID: "s1",
		Messages: []*types.Message{
			{Role: types.RoleAssistant, Content: "use **bold** text"},
		},
	}); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/sessions/s1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<strong>bold</strong>") {
		t.Errorf("markdown not rendered: %s", rec.Body.String())
	}
}

func TestHandlerSessionDetailSanitizesHTML(t *testing.T) {
	handler, store := newTestHandler(t)

	if err := store.SaveSession(context.Background(), &types.Session{
		ID: "s1",
		Messages: []*types.Message{
			{Role: types.RoleUser, Content: `<script>alert("x")</script>`},
		},
	}); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/sessions/s1", nil))

	if strings.Contains(rec.Body.String(), "<script>") {
		t.Error("script tag survived sanitization")
	}
}

func TestHandlerSessionNotFound(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/sessions/missing", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandlerCompactionHistory(t *testing.T) {
	handler, store := newTestHandler(t)

	if err := store.SaveCompactionEvent(context.Background(), &storage.CompactionEvent{
		SessionID:       "s1",
		Reason:          "MANUAL_COMMAND",
		MessagesRemoved: 6,
		MessagesKept:    2,
		UsedSummary:     true,
		SummaryLength:   120,
		DurationMS:      42,
	}); err != nil {
		t.Fatalf("SaveCompactionEvent: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/sessions/s1/compactions", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "MANUAL_COMMAND") || !strings.Contains(body, "120 chars") {
		t.Errorf("event row missing: %s", body)
	}
}

func TestHandlerRootRedirects(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/sessions" {
		t.Errorf("expected redirect to /sessions, got %s", loc)
	}
}
