package compactpg

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alexk-dev/compactpg/compaction"
	"github.com/alexk-dev/compactpg/hooks"
	"github.com/alexk-dev/compactpg/storage"
	"github.com/alexk-dev/compactpg/types"
)

// stubLLM is a minimal summarization backend for client tests.
type stubLLM struct {
	response string
	delay    time.Duration
	inflight atomic.Int32
	maxSeen  atomic.Int32
}

func (s *stubLLM) IsAvailable() bool { return true }

func (s *stubLLM) Complete(ctx context.Context, req compaction.CompletionRequest) (string, error) {
	current := s.inflight.Add(1)
	defer s.inflight.Add(-1)
	for {
		seen := s.maxSeen.Load()
		if current <= seen || s.maxSeen.CompareAndSwap(seen, current) {
			break
		}
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.response, nil
}

func seedTranscript(t *testing.T, store storage.Store, id string, n int) {
	t.Helper()
	session := &types.Session{ID: id, State: types.SessionStateActive}
	for i := 0; i < n; i++ {
		role := types.RoleUser
		if i%2 == 1 {
			role = types.RoleAssistant
		}
		session.AddMessage(&types.Message{Role: role, Content: "msg"})
	}
	if err := store.SaveSession(context.Background(), session); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(nil); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("nil config: expected ErrInvalidConfig, got %v", err)
	}
	if _, err := NewClient(&ClientConfig{}); !errors.Is(err, ErrStoreRequired) {
		t.Errorf("no store: expected ErrStoreRequired, got %v", err)
	}
	if _, err := NewClient(&ClientConfig{Store: storage.NewMemoryStore()}); err != nil {
		t.Errorf("store-only config is valid (summarization degrades to fallback): %v", err)
	}
}

func TestClientCompact(t *testing.T) {
	store := storage.NewMemoryStore()
	seedTranscript(t, store, "s1", 20)

	client, err := NewClient(&ClientConfig{
		Store: store,
		LLM:   &stubLLM{response: "the gist"},
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	result, err := client.Compact(context.Background(), "s1", compaction.ReasonManualCommand)
	if err != nil {
		t.Fatalf("Compact: %v", err)
	}

	if result.Removed != 10 {
		t.Errorf("expected 10 removed with default keepLast, got %d", result.Removed)
	}
	if !result.UsedSummary {
		t.Error("expected summary")
	}

	session, err := client.Session(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if len(session.Messages) != 11 {
		t.Errorf("expected summary + 10 kept, got %d", len(session.Messages))
	}

	history, err := client.CompactionHistory(context.Background(), "s1")
	if err != nil {
		t.Fatalf("CompactionHistory: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("expected one audit event, got %d", len(history))
	}
}

func TestClientSessionNotFound(t *testing.T) {
	client, err := NewClient(&ClientConfig{Store: storage.NewMemoryStore()})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	if _, err := client.Session(context.Background(), "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}

	result, err := client.Compact(context.Background(), "missing", compaction.ReasonManualCommand)
	if err != nil {
		t.Fatalf("Compact: %v", err)
	}
	if result.Removed != -1 {
		t.Errorf("expected -1 sentinel, got %d", result.Removed)
	}
}

func TestClientBeforeHookVeto(t *testing.T) {
	store := storage.NewMemoryStore()
	seedTranscript(t, store, "s1", 20)

	registry := hooks.NewRegistry()
	veto := errors.New("budget exceeded")
	registry.OnBeforeCompaction(func(ctx context.Context, sessionID string, reason compaction.Reason) error {
		return veto
	})

	client, err := NewClient(&ClientConfig{
		Store: store,
		LLM:   &stubLLM{response: "never"},
		Hooks: registry,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	if _, err := client.Compact(context.Background(), "s1", compaction.ReasonManualCommand); !errors.Is(err, veto) {
		t.Errorf("expected veto to abort, got %v", err)
	}

	session, _ := client.Session(context.Background(), "s1")
	if len(session.Messages) != 20 {
		t.Error("vetoed compaction must not touch the transcript")
	}
}

func TestClientAfterHookObservesResult(t *testing.T) {
	store := storage.NewMemoryStore()
	seedTranscript(t, store, "s1", 20)

	registry := hooks.NewRegistry()
	var observed *compaction.Result
	registry.OnAfterCompaction(func(ctx context.Context, sessionID string, result *compaction.Result) error {
		observed = result
		return nil
	})

	client, err := NewClient(&ClientConfig{
		Store: store,
		LLM:   &stubLLM{response: "gist"},
		Hooks: registry,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	if _, err := client.Compact(context.Background(), "s1", compaction.ReasonAutoThreshold); err != nil {
		t.Fatalf("Compact: %v", err)
	}
	if observed == nil || observed.Removed != 10 {
		t.Errorf("after hook did not observe the result: %+v", observed)
	}
}

func TestClientSerializesPerSession(t *testing.T) {
	store := storage.NewMemoryStore()
	seedTranscript(t, store, "s1", 40)

	llm := &stubLLM{response: "gist", delay: 10 * time.Millisecond}
	client, err := NewClient(&ClientConfig{Store: store, LLM: llm})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = client.CompactKeepLast(context.Background(), "s1", compaction.ReasonAutoThreshold, 5)
		}()
	}
	wg.Wait()

	if max := llm.maxSeen.Load(); max > 1 {
		t.Errorf("compactions of one session overlapped: %d summarizations in flight", max)
	}
}
