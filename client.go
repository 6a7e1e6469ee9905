package compactpg

import (
	"context"
	"fmt"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/alexk-dev/compactpg/compaction"
	"github.com/alexk-dev/compactpg/hooks"
	"github.com/alexk-dev/compactpg/storage"
	"github.com/alexk-dev/compactpg/types"
)

// Version is the current CompactPG version
const Version = "1.0.0"

// ClientConfig holds configuration for the Client.
type ClientConfig struct {
	// APIKey is the Anthropic API key (required unless Client or LLM is provided)
	APIKey string

	// Client is an existing Anthropic client (optional, takes precedence over APIKey)
	Client *anthropic.Client

	// LLM overrides the summarization backend entirely (optional, takes
	// precedence over Client and APIKey). With no backend configured at all,
	// every compaction takes the no-summary fallback path.
	LLM compaction.LLM

	// Store is the session store (required)
	Store storage.Store

	// Compaction holds the engine configuration. Nil means defaults.
	Compaction *compaction.Config

	// Hooks is an optional registry of compaction hooks.
	Hooks *hooks.Registry

	// Logger for structured logging (optional)
	Logger compaction.Logger
}

// Client wires the compaction engine to a store and a summarization backend,
// and serializes compaction runs per session. The engine performs an
// unguarded read-modify-write over the transcript, so two concurrent
// compactions of one session would race; Client holds a per-session lock
// across each run to prevent that.
type Client struct {
	store        storage.Store
	orchestrator *compaction.Orchestrator
	config       *compaction.Config
	hooks        *hooks.Registry
	logger       compaction.Logger

	mu           sync.Mutex
	sessionLocks map[string]*sync.Mutex
}

// NewClient creates a new CompactPG client.
//
// Example:
//
//	client, err := compactpg.NewClient(&compactpg.ClientConfig{
//	    APIKey: os.Getenv("ANTHROPIC_API_KEY"),
//	    Store:  storage.NewPostgresStore(pool),
//	})
func NewClient(config *ClientConfig) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: config is required", ErrInvalidConfig)
	}
	if config.Store == nil {
		return nil, ErrStoreRequired
	}

	llm := config.LLM
	if llm == nil {
		switch {
		case config.Client != nil:
			llm = compaction.NewAnthropicLLM(config.Client)
		case config.APIKey != "":
			anthropicClient := anthropic.NewClient(option.WithAPIKey(config.APIKey))
			llm = compaction.NewAnthropicLLM(&anthropicClient)
		}
	}

	orchestrator, err := compaction.NewOrchestrator(config.Store, llm, config.Compaction, config.Logger)
	if err != nil {
		return nil, err
	}

	compactionConfig := config.Compaction
	if compactionConfig == nil {
		compactionConfig = compaction.DefaultConfig()
	}

	return &Client{
		store:        config.Store,
		orchestrator: orchestrator,
		config:       compactionConfig,
		hooks:        config.Hooks,
		logger:       config.Logger,
		sessionLocks: make(map[string]*sync.Mutex),
	}, nil
}

// Compact compacts the session's transcript down to the configured
// KeepLastMessages. See CompactKeepLast for the semantics.
func (c *Client) Compact(ctx context.Context, sessionID string, reason compaction.Reason) (*compaction.Result, error) {
	return c.CompactKeepLast(ctx, sessionID, reason, c.config.KeepLastMessages)
}

// CompactKeepLast compacts the session's transcript, keeping its last
// keepLast messages. Runs for the same session are serialized; runs for
// distinct sessions proceed concurrently.
//
// An unknown session yields Result{Removed: -1} with a nil error. A before-
// compaction hook returning an error aborts the run; after-compaction hook
// errors are logged and discarded.
func (c *Client) CompactKeepLast(ctx context.Context, sessionID string, reason compaction.Reason, keepLast int) (*compaction.Result, error) {
	lock := c.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	if c.hooks != nil {
		if err := c.hooks.TriggerBeforeCompaction(ctx, sessionID, reason); err != nil {
			return nil, fmt.Errorf("before-compaction hook: %w", err)
		}
	}

	result, err := c.orchestrator.Compact(ctx, sessionID, reason, keepLast)
	if err != nil {
		return nil, err
	}

	if c.hooks != nil {
		if hookErr := c.hooks.TriggerAfterCompaction(ctx, sessionID, result); hookErr != nil && c.logger != nil {
			c.logger.Warn("after-compaction hook failed", "session_id", sessionID, "error", hookErr)
		}
	}

	return result, nil
}

// Session retrieves a session by ID. Returns ErrSessionNotFound when the
// session does not exist.
func (c *Client) Session(ctx context.Context, sessionID string) (*types.Session, error) {
	session, err := c.store.GetSession(ctx, sessionID)
	if err != nil {
		if err == storage.ErrSessionNotFound {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

// SaveSession persists a session through the configured store.
func (c *Client) SaveSession(ctx context.Context, session *types.Session) error {
	return c.store.SaveSession(ctx, session)
}

// CompactionHistory returns the session's compaction audit events, most
// recent first.
func (c *Client) CompactionHistory(ctx context.Context, sessionID string) ([]*storage.CompactionEvent, error) {
	return c.store.GetCompactionHistory(ctx, sessionID)
}

// sessionLock returns the mutex guarding compactions of the given session.
// Locks are never reclaimed; the map grows with the set of compacted session
// IDs, which is bounded by the application's session population.
func (c *Client) sessionLock(sessionID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()

	lock, ok := c.sessionLocks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		c.sessionLocks[sessionID] = lock
	}
	return lock
}
