// Package ui serves a small read-only dashboard over the session store:
// session list, session transcripts and per-session compaction history.
package ui

import (
	"net/http"

	"github.com/alexk-dev/compactpg/storage"
	"github.com/alexk-dev/compactpg/types"
)

// Config holds dashboard configuration.
type Config struct {
	// BasePath is the URL prefix where the UI is mounted. All navigation
	// links are prefixed with this path.
	BasePath string

	// Logger for structured logging.
	Logger Logger
}

// Logger interface for structured logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// handler holds the dashboard state.
type handler struct {
	store    storage.Store
	config   *Config
	renderer *renderer
}

// NewHandler creates the dashboard handler.
func NewHandler(store storage.Store, cfg *Config) http.Handler {
	if cfg == nil {
		cfg = &Config{}
	}

	h := &handler{
		store:    store,
		config:   cfg,
		renderer: newRenderer(cfg),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /", h.handleRedirectToSessions)
	mux.HandleFunc("GET /sessions", h.handleSessions)
	mux.HandleFunc("GET /sessions/{id}", h.handleSessionDetail)
	mux.HandleFunc("GET /sessions/{id}/compactions", h.handleCompactionHistory)

	return recoveryMiddleware(mux, cfg.Logger)
}

// recoveryMiddleware recovers from panics.
func recoveryMiddleware(next http.Handler, logger Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if logger != nil {
					logger.Error("panic recovered", "error", err, "path", r.URL.Path)
				}
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (h *handler) handleRedirectToSessions(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, h.config.BasePath+"/sessions", http.StatusFound)
}

func (h *handler) handleSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.store.ListSessions(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	data := struct {
		Sessions []*types.Session
	}{Sessions: sessions}

	if err := h.renderer.render(w, r, "sessions", data); err != nil {
		h.serverError(w, r, err)
	}
}

func (h *handler) handleSessionDetail(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")

	session, err := h.store.GetSession(r.Context(), sessionID)
	if err != nil {
		if err == storage.ErrSessionNotFound {
			http.NotFound(w, r)
			return
		}
		h.serverError(w, r, err)
		return
	}

	data := struct {
		Session *types.Session
	}{Session: session}

	if err := h.renderer.render(w, r, "session_detail", data); err != nil {
		h.serverError(w, r, err)
	}
}

func (h *handler) handleCompactionHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")

	events, err := h.store.GetCompactionHistory(r.Context(), sessionID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	data := struct {
		SessionID string
		Events    []*storage.CompactionEvent
	}{SessionID: sessionID, Events: events}

	if err := h.renderer.render(w, r, "compaction_history", data); err != nil {
		h.serverError(w, r, err)
	}
}

func (h *handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	if h.config.Logger != nil {
		h.config.Logger.Error("request failed", "error", err, "path", r.URL.Path)
	}
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
