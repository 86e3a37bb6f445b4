// ABOUTME: HTTP routes of the page host.
// ABOUTME: Exposes the content agent, persisted state and change stream.

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/harper/tagfilter/internal/content"
	"github.com/harper/tagfilter/internal/logging"
	"github.com/harper/tagfilter/internal/notify"
	"github.com/harper/tagfilter/internal/page"
	"github.com/harper/tagfilter/internal/storage"
)

// TargetHeader names the page a message is meant for. A mismatch means the
// page the sender knew about has since been replaced.
const TargetHeader = "X-Tagfilter-Target"

// maxDocumentBytes bounds PUT /api/document bodies.
const maxDocumentBytes = 16 << 20

// Deps are the collaborators of the page host. Bus may be nil, in which
// case the routes use a private one.
type Deps struct {
	Agent  *content.Agent
	Store  *storage.Adapter
	Hub    *notify.Hub
	Bus    *notify.Bus
	Target notify.Target
	Log    *log.Logger
}

type handler struct {
	agent  *content.Agent
	store  *storage.Adapter
	hub    *notify.Hub
	bus    *notify.Bus
	target notify.Target
	log    *log.Logger

	mu   sync.Mutex
	stop func()
}

func RegisterRoutes(d Deps) http.Handler {
	h := &handler{agent: d.Agent, store: d.Store, hub: d.Hub, bus: d.Bus, target: d.Target, log: d.Log}
	if h.log == nil {
		h.log = logging.For("server")
	}
	if h.bus == nil {
		h.bus = notify.NewBus()
	}
	h.listen()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.log))
	r.Use(middleware.Recoverer)

	r.Get("/", h.renderPage)
	r.Get("/api/target", h.getTarget)
	r.Post("/api/messages", h.postMessage)
	r.Put("/api/document", h.putDocument)
	r.Post("/api/navigate", h.navigate)
	r.Get("/api/state", h.getState)
	r.Get("/api/changes", h.handleChanges)
	return r
}

func requestLogger(l *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			l.Debug("request", "method", r.Method, "path", r.URL.Path, "status", ww.Status(),
				"bytes", ww.BytesWritten(), "id", middleware.GetReqID(r.Context()))
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *handler) renderPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.agent.Render(w); err != nil {
		h.log.Error("render page", "err", err)
	}
}

func (h *handler) getTarget(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.target)
}

func (h *handler) postMessage(w http.ResponseWriter, r *http.Request) {
	if id := r.Header.Get(TargetHeader); id != "" && id != h.target.ID {
		http.Error(w, "target gone", http.StatusGone)
		return
	}

	var msg notify.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil || msg.Action == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := notify.Deliver(r.Context(), h.bus, h.target, msg, h.inject)
	if err != nil {
		if errors.Is(err, notify.ErrTargetClosed) {
			http.Error(w, "target gone", http.StatusGone)
			return
		}
		h.log.Warn("deliver message", "action", msg.Action, "err", err)
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// listen installs the agent as the receiver of the page target.
func (h *handler) listen() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stop != nil {
		h.stop()
	}
	h.stop = h.bus.Listen(h.target.ID, h.agent.HandleMessage)
}

func (h *handler) unlisten() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stop != nil {
		h.stop()
		h.stop = nil
	}
}

func (h *handler) inject(ctx context.Context, target notify.Target) error {
	h.log.Info("attaching receiver to page", "target", target.ID)
	h.listen()
	return nil
}

func (h *handler) putDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := page.Parse(http.MaxBytesReader(w, r.Body, maxDocumentBytes))
	if err != nil {
		http.Error(w, "invalid document", http.StatusBadRequest)
		return
	}
	h.agent.Replace(r.Context(), doc)

	writeJSON(w, http.StatusOK, map[string]any{
		"items":  len(h.agent.Items()),
		"filter": h.agent.Keyword(),
	})
}

// navigate loads a new page into the target. Like a browser navigation it
// drops the receiver; the next message attaches it again.
func (h *handler) navigate(w http.ResponseWriter, r *http.Request) {
	doc, err := page.Parse(http.MaxBytesReader(w, r.Body, maxDocumentBytes))
	if err != nil {
		http.Error(w, "invalid document", http.StatusBadRequest)
		return
	}
	h.unlisten()
	h.agent.Navigate(r.Context(), doc)

	writeJSON(w, http.StatusOK, map[string]any{
		"items":  len(h.agent.Items()),
		"filter": h.agent.Keyword(),
	})
}

func (h *handler) getState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Load(r.Context()))
}
