package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
)

type streamEvent struct {
	Name string
	Data string
}

// StreamManager handles active SSE connections
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- streamEvent]struct{} // SessionID -> Set of Channels
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- streamEvent]struct{}),
		logger:      logger,
	}
}

func (sm *StreamManager) Subscribe(sessionID string) (<-chan streamEvent, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan streamEvent, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- streamEvent]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[sessionID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		}
	}
}

// Subscribers reports how many streams are open for sessionID.
func (sm *StreamManager) Subscribers(sessionID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[sessionID])
}

func (sm *StreamManager) Broadcast(sessionID string, evt streamEvent) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- evt:
		default:
			// Drop message if channel is full (slow client)
			sm.logger.Warn("SSE: Client buffer full, dropping message", "session_id", sessionID)
		}
	}
}

func sseHeaders(w http.ResponseWriter) (http.Flusher, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return nil, false
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	return flusher, true
}

func writeEvent(w http.ResponseWriter, evt streamEvent) {
	if evt.Name != "" {
		fmt.Fprintf(w, "event: %s\n", evt.Name)
	}
	fmt.Fprintf(w, "data: %s\n\n", evt.Data)
}

// SubscribeSession handles GET /sessions/{id}/events.
//
// The optional watch query parameter (comma separated: answers, history,
// status, question) filters diffs; completed events are always sent.
func (s *Server) SubscribeSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if _, err := s.Manager.Load(r.Context(), sessionID); err != nil {
		s.writeError(w, err)
		return
	}

	flusher, ok := sseHeaders(w)
	if !ok {
		return
	}

	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()

	var watch []string
	if raw := r.URL.Query().Get("watch"); raw != "" {
		watch = strings.Split(raw, ",")
	}

	writeEvent(w, streamEvent{Name: "ping", Data: "connected"})
	flusher.Flush()
	s.logger.Debug("SSE: session subscriber connected", "session_id", sessionID)

	for {
		select {
		case <-r.Context().Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			if evt.Name == "" && !matchesWatch(evt.Data, watch) {
				continue
			}
			writeEvent(w, evt)
			flusher.Flush()
		}
	}
}

// matchesWatch checks whether a serialized diff touches a watched field.
func matchesWatch(data string, watch []string) bool {
	if len(watch) == 0 {
		return true
	}
	for _, field := range watch {
		key := map[string]string{
			"answers":  `"answers"`,
			"history":  `"history"`,
			"status":   `"status"`,
			"question": `"question_id"`,
		}[strings.TrimSpace(field)]
		if key != "" && strings.Contains(data, key) {
			return true
		}
	}
	return false
}

// SubscribeReload handles GET /events: a reload event per catalog change.
func (s *Server) SubscribeReload(w http.ResponseWriter, r *http.Request) {
	watcher, ok := s.engineWatcher()
	if !ok {
		http.Error(w, "catalog reload not supported", http.StatusNotImplemented)
		return
	}
	events, err := watcher.Watch(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("Watch error: %v", err), http.StatusNotImplemented)
		return
	}

	flusher, ok := sseHeaders(w)
	if !ok {
		return
	}
	writeEvent(w, streamEvent{Name: "ping", Data: "connected"})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case _, ok := <-events:
			if !ok {
				return
			}
			writeEvent(w, streamEvent{Name: "reload", Data: "catalog"})
			flusher.Flush()
		}
	}
}
