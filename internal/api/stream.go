package api

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/codecrack/catalog-server/internal/progress"
)

// hub fans progress updates out to websocket watchers, keyed by user.
type hub struct {
	mu   sync.Mutex
	subs map[string]map[chan *progress.View]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[string]map[chan *progress.View]struct{})}
}

func (h *hub) subscribe(user string) chan *progress.View {
	ch := make(chan *progress.View, 8)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[user] == nil {
		h.subs[user] = make(map[chan *progress.View]struct{})
	}
	h.subs[user][ch] = struct{}{}
	return ch
}

func (h *hub) unsubscribe(user string, ch chan *progress.View) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs[user], ch)
	if len(h.subs[user]) == 0 {
		delete(h.subs, user)
	}
}

// publish delivers a view to every watcher of the user. Slow watchers are
// skipped rather than blocking the write path; they resync on the next event.
func (h *hub) publish(user string, view *progress.View) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[user] {
		select {
		case ch <- view:
		default:
		}
	}
}

// handleWatchProgress streams the user's progress views over a websocket:
// the current view on connect, then one message per toggle.
func (s *Server) handleWatchProgress(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	if user == "" {
		respondError(w, http.StatusBadRequest, "missing_user", "user query parameter is required")
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	// The stream is write-only. CloseRead discards inbound frames and
	// cancels the context when the client disconnects, so the subscription
	// is released as soon as the watcher goes away.
	ctx := conn.CloseRead(r.Context())

	view, err := s.tracker.Progress(ctx, user)
	if err != nil {
		conn.Close(websocket.StatusInternalError, "progress unavailable")
		return
	}
	if err := wsjson.Write(ctx, conn, view); err != nil {
		return
	}

	ch := s.hub.subscribe(user)
	defer s.hub.unsubscribe(user, ch)

	slog.Info("progress watcher connected", "user", user)

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case v := <-ch:
			if err := wsjson.Write(ctx, conn, v); err != nil {
				return
			}
		}
	}
}
