package api

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/codecrack/catalog-server/internal/catalog"
	"github.com/codecrack/catalog-server/internal/progress"
)

func watchServer(t *testing.T) *Server {
	t.Helper()
	cat := &catalog.Catalog{
		Questions: map[string]catalog.Question{
			"Q1": {ID: "Q1", Title: "Two Sum", Difficulty: catalog.Easy, Topics: []string{"Array"}},
		},
		Associations: []catalog.Association{
			{QuestionID: "Q1", Partition: "acme"},
		},
	}
	snap := catalog.NewSnapshot(cat, &catalog.BuildReport{})
	tracker := progress.NewTracker(progress.NewMemoryStore(), snap)
	return NewServer(snap, tracker, nil)
}

func watcherCount(h *hub, user string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[user])
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

// A watcher that disconnects must release its subscription promptly, not
// linger until the user's next toggle.
func TestWatchProgress_ReleasesSubscriptionOnClientClose(t *testing.T) {
	s := watchServer(t)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/progress/watch?user=u@example.com"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dialing watch stream: %v", err)
	}
	defer conn.CloseNow()

	var view progress.View
	if err := wsjson.Read(ctx, conn, &view); err != nil {
		t.Fatalf("reading initial view: %v", err)
	}

	waitFor(t, func() bool { return watcherCount(s.hub, "u@example.com") == 1 },
		"watcher to register")

	if err := conn.Close(websocket.StatusNormalClosure, ""); err != nil {
		t.Fatalf("closing client: %v", err)
	}

	waitFor(t, func() bool { return watcherCount(s.hub, "u@example.com") == 0 },
		"subscription release after client close")
}
