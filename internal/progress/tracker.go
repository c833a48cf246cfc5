package progress

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/codecrack/catalog-server/internal/catalog"
)

// Tracker joins the ledger store with the current catalog snapshot. It
// validates toggles against the catalog and derives per-difficulty
// aggregates at read time.
type Tracker struct {
	store Store
	snap  *catalog.Snapshot
}

// NewTracker creates a tracker over the given store and catalog snapshot.
func NewTracker(store Store, snap *catalog.Snapshot) *Tracker {
	return &Tracker{store: store, snap: snap}
}

// View is a ledger joined against the catalog: the raw solved set plus
// derived aggregates over the whole catalog.
type View struct {
	UserKey     string        `json:"user_key"`
	Solved      []string      `json:"solved"`
	LastUpdated string        `json:"last_updated,omitempty"`
	Stats       catalog.Stats `json:"stats"`
}

// Progress returns the user's ledger with derived aggregates. Unknown users
// get an empty ledger, not an error.
func (t *Tracker) Progress(ctx context.Context, userKey string) (*View, error) {
	ledger, err := t.store.Get(ctx, userKey)
	if err != nil {
		return nil, fmt.Errorf("reading ledger: %w", err)
	}
	return t.view(ledger), nil
}

// Toggle marks or unmarks one question solved for the user. The question id
// must exist in the current catalog; the claimed difficulty, when supplied,
// is checked against the catalog's authoritative value and never trusted.
func (t *Tracker) Toggle(ctx context.Context, userKey, questionID string, claimed catalog.Difficulty, solved bool) (*View, error) {
	cat := t.snap.Load()
	q, ok := cat.Question(questionID)
	if !ok {
		return nil, fmt.Errorf("question %q: %w", questionID, ErrUnknownQuestion)
	}
	if claimed != "" && claimed != q.Difficulty {
		slog.Warn("caller-supplied difficulty disagrees with catalog, using catalog value",
			"question_id", questionID, "claimed", claimed, "catalog", q.Difficulty)
	}

	ledger, err := t.store.Toggle(ctx, userKey, questionID, solved)
	if err != nil {
		return nil, fmt.Errorf("writing ledger: %w", err)
	}
	return t.view(ledger), nil
}

// view derives aggregates from the solved set joined against the catalog.
// Solved ids that fell out of the catalog stay in the ledger but do not count.
func (t *Tracker) view(ledger *Ledger) *View {
	cat := t.snap.Load()
	stats := catalog.ComputeStats(cat.Associations, cat, ledger.SolvedSet())

	v := &View{
		UserKey: ledger.UserKey,
		Solved:  ledger.Solved,
		Stats:   stats,
	}
	if v.Solved == nil {
		v.Solved = []string{}
	}
	if !ledger.LastUpdated.IsZero() {
		v.LastUpdated = ledger.LastUpdated.Format(time.RFC3339)
	}
	return v
}
