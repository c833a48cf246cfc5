// Package progress persists per-user solved-question state. The ledger
// stores only the raw solved id set; per-difficulty aggregates are always
// derived from the catalog at read time so counters can never drift from
// the true membership of the set.
package progress

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrUnknownQuestion is returned when a toggle references a question id
// absent from the current catalog.
var ErrUnknownQuestion = errors.New("unknown question")

// ErrWriteConflict is returned when concurrent writers to the same user's
// ledger exhaust the bounded retries. Callers may retry.
var ErrWriteConflict = errors.New("ledger write conflict")

// Ledger is one user's solved-question record. Solved is sorted and free of
// duplicates; identity is the question id only, never (id, partition).
type Ledger struct {
	UserKey     string    `json:"user_key"`
	Solved      []string  `json:"solved"`
	LastUpdated time.Time `json:"last_updated"`
}

// SolvedSet returns the solved ids as a set.
func (l *Ledger) SolvedSet() map[string]bool {
	set := make(map[string]bool, len(l.Solved))
	for _, id := range l.Solved {
		set[id] = true
	}
	return set
}

// Store persists ledgers keyed by an opaque user key.
type Store interface {
	// Get returns the user's ledger, or an empty one if none exists.
	// Reads are side-effect-free; lazy creation happens on first Toggle.
	Get(ctx context.Context, userKey string) (*Ledger, error)

	// Toggle sets or clears one question's solved state. It is idempotent:
	// adding an id already present or removing one already absent changes
	// nothing but LastUpdated. Toggles for the same user are serialized.
	Toggle(ctx context.Context, userKey, questionID string, solved bool) (*Ledger, error)
}

// MemoryStore is an in-memory Store. Toggles are serialized per user key;
// distinct users proceed independently.
type MemoryStore struct {
	mu    sync.Mutex
	users map[string]*userLedger
}

type userLedger struct {
	mu          sync.Mutex
	solved      map[string]struct{}
	lastUpdated time.Time
}

// NewMemoryStore creates an empty in-memory ledger store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]*userLedger)}
}

func (s *MemoryStore) Get(ctx context.Context, userKey string) (*Ledger, error) {
	s.mu.Lock()
	u, ok := s.users[userKey]
	s.mu.Unlock()
	if !ok {
		return &Ledger{UserKey: userKey, Solved: []string{}}, nil
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	return u.snapshot(userKey), nil
}

func (s *MemoryStore) Toggle(ctx context.Context, userKey, questionID string, solved bool) (*Ledger, error) {
	s.mu.Lock()
	u, ok := s.users[userKey]
	if !ok {
		u = &userLedger{solved: make(map[string]struct{})}
		s.users[userKey] = u
	}
	s.mu.Unlock()

	u.mu.Lock()
	defer u.mu.Unlock()
	if solved {
		u.solved[questionID] = struct{}{}
	} else {
		delete(u.solved, questionID)
	}
	u.lastUpdated = time.Now().UTC()
	return u.snapshot(userKey), nil
}

// snapshot copies the ledger under the user lock.
func (u *userLedger) snapshot(userKey string) *Ledger {
	ids := make([]string, 0, len(u.solved))
	for id := range u.solved {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return &Ledger{UserKey: userKey, Solved: ids, LastUpdated: u.lastUpdated}
}
