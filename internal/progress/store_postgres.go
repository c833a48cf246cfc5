package progress

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	dbTimeout  = 5 * time.Second
	maxRetries = 3
)

// PostgresStore is a PostgreSQL-backed Store. One row per user key holds the
// raw solved id array; concurrent toggles for the same user are resolved
// with a conditional update on the row's timestamp, retried a bounded number
// of times before surfacing ErrWriteConflict.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed ledger store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

// EnsureSchema creates the ledger table if it does not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS user_progress (
			user_key   text PRIMARY KEY,
			solved_ids text[] NOT NULL DEFAULT '{}',
			updated_at timestamptz NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("creating user_progress table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, userKey string) (*Ledger, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	ledger, _, err := s.read(ctx, userKey)
	if err != nil {
		return nil, err
	}
	return ledger, nil
}

func (s *PostgresStore) Toggle(ctx context.Context, userKey, questionID string, solved bool) (*Ledger, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	for attempt := 0; attempt < maxRetries; attempt++ {
		ledger, exists, err := s.read(ctx, userKey)
		if err != nil {
			return nil, err
		}

		set := make(map[string]struct{}, len(ledger.Solved))
		for _, id := range ledger.Solved {
			set[id] = struct{}{}
		}
		if solved {
			set[questionID] = struct{}{}
		} else {
			delete(set, questionID)
		}
		ids := make([]string, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		now := time.Now().UTC()
		applied, err := s.write(ctx, userKey, ids, now, ledger.LastUpdated, exists)
		if err != nil {
			return nil, err
		}
		if applied {
			return &Ledger{UserKey: userKey, Solved: ids, LastUpdated: now}, nil
		}
		// Lost the race with another writer; re-read and try again.
	}
	return nil, fmt.Errorf("toggle for %q: %w", userKey, ErrWriteConflict)
}

// read returns the stored ledger and whether a row exists. Missing rows
// yield an empty ledger, not an error.
func (s *PostgresStore) read(ctx context.Context, userKey string) (*Ledger, bool, error) {
	var ids []string
	var updatedAt time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT solved_ids, updated_at FROM user_progress WHERE user_key = $1`,
		userKey,
	).Scan(&ids, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return &Ledger{UserKey: userKey, Solved: []string{}}, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read ledger: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return &Ledger{UserKey: userKey, Solved: ids, LastUpdated: updatedAt}, true, nil
}

// write performs the conditional insert/update. It reports false when the
// row changed underneath us and the caller should re-read.
func (s *PostgresStore) write(ctx context.Context, userKey string, ids []string, now, expected time.Time, exists bool) (bool, error) {
	if !exists {
		cmd, err := s.pool.Exec(ctx,
			`INSERT INTO user_progress (user_key, solved_ids, updated_at)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (user_key) DO NOTHING`,
			userKey, ids, now,
		)
		if err != nil {
			return false, fmt.Errorf("insert ledger: %w", err)
		}
		return cmd.RowsAffected() == 1, nil
	}

	cmd, err := s.pool.Exec(ctx,
		`UPDATE user_progress
		 SET solved_ids = $2, updated_at = $3
		 WHERE user_key = $1 AND updated_at = $4`,
		userKey, ids, now, expected,
	)
	if err != nil {
		return false, fmt.Errorf("update ledger: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}
