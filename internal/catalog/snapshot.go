package catalog

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Snapshot holds the current catalog and its build report. Readers load an
// immutable value; rebuilds swap in a new catalog atomically, so in-flight
// reads against the old value complete without blocking.
type Snapshot struct {
	catalog atomic.Pointer[Catalog]
	report  atomic.Pointer[BuildReport]
}

// NewSnapshot creates a snapshot holding the given build.
func NewSnapshot(c *Catalog, r *BuildReport) *Snapshot {
	s := &Snapshot{}
	s.Swap(c, r)
	return s
}

// Load returns the current catalog.
func (s *Snapshot) Load() *Catalog {
	return s.catalog.Load()
}

// Report returns the build report for the current catalog.
func (s *Snapshot) Report() *BuildReport {
	return s.report.Load()
}

// Swap publishes a new catalog and report.
func (s *Snapshot) Swap(c *Catalog, r *BuildReport) {
	s.catalog.Store(c)
	s.report.Store(r)
}

// Refresh rebuilds the catalog on the given interval until ctx is done.
// A degraded rebuild keeps the previous snapshot.
func (s *Snapshot) Refresh(ctx context.Context, interval time.Duration, rebuild func(context.Context) (*Catalog, *BuildReport)) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c, r := rebuild(ctx)
			if keepPrevious(s.Load(), c, r) {
				slog.Warn("catalog refresh degraded, keeping previous snapshot",
					"questions", len(c.Questions),
					"partitions", len(r.Partitions),
					"failed_partitions", len(r.Failed))
				continue
			}
			if len(r.Failed) > 0 {
				slog.Warn("catalog refreshed with failed partitions",
					"failed_partitions", len(r.Failed))
			}
			s.Swap(c, r)
			slog.Info("catalog refreshed", "questions", len(c.Questions))
		}
	}
}

// keepPrevious reports whether a rebuild is too degraded to publish over a
// usable snapshot: an empty catalog, or one where failed partitions
// outnumber the successful ones.
func keepPrevious(prev, next *Catalog, r *BuildReport) bool {
	if prev == nil || len(prev.Questions) == 0 {
		return false
	}
	if len(next.Questions) == 0 {
		return true
	}
	return len(r.Failed) > len(r.Partitions)
}
