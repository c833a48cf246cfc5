package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	defaultPartitionTimeout = 10 * time.Second
	defaultConcurrency      = 8
)

// BuildOptions tunes the aggregation fan-out.
type BuildOptions struct {
	// PartitionTimeout bounds the read-and-parse of a single partition.
	// A timed-out partition counts as failed and contributes nothing.
	PartitionTimeout time.Duration
	// Concurrency bounds the number of partitions read in parallel.
	Concurrency int
}

// PartitionReport summarizes one partition's contribution to a build.
type PartitionReport struct {
	Rows         int `json:"rows"`
	Dropped      int `json:"dropped"`
	Associations int `json:"associations"`
}

// BuildReport records warnings from a catalog build. A build with failed
// partitions or conflicts still produces a usable catalog.
type BuildReport struct {
	Partitions map[string]PartitionReport `json:"partitions"`
	Failed     map[string]string          `json:"failed,omitempty"`
	Conflicts  int                        `json:"conflicts"`
	BuiltAt    time.Time                  `json:"built_at"`
}

// Build reads every partition source in parallel and merges the results into
// a deduplicated catalog. Individual partition failures degrade that
// partition's contribution to zero and are reported, never fatal. The merge
// runs only after every read has settled, so a returned catalog is always
// complete and immutable.
func Build(ctx context.Context, sources []Source, opts BuildOptions) (*Catalog, *BuildReport) {
	if opts.PartitionTimeout <= 0 {
		opts.PartitionTimeout = defaultPartitionTimeout
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}

	type readResult struct {
		rows []rawRow
		err  error
	}
	results := make([]readResult, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i, src := range sources {
		g.Go(func() error {
			rctx, cancel := context.WithTimeout(gctx, opts.PartitionTimeout)
			defer cancel()
			results[i].rows, results[i].err = readWithContext(rctx, src.File)
			return nil // failures are isolated, never abort the group
		})
	}
	g.Wait()

	report := &BuildReport{
		Partitions: make(map[string]PartitionReport, len(sources)),
		Failed:     make(map[string]string),
		BuiltAt:    time.Now().UTC(),
	}
	cat := &Catalog{
		Questions: make(map[string]Question),
	}

	// Merge in source order so association order is deterministic.
	for i, src := range sources {
		if results[i].err != nil {
			slog.Warn("partition source unavailable",
				"partition", src.Name, "error", results[i].err)
			report.Failed[src.Name] = results[i].err.Error()
			continue
		}
		pr := mergePartition(cat, src.Name, results[i].rows, report)
		report.Partitions[src.Name] = pr
		cat.Partitions = append(cat.Partitions, Partition{
			Name:         src.Name,
			DisplayName:  src.DisplayName,
			Associations: pr.Associations,
		})
	}

	slog.Info("catalog built",
		"partitions", len(report.Partitions),
		"failed", len(report.Failed),
		"questions", len(cat.Questions),
		"associations", len(cat.Associations),
		"conflicts", report.Conflicts)
	return cat, report
}

// readWithContext runs the file parse in its own goroutine so a stalled read
// cannot outlive the partition timeout.
func readWithContext(ctx context.Context, path string) ([]rawRow, error) {
	type parsed struct {
		rows []rawRow
		err  error
	}
	done := make(chan parsed, 1)
	go func() {
		rows, err := readPartitionFile(path)
		done <- parsed{rows, err}
	}()

	select {
	case p := <-done:
		return p.rows, p.err
	case <-ctx.Done():
		return nil, fmt.Errorf("partition read: %w", ctx.Err())
	}
}

// mergePartition appends one association per usable row and inserts question
// metadata keyed by id. First-seen metadata wins on conflict.
func mergePartition(cat *Catalog, partition string, rows []rawRow, report *BuildReport) PartitionReport {
	pr := PartitionReport{Rows: len(rows)}
	for _, row := range rows {
		if row.ID == "" {
			pr.Dropped++
			continue
		}
		diff, ok := ParseDifficulty(row.Difficulty)
		if !ok {
			slog.Warn("dropping row with unparsable difficulty",
				"partition", partition, "id", row.ID, "difficulty", row.Difficulty)
			pr.Dropped++
			continue
		}

		cat.Associations = append(cat.Associations, Association{
			QuestionID: row.ID,
			Partition:  partition,
		})
		pr.Associations++

		existing, seen := cat.Questions[row.ID]
		if !seen {
			cat.Questions[row.ID] = Question{
				ID:             row.ID,
				Title:          row.Title,
				URL:            row.URL,
				Difficulty:     diff,
				Topics:         splitTopics(row.Topics),
				AcceptanceRate: row.Acceptance,
				Frequency:      row.Frequency,
			}
			continue
		}
		if existing.Difficulty != diff {
			slog.Warn("conflicting difficulty for question, keeping first seen",
				"id", row.ID, "partition", partition,
				"kept", existing.Difficulty, "ignored", diff)
			report.Conflicts++
		}
	}
	return pr
}

// splitTopics parses a comma-joined topic list into a sorted, deduplicated set.
func splitTopics(s string) []string {
	if s == "" {
		return nil
	}
	seen := make(map[string]struct{})
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			seen[t] = struct{}{}
		}
	}
	topics := make([]string, 0, len(seen))
	for t := range seen {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics
}
