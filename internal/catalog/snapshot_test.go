package catalog_test

import (
	"context"
	"testing"
	"time"

	"github.com/codecrack/catalog-server/internal/catalog"
)

func TestSnapshot_SwapIsVisible(t *testing.T) {
	first, firstReport := twoPartitionFixture(t)
	snap := catalog.NewSnapshot(first, firstReport)

	if snap.Load() != first {
		t.Fatal("Load() should return the initial catalog")
	}
	if snap.Report() != firstReport {
		t.Fatal("Report() should return the initial report")
	}

	second := &catalog.Catalog{Questions: map[string]catalog.Question{}}
	secondReport := &catalog.BuildReport{}
	snap.Swap(second, secondReport)

	if snap.Load() != second {
		t.Error("Load() should return the swapped catalog")
	}
	if snap.Report() != secondReport {
		t.Error("Report() should return the swapped report")
	}
}

// A refresh where failed partitions outnumber the successes must not
// replace the running snapshot with the shrunken catalog.
func TestRefresh_KeepsSnapshotOnDegradedRebuild(t *testing.T) {
	first, report := twoPartitionFixture(t)
	snap := catalog.NewSnapshot(first, report)

	degraded := &catalog.Catalog{
		Questions: map[string]catalog.Question{"Q1": {ID: "Q1", Difficulty: catalog.Easy}},
	}
	degradedReport := &catalog.BuildReport{
		Partitions: map[string]catalog.PartitionReport{"acme": {}},
		Failed:     map[string]string{"globex": "unreachable", "initech": "unreachable"},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rebuilds := make(chan struct{})
	go snap.Refresh(ctx, time.Millisecond, func(context.Context) (*catalog.Catalog, *catalog.BuildReport) {
		select {
		case rebuilds <- struct{}{}:
		default:
		}
		return degraded, degradedReport
	})

	// Three observed rebuilds guarantee at least two completed swap
	// decisions before we look.
	for range 3 {
		<-rebuilds
	}
	cancel()

	if snap.Load() != first {
		t.Error("degraded rebuild replaced the snapshot")
	}
}

func TestSnapshot_OldValueStaysUsable(t *testing.T) {
	first, report := twoPartitionFixture(t)
	snap := catalog.NewSnapshot(first, report)

	// A reader holding the old catalog keeps a complete view after a swap.
	held := snap.Load()
	snap.Swap(&catalog.Catalog{Questions: map[string]catalog.Question{}}, &catalog.BuildReport{})

	if len(held.Questions) != 3 {
		t.Errorf("held catalog questions = %d, want 3", len(held.Questions))
	}
	if got := held.Filter(catalog.Query{Difficulty: catalog.Easy}); len(got) != 2 {
		t.Errorf("held catalog filter = %d results, want 2", len(got))
	}
}
