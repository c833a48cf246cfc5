package catalog_test

import (
	"testing"

	"github.com/codecrack/catalog-server/internal/catalog"
)

func TestFilter_TextTokensAreConjunctive(t *testing.T) {
	cat, _ := twoPartitionFixture(t)

	// "two sum" matches Q1's title only; both listings of Q1 come back.
	got := cat.Filter(catalog.Query{Text: "two sum"})
	if len(got) != 2 {
		t.Fatalf("filtered = %d, want 2 listings of Q1", len(got))
	}
	for _, a := range got {
		if a.QuestionID != "Q1" {
			t.Errorf("unexpected match %v", a)
		}
	}

	// Tokens may match different fields: "two acme" needs title + partition.
	got = cat.Filter(catalog.Query{Text: "two acme"})
	if len(got) != 1 || got[0].Partition != "acme" {
		t.Errorf("filtered = %v, want only the acme listing of Q1", got)
	}

	if got := cat.Filter(catalog.Query{Text: "two nonsense"}); len(got) != 0 {
		t.Errorf("filtered = %v, want none when one token misses", got)
	}
}

func TestFilter_TextIsCaseInsensitive(t *testing.T) {
	cat, _ := twoPartitionFixture(t)

	if got := cat.Filter(catalog.Query{Text: "TWO SUM"}); len(got) != 2 {
		t.Errorf("filtered = %d, want 2 for uppercase query", len(got))
	}
	if got := cat.Filter(catalog.Query{Text: "greedy"}); len(got) != 1 {
		t.Errorf("filtered = %d, want 1 matching the Greedy topic", len(got))
	}
}

func TestFilter_Difficulty(t *testing.T) {
	cat, _ := twoPartitionFixture(t)

	got := cat.Filter(catalog.Query{Difficulty: catalog.Easy})
	if len(got) != 2 {
		t.Errorf("Easy filtered = %d, want 2 (Q1 in both partitions)", len(got))
	}

	got = cat.Filter(catalog.Query{Difficulty: catalog.Hard})
	if len(got) != 1 || got[0].QuestionID != "Q2" {
		t.Errorf("Hard filtered = %v, want just Q2", got)
	}
}

func TestFilter_TopicsAreSupersetMatch(t *testing.T) {
	cat, _ := twoPartitionFixture(t)

	// Array matches Q1 (both partitions) and Q3.
	got := cat.Filter(catalog.Query{Topics: []string{"Array"}})
	if len(got) != 3 {
		t.Errorf("Array filtered = %d, want 3 associations", len(got))
	}

	// Array+Greedy requires both topics, so only Q3.
	got = cat.Filter(catalog.Query{Topics: []string{"Array", "Greedy"}})
	if len(got) != 1 || got[0].QuestionID != "Q3" {
		t.Errorf("Array+Greedy filtered = %v, want just Q3", got)
	}
}

func TestFilter_PreservesCatalogOrder(t *testing.T) {
	cat, _ := twoPartitionFixture(t)

	got := cat.Filter(catalog.Query{Topics: []string{"Array"}})
	want := []catalog.Association{
		{QuestionID: "Q1", Partition: "acme"},
		{QuestionID: "Q1", Partition: "globex"},
		{QuestionID: "Q3", Partition: "globex"},
	}
	for i, a := range got {
		if a != want[i] {
			t.Errorf("filtered[%d] = %v, want %v", i, a, want[i])
		}
	}
}

func TestPickRandomUnique_Empty(t *testing.T) {
	cat, _ := twoPartitionFixture(t)

	if _, ok := cat.PickRandomUnique(nil); ok {
		t.Error("PickRandomUnique(nil) should report no pick")
	}
}

// TestPickRandomUnique_Uniform draws many times from a set where one
// question has five listings and another has one; picks must be per
// question, not per listing.
func TestPickRandomUnique_Uniform(t *testing.T) {
	cat := &catalog.Catalog{
		Questions: map[string]catalog.Question{
			"popular": {ID: "popular", Title: "Popular", Difficulty: catalog.Easy},
			"niche":   {ID: "niche", Title: "Niche", Difficulty: catalog.Easy},
		},
	}
	var assocs []catalog.Association
	for _, p := range []string{"a", "b", "c", "d", "e"} {
		assocs = append(assocs, catalog.Association{QuestionID: "popular", Partition: p})
	}
	assocs = append(assocs, catalog.Association{QuestionID: "niche", Partition: "a"})

	const trials = 10000
	counts := map[string]int{}
	for range trials {
		q, ok := cat.PickRandomUnique(assocs)
		if !ok {
			t.Fatal("PickRandomUnique() found nothing")
		}
		counts[q.ID]++
	}

	// With a fair coin over 10k trials, each side lands in [4500, 5500]
	// except with negligible probability.
	for _, id := range []string{"popular", "niche"} {
		if counts[id] < 4500 || counts[id] > 5500 {
			t.Errorf("picks[%s] = %d, want close to %d (listing count must not bias)",
				id, counts[id], trials/2)
		}
	}
}
