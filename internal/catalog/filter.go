package catalog

import (
	"math/rand/v2"
	"strings"

	"golang.org/x/text/cases"
)

// Query selects a subset of catalog associations. Zero values mean "no
// filter" for each predicate.
type Query struct {
	// Text is a free-text search. It is split on whitespace; every token
	// must match the question title, partition name, or a topic.
	Text string
	// Difficulty restricts to a single difficulty when non-empty.
	Difficulty Difficulty
	// Topics restricts to questions whose topic set contains every entry.
	Topics []string
}

var foldCaser = cases.Fold()

func fold(s string) string {
	return foldCaser.String(s)
}

// Filter returns the associations matching every predicate, in the same
// relative order as in the catalog. Results are not deduplicated; callers
// needing unique questions must reduce by QuestionID.
func (c *Catalog) Filter(q Query) []Association {
	tokens := strings.Fields(fold(q.Text))

	var out []Association
	for _, a := range c.Associations {
		question, ok := c.Questions[a.QuestionID]
		if !ok {
			continue
		}
		if q.Difficulty != "" && question.Difficulty != q.Difficulty {
			continue
		}
		if !hasAllTopics(question, q.Topics) {
			continue
		}
		if !matchesTokens(question, a.Partition, tokens) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// matchesTokens requires every token to be a case-insensitive substring of
// the title, the partition name, or any topic.
func matchesTokens(q Question, partition string, tokens []string) bool {
	if len(tokens) == 0 {
		return true
	}
	title := fold(q.Title)
	part := fold(partition)
	for _, tok := range tokens {
		if strings.Contains(title, tok) || strings.Contains(part, tok) {
			continue
		}
		found := false
		for _, topic := range q.Topics {
			if strings.Contains(fold(topic), tok) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func hasAllTopics(q Question, topics []string) bool {
	for _, t := range topics {
		if !q.HasTopic(t) {
			return false
		}
	}
	return true
}

// PickRandomUnique draws one question uniformly at random from the distinct
// questions among the given associations. Drawing from the association list
// directly would bias toward questions listed by many partitions.
func (c *Catalog) PickRandomUnique(assocs []Association) (Question, bool) {
	seen := make(map[string]struct{}, len(assocs))
	ids := make([]string, 0, len(assocs))
	for _, a := range assocs {
		if _, dup := seen[a.QuestionID]; dup {
			continue
		}
		seen[a.QuestionID] = struct{}{}
		ids = append(ids, a.QuestionID)
	}
	if len(ids) == 0 {
		return Question{}, false
	}
	return c.Questions[ids[rand.IntN(len(ids))]], true
}
