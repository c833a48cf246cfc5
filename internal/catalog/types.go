// Package catalog merges per-partition question listings into a deduplicated
// catalog and provides filtering, statistics and pagination over it.
package catalog

import (
	"sort"
	"strings"
)

// Difficulty is the three-valued question difficulty.
type Difficulty string

const (
	Easy   Difficulty = "Easy"
	Medium Difficulty = "Medium"
	Hard   Difficulty = "Hard"
)

// ParseDifficulty coerces a raw source value to a Difficulty.
func ParseDifficulty(s string) (Difficulty, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return Easy, true
	case "medium":
		return Medium, true
	case "hard":
		return Hard, true
	}
	return "", false
}

// Question is a unique catalog entry. Identity is ID; a question may be
// listed by any number of partitions.
type Question struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	URL            string     `json:"url,omitempty"`
	Difficulty     Difficulty `json:"difficulty"`
	Topics         []string   `json:"topics"`
	AcceptanceRate string     `json:"acceptance,omitempty"`
	Frequency      string     `json:"frequency,omitempty"`
}

// HasTopic reports whether the question carries the exact topic.
func (q Question) HasTopic(topic string) bool {
	for _, t := range q.Topics {
		if t == topic {
			return true
		}
	}
	return false
}

// Association is one (question, partition) listing row. The same question
// id appears once per partition that lists it.
type Association struct {
	QuestionID string `json:"question_id"`
	Partition  string `json:"partition"`
}

// Partition describes one named source listing.
type Partition struct {
	Name         string `json:"name"`
	DisplayName  string `json:"display_name"`
	Associations int    `json:"associations"`
}

// Catalog is the immutable result of a build: the deduplicated question set
// plus the full multiset of partition associations. Every QuestionID in
// Associations has an entry in Questions. Once built a Catalog is never
// mutated; readers share it freely.
type Catalog struct {
	Questions    map[string]Question
	Associations []Association
	Partitions   []Partition
}

// Question returns the unique question for id.
func (c *Catalog) Question(id string) (Question, bool) {
	q, ok := c.Questions[id]
	return q, ok
}

// Topics returns the sorted distinct topic vocabulary across all questions.
func (c *Catalog) Topics() []string {
	seen := make(map[string]struct{})
	for _, q := range c.Questions {
		for _, t := range q.Topics {
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
