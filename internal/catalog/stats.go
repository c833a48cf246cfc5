package catalog

// DifficultyStats counts unique questions and unique solved questions for
// one difficulty bucket.
type DifficultyStats struct {
	Total  int `json:"total"`
	Solved int `json:"solved"`
}

// Stats aggregates a filtered view of the catalog against a solved set.
// Total always equals the sum of the per-difficulty totals, and likewise
// for Solved.
type Stats struct {
	Total  int             `json:"total"`
	Solved int             `json:"solved"`
	Easy   DifficultyStats `json:"easy"`
	Medium DifficultyStats `json:"medium"`
	Hard   DifficultyStats `json:"hard"`
}

// ComputeStats counts distinct questions per difficulty across the given
// associations, marking those present in solved. A question matched through
// several partitions is counted exactly once. The function is pure; per-user
// aggregates are always derived here rather than maintained as counters.
func ComputeStats(assocs []Association, c *Catalog, solved map[string]bool) Stats {
	var s Stats
	counted := make(map[string]struct{}, len(assocs))
	for _, a := range assocs {
		if _, dup := counted[a.QuestionID]; dup {
			continue
		}
		counted[a.QuestionID] = struct{}{}

		q, ok := c.Questions[a.QuestionID]
		if !ok {
			continue
		}
		bucket := s.bucket(q.Difficulty)
		if bucket == nil {
			continue
		}
		s.Total++
		bucket.Total++
		if solved[a.QuestionID] {
			s.Solved++
			bucket.Solved++
		}
	}
	return s
}

func (s *Stats) bucket(d Difficulty) *DifficultyStats {
	switch d {
	case Easy:
		return &s.Easy
	case Medium:
		return &s.Medium
	case Hard:
		return &s.Hard
	}
	return nil
}
