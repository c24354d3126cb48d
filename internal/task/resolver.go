package task

import "strings"

// Resolution is the outcome of matching a free-text phrase against a task
// set. Exactly one of the three predicates holds: not found (no candidates),
// resolved (one candidate), or ambiguous (several candidates).
type Resolution struct {
	Candidates []Task
}

// Resolved returns the single matched task, if the phrase resolved uniquely.
func (r Resolution) Resolved() (Task, bool) {
	if len(r.Candidates) == 1 {
		return r.Candidates[0], true
	}
	return Task{}, false
}

// Ambiguous reports whether more than one task matched.
func (r Resolution) Ambiguous() bool { return len(r.Candidates) > 1 }

// NotFound reports whether nothing matched.
func (r Resolution) NotFound() bool { return len(r.Candidates) == 0 }

// Resolve matches query against the descriptions of tasks in three escalating
// tiers, stopping at the first tier with at least one hit: exact equality,
// substring containment, then whitespace-token overlap. All comparisons are
// case-insensitive. The caller is responsible for pre-filtering tasks to the
// right owner (and to open tasks where that is the intent).
func Resolve(query string, tasks []Task) Resolution {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return Resolution{}
	}

	var exact []Task
	for _, t := range tasks {
		if q == strings.ToLower(t.Description) {
			exact = append(exact, t)
		}
	}
	if len(exact) > 0 {
		return Resolution{Candidates: exact}
	}

	var contains []Task
	for _, t := range tasks {
		if strings.Contains(strings.ToLower(t.Description), q) {
			contains = append(contains, t)
		}
	}
	if len(contains) > 0 {
		return Resolution{Candidates: contains}
	}

	queryWords := tokenSet(q)
	var overlap []Task
	for _, t := range tasks {
		if intersects(queryWords, tokenSet(strings.ToLower(t.Description))) {
			overlap = append(overlap, t)
		}
	}
	return Resolution{Candidates: overlap}
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(s) {
		set[w] = true
	}
	return set
}

func intersects(a, b map[string]bool) bool {
	for w := range a {
		if b[w] {
			return true
		}
	}
	return false
}
