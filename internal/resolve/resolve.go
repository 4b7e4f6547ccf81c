// Package resolve computes the effective match set for listing views,
// suppressing suggestions made stale by a settled match elsewhere.
package resolve

import "github.com/bidwell-group/tender-cli/internal/model"

// Effective filters a project's matches for one status filter. A
// suggested match is stale when another match on the same response item
// is settled (accepted or manual); stale matches are dropped from every
// filter except one equal to the settled match's own status, where the
// status filter removes them anyway. Records are suppressed, never
// mutated, and input order is preserved.
func Effective(matches []model.Match, filter model.MatchFilter) []model.Match {
	settled := SettledByResponseItem(matches)

	out := make([]model.Match, 0, len(matches))
	for _, m := range matches {
		if s, ok := settled[m.ResponseItemID]; ok &&
			m.Status == model.MatchSuggested &&
			filter != model.MatchFilter(s.Status) {
			continue
		}
		if filter != model.FilterAll && string(m.Status) != string(filter) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// SettledByResponseItem picks each response item's winning settled match.
// With several settled matches on one response item the most recently
// updated wins, ties broken by lexically smallest match id.
func SettledByResponseItem(matches []model.Match) map[string]model.Match {
	settled := make(map[string]model.Match)
	for _, m := range matches {
		if !m.Status.Settled() {
			continue
		}
		cur, ok := settled[m.ResponseItemID]
		if !ok || Newer(m, cur) {
			settled[m.ResponseItemID] = m
		}
	}
	return settled
}

// Newer reports whether a beats b under the settled-match tie-break:
// later UpdatedAt first, then the lexically smaller id.
func Newer(a, b model.Match) bool {
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return a.UpdatedAt.After(b.UpdatedAt)
	}
	return a.ID < b.ID
}
