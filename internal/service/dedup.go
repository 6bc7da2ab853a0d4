package service

import "github.com/nurpe/mplads-works/internal/model"

// Dedupe keeps a work that appears in both sets only in the completed set.
// Works are matched by WorkID; order is preserved and inputs are not
// modified.
func Dedupe(completed, recommended []model.Work) ([]model.Work, []model.Work) {
	completedIDs := make(map[string]struct{}, len(completed))
	for _, w := range completed {
		completedIDs[w.WorkID] = struct{}{}
	}

	kept := make([]model.Work, 0, len(recommended))
	for _, w := range recommended {
		if _, done := completedIDs[w.WorkID]; done {
			continue
		}
		kept = append(kept, w)
	}

	out := make([]model.Work, len(completed))
	copy(out, completed)
	return out, kept
}
