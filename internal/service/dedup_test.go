package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nurpe/mplads-works/internal/model"
)

func ids(works []model.Work) []string {
	out := make([]string, 0, len(works))
	for _, w := range works {
		out = append(out, w.WorkID)
	}
	return out
}

func worksWithIDs(status model.WorkStatus, workIDs ...string) []model.Work {
	out := make([]model.Work, 0, len(workIDs))
	for _, id := range workIDs {
		out = append(out, model.Work{WorkID: id, Status: status})
	}
	return out
}

func TestDedupeCompletedWins(t *testing.T) {
	completed := worksWithIDs(model.WorkStatusCompleted, "a", "b")
	recommended := worksWithIDs(model.WorkStatusRecommended, "c", "b", "d")

	c, r := Dedupe(completed, recommended)

	assert.Equal(t, []string{"a", "b"}, ids(c))
	assert.Equal(t, []string{"c", "d"}, ids(r))
	assert.Equal(t, []string{"c", "b", "d"}, ids(recommended), "input untouched")
}

func TestDedupeIsIdempotent(t *testing.T) {
	completed := worksWithIDs(model.WorkStatusCompleted, "1", "2", "3")
	recommended := worksWithIDs(model.WorkStatusRecommended, "3", "4", "1", "5")

	c1, r1 := Dedupe(completed, recommended)
	c2, r2 := Dedupe(c1, r1)

	assert.Equal(t, c1, c2)
	assert.Equal(t, r1, r2)
}

func TestDedupeEmptySets(t *testing.T) {
	c, r := Dedupe(nil, nil)
	assert.Empty(t, c)
	assert.Empty(t, r)

	c, r = Dedupe(nil, worksWithIDs(model.WorkStatusRecommended, "x"))
	assert.Empty(t, c)
	assert.Equal(t, []string{"x"}, ids(r))
}

func TestDedupeNoOverlapAfterwards(t *testing.T) {
	completed := worksWithIDs(model.WorkStatusCompleted, "a", "b", "c")
	recommended := worksWithIDs(model.WorkStatusRecommended, "b", "c", "d", "e")

	c, r := Dedupe(completed, recommended)
	seen := map[string]bool{}
	for _, id := range ids(c) {
		seen[id] = true
	}
	for _, id := range ids(r) {
		assert.False(t, seen[id], "work %s listed twice", id)
	}
}
