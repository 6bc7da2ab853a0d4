package view

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nurpe/mplads-works/internal/model"
)

const (
	defaultCategory = "Normal/Others"
	unknownYear     = "Unknown"
	topWorksLimit   = 10
)

// Stats returns the supplied summary when there is one; only without it
// are totals folded from the listed items.
func Stats(items []model.Work, summary *model.Summary) model.Summary {
	if summary != nil {
		return *summary
	}
	var out model.Summary
	for _, w := range items {
		out.TotalWorks++
		out.TotalCost += w.Amount()
	}
	return out
}

func MergeSummaries(summaries ...model.Summary) model.Summary {
	var out model.Summary
	for _, s := range summaries {
		out.TotalWorks += s.TotalWorks
		out.TotalCost += s.TotalCost
	}
	return out
}

// Utilization is expenditure as a percentage of allocation.
func Utilization(mp model.MP) float64 {
	return percent(mp.TotalExpenditure, mp.AllocatedAmount)
}

// CategoryBreakdown groups works by category, largest total first.
func CategoryBreakdown(works []model.Work) []model.BreakdownRow {
	return breakdown(works, func(w model.Work) string {
		if c := strings.TrimSpace(w.Category); c != "" {
			return c
		}
		return defaultCategory
	}, func(rows []model.BreakdownRow) {
		sort.SliceStable(rows, func(i, j int) bool {
			if rows[i].TotalCost != rows[j].TotalCost {
				return rows[i].TotalCost > rows[j].TotalCost
			}
			return rows[i].Label < rows[j].Label
		})
	})
}

// YearlyBreakdown groups works by the year of their status date, oldest
// first. Works without a date are grouped under "Unknown", listed last.
func YearlyBreakdown(works []model.Work) []model.BreakdownRow {
	return breakdown(works, func(w model.Work) string {
		if d := w.Date(); d != nil && !d.IsZero() {
			return strconv.Itoa(d.Year())
		}
		return unknownYear
	}, func(rows []model.BreakdownRow) {
		sort.SliceStable(rows, func(i, j int) bool {
			if rows[i].Label == unknownYear || rows[j].Label == unknownYear {
				return rows[j].Label == unknownYear && rows[i].Label != unknownYear
			}
			return rows[i].Label < rows[j].Label
		})
	})
}

func breakdown(works []model.Work, key func(model.Work) string, order func([]model.BreakdownRow)) []model.BreakdownRow {
	index := make(map[string]int)
	rows := make([]model.BreakdownRow, 0)
	for _, w := range works {
		label := key(w)
		pos, ok := index[label]
		if !ok {
			rows = append(rows, model.BreakdownRow{Label: label})
			pos = len(rows) - 1
			index[label] = pos
		}
		rows[pos].Count++
		rows[pos].TotalCost += w.Amount()
	}
	order(rows)
	return rows
}

// BuildMPReport derives the MP detail report from both status partitions.
// Totals come from the page summaries; breakdowns from the completed items.
func BuildMPReport(mp model.MP, completed, recommended model.PageResult, now time.Time) model.MPReport {
	completedStats := Stats(completed.Items, &completed.Summary)
	recommendedStats := Stats(recommended.Items, &recommended.Summary)

	completion := 0.0
	if all := completedStats.TotalWorks + recommendedStats.TotalWorks; all > 0 {
		completion = float64(completedStats.TotalWorks) / float64(all) * 100
	}

	top := make([]model.Work, len(completed.Items))
	copy(top, completed.Items)
	sort.SliceStable(top, func(i, j int) bool { return top[i].Amount() > top[j].Amount() })
	if len(top) > topWorksLimit {
		top = top[:topWorksLimit]
	}

	return model.MPReport{
		MP:                 mp,
		GeneratedAt:        now,
		UtilizationPercent: Utilization(mp),
		CompletionPercent:  completion,
		Completed:          completedStats,
		Recommended:        recommendedStats,
		Categories:         CategoryBreakdown(completed.Items),
		Years:              YearlyBreakdown(completed.Items),
		TopWorks:           top,
	}
}

// AmountLabel names the amount column of a works listing.
func AmountLabel(kind model.ResultKind) string {
	if kind == model.ResultKindCompletedWorks {
		return "Cost"
	}
	return "Recommended amount"
}

func DateLabel(kind model.ResultKind) string {
	if kind == model.ResultKindCompletedWorks {
		return "Completed on"
	}
	return "Recommended on"
}
