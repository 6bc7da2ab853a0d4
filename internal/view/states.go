package view

import (
	"sort"
	"strings"
	"time"

	"github.com/nurpe/mplads-works/internal/model"
)

const (
	unknownState = "Unknown"

	HighUtilizationPercent = 80.0
	LowUtilizationPercent  = 50.0

	performerCount = 3
)

// BuildStatesOverview fills each state's utilization and derives the
// comparison insights. Rows keep the store's order.
func BuildStatesOverview(house string, rows []model.StateSummary) model.StatesOverview {
	states := make([]model.StateSummary, len(rows))
	for i, row := range rows {
		if strings.TrimSpace(row.State) == "" {
			row.State = unknownState
		}
		row.UtilizationPercentage = percent(row.TotalExpenditure, row.TotalAllocated)
		states[i] = row
	}
	return model.StatesOverview{
		House:    house,
		States:   states,
		Insights: StatesInsights(states),
	}
}

// StatesInsights totals the states and ranks them by utilization. The
// completion rate is completed works over recommended works.
func StatesInsights(states []model.StateSummary) model.StatesInsights {
	out := model.StatesInsights{
		StateCount:       len(states),
		TopPerformers:    []model.StateSummary{},
		BottomPerformers: []model.StateSummary{},
	}
	if len(states) == 0 {
		return out
	}

	var utilizationSum float64
	out.HighestUtilization = states[0].UtilizationPercentage
	out.LowestUtilization = states[0].UtilizationPercentage
	for _, s := range states {
		out.MPCount += s.MPCount
		out.TotalAllocated += s.TotalAllocated
		out.TotalExpenditure += s.TotalExpenditure
		out.TotalWorksCompleted += s.TotalWorksCompleted
		out.TotalWorksRecommended += s.RecommendedWorksCount

		u := s.UtilizationPercentage
		utilizationSum += u
		if u > out.HighestUtilization {
			out.HighestUtilization = u
		}
		if u < out.LowestUtilization {
			out.LowestUtilization = u
		}
		if u >= HighUtilizationPercent {
			out.HighUtilizationStates++
		}
		if u < LowUtilizationPercent {
			out.LowUtilizationStates++
		}
	}
	out.AverageUtilization = utilizationSum / float64(len(states))
	out.UtilizationPercentage = percent(out.TotalExpenditure, out.TotalAllocated)
	out.CompletionRate = percent(float64(out.TotalWorksCompleted), float64(out.TotalWorksRecommended))

	ranked := make([]model.StateSummary, len(states))
	copy(ranked, states)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].UtilizationPercentage > ranked[j].UtilizationPercentage
	})
	out.TopPerformers = head(ranked, performerCount)

	copy(ranked, states)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].UtilizationPercentage < ranked[j].UtilizationPercentage
	})
	out.BottomPerformers = head(ranked, performerCount)
	return out
}

func BuildStatesReport(overview model.StatesOverview, now time.Time) model.StatesReport {
	return model.StatesReport{
		House:       overview.House,
		GeneratedAt: now,
		States:      overview.States,
		Insights:    overview.Insights,
	}
}

func percent(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return part / whole * 100
}

func head(states []model.StateSummary, n int) []model.StateSummary {
	if len(states) < n {
		n = len(states)
	}
	out := make([]model.StateSummary, n)
	copy(out, states[:n])
	return out
}
