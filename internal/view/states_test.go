package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/mplads-works/internal/model"
)

func stateRow(name string, mps int64, allocated, spent float64, completed, recommended int64) model.StateSummary {
	return model.StateSummary{
		State:                 name,
		MPCount:               mps,
		TotalAllocated:        allocated,
		TotalExpenditure:      spent,
		TotalWorksCompleted:   completed,
		RecommendedWorksCount: recommended,
	}
}

func stateNames(states []model.StateSummary) []string {
	out := make([]string, 0, len(states))
	for _, s := range states {
		out = append(out, s.State)
	}
	return out
}

func TestBuildStatesOverview(t *testing.T) {
	overview := BuildStatesOverview("Lok Sabha", []model.StateSummary{
		stateRow("", 1, 0, 0, 0, 0),
		stateRow("Goa", 2, 100, 90, 10, 5),
		stateRow("Kerala", 20, 1000, 600, 300, 100),
		stateRow("Maharashtra", 48, 2000, 1700, 900, 600),
		stateRow("Sikkim", 1, 100, 30, 4, 2),
	})

	require.Len(t, overview.States, 5)
	assert.Equal(t, "Lok Sabha", overview.House)
	assert.Equal(t, "Unknown", overview.States[0].State)
	assert.InDelta(t, 90, overview.States[1].UtilizationPercentage, 1e-9)
	assert.InDelta(t, 60, overview.States[2].UtilizationPercentage, 1e-9)
	assert.InDelta(t, 85, overview.States[3].UtilizationPercentage, 1e-9)

	in := overview.Insights
	assert.Equal(t, 5, in.StateCount)
	assert.Equal(t, int64(72), in.MPCount)
	assert.InDelta(t, 3200, in.TotalAllocated, 1e-9)
	assert.InDelta(t, 2420, in.TotalExpenditure, 1e-9)
	assert.InDelta(t, 75.625, in.UtilizationPercentage, 1e-9)
	assert.Equal(t, int64(1214), in.TotalWorksCompleted)
	assert.Equal(t, int64(707), in.TotalWorksRecommended)
	assert.InDelta(t, 1214.0/707*100, in.CompletionRate, 1e-9)
	assert.InDelta(t, (0+90+60+85+30)/5.0, in.AverageUtilization, 1e-9)
	assert.InDelta(t, 90, in.HighestUtilization, 1e-9)
	assert.InDelta(t, 0, in.LowestUtilization, 1e-9)
	assert.Equal(t, 2, in.HighUtilizationStates)
	assert.Equal(t, 2, in.LowUtilizationStates)
	assert.Equal(t, []string{"Goa", "Maharashtra", "Kerala"}, stateNames(in.TopPerformers))
	assert.Equal(t, []string{"Unknown", "Sikkim", "Kerala"}, stateNames(in.BottomPerformers))
}

func TestStatesInsightsEmpty(t *testing.T) {
	in := StatesInsights(nil)
	assert.Equal(t, 0, in.StateCount)
	assert.Zero(t, in.HighestUtilization)
	assert.Zero(t, in.LowestUtilization)
	assert.Zero(t, in.AverageUtilization)
	assert.NotNil(t, in.TopPerformers)
	assert.Empty(t, in.BottomPerformers)
}

func TestStatesInsightsFewerThanThreeStates(t *testing.T) {
	in := StatesInsights([]model.StateSummary{{State: "Goa", UtilizationPercentage: 50}})
	assert.Equal(t, []string{"Goa"}, stateNames(in.TopPerformers))
	assert.Equal(t, []string{"Goa"}, stateNames(in.BottomPerformers))
	assert.Equal(t, 0, in.LowUtilizationStates)
	assert.Equal(t, 0, in.HighUtilizationStates)
}

func TestBuildStatesReport(t *testing.T) {
	now := time.Date(2025, time.March, 9, 0, 0, 0, 0, time.UTC)
	overview := BuildStatesOverview("", []model.StateSummary{stateRow("Goa", 2, 100, 50, 1, 1)})

	report := BuildStatesReport(overview, now)
	assert.Equal(t, now, report.GeneratedAt)
	assert.Equal(t, overview.States, report.States)
	assert.Equal(t, overview.Insights, report.Insights)
}
