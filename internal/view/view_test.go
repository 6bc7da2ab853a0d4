package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/mplads-works/internal/model"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func completedWork(id, category string, cost float64, done *time.Time) model.Work {
	return model.Work{WorkID: id, Status: model.WorkStatusCompleted, Category: category, Cost: cost, CompletedDate: done}
}

func TestFormatINR(t *testing.T) {
	cases := map[float64]string{
		0:          "Rs. 0",
		999:        "Rs. 999",
		1000:       "Rs. 1,000",
		123456:     "Rs. 1,23,456",
		12345678:   "Rs. 1,23,45,678",
		1234567.6:  "Rs. 12,34,568",
		-250000:    "-Rs. 2,50,000",
		9876543210: "Rs. 9,87,65,43,210",
	}
	for amount, want := range cases {
		assert.Equal(t, want, FormatINR(amount), "amount %v", amount)
	}
}

func TestFormatINRCompact(t *testing.T) {
	assert.Equal(t, "Rs. 9,500", FormatINRCompact(9500))
	assert.Equal(t, "Rs. 4.50 L", FormatINRCompact(450000))
	assert.Equal(t, "Rs. 1.23 Cr", FormatINRCompact(12300000))
	assert.Equal(t, "-Rs. 2.00 Cr", FormatINRCompact(-20000000))
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "-", FormatDate(nil))
	assert.Equal(t, "-", FormatDate(&time.Time{}))
	assert.Equal(t, "05 Mar 2024", FormatDate(date(2024, time.March, 5)))
	assert.Equal(t, "42.5%", FormatPercent(42.46))
}

func TestStatsPrefersSuppliedSummary(t *testing.T) {
	items := []model.Work{completedWork("a", "", 100, nil)}
	summary := &model.Summary{TotalWorks: 45, TotalCost: 9000}

	assert.Equal(t, *summary, Stats(items, summary))
	assert.Equal(t, model.Summary{TotalWorks: 1, TotalCost: 100}, Stats(items, nil))
}

func TestStatsUsesStatusAmount(t *testing.T) {
	items := []model.Work{
		{Status: model.WorkStatusRecommended, Cost: 1, RecommendedAmount: 700},
		{Status: model.WorkStatusRecommended, Cost: 1, RecommendedAmount: 300},
	}
	assert.Equal(t, model.Summary{TotalWorks: 2, TotalCost: 1000}, Stats(items, nil))
}

func TestMergeSummaries(t *testing.T) {
	got := MergeSummaries(model.Summary{TotalWorks: 2, TotalCost: 10}, model.Summary{TotalWorks: 3, TotalCost: 5.5})
	assert.Equal(t, model.Summary{TotalWorks: 5, TotalCost: 15.5}, got)
	assert.Equal(t, model.Summary{}, MergeSummaries())
}

func TestUtilization(t *testing.T) {
	assert.Zero(t, Utilization(model.MP{TotalExpenditure: 10}))
	assert.InDelta(t, 62.5, Utilization(model.MP{AllocatedAmount: 80, TotalExpenditure: 50}), 1e-9)
}

func TestCategoryBreakdown(t *testing.T) {
	rows := CategoryBreakdown([]model.Work{
		completedWork("1", "Roads", 100, nil),
		completedWork("2", "", 50, nil),
		completedWork("3", "Roads", 20, nil),
		completedWork("4", "Water", 120, nil),
		completedWork("5", "Schools", 400, nil),
	})
	assert.Equal(t, []model.BreakdownRow{
		{Label: "Schools", Count: 1, TotalCost: 400},
		{Label: "Roads", Count: 2, TotalCost: 120},
		{Label: "Water", Count: 1, TotalCost: 120},
		{Label: "Normal/Others", Count: 1, TotalCost: 50},
	}, rows)
}

func TestYearlyBreakdown(t *testing.T) {
	rows := YearlyBreakdown([]model.Work{
		completedWork("1", "", 10, date(2023, time.May, 1)),
		completedWork("2", "", 20, nil),
		completedWork("3", "", 30, date(2021, time.January, 9)),
		completedWork("4", "", 40, date(2023, time.December, 31)),
	})
	assert.Equal(t, []model.BreakdownRow{
		{Label: "2021", Count: 1, TotalCost: 30},
		{Label: "2023", Count: 2, TotalCost: 50},
		{Label: "Unknown", Count: 1, TotalCost: 20},
	}, rows)
}

func TestBuildMPReport(t *testing.T) {
	mp := model.MP{ID: "mp-1", Name: "A. Member", AllocatedAmount: 5e7, TotalExpenditure: 2.5e7}
	completed := model.PageResult{
		Items: []model.Work{
			completedWork("1", "Roads", 100, date(2022, time.June, 1)),
			completedWork("2", "Water", 300, date(2023, time.June, 1)),
		},
		Summary: model.Summary{TotalWorks: 30, TotalCost: 12000},
	}
	recommended := model.PageResult{Summary: model.Summary{TotalWorks: 10, TotalCost: 5000}}
	now := time.Date(2026, time.October, 16, 10, 0, 0, 0, time.UTC)

	report := BuildMPReport(mp, completed, recommended, now)

	assert.Equal(t, now, report.GeneratedAt)
	assert.InDelta(t, 50, report.UtilizationPercent, 1e-9)
	assert.InDelta(t, 75, report.CompletionPercent, 1e-9)
	assert.Equal(t, completed.Summary, report.Completed)
	assert.Equal(t, recommended.Summary, report.Recommended)
	require.Len(t, report.TopWorks, 2)
	assert.Equal(t, "2", report.TopWorks[0].WorkID)
	assert.Equal(t, "Water", report.Categories[0].Label)
	assert.Equal(t, "2022", report.Years[0].Label)
	// input order untouched
	assert.Equal(t, "1", completed.Items[0].WorkID)
}

func TestBuildMPReportWithoutWorks(t *testing.T) {
	report := BuildMPReport(model.MP{}, model.PageResult{}, model.PageResult{}, time.Now())
	assert.Zero(t, report.CompletionPercent)
	assert.Empty(t, report.Categories)
	assert.Empty(t, report.TopWorks)
}
