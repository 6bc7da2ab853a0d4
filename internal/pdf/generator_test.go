package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/mplads-works/internal/model"
)

func manyWorks(n int) []model.Work {
	works := make([]model.Work, 0, n)
	for i := 0; i < n; i++ {
		done := time.Date(2022, time.March, 1+i%28, 0, 0, 0, 0, time.UTC)
		works = append(works, model.Work{
			WorkID:        fmt.Sprintf("W-%03d", i),
			Status:        model.WorkStatusCompleted,
			Description:   strings.Repeat("Construction of CC road ", 1+i%4),
			Category:      "Roads",
			Cost:          float64(100000 * (i + 1)),
			CompletedDate: &done,
			MP:            model.MPReference{Name: "Supriya Sule", Constituency: "Baramati"},
		})
	}
	return works
}

func TestGenerateWorks(t *testing.T) {
	content, err := NewGenerator().GenerateWorks(model.WorksReport{
		Title:       "Completed works - Maharashtra",
		Kind:        model.ResultKindCompletedWorks,
		GeneratedAt: time.Date(2025, time.January, 2, 9, 30, 0, 0, time.UTC),
		Summary:     model.Summary{TotalWorks: 120, TotalCost: 4.5e8},
		Truncated:   true,
		Works:       manyWorks(60),
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(content, []byte("%PDF-")))
}

func TestGenerateWorksEmpty(t *testing.T) {
	content, err := NewGenerator().GenerateWorks(model.WorksReport{
		Title: "Recommended works",
		Kind:  model.ResultKindRecommendedWorks,
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(content, []byte("%PDF-")))
}

func TestGenerateMPReport(t *testing.T) {
	content, err := NewGenerator().GenerateMPReport(model.MPReport{
		MP:                 model.MP{ID: "mp-1", Name: "Supriya Sule", Constituency: "Baramati", State: "Maharashtra", House: "Lok Sabha", AllocatedAmount: 5e7, TotalExpenditure: 3e7},
		GeneratedAt:        time.Date(2025, time.January, 2, 9, 30, 0, 0, time.UTC),
		UtilizationPercent: 60,
		CompletionPercent:  75,
		Completed:          model.Summary{TotalWorks: 30, TotalCost: 2.1e7},
		Recommended:        model.Summary{TotalWorks: 10, TotalCost: 5e6},
		Categories:         []model.BreakdownRow{{Label: "Roads", Count: 30, TotalCost: 2.1e7}},
		Years:              []model.BreakdownRow{{Label: "2022", Count: 30, TotalCost: 2.1e7}},
		TopWorks:           manyWorks(10),
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(content, []byte("%PDF-")))
}

func TestGenerateStatesReport(t *testing.T) {
	states := make([]model.StateSummary, 0, 40)
	for i := 0; i < 40; i++ {
		states = append(states, model.StateSummary{
			State:                 fmt.Sprintf("State %02d", i),
			MPCount:               int64(1 + i%48),
			TotalAllocated:        5e7 * float64(1+i%48),
			TotalExpenditure:      2e7 * float64(1+i%48),
			UtilizationPercentage: 40,
			TotalWorksCompleted:   int64(100 * i),
			RecommendedWorksCount: int64(20 * i),
		})
	}
	content, err := NewGenerator().GenerateStatesReport(model.StatesReport{
		House:       "Lok Sabha",
		GeneratedAt: time.Date(2025, time.January, 2, 9, 30, 0, 0, time.UTC),
		States:      states,
		Insights: model.StatesInsights{
			StateCount:       40,
			TopPerformers:    states[:3],
			BottomPerformers: states[37:],
		},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(content, []byte("%PDF-")))
}

func TestGenerateStatesReportEmpty(t *testing.T) {
	content, err := NewGenerator().GenerateStatesReport(model.StatesReport{})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(content, []byte("%PDF-")))
}

func TestFit(t *testing.T) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont(fontName, "", 9)

	assert.Equal(t, "short", fit(pdf, " short ", 40))

	cut := fit(pdf, strings.Repeat("long text ", 20), 30)
	assert.True(t, strings.HasSuffix(cut, "..."))
	assert.LessOrEqual(t, pdf.GetStringWidth(cut), 30.0)
}

func TestJoinNonEmpty(t *testing.T) {
	assert.Equal(t, "Pune, Lok Sabha", joinNonEmpty(", ", "Pune", " ", "Lok Sabha"))
}
