package excel

import (
	"fmt"
	"math"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/nurpe/mplads-works/internal/model"
	"github.com/nurpe/mplads-works/internal/view"
)

const (
	summarySheet = "Summary"
	statesSheet  = "States"
	maxSheetName = 31
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// GenerateWorks writes a summary sheet followed by one sheet listing the works.
func (g *Generator) GenerateWorks(report model.WorksReport) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	file.SetSheetName("Sheet1", summarySheet)
	g.writeWorksSummary(file, report)

	sheet := sheetName(report.Title, map[string]struct{}{summarySheet: {}})
	if _, err := file.NewSheet(sheet); err != nil {
		return nil, err
	}
	if err := g.writeWorks(file, sheet, report.Kind, report.Works, 1); err != nil {
		return nil, err
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GenerateMPReport writes the MP profile, its category and year
// breakdowns and the largest completed works.
func (g *Generator) GenerateMPReport(report model.MPReport) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	file.SetSheetName("Sheet1", summarySheet)
	g.writeMPSummary(file, report)

	for _, section := range []struct {
		sheet string
		label string
		rows  []model.BreakdownRow
	}{
		{"Categories", "Category", report.Categories},
		{"Years", "Year", report.Years},
	} {
		if _, err := file.NewSheet(section.sheet); err != nil {
			return nil, err
		}
		if err := g.writeBreakdown(file, section.sheet, section.label, section.rows); err != nil {
			return nil, err
		}
	}

	if _, err := file.NewSheet("Top works"); err != nil {
		return nil, err
	}
	if err := g.writeWorks(file, "Top works", model.ResultKindCompletedWorks, report.TopWorks, 1); err != nil {
		return nil, err
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GenerateStatesReport writes the state comparison insights and one row
// per state.
func (g *Generator) GenerateStatesReport(report model.StatesReport) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	file.SetSheetName("Sheet1", summarySheet)
	g.writeStatesSummary(file, report)

	if _, err := file.NewSheet(statesSheet); err != nil {
		return nil, err
	}
	if err := g.writeStates(file, report.States); err != nil {
		return nil, err
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeWorksSummary(file *excelize.File, report model.WorksReport) {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(summarySheet, cell, value)
	}

	set("A1", "Report")
	set("B1", report.Title)
	set("A2", "Generated")
	set("B2", report.GeneratedAt.Format("2006-01-02 15:04"))
	set("A3", "Total works")
	set("B3", report.Summary.TotalWorks)
	set("A4", "Total "+strings.ToLower(view.AmountLabel(report.Kind)))
	set("B4", report.Summary.TotalCost)
	set("C4", view.FormatINRCompact(report.Summary.TotalCost))
	set("A5", "Rows included")
	set("B5", len(report.Works))
	if report.Truncated {
		set("A6", "Note")
		set("B6", fmt.Sprintf("Only the first %d of %d works are listed", len(report.Works), report.Summary.TotalWorks))
	}

	_ = file.SetColWidth(summarySheet, "A", "A", 24)
	_ = file.SetColWidth(summarySheet, "B", "B", 48)
	_ = file.SetColWidth(summarySheet, "C", "C", 16)
}

func (g *Generator) writeMPSummary(file *excelize.File, report model.MPReport) {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(summarySheet, cell, value)
	}

	mp := report.MP
	rows := [][2]interface{}{
		{"MP", mp.Name},
		{"Constituency", mp.Constituency},
		{"State", mp.State},
		{"House", mp.House},
		{"Party", mp.Party},
		{"Allocated amount", mp.AllocatedAmount},
		{"Total expenditure", mp.TotalExpenditure},
		{"Utilization", view.FormatPercent(report.UtilizationPercent)},
		{"Completed works", report.Completed.TotalWorks},
		{"Completed cost", report.Completed.TotalCost},
		{"Recommended works", report.Recommended.TotalWorks},
		{"Recommended amount", report.Recommended.TotalCost},
		{"Completion rate", view.FormatPercent(report.CompletionPercent)},
		{"Generated", report.GeneratedAt.Format("2006-01-02 15:04")},
	}
	for i, row := range rows {
		set(fmt.Sprintf("A%d", i+1), row[0])
		set(fmt.Sprintf("B%d", i+1), row[1])
	}

	_ = file.SetColWidth(summarySheet, "A", "A", 24)
	_ = file.SetColWidth(summarySheet, "B", "B", 40)
}

func (g *Generator) writeStatesSummary(file *excelize.File, report model.StatesReport) {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(summarySheet, cell, value)
	}

	house := report.House
	if house == "" {
		house = "All"
	}
	in := report.Insights
	rows := [][2]interface{}{
		{"House", house},
		{"Generated", report.GeneratedAt.Format("2006-01-02 15:04")},
		{"States", in.StateCount},
		{"MPs", in.MPCount},
		{"Allocated amount", in.TotalAllocated},
		{"Total expenditure", in.TotalExpenditure},
		{"Utilization", view.FormatPercent(in.UtilizationPercentage)},
		{"Works completed", in.TotalWorksCompleted},
		{"Works recommended", in.TotalWorksRecommended},
		{"Completion rate", view.FormatPercent(in.CompletionRate)},
		{"Average utilization", view.FormatPercent(in.AverageUtilization)},
		{"Highest utilization", view.FormatPercent(in.HighestUtilization)},
		{"Lowest utilization", view.FormatPercent(in.LowestUtilization)},
		{fmt.Sprintf("States at %.0f%% or more", view.HighUtilizationPercent), in.HighUtilizationStates},
		{fmt.Sprintf("States below %.0f%%", view.LowUtilizationPercent), in.LowUtilizationStates},
		{"Top performers", stateList(in.TopPerformers)},
		{"Needs improvement", stateList(in.BottomPerformers)},
	}
	for i, row := range rows {
		set(fmt.Sprintf("A%d", i+1), row[0])
		set(fmt.Sprintf("B%d", i+1), row[1])
	}

	_ = file.SetColWidth(summarySheet, "A", "A", 26)
	_ = file.SetColWidth(summarySheet, "B", "B", 60)
}

func (g *Generator) writeStates(file *excelize.File, states []model.StateSummary) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(statesSheet, cell, value)
	}

	headers := []string{
		"State",
		"MPs",
		"Allocated amount",
		"Total expenditure",
		"Utilization %",
		"Completed works",
		"Completed value",
		"Recommended works",
	}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		set(cell, header)
	}

	for i, s := range states {
		row := i + 2
		set(fmt.Sprintf("A%d", row), s.State)
		set(fmt.Sprintf("B%d", row), s.MPCount)
		set(fmt.Sprintf("C%d", row), s.TotalAllocated)
		set(fmt.Sprintf("D%d", row), s.TotalExpenditure)
		set(fmt.Sprintf("E%d", row), math.Round(s.UtilizationPercentage*100)/100)
		set(fmt.Sprintf("F%d", row), s.TotalWorksCompleted)
		set(fmt.Sprintf("G%d", row), s.CompletedWorksValue)
		set(fmt.Sprintf("H%d", row), s.RecommendedWorksCount)
	}

	_ = file.SetColWidth(statesSheet, "A", "A", 28)
	return file.SetColWidth(statesSheet, "B", "H", 18)
}

// stateList joins state names with their utilization in the given order.
func stateList(states []model.StateSummary) string {
	parts := make([]string, 0, len(states))
	for _, s := range states {
		parts = append(parts, fmt.Sprintf("%s (%s)", s.State, view.FormatPercent(s.UtilizationPercentage)))
	}
	return strings.Join(parts, ", ")
}

func (g *Generator) writeBreakdown(file *excelize.File, sheet, label string, rows []model.BreakdownRow) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", label)
	set("B1", "Works")
	set("C1", "Total cost")
	for i, row := range rows {
		r := i + 2
		set(fmt.Sprintf("A%d", r), row.Label)
		set(fmt.Sprintf("B%d", r), row.Count)
		set(fmt.Sprintf("C%d", r), row.TotalCost)
	}

	_ = file.SetColWidth(sheet, "A", "A", 32)
	return file.SetColWidth(sheet, "B", "C", 16)
}

func (g *Generator) writeWorks(file *excelize.File, sheet string, kind model.ResultKind, works []model.Work, tableRow int) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	headers := []string{
		"Work ID",
		"Description",
		"Category",
		"MP",
		"Constituency",
		"State",
		view.AmountLabel(kind),
		view.DateLabel(kind),
		"Payments",
		"Total paid",
	}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, tableRow)
		if err != nil {
			return err
		}
		set(cell, header)
	}

	for i, work := range works {
		row := tableRow + 1 + i
		set(fmt.Sprintf("A%d", row), work.WorkID)
		set(fmt.Sprintf("B%d", row), work.Description)
		set(fmt.Sprintf("C%d", row), work.Category)
		set(fmt.Sprintf("D%d", row), work.MP.Name)
		set(fmt.Sprintf("E%d", row), work.MP.Constituency)
		set(fmt.Sprintf("F%d", row), work.MP.State)
		set(fmt.Sprintf("G%d", row), work.Amount())
		if d := work.Date(); d != nil {
			set(fmt.Sprintf("H%d", row), d.Format("2006-01-02"))
		}
		set(fmt.Sprintf("I%d", row), work.PaymentCount)
		set(fmt.Sprintf("J%d", row), work.TotalPaid)
	}

	_ = file.SetColWidth(sheet, "A", "A", 16)
	_ = file.SetColWidth(sheet, "B", "B", 48)
	_ = file.SetColWidth(sheet, "C", "F", 20)
	return file.SetColWidth(sheet, "G", "J", 16)
}

// sheetName derives a unique excel sheet name from a free-form title.
func sheetName(title string, used map[string]struct{}) string {
	base := sanitizeSheetName(title)
	if len([]rune(base)) > maxSheetName {
		base = string([]rune(base)[:maxSheetName])
	}

	candidate := base
	for counter := 2; ; counter++ {
		if _, exists := used[candidate]; !exists {
			return candidate
		}
		suffix := fmt.Sprintf("-%d", counter)
		trimmed := []rune(base)
		if len(trimmed)+len(suffix) > maxSheetName {
			trimmed = trimmed[:maxSheetName-len(suffix)]
		}
		candidate = string(trimmed) + suffix
	}
}

func sanitizeSheetName(value string) string {
	replacer := strings.NewReplacer(
		"[", "-",
		"]", "-",
		":", "-",
		"*", "-",
		"?", "-",
		"/", "-",
		"\\", "-",
	)
	value = strings.TrimSpace(replacer.Replace(value))
	if value == "" {
		return "Works"
	}
	return value
}
