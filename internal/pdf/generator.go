package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/nurpe/mplads-works/internal/model"
	"github.com/nurpe/mplads-works/internal/view"
)

const (
	fontName  = "Helvetica"
	rowHeight = 7.0
)

// Generator renders reports with the core Helvetica font. Text outside
// cp1252 is transliterated by gofpdf's translator.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

type column struct {
	title string
	width float64
	right bool
}

func (g *Generator) GenerateWorks(report model.WorksReport) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(12, 12, 12)
	pdf.SetAutoPageBreak(false, 12)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont(fontName, "B", 14)
	pdf.CellFormat(0, 10, tr(report.Title), "", 1, "C", false, 0, "")
	pdf.SetFont(fontName, "", 10)
	pdf.CellFormat(0, 6, "Generated "+report.GeneratedAt.Format("02 Jan 2006 15:04"), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont(fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Total works: %d", report.Summary.TotalWorks), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Total %s: %s", strings.ToLower(view.AmountLabel(report.Kind)), view.FormatINR(report.Summary.TotalCost)), "", 1, "L", false, 0, "")
	if report.Truncated {
		pdf.SetTextColor(200, 0, 0)
		pdf.CellFormat(0, 6, fmt.Sprintf("Only the first %d works are listed.", len(report.Works)), "", 1, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}
	pdf.Ln(3)

	columns := []column{
		{title: "Work ID", width: 28},
		{title: "Description", width: 82},
		{title: "Category", width: 34},
		{title: "MP", width: 42},
		{title: "Constituency", width: 32},
		{title: view.AmountLabel(report.Kind), width: 32, right: true},
		{title: view.DateLabel(report.Kind), width: 23},
	}
	drawHeader(pdf, tr, columns)
	for _, work := range report.Works {
		ensureSpace(pdf, tr, columns)
		drawRow(pdf, tr, columns, []string{
			work.WorkID,
			work.Description,
			work.Category,
			work.MP.Name,
			work.MP.Constituency,
			view.FormatINR(work.Amount()),
			view.FormatDate(work.Date()),
		})
	}
	if len(report.Works) == 0 {
		pdf.SetFont(fontName, "I", 10)
		pdf.CellFormat(0, rowHeight, "No works match the selected filters.", "", 1, "L", false, 0, "")
	}

	return output(pdf)
}

func (g *Generator) GenerateMPReport(report model.MPReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(false, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	mp := report.MP
	pdf.SetFont(fontName, "B", 16)
	pdf.CellFormat(0, 10, tr(mp.Name), "", 1, "C", false, 0, "")
	pdf.SetFont(fontName, "", 11)
	pdf.CellFormat(0, 6, tr(joinNonEmpty(", ", mp.Constituency, mp.State, mp.House)), "", 1, "C", false, 0, "")
	if mp.Party != "" {
		pdf.CellFormat(0, 6, tr(mp.Party), "", 1, "C", false, 0, "")
	}
	pdf.CellFormat(0, 6, "Generated "+report.GeneratedAt.Format("02 Jan 2006"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	section(pdf, "Fund utilization")
	keyValue(pdf, "Allocated", view.FormatINRCompact(mp.AllocatedAmount))
	keyValue(pdf, "Expenditure", view.FormatINRCompact(mp.TotalExpenditure))
	keyValue(pdf, "Utilization", view.FormatPercent(report.UtilizationPercent))
	pdf.Ln(2)

	section(pdf, "Works")
	keyValue(pdf, "Completed", fmt.Sprintf("%d works, %s", report.Completed.TotalWorks, view.FormatINRCompact(report.Completed.TotalCost)))
	keyValue(pdf, "Recommended", fmt.Sprintf("%d works, %s", report.Recommended.TotalWorks, view.FormatINRCompact(report.Recommended.TotalCost)))
	keyValue(pdf, "Completion rate", view.FormatPercent(report.CompletionPercent))
	pdf.Ln(2)

	breakdownColumns := func(label string) []column {
		return []column{
			{title: label, width: 100},
			{title: "Works", width: 30, right: true},
			{title: "Total cost", width: 50, right: true},
		}
	}
	for _, part := range []struct {
		title string
		label string
		rows  []model.BreakdownRow
	}{
		{"Completed works by category", "Category", report.Categories},
		{"Completed works by year", "Year", report.Years},
	} {
		if len(part.rows) == 0 {
			continue
		}
		columns := breakdownColumns(part.label)
		ensureSpace(pdf, nil, nil)
		section(pdf, part.title)
		drawHeader(pdf, tr, columns)
		for _, row := range part.rows {
			ensureSpace(pdf, tr, columns)
			drawRow(pdf, tr, columns, []string{row.Label, fmt.Sprintf("%d", row.Count), view.FormatINR(row.TotalCost)})
		}
		pdf.Ln(3)
	}

	if len(report.TopWorks) > 0 {
		columns := []column{
			{title: "Work ID", width: 28},
			{title: "Description", width: 80},
			{title: "Cost", width: 40, right: true},
			{title: "Completed on", width: 32},
		}
		ensureSpace(pdf, nil, nil)
		section(pdf, "Largest completed works")
		drawHeader(pdf, tr, columns)
		for _, work := range report.TopWorks {
			ensureSpace(pdf, tr, columns)
			drawRow(pdf, tr, columns, []string{work.WorkID, work.Description, view.FormatINR(work.Amount()), view.FormatDate(work.Date())})
		}
	}

	return output(pdf)
}

// GenerateStatesReport renders the state comparison: totals, utilization
// insights, the best and worst states and one row per state.
func (g *Generator) GenerateStatesReport(report model.StatesReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(false, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	title := "State-wise MPLADS summary"
	if report.House != "" {
		title += " - " + report.House
	}
	pdf.SetFont(fontName, "B", 16)
	pdf.CellFormat(0, 10, tr(title), "", 1, "C", false, 0, "")
	pdf.SetFont(fontName, "", 10)
	pdf.CellFormat(0, 6, "Generated "+report.GeneratedAt.Format("02 Jan 2006"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	in := report.Insights
	section(pdf, "Summary")
	keyValue(pdf, "States", fmt.Sprintf("%d", in.StateCount))
	keyValue(pdf, "MPs", fmt.Sprintf("%d", in.MPCount))
	keyValue(pdf, "Allocated", view.FormatINRCompact(in.TotalAllocated))
	keyValue(pdf, "Expenditure", view.FormatINRCompact(in.TotalExpenditure))
	keyValue(pdf, "Utilization", view.FormatPercent(in.UtilizationPercentage))
	keyValue(pdf, "Works completed", fmt.Sprintf("%d", in.TotalWorksCompleted))
	keyValue(pdf, "Works recommended", fmt.Sprintf("%d", in.TotalWorksRecommended))
	keyValue(pdf, "Completion rate", view.FormatPercent(in.CompletionRate))
	pdf.Ln(2)

	section(pdf, "Utilization")
	keyValue(pdf, "Average", view.FormatPercent(in.AverageUtilization))
	keyValue(pdf, "Highest", view.FormatPercent(in.HighestUtilization))
	keyValue(pdf, "Lowest", view.FormatPercent(in.LowestUtilization))
	keyValue(pdf, fmt.Sprintf("At least %.0f%%", view.HighUtilizationPercent), fmt.Sprintf("%d states", in.HighUtilizationStates))
	keyValue(pdf, fmt.Sprintf("Below %.0f%%", view.LowUtilizationPercent), fmt.Sprintf("%d states", in.LowUtilizationStates))
	pdf.Ln(2)

	for _, part := range []struct {
		title  string
		states []model.StateSummary
	}{
		{"Top performers", in.TopPerformers},
		{"Needs improvement", in.BottomPerformers},
	} {
		if len(part.states) == 0 {
			continue
		}
		section(pdf, part.title)
		for i, s := range part.states {
			keyValue(pdf, tr(fmt.Sprintf("%d. %s", i+1, s.State)), view.FormatPercent(s.UtilizationPercentage))
		}
		pdf.Ln(2)
	}

	columns := []column{
		{title: "State", width: 50},
		{title: "MPs", width: 14, right: true},
		{title: "Allocated", width: 30, right: true},
		{title: "Expenditure", width: 30, right: true},
		{title: "Utilization", width: 20, right: true},
		{title: "Completed", width: 18, right: true},
		{title: "Recommended", width: 18, right: true},
	}
	ensureSpace(pdf, nil, nil)
	section(pdf, "States")
	drawHeader(pdf, tr, columns)
	for _, s := range report.States {
		ensureSpace(pdf, tr, columns)
		drawRow(pdf, tr, columns, []string{
			s.State,
			fmt.Sprintf("%d", s.MPCount),
			view.FormatINRCompact(s.TotalAllocated),
			view.FormatINRCompact(s.TotalExpenditure),
			view.FormatPercent(s.UtilizationPercentage),
			fmt.Sprintf("%d", s.TotalWorksCompleted),
			fmt.Sprintf("%d", s.RecommendedWorksCount),
		})
	}
	if len(report.States) == 0 {
		pdf.SetFont(fontName, "I", 10)
		pdf.CellFormat(0, rowHeight, "No MPs match the selected house.", "", 1, "L", false, 0, "")
	}

	return output(pdf)
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont(fontName, "B", 12)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
}

func keyValue(pdf *gofpdf.Fpdf, key, value string) {
	pdf.SetFont(fontName, "", 10)
	pdf.CellFormat(45, 6, key, "", 0, "L", false, 0, "")
	pdf.SetFont(fontName, "B", 10)
	pdf.CellFormat(0, 6, value, "", 1, "L", false, 0, "")
}

func drawHeader(pdf *gofpdf.Fpdf, tr func(string) string, columns []column) {
	pdf.SetFont(fontName, "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for _, col := range columns {
		pdf.CellFormat(col.width, rowHeight, tr(col.title), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
}

func drawRow(pdf *gofpdf.Fpdf, tr func(string) string, columns []column, values []string) {
	pdf.SetFont(fontName, "", 9)
	for i, col := range columns {
		align := "L"
		if col.right {
			align = "R"
		}
		pdf.CellFormat(col.width, rowHeight, fit(pdf, tr(values[i]), col.width-2), "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

// ensureSpace starts a new page when the next row would cross the bottom
// margin, repeating the table header when columns are given.
func ensureSpace(pdf *gofpdf.Fpdf, tr func(string) string, columns []column) {
	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	if pdf.GetY()+2*rowHeight <= pageHeight-bottom {
		return
	}
	pdf.AddPage()
	if len(columns) > 0 {
		drawHeader(pdf, tr, columns)
	}
}

// fit cuts already translated single-byte text to one line of the given width.
func fit(pdf *gofpdf.Fpdf, text string, width float64) string {
	text = strings.TrimSpace(text)
	if pdf.GetStringWidth(text) <= width {
		return text
	}
	cut := text
	for len(cut) > 0 && pdf.GetStringWidth(cut+"...") > width {
		cut = cut[:len(cut)-1]
	}
	return strings.TrimSpace(cut) + "..."
}

func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return strings.Join(out, sep)
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
