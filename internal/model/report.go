package model

import "time"

type ReportFormat string

const (
	ReportFormatCSV  ReportFormat = "csv"
	ReportFormatXLSX ReportFormat = "xlsx"
	ReportFormatPDF  ReportFormat = "pdf"
)

// WorksReport is a filtered works list ready to be rendered as a document.
type WorksReport struct {
	Title       string
	Kind        ResultKind
	Filter      FilterSet
	GeneratedAt time.Time
	Summary     Summary
	Truncated   bool
	Works       []Work
}

type BreakdownRow struct {
	Label     string
	Count     int64
	TotalCost float64
}

// MPReport is the per-MP detail document.
type MPReport struct {
	MP                 MP
	GeneratedAt        time.Time
	UtilizationPercent float64
	CompletionPercent  float64
	Completed          Summary
	Recommended        Summary
	Categories         []BreakdownRow
	Years              []BreakdownRow
	TopWorks           []Work
}

// StatesReport is the state comparison document.
type StatesReport struct {
	House       string
	GeneratedAt time.Time
	States      []StateSummary
	Insights    StatesInsights
}
