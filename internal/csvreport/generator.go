package csvreport

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/nurpe/mplads-works/internal/model"
	"github.com/nurpe/mplads-works/internal/view"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// GenerateWorks writes one header row and one row per work. Amounts are
// plain decimals so spreadsheets can sum them.
func (g *Generator) GenerateWorks(report model.WorksReport) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"work_id",
		"status",
		"description",
		"category",
		"mp",
		"constituency",
		"state",
		"house",
		view.AmountLabel(report.Kind),
		view.DateLabel(report.Kind),
		"payments",
		"total_paid",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, work := range report.Works {
		date := ""
		if d := work.Date(); d != nil {
			date = d.Format("2006-01-02")
		}
		record := []string{
			work.WorkID,
			string(work.Status),
			work.Description,
			work.Category,
			work.MP.Name,
			work.MP.Constituency,
			work.MP.State,
			work.MP.House,
			strconv.FormatFloat(work.Amount(), 'f', 2, 64),
			date,
			strconv.Itoa(work.PaymentCount),
			strconv.FormatFloat(work.TotalPaid, 'f', 2, 64),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
