package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/nurpe/mplads-works/internal/model"
	"github.com/nurpe/mplads-works/internal/query"
)

var workColumns = []string{
	"w.id",
	"w.work_id",
	"w.status",
	"w.description",
	"w.category",
	"w.cost",
	"w.recommended_amount",
	"w.final_amount",
	"w.mp_id",
	"w.mp_name",
	"w.constituency",
	"w.state",
	"w.house",
	"w.recommendation_date",
	"w.completed_date",
}

type workRow struct {
	ID                 int64      `gorm:"column:id"`
	WorkID             string     `gorm:"column:work_id"`
	Status             string     `gorm:"column:status"`
	Description        string     `gorm:"column:description"`
	Category           string     `gorm:"column:category"`
	Cost               float64    `gorm:"column:cost"`
	RecommendedAmount  float64    `gorm:"column:recommended_amount"`
	FinalAmount        *float64   `gorm:"column:final_amount"`
	MPID               string     `gorm:"column:mp_id"`
	MPName             string     `gorm:"column:mp_name"`
	Constituency       string     `gorm:"column:constituency"`
	State              string     `gorm:"column:state"`
	House              string     `gorm:"column:house"`
	RecommendationDate *time.Time `gorm:"column:recommendation_date"`
	CompletedDate      *time.Time `gorm:"column:completed_date"`
}

type paymentRow struct {
	WorkPK int64     `gorm:"column:work_pk"`
	Amount float64   `gorm:"column:amount"`
	PaidAt time.Time `gorm:"column:paid_at"`
}

type WorksRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewWorksRepository(db *gorm.DB, timeout time.Duration) *WorksRepository {
	return &WorksRepository{db: db, timeout: timeout}
}

// ListWorks returns one page of works matching q, payments attached.
func (r *WorksRepository) ListWorks(ctx context.Context, q query.Query) ([]model.Work, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	sql, args, err := q.PageSQL(workColumns...)
	if err != nil {
		return nil, err
	}

	var rows []workRow
	if err := r.db.WithContext(ctx).Raw(sql, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return r.toWorks(ctx, rows)
}

// AggregateWorks counts and sums the full filtered set of q, ignoring paging.
func (r *WorksRepository) AggregateWorks(ctx context.Context, q query.Query) (model.Summary, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	sql, args, err := q.AggregateSQL()
	if err != nil {
		return model.Summary{}, err
	}

	var row struct {
		TotalWorks int64   `gorm:"column:total_works"`
		TotalCost  float64 `gorm:"column:total_cost"`
	}
	if err := r.db.WithContext(ctx).Raw(sql, args...).Scan(&row).Error; err != nil {
		return model.Summary{}, err
	}
	return model.Summary{TotalWorks: row.TotalWorks, TotalCost: row.TotalCost}, nil
}

// FindWorksByIDs returns the works of one status whose work_id is in workIDs.
// An empty mpID searches across all MPs.
func (r *WorksRepository) FindWorksByIDs(
	ctx context.Context,
	status model.WorkStatus,
	mpID string,
	workIDs []string,
) ([]model.Work, error) {
	if len(workIDs) == 0 {
		return []model.Work{}, nil
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	tx := r.db.WithContext(ctx).
		Table("works w").
		Select(workColumns).
		Where("w.status = ? AND w.work_id IN ?", string(status), workIDs)
	if mpID != "" {
		tx = tx.Where("w.mp_id = ?", mpID)
	}

	var rows []workRow
	if err := tx.Order("w.work_id ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return r.toWorks(ctx, rows)
}

func (r *WorksRepository) toWorks(ctx context.Context, rows []workRow) ([]model.Work, error) {
	works := make([]model.Work, 0, len(rows))
	if len(rows) == 0 {
		return works, nil
	}

	pks := make([]int64, 0, len(rows))
	for _, row := range rows {
		pks = append(pks, row.ID)
	}

	var payments []paymentRow
	if err := r.db.WithContext(ctx).Raw(`
		SELECT work_pk, amount, paid_at
		FROM work_payments
		WHERE work_pk IN ?
		ORDER BY paid_at ASC, id ASC
	`, pks).Scan(&payments).Error; err != nil {
		return nil, err
	}

	byWork := make(map[int64][]model.Payment, len(rows))
	for _, p := range payments {
		byWork[p.WorkPK] = append(byWork[p.WorkPK], model.Payment{Amount: p.Amount, Date: p.PaidAt})
	}

	for _, row := range rows {
		work := model.Work{
			PK:                 row.ID,
			WorkID:             row.WorkID,
			Status:             model.WorkStatus(row.Status),
			Description:        row.Description,
			Category:           row.Category,
			Cost:               row.Cost,
			RecommendedAmount:  row.RecommendedAmount,
			FinalAmount:        row.FinalAmount,
			RecommendationDate: row.RecommendationDate,
			CompletedDate:      row.CompletedDate,
			MP: model.MPReference{
				ID:           row.MPID,
				Name:         row.MPName,
				Constituency: row.Constituency,
				State:        row.State,
				House:        row.House,
			},
			Payments: byWork[row.ID],
		}
		work.DerivePayments()
		works = append(works, work)
	}
	return works, nil
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
