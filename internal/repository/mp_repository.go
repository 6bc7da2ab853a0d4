package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/nurpe/mplads-works/internal/model"
	"github.com/nurpe/mplads-works/internal/query"
)

type MPRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewMPRepository(db *gorm.DB, timeout time.Duration) *MPRepository {
	return &MPRepository{db: db, timeout: timeout}
}

func (r *MPRepository) GetMP(ctx context.Context, id string) (*model.MP, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var row struct {
		ID               string  `gorm:"column:id"`
		Name             string  `gorm:"column:name"`
		Constituency     string  `gorm:"column:constituency"`
		State            string  `gorm:"column:state"`
		House            string  `gorm:"column:house"`
		Party            string  `gorm:"column:party"`
		AllocatedAmount  float64 `gorm:"column:allocated_amount"`
		TotalExpenditure float64 `gorm:"column:total_expenditure"`
	}
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, name, constituency, state, house,
			COALESCE(party, '') AS party,
			allocated_amount,
			total_expenditure
		FROM mps
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == "" {
		return nil, gorm.ErrRecordNotFound
	}
	return &model.MP{
		ID:               row.ID,
		Name:             row.Name,
		Constituency:     row.Constituency,
		State:            row.State,
		House:            row.House,
		Party:            row.Party,
		AllocatedAmount:  row.AllocatedAmount,
		TotalExpenditure: row.TotalExpenditure,
	}, nil
}

// GetMPSummary returns the precomputed summary, or nil when none exists.
func (r *MPRepository) GetMPSummary(ctx context.Context, mpID string, status model.WorkStatus) (*model.MPSummary, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var row struct {
		MPID        string    `gorm:"column:mp_id"`
		Status      string    `gorm:"column:status"`
		TotalWorks  int64     `gorm:"column:total_works"`
		TotalCost   float64   `gorm:"column:total_cost"`
		RefreshedAt time.Time `gorm:"column:refreshed_at"`
	}
	if err := r.db.WithContext(ctx).Raw(`
		SELECT mp_id, status, total_works, total_cost, refreshed_at
		FROM mp_work_summaries
		WHERE mp_id = ? AND status = ?
		LIMIT 1
	`, mpID, string(status)).Scan(&row).Error; err != nil {
		return nil, err
	}
	if row.MPID == "" {
		return nil, nil
	}
	return &model.MPSummary{
		MPID:        row.MPID,
		Status:      model.WorkStatus(row.Status),
		TotalWorks:  row.TotalWorks,
		TotalCost:   row.TotalCost,
		RefreshedAt: row.RefreshedAt,
	}, nil
}

type mpStandingRow struct {
	ID               string  `gorm:"column:id"`
	Name             string  `gorm:"column:name"`
	Constituency     string  `gorm:"column:constituency"`
	State            string  `gorm:"column:state"`
	House            string  `gorm:"column:house"`
	Party            string  `gorm:"column:party"`
	AllocatedAmount  float64 `gorm:"column:allocated_amount"`
	TotalExpenditure float64 `gorm:"column:total_expenditure"`
	Utilization      float64 `gorm:"column:utilization"`
	CompletedWorks   int64   `gorm:"column:completed_works"`
	CompletedValue   float64 `gorm:"column:completed_value"`
	RecommendedWorks int64   `gorm:"column:recommended_works"`
	RecommendedValue float64 `gorm:"column:recommended_value"`
}

// ListMPs returns one directory page with per-status work totals.
func (r *MPRepository) ListMPs(ctx context.Context, q query.MPQuery) ([]model.MPStanding, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	sql, args, err := q.PageSQL()
	if err != nil {
		return nil, err
	}

	var rows []mpStandingRow
	if err := r.db.WithContext(ctx).Raw(sql, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]model.MPStanding, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.MPStanding{
			ID:                    row.ID,
			Name:                  row.Name,
			Constituency:          row.Constituency,
			State:                 row.State,
			House:                 row.House,
			Party:                 row.Party,
			AllocatedAmount:       row.AllocatedAmount,
			TotalExpenditure:      row.TotalExpenditure,
			UtilizationPercentage: row.Utilization,
			CompletedWorksCount:   row.CompletedWorks,
			CompletedWorksValue:   row.CompletedValue,
			RecommendedWorksCount: row.RecommendedWorks,
			RecommendedWorksValue: row.RecommendedValue,
		})
	}
	return out, nil
}

func (r *MPRepository) CountMPs(ctx context.Context, q query.MPQuery) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	sql, args, err := q.CountSQL()
	if err != nil {
		return 0, err
	}

	var total int64
	if err := r.db.WithContext(ctx).Raw(sql, args...).Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// ListStates groups MPs by state. Utilization is left for the caller.
func (r *MPRepository) ListStates(ctx context.Context, q query.StatesQuery) ([]model.StateSummary, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	sql, args, err := q.SQL()
	if err != nil {
		return nil, err
	}

	var rows []struct {
		State            string  `gorm:"column:state"`
		MPCount          int64   `gorm:"column:mp_count"`
		TotalAllocated   float64 `gorm:"column:total_allocated"`
		TotalExpenditure float64 `gorm:"column:total_expenditure"`
		CompletedWorks   int64   `gorm:"column:completed_works"`
		CompletedValue   float64 `gorm:"column:completed_value"`
		RecommendedWorks int64   `gorm:"column:recommended_works"`
	}
	if err := r.db.WithContext(ctx).Raw(sql, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]model.StateSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.StateSummary{
			State:                 row.State,
			MPCount:               row.MPCount,
			TotalAllocated:        row.TotalAllocated,
			TotalExpenditure:      row.TotalExpenditure,
			TotalWorksCompleted:   row.CompletedWorks,
			CompletedWorksValue:   row.CompletedValue,
			RecommendedWorksCount: row.RecommendedWorks,
		})
	}
	return out, nil
}

func (r *MPRepository) Ping(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
