package query

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/cespare/xxhash/v2"

	"github.com/nurpe/mplads-works/internal/model"
)

const (
	mpsTable = "mps m"

	completedTotalsJoin   = "(SELECT mp_id, COUNT(*) AS works, SUM(cost) AS value FROM works WHERE status = 'completed' GROUP BY mp_id) c ON c.mp_id = m.id"
	recommendedTotalsJoin = "(SELECT mp_id, COUNT(*) AS works, SUM(recommended_amount) AS value FROM works WHERE status = 'recommended' GROUP BY mp_id) r ON r.mp_id = m.id"

	utilizationExpr = "CASE WHEN m.allocated_amount > 0 THEN m.total_expenditure / m.allocated_amount * 100 ELSE 0 END"
)

var mpColumns = []string{
	"m.id",
	"m.name",
	"m.constituency",
	"m.state",
	"m.house",
	"COALESCE(m.party, '') AS party",
	"m.allocated_amount",
	"m.total_expenditure",
	utilizationExpr + " AS utilization",
	"COALESCE(c.works, 0) AS completed_works",
	"COALESCE(c.value, 0) AS completed_value",
	"COALESCE(r.works, 0) AS recommended_works",
	"COALESCE(r.value, 0) AS recommended_value",
}

var mpOrder = map[model.MPSort][]string{
	model.MPSortName:        {"m.name ASC", "m.id ASC"},
	model.MPSortUtilization: {"utilization DESC", "m.id ASC"},
	model.MPSortExpenditure: {"m.total_expenditure DESC", "m.id ASC"},
}

// MPQuery is a normalized MP directory query. The page read and the count
// share Where.
type MPQuery struct {
	Filter  model.MPFilter
	Where   sq.And
	OrderBy []string
	Offset  uint64
	Limit   uint64
	PastEnd bool
}

func (b *Builder) BuildMPs(filter model.MPFilter) (MPQuery, error) {
	f := filter.Normalized(b.limits.DefaultLimit)
	if f.Limit > b.limits.MaxLimit {
		return MPQuery{}, fmt.Errorf("%w: limit must not exceed %d", ErrInvalidFilter, b.limits.MaxLimit)
	}
	order, ok := mpOrder[f.Sort]
	if !ok {
		return MPQuery{}, fmt.Errorf("%w: unknown sort %q", ErrInvalidFilter, f.Sort)
	}

	where := sq.And{}
	if f.State != "" {
		where = append(where, sq.Expr("LOWER(m.state) = LOWER(?)", f.State))
	}
	if f.Constituency != "" {
		where = append(where, sq.Expr("LOWER(m.constituency) = LOWER(?)", f.Constituency))
	}
	if f.House != "" {
		where = append(where, sq.Expr("LOWER(m.house) = LOWER(?)", f.House))
	}
	if f.Search != "" {
		pattern := "%" + likeEscaper.Replace(f.Search) + "%"
		where = append(where, sq.Or{
			sq.ILike{"m.name": pattern},
			sq.ILike{"m.constituency": pattern},
			sq.ILike{"m.state": pattern},
		})
	}

	offset, ok := pageOffset(f.Page, f.Limit)
	return MPQuery{
		Filter:  f,
		Where:   where,
		OrderBy: order,
		Offset:  offset,
		Limit:   uint64(f.Limit),
		PastEnd: !ok,
	}, nil
}

func (q MPQuery) PageSQL() (string, []interface{}, error) {
	builder := sq.Select(mpColumns...).
		From(mpsTable).
		LeftJoin(completedTotalsJoin).
		LeftJoin(recommendedTotalsJoin)
	if len(q.Where) > 0 {
		builder = builder.Where(q.Where)
	}
	return builder.
		OrderBy(q.OrderBy...).
		Offset(q.Offset).
		Limit(q.Limit).
		ToSql()
}

func (q MPQuery) CountSQL() (string, []interface{}, error) {
	builder := sq.Select("COUNT(*) AS total").From(mpsTable)
	if len(q.Where) > 0 {
		builder = builder.Where(q.Where)
	}
	return builder.ToSql()
}

func (q MPQuery) Signature() string {
	f := q.Filter
	key := fmt.Sprintf("state=%s|pc=%s|house=%s|q=%s|sort=%s|page=%d|lim=%d",
		strings.ToLower(f.State),
		strings.ToLower(f.Constituency),
		strings.ToLower(f.House),
		strings.ToLower(f.Search),
		f.Sort,
		f.Page,
		q.Limit,
	)
	return fmt.Sprintf("%016x", xxhash.Sum64String(key))
}

// StatesQuery groups MPs and their works by state.
type StatesQuery struct {
	Filter model.StatesFilter
	Where  sq.And
}

func (b *Builder) BuildStates(filter model.StatesFilter) (StatesQuery, error) {
	filter.House = strings.TrimSpace(filter.House)
	where := sq.And{}
	if filter.House != "" {
		where = append(where, sq.Expr("LOWER(m.house) = LOWER(?)", filter.House))
	}
	return StatesQuery{Filter: filter, Where: where}, nil
}

func (q StatesQuery) SQL() (string, []interface{}, error) {
	builder := sq.Select(
		"m.state AS state",
		"COUNT(*) AS mp_count",
		"COALESCE(SUM(m.allocated_amount), 0) AS total_allocated",
		"COALESCE(SUM(m.total_expenditure), 0) AS total_expenditure",
		"CAST(COALESCE(SUM(c.works), 0) AS BIGINT) AS completed_works",
		"COALESCE(SUM(c.value), 0) AS completed_value",
		"CAST(COALESCE(SUM(r.works), 0) AS BIGINT) AS recommended_works",
	).
		From(mpsTable).
		LeftJoin(completedTotalsJoin).
		LeftJoin(recommendedTotalsJoin)
	if len(q.Where) > 0 {
		builder = builder.Where(q.Where)
	}
	return builder.
		GroupBy("m.state").
		OrderBy("m.state ASC").
		ToSql()
}

func (q StatesQuery) Signature() string {
	return fmt.Sprintf("%016x", xxhash.Sum64String("house="+strings.ToLower(q.Filter.House)))
}
