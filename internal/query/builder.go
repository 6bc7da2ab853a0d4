package query

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/cespare/xxhash/v2"

	"github.com/nurpe/mplads-works/internal/model"
)

var ErrInvalidFilter = errors.New("invalid filter")

const worksTable = "works w"

var yearPattern = regexp.MustCompile(`^[0-9]{4}$`)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type Limits struct {
	DefaultLimit int
	MaxLimit     int
}

type Builder struct {
	limits Limits
}

func NewBuilder(limits Limits) *Builder {
	if limits.DefaultLimit < 1 {
		limits.DefaultLimit = model.DefaultLimit
	}
	if limits.MaxLimit < limits.DefaultLimit {
		limits.MaxLimit = limits.DefaultLimit
	}
	return &Builder{limits: limits}
}

func (b *Builder) Limits() Limits {
	return b.limits
}

// Query is a normalized works query: one predicate shared by the page read
// and the aggregate read. PastEnd is set when the page starts beyond any
// offset the store can address; such a page is empty.
type Query struct {
	Filter  model.FilterSet
	Where   sq.Sqlizer
	OrderBy []string
	Offset  uint64
	Limit   uint64
	PastEnd bool
}

func (b *Builder) Build(filter model.FilterSet) (Query, error) {
	f := filter.Normalized(b.limits.DefaultLimit)
	if f.Limit > b.limits.MaxLimit {
		return Query{}, fmt.Errorf("%w: limit must not exceed %d", ErrInvalidFilter, b.limits.MaxLimit)
	}
	return b.build(f)
}

// BuildExport returns the first maxRows rows of the filtered set. The page
// and limit of filter are ignored and the response-size limit does not apply.
func (b *Builder) BuildExport(filter model.FilterSet, maxRows int) (Query, error) {
	if maxRows < 1 {
		return Query{}, fmt.Errorf("%w: export size must be positive", ErrInvalidFilter)
	}
	filter.Page = 1
	filter.Limit = maxRows
	return b.build(filter.Normalized(b.limits.DefaultLimit))
}

func (b *Builder) build(f model.FilterSet) (Query, error) {
	if err := validate(f); err != nil {
		return Query{}, err
	}

	amountCol := "w." + f.Status.AmountColumn()
	dateCol := "w." + f.Status.DateColumn()

	where := sq.And{sq.Eq{"w.status": string(f.Status)}}
	if f.MPID != "" {
		where = append(where, sq.Eq{"w.mp_id": f.MPID})
	}
	if f.State != "" {
		where = append(where, sq.Expr("LOWER(w.state) = LOWER(?)", f.State))
	}
	if f.Constituency != "" {
		where = append(where, sq.Expr("LOWER(w.constituency) = LOWER(?)", f.Constituency))
	}
	if f.House != "" {
		where = append(where, sq.Expr("LOWER(w.house) = LOWER(?)", f.House))
	}
	if f.Search != "" {
		pattern := "%" + likeEscaper.Replace(f.Search) + "%"
		where = append(where, sq.Or{
			sq.ILike{"w.description": pattern},
			sq.ILike{"w.category": pattern},
			sq.ILike{"w.mp_name": pattern},
		})
	}
	if f.Year != "" {
		year, _ := strconv.Atoi(f.Year)
		where = append(where, sq.Expr(fmt.Sprintf("EXTRACT(YEAR FROM %s) = ?", dateCol), year))
	}
	if f.MinCost != nil {
		where = append(where, sq.GtOrEq{amountCol: *f.MinCost})
	}
	if f.MaxCost != nil {
		where = append(where, sq.LtOrEq{amountCol: *f.MaxCost})
	}
	// completed works always carry payments
	if f.HasPayments != nil && f.Status != model.WorkStatusCompleted {
		if *f.HasPayments {
			where = append(where, sq.Expr("EXISTS (SELECT 1 FROM work_payments p WHERE p.work_pk = w.id)"))
		} else {
			where = append(where, sq.Expr("NOT EXISTS (SELECT 1 FROM work_payments p WHERE p.work_pk = w.id)"))
		}
	}

	offset, ok := pageOffset(f.Page, f.Limit)
	return Query{
		Filter:  f,
		Where:   where,
		OrderBy: []string{dateCol + " DESC NULLS LAST", "w.work_id ASC"},
		Offset:  offset,
		Limit:   uint64(f.Limit),
		PastEnd: !ok,
	}, nil
}

// pageOffset converts a 1-based page into a row offset. When the offset
// would overflow a bigint it returns math.MaxInt64 and false.
func pageOffset(page, limit int) (uint64, bool) {
	skipped := uint64(page - 1)
	if skipped > math.MaxInt64/uint64(limit) {
		return math.MaxInt64, false
	}
	return skipped * uint64(limit), true
}

func validate(f model.FilterSet) error {
	if f.Year != "" && !yearPattern.MatchString(f.Year) {
		return fmt.Errorf("%w: year must be a 4-digit value", ErrInvalidFilter)
	}
	if f.MinCost != nil && *f.MinCost < 0 {
		return fmt.Errorf("%w: min_cost must not be negative", ErrInvalidFilter)
	}
	if f.MaxCost != nil && *f.MaxCost < 0 {
		return fmt.Errorf("%w: max_cost must not be negative", ErrInvalidFilter)
	}
	if f.MinCost != nil && f.MaxCost != nil && *f.MinCost > *f.MaxCost {
		return fmt.Errorf("%w: min_cost must be less than or equal to max_cost", ErrInvalidFilter)
	}
	if _, ok := model.ParseWorkStatus(string(f.Status)); !ok {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidFilter, f.Status)
	}
	return nil
}

// PageSQL selects one page of the given columns.
func (q Query) PageSQL(columns ...string) (string, []interface{}, error) {
	return sq.Select(columns...).
		From(worksTable).
		Where(q.Where).
		OrderBy(q.OrderBy...).
		Offset(q.Offset).
		Limit(q.Limit).
		ToSql()
}

// AggregateSQL counts and sums the whole filtered set.
func (q Query) AggregateSQL() (string, []interface{}, error) {
	return sq.Select(
		"COUNT(*) AS total_works",
		fmt.Sprintf("COALESCE(SUM(w.%s), 0) AS total_cost", q.Filter.Status.AmountColumn()),
	).
		From(worksTable).
		Where(q.Where).
		ToSql()
}

// Signature identifies the query for caching. Equal normalized filters
// produce equal signatures.
func (q Query) Signature() string {
	f := q.Filter
	var b strings.Builder
	fmt.Fprintf(&b, "st=%s|state=%s|pc=%s|house=%s|mp=%s|q=%s|y=%s",
		f.Status,
		strings.ToLower(f.State),
		strings.ToLower(f.Constituency),
		strings.ToLower(f.House),
		f.MPID,
		strings.ToLower(f.Search),
		f.Year,
	)
	if f.MinCost != nil {
		fmt.Fprintf(&b, "|min=%g", *f.MinCost)
	}
	if f.MaxCost != nil {
		fmt.Fprintf(&b, "|max=%g", *f.MaxCost)
	}
	if f.HasPayments != nil {
		fmt.Fprintf(&b, "|pay=%t", *f.HasPayments)
	}
	fmt.Fprintf(&b, "|page=%d|lim=%d", f.Page, q.Limit)
	return fmt.Sprintf("%016x", xxhash.Sum64String(b.String()))
}
