package query

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/mplads-works/internal/model"
)

func ptr[T any](v T) *T { return &v }

func newTestBuilder() *Builder {
	return NewBuilder(Limits{DefaultLimit: 20, MaxLimit: 100})
}

func TestBuildDefaults(t *testing.T) {
	q, err := newTestBuilder().Build(model.FilterSet{})
	require.NoError(t, err)

	assert.Equal(t, 1, q.Filter.Page)
	assert.Equal(t, 20, q.Filter.Limit)
	assert.Equal(t, model.WorkStatusCompleted, q.Filter.Status)
	assert.Equal(t, uint64(0), q.Offset)
	assert.Equal(t, uint64(20), q.Limit)
	assert.Equal(t, []string{"w.completed_date DESC NULLS LAST", "w.work_id ASC"}, q.OrderBy)

	where, args, err := q.Where.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "(w.status = ?)", where)
	assert.Equal(t, []interface{}{"completed"}, args)
}

func TestBuildClampsPaging(t *testing.T) {
	q, err := newTestBuilder().Build(model.FilterSet{Page: -3, Limit: -1})
	require.NoError(t, err)
	assert.Equal(t, 1, q.Filter.Page)
	assert.Equal(t, 1, q.Filter.Limit)

	q, err = newTestBuilder().Build(model.FilterSet{Page: 4, Limit: 25})
	require.NoError(t, err)
	assert.Equal(t, uint64(75), q.Offset)
	assert.Equal(t, uint64(25), q.Limit)
}

func TestBuildHugePageIsPastEnd(t *testing.T) {
	b := newTestBuilder()

	q, err := b.Build(model.FilterSet{Page: 1<<62 + 1, Limit: 4})
	require.NoError(t, err)
	assert.True(t, q.PastEnd)
	assert.Equal(t, uint64(math.MaxInt64), q.Offset)
	sql, _, err := q.PageSQL("w.id")
	require.NoError(t, err)
	assert.Contains(t, sql, "LIMIT 4 OFFSET 9223372036854775807")

	q, err = b.Build(model.FilterSet{Page: 1 << 62, Limit: 100})
	require.NoError(t, err)
	assert.True(t, q.PastEnd)
	assert.LessOrEqual(t, q.Offset, uint64(math.MaxInt64))

	// largest page whose offset still fits
	last := math.MaxInt64/100 + 1
	q, err = b.Build(model.FilterSet{Page: last, Limit: 100})
	require.NoError(t, err)
	assert.False(t, q.PastEnd)
	assert.Equal(t, uint64(last-1)*100, q.Offset)

	q, err = b.Build(model.FilterSet{Page: last + 1, Limit: 100})
	require.NoError(t, err)
	assert.True(t, q.PastEnd)
}

func TestBuildInvalidFilter(t *testing.T) {
	cases := map[string]model.FilterSet{
		"cost range":     {MinCost: ptr(500.0), MaxCost: ptr(100.0)},
		"short year":     {Year: "24"},
		"alpha year":     {Year: "20x4"},
		"five digits":    {Year: "20245"},
		"limit too high": {Limit: 101},
		"negative cost":  {MinCost: ptr(-1.0)},
		"unknown status": {Status: "archived"},
	}
	for name, filter := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := newTestBuilder().Build(filter)
			require.ErrorIs(t, err, ErrInvalidFilter)
		})
	}
}

func TestBuildMinGreaterThanMaxAlwaysInvalid(t *testing.T) {
	b := newTestBuilder()
	for _, pair := range [][2]float64{{1, 0}, {100.5, 100.4}, {5e7, 1}, {0.02, 0.01}} {
		_, err := b.Build(model.FilterSet{MinCost: ptr(pair[0]), MaxCost: ptr(pair[1])})
		require.ErrorIs(t, err, ErrInvalidFilter, "min=%v max=%v", pair[0], pair[1])
	}
	_, err := b.Build(model.FilterSet{MinCost: ptr(10.0), MaxCost: ptr(10.0)})
	require.NoError(t, err)
}

func TestBuildRecommendedFilters(t *testing.T) {
	q, err := newTestBuilder().Build(model.FilterSet{
		MPID:        "mp-1",
		State:       " Maharashtra ",
		Search:      "road",
		Year:        "2023",
		MinCost:     ptr(1000.0),
		MaxCost:     ptr(5000.0),
		HasPayments: ptr(true),
		Status:      model.WorkStatusRecommended,
	})
	require.NoError(t, err)

	where, args, err := q.Where.ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"(w.status = ? AND w.mp_id = ? AND LOWER(w.state) = LOWER(?) AND "+
			"(w.description ILIKE ? OR w.category ILIKE ? OR w.mp_name ILIKE ?) AND "+
			"EXTRACT(YEAR FROM w.recommendation_date) = ? AND "+
			"w.recommended_amount >= ? AND w.recommended_amount <= ? AND "+
			"EXISTS (SELECT 1 FROM work_payments p WHERE p.work_pk = w.id))",
		where)
	assert.Equal(t, []interface{}{
		"recommended", "mp-1", "Maharashtra",
		"%road%", "%road%", "%road%",
		2023, 1000.0, 5000.0,
	}, args)
	assert.Equal(t, []string{"w.recommendation_date DESC NULLS LAST", "w.work_id ASC"}, q.OrderBy)
}

func TestBuildWithoutPaymentsUsesNotExists(t *testing.T) {
	q, err := newTestBuilder().Build(model.FilterSet{HasPayments: ptr(false), Status: model.WorkStatusRecommended})
	require.NoError(t, err)
	where, _, err := q.Where.ToSql()
	require.NoError(t, err)
	assert.Contains(t, where, "NOT EXISTS (SELECT 1 FROM work_payments p WHERE p.work_pk = w.id)")
}

func TestBuildIgnoresPaymentsForCompleted(t *testing.T) {
	q, err := newTestBuilder().Build(model.FilterSet{HasPayments: ptr(false)})
	require.NoError(t, err)
	where, _, err := q.Where.ToSql()
	require.NoError(t, err)
	assert.NotContains(t, where, "work_payments")
}

func TestBuildBlankSearchImposesNothing(t *testing.T) {
	q, err := newTestBuilder().Build(model.FilterSet{Search: "   \t"})
	require.NoError(t, err)
	where, _, err := q.Where.ToSql()
	require.NoError(t, err)
	assert.NotContains(t, where, "ILIKE")
}

func TestBuildEscapesLikeWildcards(t *testing.T) {
	q, err := newTestBuilder().Build(model.FilterSet{Search: "100%_done"})
	require.NoError(t, err)
	_, args, err := q.Where.ToSql()
	require.NoError(t, err)
	assert.Equal(t, `%100\%\_done%`, args[1])
}

func TestPageAndAggregateShareThePredicate(t *testing.T) {
	q, err := newTestBuilder().Build(model.FilterSet{State: "Kerala", Page: 2, Limit: 10})
	require.NoError(t, err)

	pageSQL, pageArgs, err := q.PageSQL("w.id", "w.work_id")
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT w.id, w.work_id FROM works w WHERE (w.status = ? AND LOWER(w.state) = LOWER(?)) "+
			"ORDER BY w.completed_date DESC NULLS LAST, w.work_id ASC LIMIT 10 OFFSET 10",
		pageSQL)

	aggSQL, aggArgs, err := q.AggregateSQL()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT COUNT(*) AS total_works, COALESCE(SUM(w.cost), 0) AS total_cost FROM works w "+
			"WHERE (w.status = ? AND LOWER(w.state) = LOWER(?))",
		aggSQL)
	assert.Equal(t, pageArgs, aggArgs)
}

func TestBuildExportIgnoresMaxLimit(t *testing.T) {
	q, err := newTestBuilder().BuildExport(model.FilterSet{Page: 7, Limit: 5}, 5000)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), q.Offset)
	assert.Equal(t, uint64(5000), q.Limit)

	_, err = newTestBuilder().BuildExport(model.FilterSet{Year: "99"}, 5000)
	require.ErrorIs(t, err, ErrInvalidFilter)
}

func TestSignature(t *testing.T) {
	b := newTestBuilder()
	q1, err := b.Build(model.FilterSet{State: "Goa", Search: "Road"})
	require.NoError(t, err)
	q2, err := b.Build(model.FilterSet{State: " goa", Search: "road ", Page: 1, Limit: 20})
	require.NoError(t, err)
	q3, err := b.Build(model.FilterSet{State: "Goa", Search: "Road", Page: 2})
	require.NoError(t, err)

	assert.Equal(t, q1.Signature(), q2.Signature())
	assert.NotEqual(t, q1.Signature(), q3.Signature())
	assert.Len(t, q1.Signature(), 16)

	// pages past the addressable offset share an offset but not a signature
	far1, err := b.Build(model.FilterSet{State: "Goa", Page: 1 << 62})
	require.NoError(t, err)
	far2, err := b.Build(model.FilterSet{State: "Goa", Page: 1<<62 + 1})
	require.NoError(t, err)
	assert.Equal(t, far1.Offset, far2.Offset)
	assert.NotEqual(t, far1.Signature(), far2.Signature())
}
