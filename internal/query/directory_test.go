package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/mplads-works/internal/model"
)

func TestBuildMPsDefaults(t *testing.T) {
	q, err := newTestBuilder().BuildMPs(model.MPFilter{})
	require.NoError(t, err)

	assert.Equal(t, model.MPSortName, q.Filter.Sort)
	assert.Equal(t, 1, q.Filter.Page)
	assert.Equal(t, uint64(20), q.Limit)
	assert.Empty(t, q.Where)

	sql, args, err := q.PageSQL()
	require.NoError(t, err)
	assert.Empty(t, args)
	assert.Contains(t, sql, "FROM mps m LEFT JOIN (SELECT mp_id, COUNT(*) AS works, SUM(cost) AS value FROM works WHERE status = 'completed' GROUP BY mp_id) c ON c.mp_id = m.id")
	assert.Contains(t, sql, "LEFT JOIN (SELECT mp_id, COUNT(*) AS works, SUM(recommended_amount) AS value FROM works WHERE status = 'recommended' GROUP BY mp_id) r ON r.mp_id = m.id")
	assert.NotContains(t, sql, "WHERE (")
	assert.Contains(t, sql, "ORDER BY m.name ASC, m.id ASC LIMIT 20 OFFSET 0")

	count, _, err := q.CountSQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) AS total FROM mps m", count)
}

func TestBuildMPsFilters(t *testing.T) {
	q, err := newTestBuilder().BuildMPs(model.MPFilter{
		State:  " Kerala ",
		House:  "Lok Sabha",
		Search: "50%",
		Sort:   model.MPSortUtilization,
		Page:   3,
		Limit:  10,
	})
	require.NoError(t, err)

	sql, args, err := q.PageSQL()
	require.NoError(t, err)
	assert.Contains(t, sql,
		"WHERE (LOWER(m.state) = LOWER(?) AND LOWER(m.house) = LOWER(?) AND "+
			"(m.name ILIKE ? OR m.constituency ILIKE ? OR m.state ILIKE ?)) "+
			"ORDER BY utilization DESC, m.id ASC LIMIT 10 OFFSET 20")
	assert.Equal(t, []interface{}{"Kerala", "Lok Sabha", `%50\%%`, `%50\%%`, `%50\%%`}, args)

	count, countArgs, err := q.CountSQL()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT COUNT(*) AS total FROM mps m WHERE (LOWER(m.state) = LOWER(?) AND LOWER(m.house) = LOWER(?) AND "+
			"(m.name ILIKE ? OR m.constituency ILIKE ? OR m.state ILIKE ?))",
		count)
	assert.Equal(t, args, countArgs)
}

func TestBuildMPsRejects(t *testing.T) {
	_, err := newTestBuilder().BuildMPs(model.MPFilter{Limit: 500})
	require.ErrorIs(t, err, ErrInvalidFilter)

	_, err = newTestBuilder().BuildMPs(model.MPFilter{Sort: "party"})
	require.ErrorIs(t, err, ErrInvalidFilter)
}

func TestBuildMPsHugePage(t *testing.T) {
	q, err := newTestBuilder().BuildMPs(model.MPFilter{Page: 1 << 62, Limit: 50})
	require.NoError(t, err)
	assert.True(t, q.PastEnd)
}

func TestMPSignature(t *testing.T) {
	b := newTestBuilder()
	q1, err := b.BuildMPs(model.MPFilter{State: "Goa"})
	require.NoError(t, err)
	q2, err := b.BuildMPs(model.MPFilter{State: "goa ", Sort: model.MPSortName, Limit: 20})
	require.NoError(t, err)
	q3, err := b.BuildMPs(model.MPFilter{State: "Goa", Sort: model.MPSortExpenditure})
	require.NoError(t, err)

	assert.Equal(t, q1.Signature(), q2.Signature())
	assert.NotEqual(t, q1.Signature(), q3.Signature())
}

func TestBuildStates(t *testing.T) {
	q, err := newTestBuilder().BuildStates(model.StatesFilter{})
	require.NoError(t, err)
	sql, args, err := q.SQL()
	require.NoError(t, err)
	assert.Empty(t, args)
	assert.Contains(t, sql, "SELECT m.state AS state, COUNT(*) AS mp_count, ")
	assert.Contains(t, sql, "GROUP BY m.state ORDER BY m.state ASC")
	assert.NotContains(t, sql, "LOWER(m.house)")

	q, err = newTestBuilder().BuildStates(model.StatesFilter{House: " Rajya Sabha "})
	require.NoError(t, err)
	sql, args, err = q.SQL()
	require.NoError(t, err)
	assert.Contains(t, sql, "WHERE (LOWER(m.house) = LOWER(?)) GROUP BY m.state")
	assert.Equal(t, []interface{}{"Rajya Sabha"}, args)

	all, _ := newTestBuilder().BuildStates(model.StatesFilter{})
	assert.NotEqual(t, all.Signature(), q.Signature())
}
