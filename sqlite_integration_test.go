package datamodel_test

import (
	"database/sql"
	"testing"
	"time"

	"github.com/NachosDevs/datamodel"
	"github.com/NachosDevs/datamodel/driver"
	"github.com/NachosDevs/datamodel/schema"
	"github.com/NachosDevs/datamodel/sqlgen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openEmployeeDB seeds an in-memory SQLite database and wraps it in the
// driver adapter. The pool is capped at one connection so the in-memory
// database survives across statements.
func openEmployeeDB(t *testing.T) *driver.SQL {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE T_Employee (
		emp_id  INTEGER PRIMARY KEY,
		name    TEXT NOT NULL,
		dpt_id  INTEGER NOT NULL,
		d_begin TEXT
	)`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO T_Employee (emp_id, name, dpt_id, d_begin) VALUES
		(1, 'Alice', 10, '2020-01-15'),
		(2, 'Bob',   10, '2021-06-01'),
		(3, 'Carol', 20, '2022-03-10')`)
	require.NoError(t, err)

	return driver.NewSQL("sqlite", db)
}

func TestSQLite_SelectRows(t *testing.T) {
	drv := openEmployeeDB(t)
	s := schema.New("sqlite", drv)
	emp := s.Table("Employee", "T_Employee", "emp_id")

	got, err := datamodel.Select(emp, datamodel.Args{
		datamodel.Where:   sqlgen.Eq("dpt_id", 10),
		datamodel.OrderBy: []string{"name"},
	})
	require.NoError(t, err)

	rows, ok := got.([]*datamodel.Row)
	require.True(t, ok)
	require.Len(t, rows, 2)
	assert.Equal(t, "Alice", rows[0].Get("name"))
	assert.Equal(t, "Bob", rows[1].Get("name"))
	assert.Equal(t, int64(2), rows[1].Get("emp_id"))
}

func TestSQLite_FetchRow(t *testing.T) {
	drv := openEmployeeDB(t)
	s := schema.New("sqlite", drv)
	emp := s.Table("Employee", "T_Employee", "emp_id")

	row, err := datamodel.FetchRow(emp, 2)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "Bob", row.Get("name"))

	missing, err := datamodel.FetchRow(emp, 99)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSQLite_FirstRowShape(t *testing.T) {
	drv := openEmployeeDB(t)
	s := schema.New("sqlite", drv)
	emp := s.Table("Employee", "T_Employee", "emp_id")

	got, err := datamodel.Select(emp, datamodel.Args{
		datamodel.Where:    sqlgen.Eq("emp_id", 3),
		datamodel.ResultAs: "firstrow",
	})
	require.NoError(t, err)

	row, ok := got.(*datamodel.Row)
	require.True(t, ok)
	assert.Equal(t, "Carol", row.Get("name"))
}

func TestSQLite_FlatArrayShape(t *testing.T) {
	drv := openEmployeeDB(t)
	s := schema.New("sqlite", drv)
	emp := s.Table("Employee", "T_Employee", "emp_id")

	got, err := datamodel.Select(emp, datamodel.Args{
		datamodel.Columns:  []string{"name"},
		datamodel.OrderBy:  []string{"name"},
		datamodel.ResultAs: "flat_array",
	})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"Alice", "Bob", "Carol"}, got)
}

func TestSQLite_HashShape(t *testing.T) {
	drv := openEmployeeDB(t)
	s := schema.New("sqlite", drv)
	emp := s.Table("Employee", "T_Employee", "emp_id")

	got, err := datamodel.Select(emp, datamodel.Args{
		datamodel.ResultAs: "hash",
	})
	require.NoError(t, err)

	byID, ok := got.(map[string]interface{})
	require.True(t, ok)
	require.Len(t, byID, 3)
	carol, ok := byID["3"].(*datamodel.Row)
	require.True(t, ok)
	assert.Equal(t, "Carol", carol.Get("name"))
}

func TestSQLite_NamedPlaceholderRebind(t *testing.T) {
	drv := openEmployeeDB(t)
	s := schema.New("sqlite", drv)
	emp := s.Table("Employee", "T_Employee", "emp_id")

	st := datamodel.New(emp)
	require.NoError(t, st.Refine(datamodel.Args{
		datamodel.Where:   sqlgen.Eq("dpt_id", sqlgen.Param("dpt")),
		datamodel.OrderBy: []string{"name"},
	}))

	require.NoError(t, st.Bind("dpt", 10))
	rows, err := st.All()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.NoError(t, st.Bind("dpt", 20))
	require.NoError(t, st.Execute())
	rows, err = st.All()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Carol", rows[0].Get("name"))
}

func TestSQLite_ColumnTypesMaterialize(t *testing.T) {
	drv := openEmployeeDB(t)
	s := schema.New("sqlite", drv)
	emp := s.Table("Employee", "T_Employee", "emp_id").
		WithColumnType("ISODate", "d_begin")

	row, err := datamodel.FetchRow(emp, 1)
	require.NoError(t, err)
	require.NotNil(t, row)

	began, ok := row.Get("d_begin").(time.Time)
	require.True(t, ok)
	assert.Equal(t, time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC), began)
}

func TestSQLite_GroupByAggregates(t *testing.T) {
	drv := openEmployeeDB(t)
	s := schema.New("sqlite", drv)
	emp := s.Table("Employee", "T_Employee", "emp_id")

	got, err := datamodel.Select(emp, datamodel.Args{
		datamodel.Columns: []string{"dpt_id", "COUNT(*)|n"},
		datamodel.GroupBy: []string{"dpt_id"},
		datamodel.OrderBy: []string{"dpt_id"},
	})
	require.NoError(t, err)

	rows, ok := got.([]*datamodel.Row)
	require.True(t, ok)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(10), rows[0].Get("dpt_id"))
	assert.Equal(t, int64(2), rows[0].Get("n"))
	assert.Equal(t, int64(20), rows[1].Get("dpt_id"))
	assert.Equal(t, int64(1), rows[1].Get("n"))
}

func TestSQLite_PaginationAndRowCount(t *testing.T) {
	drv := openEmployeeDB(t)
	s := schema.New("sqlite", drv)
	emp := s.Table("Employee", "T_Employee", "emp_id")

	st := datamodel.New(emp)
	require.NoError(t, st.Refine(datamodel.Args{
		datamodel.Where:     sqlgen.Eq("dpt_id", 10),
		datamodel.PageSize:  int64(1),
		datamodel.PageIndex: int64(2),
	}))

	rows, err := st.All()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Bob", rows[0].Get("name"))

	count, err := st.RowCount()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	pages, err := st.PageCount()
	require.NoError(t, err)
	assert.Equal(t, int64(2), pages)
}

func TestSQLite_SubqueryShape(t *testing.T) {
	drv := openEmployeeDB(t)
	s := schema.New("sqlite", drv)
	emp := s.Table("Employee", "T_Employee", "emp_id")

	inner, err := datamodel.Select(emp, datamodel.Args{
		datamodel.Columns:  []string{"emp_id"},
		datamodel.Where:    sqlgen.Eq("dpt_id", 10),
		datamodel.ResultAs: "subquery",
	})
	require.NoError(t, err)
	frag, ok := inner.(sqlgen.Fragment)
	require.True(t, ok)

	got, err := datamodel.Select(emp, datamodel.Args{
		datamodel.Where:   sqlgen.C("emp_id", "IN", frag),
		datamodel.OrderBy: []string{"emp_id"},
	})
	require.NoError(t, err)

	rows, ok := got.([]*datamodel.Row)
	require.True(t, ok)
	require.Len(t, rows, 2)
	assert.Equal(t, "Alice", rows[0].Get("name"))
	assert.Equal(t, "Bob", rows[1].Get("name"))
}

func TestSQLite_CachedPrepareHitsCache(t *testing.T) {
	drv := openEmployeeDB(t)
	drv.EnableStmtCache(8)
	s := schema.New("sqlite", drv, schema.WithPrepareMode(schema.PrepareModeCached))
	emp := s.Table("Employee", "T_Employee", "emp_id")

	for i := 0; i < 2; i++ {
		row, err := datamodel.FetchRow(emp, 1)
		require.NoError(t, err)
		require.NotNil(t, row)
	}

	stats := drv.CacheStats()
	assert.GreaterOrEqual(t, stats.Hits, int64(1))
	assert.Equal(t, int64(1), stats.Misses)
}
