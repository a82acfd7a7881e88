package driver_test

import (
	"context"
	"testing"

	"github.com/NachosDevs/datamodel/driver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB opens an in-memory SQLite database seeded with a small table.
func openTestDB(t *testing.T) *driver.SQL {
	t.Helper()

	d, err := driver.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// a single connection keeps every statement on the same in-memory db
	d.DB().SetMaxOpenConns(1)
	t.Cleanup(func() { d.Close() })

	_, err = d.DB().Exec(`CREATE TABLE employee (emp_id INTEGER PRIMARY KEY, lastname TEXT, dpt_id INTEGER)`)
	require.NoError(t, err)
	_, err = d.DB().Exec(`INSERT INTO employee VALUES (1, 'Bodine', 10), (2, 'Culkin', 10), (3, 'Ortiz', 20)`)
	require.NoError(t, err)
	return d
}

func TestOpen_UnsupportedProvider(t *testing.T) {
	_, err := driver.Open("oracle", "dsn")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported provider")
}

func TestSQL_PrepareExecuteFetch(t *testing.T) {
	d := openTestDB(t)

	h, err := d.Prepare("SELECT emp_id, lastname FROM employee WHERE dpt_id = ? ORDER BY emp_id", nil)
	require.NoError(t, err)
	defer h.Finish()

	require.NoError(t, h.Execute([]interface{}{10}))

	cols, err := h.Columns()
	require.NoError(t, err)
	assert.Equal(t, []string{"emp_id", "lastname"}, cols)

	all, err := h.FetchAll()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, int64(1), all[0][0])
	assert.Equal(t, "Bodine", all[0][1])
}

func TestSQL_FetchBeforeExecute(t *testing.T) {
	d := openTestDB(t)

	h, err := d.Prepare("SELECT emp_id FROM employee", nil)
	require.NoError(t, err)
	defer h.Finish()

	_, err = h.Fetch()
	assert.ErrorIs(t, err, driver.ErrNotExecuted)
}

func TestSQL_ReexecuteResetsRows(t *testing.T) {
	d := openTestDB(t)

	h, err := d.Prepare("SELECT emp_id FROM employee WHERE dpt_id = ? ORDER BY emp_id", nil)
	require.NoError(t, err)
	defer h.Finish()

	require.NoError(t, h.Execute([]interface{}{10}))
	first, err := h.Fetch()
	require.NoError(t, err)
	assert.Equal(t, int64(1), first[0])

	require.NoError(t, h.Execute([]interface{}{20}))
	row, err := h.Fetch()
	require.NoError(t, err)
	assert.Equal(t, int64(3), row[0])

	row, err = h.Fetch()
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestSQL_BindColumns(t *testing.T) {
	d := openTestDB(t)

	h, err := d.Prepare("SELECT emp_id, lastname FROM employee ORDER BY emp_id", nil)
	require.NoError(t, err)
	defer h.Finish()
	require.NoError(t, h.Execute(nil))

	buffer := make([]interface{}, 2)
	require.NoError(t, h.BindColumns(buffer))

	row, err := h.Fetch()
	require.NoError(t, err)
	assert.Same(t, &buffer[0], &row[0])
	assert.Equal(t, "Bodine", buffer[1])

	_, err = h.Fetch()
	require.NoError(t, err)
	assert.Equal(t, "Culkin", buffer[1])
}

func TestSQL_Query(t *testing.T) {
	d := openTestDB(t)

	rows, cols, err := d.Query("SELECT COUNT(*) FROM employee WHERE dpt_id = ?", []interface{}{10})
	require.NoError(t, err)
	require.Len(t, cols, 1)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(2), rows[0][0])
}

func TestSQL_PrepareCached(t *testing.T) {
	d := openTestDB(t)
	d.EnableStmtCache(2)

	for i := 0; i < 3; i++ {
		h, err := d.PrepareCached("SELECT emp_id FROM employee", nil)
		require.NoError(t, err)
		require.NoError(t, h.Execute(nil))
		require.NoError(t, h.Finish())
	}

	stats := d.CacheStats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Size)
}

func TestSQL_PrepareCachedLazyInit(t *testing.T) {
	d := openTestDB(t)

	h, err := d.PrepareCached("SELECT emp_id FROM employee", nil)
	require.NoError(t, err)
	require.NoError(t, h.Finish())

	stats := d.CacheStats()
	assert.Equal(t, driver.DefaultStmtCacheSize, stats.MaxSize)
	assert.Equal(t, 1, stats.Size)
}

func TestSQL_StmtCacheEviction(t *testing.T) {
	d := openTestDB(t)
	d.EnableStmtCache(2)

	for _, sql := range []string{
		"SELECT emp_id FROM employee",
		"SELECT lastname FROM employee",
		"SELECT dpt_id FROM employee",
	} {
		h, err := d.PrepareCached(sql, nil)
		require.NoError(t, err)
		require.NoError(t, h.Finish())
	}

	stats := d.CacheStats()
	assert.Equal(t, int64(1), stats.Evictions)
	assert.Equal(t, 2, stats.Size)

	// the evicted statement can still be re-prepared and used
	h, err := d.PrepareCached("SELECT emp_id FROM employee", nil)
	require.NoError(t, err)
	require.NoError(t, h.Execute(nil))
	require.NoError(t, h.Finish())
}

func TestSQL_TypedValuesUnwrap(t *testing.T) {
	d := openTestDB(t)

	h, err := d.Prepare("SELECT lastname FROM employee WHERE emp_id = ?", nil)
	require.NoError(t, err)
	defer h.Finish()

	require.NoError(t, h.Execute([]interface{}{driver.TypedValue{Value: 2, Type: "INTEGER"}}))
	row, err := h.Fetch()
	require.NoError(t, err)
	assert.Equal(t, "Culkin", row[0])
}

func TestSQL_WithContext(t *testing.T) {
	d := openTestDB(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	bound := d.WithContext(ctx)
	_, err := bound.Prepare("SELECT emp_id FROM employee", nil)
	require.Error(t, err)
}

func TestSQL_Ping(t *testing.T) {
	d := openTestDB(t)
	require.NoError(t, d.Ping())
}
