package driver_test

import (
	"errors"
	"testing"

	"github.com/NachosDevs/datamodel/driver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFake_PrepareExecuteFetch(t *testing.T) {
	fake := driver.NewFake([]string{"id", "name"}, [][]interface{}{
		{1, "Bodine"},
		{2, "Culkin"},
	})

	h, err := fake.Prepare("SELECT id, name FROM t", nil)
	require.NoError(t, err)
	require.NoError(t, h.Execute([]interface{}{42}))

	cols, err := h.Columns()
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, cols)

	row, err := h.Fetch()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{1, "Bodine"}, row)

	row, err = h.Fetch()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{2, "Culkin"}, row)

	row, err = h.Fetch()
	require.NoError(t, err)
	assert.Nil(t, row)

	assert.Equal(t, "SELECT id, name FROM t", fake.LastPrepared())
	assert.Equal(t, []interface{}{42}, fake.LastExecuted())
}

func TestFake_FetchBeforeExecute(t *testing.T) {
	fake := driver.NewFake([]string{"id"}, nil)

	h, err := fake.Prepare("SELECT id FROM t", nil)
	require.NoError(t, err)

	_, err = h.Fetch()
	assert.ErrorIs(t, err, driver.ErrNotExecuted)
	_, err = h.Columns()
	assert.ErrorIs(t, err, driver.ErrNotExecuted)
}

func TestFake_ReexecuteResetsCursor(t *testing.T) {
	fake := driver.NewFake([]string{"id"}, [][]interface{}{{1}, {2}})

	h, err := fake.Prepare("SELECT id FROM t", nil)
	require.NoError(t, err)

	require.NoError(t, h.Execute(nil))
	all, err := h.FetchAll()
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, h.Execute(nil))
	row, err := h.Fetch()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{1}, row)
}

func TestFake_BindColumnsReusesBuffer(t *testing.T) {
	fake := driver.NewFake([]string{"id", "name"}, [][]interface{}{
		{1, "Bodine"},
		{2, "Culkin"},
	})

	h, err := fake.Prepare("SELECT id, name FROM t", nil)
	require.NoError(t, err)
	require.NoError(t, h.Execute(nil))

	buffer := make([]interface{}, 2)
	require.NoError(t, h.BindColumns(buffer))

	first, err := h.Fetch()
	require.NoError(t, err)
	assert.Same(t, &buffer[0], &first[0])
	assert.Equal(t, "Bodine", buffer[1])

	second, err := h.Fetch()
	require.NoError(t, err)
	assert.Same(t, &first[0], &second[0])
	assert.Equal(t, "Culkin", buffer[1])
}

func TestFake_BindColumnsWrongSize(t *testing.T) {
	fake := driver.NewFake([]string{"id", "name"}, nil)

	h, err := fake.Prepare("SELECT id, name FROM t", nil)
	require.NoError(t, err)
	require.NoError(t, h.Execute(nil))

	err = h.BindColumns(make([]interface{}, 3))
	require.Error(t, err)
}

func TestFake_ErrorInjection(t *testing.T) {
	prepErr := errors.New("boom prepare")
	execErr := errors.New("boom execute")

	fake := driver.NewFake([]string{"id"}, nil)
	fake.PrepareErr = prepErr
	_, err := fake.Prepare("SELECT 1", nil)
	assert.ErrorIs(t, err, prepErr)

	fake.PrepareErr = nil
	fake.ExecuteErr = execErr
	h, err := fake.Prepare("SELECT 1", nil)
	require.NoError(t, err)
	assert.ErrorIs(t, h.Execute(nil), execErr)
}

func TestFake_QueryFuncOverride(t *testing.T) {
	fake := driver.NewFake([]string{"id"}, [][]interface{}{{1}})
	fake.QueryFunc = func(sql string, bind []interface{}) ([][]interface{}, []string, error) {
		return [][]interface{}{{int64(7)}}, []string{"COUNT(*)"}, nil
	}

	rows, cols, err := fake.Query("SELECT COUNT(*) FROM t", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"COUNT(*)"}, cols)
	assert.Equal(t, int64(7), rows[0][0])
	assert.Equal(t, []string{"SELECT COUNT(*) FROM t"}, fake.Queries)
}

func TestFake_UseAfterFinish(t *testing.T) {
	fake := driver.NewFake([]string{"id"}, [][]interface{}{{1}})

	h, err := fake.Prepare("SELECT id FROM t", nil)
	require.NoError(t, err)
	require.NoError(t, h.Execute(nil))
	require.NoError(t, h.Finish())
	require.NoError(t, h.Finish())

	_, err = h.Fetch()
	assert.ErrorIs(t, err, driver.ErrFinished)
	assert.ErrorIs(t, h.Execute(nil), driver.ErrFinished)
}
