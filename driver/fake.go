package driver

import (
	"fmt"
	"sync"
)

// Fake is an in-memory Driver for tests and examples. It serves canned
// column names and rows, and records every SQL text and bind list it sees.
type Fake struct {
	mu sync.Mutex

	// Cols and Rows are the canned result set served by every handle.
	Cols []string
	Rows [][]interface{}

	// QueryFunc, when set, answers Driver.Query calls instead of the
	// canned data.
	QueryFunc func(sql string, bind []interface{}) ([][]interface{}, []string, error)

	// PrepareErr / ExecuteErr inject failures.
	PrepareErr error
	ExecuteErr error

	// Recorded activity.
	Prepared       []string
	Attrs          []map[string]interface{}
	Executed       [][]interface{}
	Queries        []string
	CachedPrepares int
	Pings          int
	Closed         bool
}

// NewFake builds a fake driver serving the given columns and rows.
func NewFake(cols []string, rows [][]interface{}) *Fake {
	return &Fake{Cols: cols, Rows: rows}
}

func (f *Fake) Prepare(sql string, attrs map[string]interface{}) (Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PrepareErr != nil {
		return nil, f.PrepareErr
	}
	f.Prepared = append(f.Prepared, sql)
	f.Attrs = append(f.Attrs, attrs)
	return &FakeHandle{driver: f, SQL: sql}, nil
}

// PrepareCached implements CachedPreparer. The fake has nothing to cache;
// it only counts the calls so tests can observe which prepare path ran.
func (f *Fake) PrepareCached(sql string, attrs map[string]interface{}) (Handle, error) {
	f.mu.Lock()
	f.CachedPrepares++
	f.mu.Unlock()
	return f.Prepare(sql, attrs)
}

func (f *Fake) Query(sql string, bind []interface{}) ([][]interface{}, []string, error) {
	f.mu.Lock()
	f.Queries = append(f.Queries, sql)
	queryFunc := f.QueryFunc
	cols, rows := f.Cols, f.Rows
	f.mu.Unlock()

	if queryFunc != nil {
		return queryFunc(sql, bind)
	}
	return rows, cols, nil
}

func (f *Fake) Ping() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Pings++
	return nil
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// LastPrepared returns the most recently prepared SQL text.
func (f *Fake) LastPrepared() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Prepared) == 0 {
		return ""
	}
	return f.Prepared[len(f.Prepared)-1]
}

// LastExecuted returns the most recent bind list.
func (f *Fake) LastExecuted() []interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Executed) == 0 {
		return nil
	}
	return f.Executed[len(f.Executed)-1]
}

// FakeHandle is the Handle produced by Fake.
type FakeHandle struct {
	driver   *Fake
	SQL      string
	executed bool
	finished bool
	cursor   int
	bound    []interface{}
}

func (h *FakeHandle) Execute(bind []interface{}) error {
	if h.finished {
		return ErrFinished
	}
	h.driver.mu.Lock()
	defer h.driver.mu.Unlock()
	if h.driver.ExecuteErr != nil {
		return h.driver.ExecuteErr
	}
	h.driver.Executed = append(h.driver.Executed, append([]interface{}(nil), bind...))
	h.executed = true
	h.cursor = 0
	return nil
}

func (h *FakeHandle) Columns() ([]string, error) {
	if h.finished {
		return nil, ErrFinished
	}
	if !h.executed {
		return nil, ErrNotExecuted
	}
	return h.driver.Cols, nil
}

func (h *FakeHandle) Fetch() ([]interface{}, error) {
	if h.finished {
		return nil, ErrFinished
	}
	if !h.executed {
		return nil, ErrNotExecuted
	}
	h.driver.mu.Lock()
	rows := h.driver.Rows
	h.driver.mu.Unlock()

	if h.cursor >= len(rows) {
		return nil, nil
	}
	row := rows[h.cursor]
	h.cursor++

	if h.bound != nil {
		copy(h.bound, row)
		return h.bound, nil
	}
	return append([]interface{}(nil), row...), nil
}

func (h *FakeHandle) FetchAll() ([][]interface{}, error) {
	var out [][]interface{}
	for {
		row, err := h.Fetch()
		if err != nil {
			return nil, err
		}
		if row == nil {
			return out, nil
		}
		if h.bound != nil {
			row = append([]interface{}(nil), row...)
		}
		out = append(out, row)
	}
}

func (h *FakeHandle) BindColumns(dest []interface{}) error {
	if h.finished {
		return ErrFinished
	}
	if !h.executed {
		return ErrNotExecuted
	}
	if len(dest) != len(h.driver.Cols) {
		return fmt.Errorf("driver: bind buffer has %d slots for %d columns", len(dest), len(h.driver.Cols))
	}
	h.bound = dest
	return nil
}

func (h *FakeHandle) Finish() error {
	h.finished = true
	return nil
}
