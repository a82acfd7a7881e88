// Package driver abstracts database access behind small Driver and Handle
// interfaces. A ready adapter over database/sql is provided for PostgreSQL,
// MySQL and SQLite, together with an in-memory Fake for tests.
package driver

import (
	"context"
	"errors"
)

var (
	// ErrNotExecuted is returned by row accessors before Execute was called.
	ErrNotExecuted = errors.New("driver: statement handle was not executed")
	// ErrFinished is returned when a handle is used after Finish.
	ErrFinished = errors.New("driver: statement handle already finished")
)

// DefaultStmtCacheSize is the capacity of the prepared-statement cache when
// cached preparation is requested without configuring one explicitly.
const DefaultStmtCacheSize = 128

// TypedValue attaches driver-level type metadata to one bind value. Adapters
// that have no use for the metadata just unwrap Value.
type TypedValue struct {
	Value interface{}
	Type  interface{}
}

// UnwrapBind strips TypedValue wrappers from a bind list. The returned slice
// is freshly allocated only when at least one wrapper was present.
func UnwrapBind(bind []interface{}) []interface{} {
	wrapped := false
	for _, v := range bind {
		if _, ok := v.(TypedValue); ok {
			wrapped = true
			break
		}
	}
	if !wrapped {
		return bind
	}
	out := make([]interface{}, len(bind))
	for i, v := range bind {
		if tv, ok := v.(TypedValue); ok {
			out[i] = tv.Value
		} else {
			out[i] = v
		}
	}
	return out
}

// Driver prepares and runs SQL statements against one database connection.
type Driver interface {
	// Prepare compiles sql into an executable Handle. Attrs carries
	// driver-specific preparation attributes; adapters ignore keys they
	// do not understand.
	Prepare(sql string, attrs map[string]interface{}) (Handle, error)

	// Query runs a one-off statement and drains its result set.
	Query(sql string, bind []interface{}) (rows [][]interface{}, columns []string, err error)

	// Ping verifies the connection is alive.
	Ping() error

	// Close releases the underlying connection.
	Close() error
}

// CachedPreparer is implemented by drivers that can reuse prepared
// statements across handles. Callers fall back to Prepare when the driver
// does not support it.
type CachedPreparer interface {
	PrepareCached(sql string, attrs map[string]interface{}) (Handle, error)
}

// ContextBinder is implemented by drivers whose statements can run under a
// caller-supplied context.
type ContextBinder interface {
	BindContext(ctx context.Context) Driver
}

// Handle is one prepared statement. Execute may be called repeatedly; each
// call discards unread rows of the previous execution.
type Handle interface {
	// Execute runs the statement with the given bind values.
	Execute(bind []interface{}) error

	// Columns returns the result column names, in select-list order.
	Columns() ([]string, error)

	// Fetch returns the next data row, or nil when the set is exhausted.
	// After BindColumns, the returned slice is the bound buffer itself.
	Fetch() ([]interface{}, error)

	// FetchAll drains the remaining rows.
	FetchAll() ([][]interface{}, error)

	// BindColumns registers dest as a reused scan buffer: every following
	// Fetch scans into dest instead of allocating a fresh row.
	BindColumns(dest []interface{}) error

	// Finish releases the handle. Safe to call more than once.
	Finish() error
}
