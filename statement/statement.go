// Package statement implements the statement lifecycle at the heart of the
// data model runtime. A Statement is created against a Source, refined with
// clause arguments, compiled once into SQL, prepared, executed, and finally
// streamed row by row, with each row passing through column handlers before
// it reaches the caller.
package statement

import (
	"strings"

	"github.com/google/uuid"

	"github.com/NachosDevs/datamodel/driver"
	"github.com/NachosDevs/datamodel/internal/debug"
	"github.com/NachosDevs/datamodel/schema"
)

// Statement drives one select query through its lifecycle. It is not safe
// for concurrent use; each goroutine should build its own.
type Statement struct {
	id     string
	source schema.Source
	schema *schema.Schema
	status Status

	args Args

	// bind values staged before compilation
	preBoundNamed map[string]interface{}
	preBoundIndex map[int]interface{}

	// compiled artifacts, frozen at StatusSqlized
	sql            string
	bound          []interface{}
	paramIndices   map[string][]int
	aliasedTables  map[string]string
	aliasedColumns map[string]string
	limit          *int64
	offset         *int64
	setOpCount     int
	rowCallback    RowHook

	handle   driver.Handle
	finished bool

	// cursor state, reset on every execution
	rowNum      int64
	rowCount    int64
	hasRowCount bool
	fastMode    bool
	fastRow     *Row
	fastBuf     []interface{}
	columns     []string
}

// Row is one materialized result record. Values holds the column values
// after any registered column handlers have run.
type Row struct {
	Class  string
	Schema *schema.Schema // set only when the schema runs in multi-schema mode
	Values map[string]interface{}
}

// Get returns a column value, or nil when the column is absent.
func (r *Row) Get(column string) interface{} {
	return r.Values[column]
}

// New creates a statement bound to a data source, in the initial phase.
func New(source schema.Source) *Statement {
	st := &Statement{
		id:            uuid.NewString(),
		source:        source,
		schema:        source.Schema(),
		status:        StatusNew,
		args:          make(Args),
		preBoundNamed: make(map[string]interface{}),
		preBoundIndex: make(map[int]interface{}),
	}
	debug.Debug("statement: new", "id", st.id, "class", source.Class())
	return st
}

// Select creates a statement and refines it in one call.
func Select(source schema.Source, args Args) (*Statement, error) {
	st := New(source)
	if len(args) > 0 {
		if err := st.Refine(args); err != nil {
			return nil, err
		}
	}
	return st, nil
}

// ID returns the statement correlation id used in debug logs.
func (st *Statement) ID() string { return st.id }

// Status returns the current lifecycle phase.
func (st *Statement) Status() Status { return st.status }

// Source returns the data source the statement was created against.
func (st *Statement) Source() schema.Source { return st.source }

// Schema returns the schema owning the statement's source.
func (st *Statement) Schema() *schema.Schema { return st.schema }

// Handle returns the prepared driver handle, or nil before preparation.
func (st *Statement) Handle() driver.Handle { return st.handle }

// SQL returns the compiled SQL text and a copy of the current bind values.
// It fails before compilation.
func (st *Statement) SQL() (string, []interface{}, error) {
	if st.status < StatusSqlized {
		return "", nil, &StateError{Op: "sql", Status: st.status}
	}
	return st.sql, append([]interface{}(nil), st.bound...), nil
}

// ResultShape returns the canonical result shape requested for this
// statement, defaulting to "rows" when none was set. The result_as clause
// may be a plain name or a list whose first element is the name, followed
// by shape-specific arguments.
func (st *Statement) ResultShape() string {
	name, _ := st.ResultSpec()
	return name
}

// ResultSpec decomposes the result_as clause into the canonical shape name
// and its extra arguments.
func (st *Statement) ResultSpec() (string, []interface{}) {
	switch v := st.args[ClauseResultAs].(type) {
	case string:
		if v != "" {
			return CanonicalShape(v), nil
		}
	case []interface{}:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok && s != "" {
				return CanonicalShape(s), v[1:]
			}
		}
	}
	return "rows", nil
}

// Reset returns a fresh statement on the same source, refined with the
// given carry-over arguments. The receiver is left untouched.
func (st *Statement) Reset(args Args) (*Statement, error) {
	fresh := New(st.source)
	if len(args) > 0 {
		if err := fresh.Refine(args); err != nil {
			return nil, err
		}
	}
	return fresh, nil
}

// Finish releases the driver cursor, if any. The statement stays executed
// and can be re-executed; the next Execute obtains a fresh handle.
// Finish may be called more than once.
func (st *Statement) Finish() error {
	if st.handle == nil {
		return nil
	}
	st.finished = true
	return st.handle.Finish()
}

// CanonicalShape folds result shape aliases onto their canonical names.
// Unknown names pass through unchanged; the result registry decides
// whether they resolve.
func CanonicalShape(name string) string {
	switch strings.ToLower(name) {
	case "firstrow", "first_row", "single_row", "singlerow":
		return "firstrow"
	case "flat", "flat_array", "flat_arrayref":
		return "flat_array"
	case "", "rows", "arrayref":
		return "rows"
	case "hash", "hashref":
		return "hash"
	case "fast_statement", "fast_sth":
		return "fast_statement"
	default:
		return strings.ToLower(name)
	}
}
