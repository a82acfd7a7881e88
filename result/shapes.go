package result

import (
	"fmt"

	"github.com/NachosDevs/datamodel/sqlgen"
	"github.com/NachosDevs/datamodel/statement"
)

func init() {
	Register("rows", noExtras("rows", rowsShape{}))
	Register("firstrow", noExtras("firstrow", firstRowShape{}))
	Register("flat_array", noExtras("flat_array", flatShape{}))
	Register("hash", newHashShape)
	Register("statement", noExtras("statement", statementShape{}))
	Register("fast_statement", noExtras("fast_statement", fastStatementShape{}))
	Register("sth", noExtras("sth", sthShape{}))
	Register("subquery", noExtras("subquery", subqueryShape{}))
	Register("sql", noExtras("sql", sqlShape{}))
}

// noExtras wraps a stateless shape in a factory refusing extra arguments.
func noExtras(name string, s Shape) Factory {
	return func(extra ...interface{}) (Shape, error) {
		if len(extra) > 0 {
			return nil, fmt.Errorf("result: shape %q takes no arguments: %w",
				name, statement.ErrArgument)
		}
		return s, nil
	}
}

// rowsShape fetches every row and releases the cursor.
type rowsShape struct{}

func (rowsShape) Apply(st *statement.Statement) (interface{}, error) {
	return st.All()
}

// firstRowShape fetches the first row, or nil when the statement produced
// none, releasing the cursor either way.
type firstRowShape struct{}

func (firstRowShape) Apply(st *statement.Statement) (interface{}, error) {
	row, err := st.Next()
	if err != nil {
		return nil, err
	}
	if err := st.Finish(); err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	return row, nil
}

// flatShape flattens all rows into one scalar list, column values in
// result-set order.
type flatShape struct{}

func (flatShape) Apply(st *statement.Statement) (interface{}, error) {
	cols, err := st.Headers()
	if err != nil {
		return nil, err
	}
	var flat []interface{}
	for {
		row, err := st.Next()
		if err != nil {
			return nil, err
		}
		if row == nil {
			break
		}
		for _, col := range cols {
			flat = append(flat, row.Get(col))
		}
	}
	if err := st.Finish(); err != nil {
		return nil, err
	}
	return flat, nil
}

// hashShape indexes rows by the values of key columns, defaulting to the
// source's primary key. With several key columns the result nests one map
// level per column; a later row with the same key replaces an earlier one.
type hashShape struct {
	keyCols []string
}

func newHashShape(extra ...interface{}) (Shape, error) {
	var cols []string
	for _, e := range extra {
		switch v := e.(type) {
		case string:
			cols = append(cols, v)
		case []string:
			cols = append(cols, v...)
		default:
			return nil, fmt.Errorf("result: hash key columns must be strings, got %T: %w",
				e, statement.ErrArgument)
		}
	}
	return hashShape{keyCols: cols}, nil
}

func (h hashShape) Apply(st *statement.Statement) (interface{}, error) {
	keyCols := h.keyCols
	if len(keyCols) == 0 {
		keyCols = st.Source().PrimaryKey()
	}
	if len(keyCols) == 0 {
		return nil, fmt.Errorf("result: hash shape needs key columns, and the source has no primary key: %w",
			statement.ErrArgument)
	}

	out := make(map[string]interface{})
	for {
		row, err := st.Next()
		if err != nil {
			return nil, err
		}
		if row == nil {
			break
		}
		node := out
		for _, col := range keyCols[:len(keyCols)-1] {
			key := fmt.Sprint(row.Get(col))
			child, ok := node[key].(map[string]interface{})
			if !ok {
				child = make(map[string]interface{})
				node[key] = child
			}
			node = child
		}
		node[fmt.Sprint(row.Get(keyCols[len(keyCols)-1]))] = row
	}
	if err := st.Finish(); err != nil {
		return nil, err
	}
	return out, nil
}

// statementShape hands the statement back after preparing it. Execution is
// left to the caller, so late bind values can still be supplied.
type statementShape struct{}

func (statementShape) Apply(st *statement.Statement) (interface{}, error) {
	if st.Status() < statement.StatusPrepared {
		if err := st.Prepare(); err != nil {
			return nil, err
		}
	}
	return st, nil
}

// fastStatementShape executes and switches the statement to single-buffer
// fetching before handing it back.
type fastStatementShape struct{}

func (fastStatementShape) Apply(st *statement.Statement) (interface{}, error) {
	if st.Status() < statement.StatusExecuted {
		if err := st.Execute(); err != nil {
			return nil, err
		}
	}
	if err := st.MakeFast(); err != nil {
		return nil, err
	}
	return st, nil
}

// sthShape executes and returns the bare driver handle.
type sthShape struct{}

func (sthShape) Apply(st *statement.Statement) (interface{}, error) {
	if st.Status() < statement.StatusExecuted {
		if err := st.Execute(); err != nil {
			return nil, err
		}
	}
	return st.Handle(), nil
}

// subqueryShape compiles without executing and returns a fragment other
// statements can embed as a condition value or set-operation operand. The
// embedding renderer adds the surrounding parentheses.
type subqueryShape struct{}

func (subqueryShape) Apply(st *statement.Statement) (interface{}, error) {
	// a subquery must not carry a row lock, so the compile step has to
	// know the shape even when it was not requested through result_as
	if st.Status() < statement.StatusSqlized {
		if err := st.Refine(statement.Args{statement.ClauseResultAs: "subquery"}); err != nil {
			return nil, err
		}
	}
	return compiledFragment(st)
}

// sqlShape returns the compiled SQL text and bind values without executing.
type sqlShape struct{}

func (sqlShape) Apply(st *statement.Statement) (interface{}, error) {
	return compiledFragment(st)
}

func compiledFragment(st *statement.Statement) (interface{}, error) {
	if st.Status() < statement.StatusSqlized {
		if err := st.Sqlize(); err != nil {
			return nil, err
		}
	}
	sql, bind, err := st.SQL()
	if err != nil {
		return nil, err
	}
	return sqlgen.Fragment{SQL: sql, Bind: bind}, nil
}
