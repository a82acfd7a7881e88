package statement

import "fmt"

// Next fetches one row and runs it through the row callback, or returns nil
// at end of results. The statement auto-executes on first use. In fast mode
// the same Row is returned on every call with refreshed contents; consume
// it before fetching again.
func (st *Statement) Next() (*Row, error) {
	if st.status < StatusExecuted {
		if err := st.Execute(); err != nil {
			return nil, err
		}
	}

	raw, err := st.handle.Fetch()
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	var row *Row
	if st.fastMode {
		row = st.fastRow
		for i, col := range st.columns {
			row.Values[col] = raw[i]
		}
	} else {
		cols, err := st.resultColumns()
		if err != nil {
			return nil, err
		}
		values := make(map[string]interface{}, len(cols))
		for i, col := range cols {
			if i < len(raw) {
				values[col] = raw[i]
			}
		}
		row = &Row{Values: values}
	}

	st.rowNum++
	if err := st.rowCallback(row); err != nil {
		return nil, err
	}
	return row, nil
}

// NextN fetches up to n rows. A fast-mode statement reuses a single row
// buffer and therefore cannot serve batched fetches.
func (st *Statement) NextN(n int) ([]*Row, error) {
	if st.fastMode {
		return nil, fmt.Errorf("next: batched fetch is incompatible with fast mode: %w", ErrProtocol)
	}
	rows := make([]*Row, 0, n)
	for len(rows) < n {
		row, err := st.Next()
		if err != nil {
			return nil, err
		}
		if row == nil {
			break
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// All fetches every remaining row, then releases the cursor.
func (st *Statement) All() ([]*Row, error) {
	if st.fastMode {
		return nil, fmt.Errorf("all: batched fetch is incompatible with fast mode: %w", ErrProtocol)
	}
	var rows []*Row
	for {
		row, err := st.Next()
		if err != nil {
			return nil, err
		}
		if row == nil {
			break
		}
		rows = append(rows, row)
	}
	if err := st.Finish(); err != nil {
		return nil, err
	}
	return rows, nil
}

// RowNum returns the number of rows fetched since the last execution.
func (st *Statement) RowNum() int64 {
	return st.rowNum
}

// Headers returns the result column names, executing first if needed.
func (st *Statement) Headers() ([]string, error) {
	if st.status < StatusExecuted {
		if err := st.Execute(); err != nil {
			return nil, err
		}
	}
	return st.resultColumns()
}

func (st *Statement) resultColumns() ([]string, error) {
	if st.columns == nil {
		cols, err := st.handle.Columns()
		if err != nil {
			return nil, err
		}
		st.columns = cols
	}
	return st.columns, nil
}

// MakeFast binds every result column into one reused row buffer for maximum
// fetch throughput. Only valid on an executed statement; afterwards Next
// returns the same Row on every call.
func (st *Statement) MakeFast() error {
	if st.status != StatusExecuted {
		return &StateError{Op: "makeFast", Status: st.status}
	}
	cols, err := st.resultColumns()
	if err != nil {
		return err
	}
	buf := make([]interface{}, len(cols))
	if err := st.handle.BindColumns(buf); err != nil {
		return err
	}
	st.fastBuf = buf
	st.fastRow = &Row{Values: make(map[string]interface{}, len(cols))}
	st.fastMode = true
	return nil
}
