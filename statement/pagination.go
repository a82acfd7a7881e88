package statement

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	selectFromRe = regexp.MustCompile(`(?is)^\s*SELECT\b.*?\bFROM\b`)
	distinctRe   = regexp.MustCompile(`(?i)^\s*SELECT\s+DISTINCT\b`)
)

// PageSize returns the page_size clause value, or 0 when paging is off.
func (st *Statement) PageSize() int64 {
	if v, ok := st.args[ClausePageSize]; ok {
		if n, err := asInt64(ClausePageSize, v); err == nil {
			return n
		}
	}
	return 0
}

// PageIndex returns the 1-based page_index clause value, defaulting to 1.
func (st *Statement) PageIndex() int64 {
	if v, ok := st.args[ClausePageIndex]; ok {
		if n, err := asInt64(ClausePageIndex, v); err == nil {
			return n
		}
	}
	return 1
}

// Offset returns the 0-based row offset of the current page: derived from
// page size and page index when paging, otherwise the explicit offset
// clause.
func (st *Statement) Offset() int64 {
	if size := st.PageSize(); size > 0 {
		return (st.PageIndex() - 1) * size
	}
	if v, ok := st.args[ClauseOffset]; ok {
		if n, err := asInt64(ClauseOffset, v); err == nil {
			return n
		}
	}
	return 0
}

// RowCount returns the total number of rows the statement would produce
// without pagination, computed lazily with a one-off COUNT(*) query and
// cached until the next execution. The statement compiles first if needed.
func (st *Statement) RowCount() (int64, error) {
	if st.hasRowCount {
		return st.rowCount, nil
	}
	if st.status < StatusSqlized {
		if err := st.Sqlize(); err != nil {
			return 0, err
		}
	}

	drv := st.schema.Driver()
	if drv == nil {
		return 0, fmt.Errorf("rowCount: %w", ErrNoConnection)
	}

	countSQL, bind := st.countQuery()
	rows, _, err := drv.Query(countSQL, bind)
	if err != nil {
		return 0, fmt.Errorf("rowCount: %w", err)
	}
	var total int64
	if len(rows) > 0 && len(rows[0]) > 0 {
		total, err = toCount(rows[0][0])
		if err != nil {
			return 0, fmt.Errorf("rowCount: %w", err)
		}
	}
	st.rowCount = total
	st.hasRowCount = true
	return total, nil
}

// countQuery derives the COUNT(*) statement: pagination is stripped along
// with its bind values, then the column list is replaced by COUNT(*).
// Queries whose row count a plain substitution would distort (set
// operations, DISTINCT) are wrapped as a subquery instead.
func (st *Statement) countQuery() (string, []interface{}) {
	sqlText := st.sql
	bind := append([]interface{}(nil), st.bound...)

	if st.limit != nil || st.offset != nil {
		clause, clauseBind := st.schema.Builder().LimitOffset(st.limit, st.offset)
		if idx := strings.LastIndex(sqlText, clause); clause != "" && idx >= 0 {
			before := strings.TrimSpace(sqlText[:idx])
			after := strings.TrimSpace(sqlText[idx+len(clause):])
			sqlText = strings.TrimSpace(before + " " + after)
			// pagination markers render last, their binds sit at the tail
			if n := len(clauseBind); n > 0 && n <= len(bind) {
				bind = bind[:len(bind)-n]
			}
		}
	}

	if st.setOpCount == 0 && !distinctRe.MatchString(sqlText) {
		if loc := selectFromRe.FindStringIndex(sqlText); loc != nil {
			return "SELECT COUNT(*) FROM" + sqlText[loc[1]:], bind
		}
	}
	wrapped := st.schema.Builder().TableAlias("("+sqlText+")", "count_subquery")
	return "SELECT COUNT(*) FROM " + wrapped, bind
}

func toCount(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case []byte:
		return strconv.ParseInt(string(n), 10, 64)
	case string:
		return strconv.ParseInt(n, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected COUNT(*) value of type %T", v)
	}
}

// PageCount returns the number of pages: the ceiling of row count over page
// size. Without a page size every row fits one page.
func (st *Statement) PageCount() (int64, error) {
	total, err := st.RowCount()
	if err != nil {
		return 0, err
	}
	size := st.PageSize()
	if size <= 0 {
		if total == 0 {
			return 0, nil
		}
		return 1, nil
	}
	return (total + size - 1) / size, nil
}

// PageBoundaries returns the 1-based numbers of the first and last row of
// the current page, the last clamped to the total row count.
func (st *Statement) PageBoundaries() (first, last int64, err error) {
	total, err := st.RowCount()
	if err != nil {
		return 0, 0, err
	}
	first = st.Offset() + 1
	if size := st.PageSize(); size > 0 {
		last = first + size - 1
		if last > total {
			last = total
		}
	} else {
		last = total
	}
	return first, last, nil
}

// PageRows fetches exactly one page of rows, then releases the cursor.
func (st *Statement) PageRows() ([]*Row, error) {
	size := st.PageSize()
	if size <= 0 {
		return st.All()
	}
	rows, err := st.NextN(int(size))
	if err != nil {
		return nil, err
	}
	if err := st.Finish(); err != nil {
		return nil, err
	}
	return rows, nil
}
