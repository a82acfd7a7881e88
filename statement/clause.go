package statement

import (
	"fmt"

	"github.com/NachosDevs/datamodel/driver"
	"github.com/NachosDevs/datamodel/sqlgen"
)

// Clause identifies one kind of refinement argument.
type Clause string

const (
	// ClauseWhere is a filter condition. Successive where clauses are
	// AND-merged, never replaced.
	ClauseWhere Clause = "where"

	// ClauseFetch selects a single record by primary key. It expands into
	// an AND-merged where clause plus a single-row result shape.
	ClauseFetch Clause = "fetch"

	// ClauseColumns is the explicit column list. A later list may only
	// narrow an earlier one.
	ClauseColumns Clause = "columns"

	// ClauseWhereOn holds extra join conditions keyed by table name. It is
	// stored untouched and consumed at compile time.
	ClauseWhereOn Clause = "where_on"

	ClauseDistinct     Clause = "distinct"
	ClauseOrderBy      Clause = "order_by"
	ClauseGroupBy      Clause = "group_by"
	ClauseHaving       Clause = "having"
	ClauseFor          Clause = "for"
	ClauseUnion        Clause = "union"
	ClauseUnionAll     Clause = "union_all"
	ClauseIntersect    Clause = "intersect"
	ClauseIntersectAll Clause = "intersect_all"
	ClauseExcept       Clause = "except"
	ClauseExceptAll    Clause = "except_all"
	ClauseMinus        Clause = "minus"

	// ClauseResultAs names the result shape the facade should materialize,
	// e.g. "rows", "firstrow", "flat", "hash", "subquery".
	ClauseResultAs Clause = "result_as"

	// ClausePostSQL is a hook rewriting the compiled SQL and bind values.
	ClausePostSQL Clause = "post_sql"

	// ClausePreExec and ClausePostExec run around each execution with the
	// prepared driver handle.
	ClausePreExec  Clause = "pre_exec"
	ClausePostExec Clause = "post_exec"

	// ClausePostMaterialize runs on every fetched row after column
	// handlers have been applied.
	ClausePostMaterialize Clause = "post_materialize"

	ClauseLimit     Clause = "limit"
	ClauseOffset    Clause = "offset"
	ClausePageSize  Clause = "page_size"
	ClausePageIndex Clause = "page_index"

	// ClauseColumnTypes maps a registered column type name to the columns
	// it should handle for this statement only.
	ClauseColumnTypes Clause = "column_types"

	// ClausePrepareAttrs passes backend-specific attributes to prepare.
	ClausePrepareAttrs Clause = "prepare_attrs"

	// ClausePrepareMethod overrides the schema-level prepare mode,
	// either "prepare" or "cached".
	ClausePrepareMethod Clause = "prepare_method"

	// ClauseLeftColumns is the column list of the left side of a
	// relationship, recorded by schema navigation for later joins.
	ClauseLeftColumns Clause = "left_columns"

	// ClauseJoinWithUsing prefers the USING shortcut over an explicit ON
	// condition, either for all join legs (true) or for the named tables.
	ClauseJoinWithUsing Clause = "join_with_using"
)

var knownClauses = map[Clause]bool{
	ClauseWhere:           true,
	ClauseFetch:           true,
	ClauseColumns:         true,
	ClauseWhereOn:         true,
	ClauseDistinct:        true,
	ClauseOrderBy:         true,
	ClauseGroupBy:         true,
	ClauseHaving:          true,
	ClauseFor:             true,
	ClauseUnion:           true,
	ClauseUnionAll:        true,
	ClauseIntersect:       true,
	ClauseIntersectAll:    true,
	ClauseExcept:          true,
	ClauseExceptAll:       true,
	ClauseMinus:           true,
	ClauseResultAs:        true,
	ClausePostSQL:         true,
	ClausePreExec:         true,
	ClausePostExec:        true,
	ClausePostMaterialize: true,
	ClauseLimit:           true,
	ClauseOffset:          true,
	ClausePageSize:        true,
	ClausePageIndex:       true,
	ClauseColumnTypes:     true,
	ClausePrepareAttrs:    true,
	ClausePrepareMethod:   true,
	ClauseLeftColumns:     true,
	ClauseJoinWithUsing:   true,
}

// setOpKeywords maps set-operation clauses to their SQL keyword.
var setOpKeywords = []struct {
	clause  Clause
	keyword string
}{
	{ClauseUnion, "UNION"},
	{ClauseUnionAll, "UNION ALL"},
	{ClauseIntersect, "INTERSECT"},
	{ClauseIntersectAll, "INTERSECT ALL"},
	{ClauseExcept, "EXCEPT"},
	{ClauseExceptAll, "EXCEPT ALL"},
	{ClauseMinus, "MINUS"},
}

// Args is a set of refinement arguments keyed by clause.
type Args map[Clause]interface{}

// Clone shallow-copies the argument set.
func (a Args) Clone() Args {
	out := make(Args, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// PostSQLHook rewrites compiled SQL and bind values before they are frozen.
type PostSQLHook func(sql string, bind []interface{}) (string, []interface{}, error)

// ExecHook runs around an execution with the prepared driver handle.
type ExecHook func(handle driver.Handle) error

// RowHook runs on a materialized row.
type RowHook func(row *Row) error

// Refine merges new arguments into the statement according to per-clause
// policies. It fails without touching the statement when any argument is
// invalid, and is only allowed before compilation.
func (st *Statement) Refine(args Args) error {
	if st.status > StatusRefined {
		return &StateError{Op: "refine", Status: st.status}
	}

	staged := st.args.Clone()
	for clause, value := range args {
		if !knownClauses[clause] {
			return fmt.Errorf("refine: unknown clause %q: %w", clause, ErrArgument)
		}
		switch clause {
		case ClauseWhere:
			cond, err := asCond(clause, value)
			if err != nil {
				return err
			}
			staged[ClauseWhere] = sqlgen.Merge(currentWhere(staged), cond)

		case ClauseFetch:
			if err := applyFetch(staged, st.source.PrimaryKey(), value); err != nil {
				return err
			}

		case ClauseColumns:
			cols, err := asStringSlice(clause, value)
			if err != nil {
				return err
			}
			if err := narrowColumns(staged, cols); err != nil {
				return err
			}

		default:
			staged[clause] = value
		}
	}

	st.args = staged
	st.status = StatusRefined
	return nil
}

// Arg returns the merged value currently stored for a clause, or nil.
func (st *Statement) Arg(clause Clause) interface{} {
	return st.args[clause]
}

func currentWhere(args Args) *sqlgen.Cond {
	if c, ok := args[ClauseWhere].(*sqlgen.Cond); ok {
		return c
	}
	return nil
}

// applyFetch expands a fetch argument into primary key equality conditions,
// AND-merged with any existing filter, and forces the single-row shape.
func applyFetch(staged Args, pk []string, value interface{}) error {
	if len(pk) == 0 {
		return fmt.Errorf("refine: fetch on a source without a primary key: %w", ErrArgument)
	}
	var vals []interface{}
	switch v := value.(type) {
	case []interface{}:
		vals = v
	default:
		vals = []interface{}{value}
	}
	if len(vals) != len(pk) {
		return fmt.Errorf("refine: fetch expects %d primary key value(s), got %d: %w",
			len(pk), len(vals), ErrArgument)
	}
	conds := make([]*sqlgen.Cond, len(pk))
	for i, col := range pk {
		if vals[i] == nil {
			return fmt.Errorf("refine: fetch value for primary key column %q is nil: %w",
				col, ErrArgument)
		}
		conds[i] = sqlgen.Eq(col, vals[i])
	}
	staged[ClauseWhere] = sqlgen.Merge(currentWhere(staged), sqlgen.And(conds...))
	staged[ClauseResultAs] = "firstrow"
	return nil
}

// narrowColumns enforces that a new explicit column list only restricts a
// previous one. A previous list of just "*" places no restriction.
func narrowColumns(staged Args, cols []string) error {
	prev, ok := staged[ClauseColumns].([]string)
	if ok && !(len(prev) == 1 && prev[0] == "*") {
		allowed := make(map[string]bool, len(prev))
		for _, c := range prev {
			allowed[c] = true
		}
		for _, c := range cols {
			if !allowed[c] {
				return fmt.Errorf("refine: column %q is not in the current column list: %w",
					c, ErrArgument)
			}
		}
	}
	staged[ClauseColumns] = cols
	return nil
}

func asCond(clause Clause, value interface{}) (*sqlgen.Cond, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case *sqlgen.Cond:
		return v, nil
	default:
		return nil, fmt.Errorf("refine: %s expects *sqlgen.Cond, got %T: %w", clause, value, ErrArgument)
	}
}

func asStringSlice(clause Clause, value interface{}) ([]string, error) {
	switch v := value.(type) {
	case string:
		return []string{v}, nil
	case []string:
		return v, nil
	default:
		return nil, fmt.Errorf("refine: %s expects a string or []string, got %T: %w", clause, value, ErrArgument)
	}
}

func asInt64(clause Clause, value interface{}) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("%s expects an integer, got %T: %w", clause, value, ErrArgument)
	}
}
