package datamodel

import (
	"fmt"

	"github.com/NachosDevs/datamodel/result"
	"github.com/NachosDevs/datamodel/schema"
	"github.com/NachosDevs/datamodel/statement"
)

// Args collects clause arguments for a select.
type Args = statement.Args

// Row is one materialized result record.
type Row = statement.Row

// Statement drives one select through its lifecycle.
type Statement = statement.Statement

// Clause names re-exported for facade callers.
const (
	Where           = statement.ClauseWhere
	Fetch           = statement.ClauseFetch
	Columns         = statement.ClauseColumns
	WhereOn         = statement.ClauseWhereOn
	Distinct        = statement.ClauseDistinct
	OrderBy         = statement.ClauseOrderBy
	GroupBy         = statement.ClauseGroupBy
	Having          = statement.ClauseHaving
	For             = statement.ClauseFor
	Union           = statement.ClauseUnion
	UnionAll        = statement.ClauseUnionAll
	Intersect       = statement.ClauseIntersect
	IntersectAll    = statement.ClauseIntersectAll
	Except          = statement.ClauseExcept
	ExceptAll       = statement.ClauseExceptAll
	Minus           = statement.ClauseMinus
	ResultAs        = statement.ClauseResultAs
	PostSQL         = statement.ClausePostSQL
	PreExec         = statement.ClausePreExec
	PostExec        = statement.ClausePostExec
	PostMaterialize = statement.ClausePostMaterialize
	Limit           = statement.ClauseLimit
	Offset          = statement.ClauseOffset
	PageSize        = statement.ClausePageSize
	PageIndex       = statement.ClausePageIndex
	ColumnTypes     = statement.ClauseColumnTypes
	PrepareAttrs    = statement.ClausePrepareAttrs
	PrepareMethod   = statement.ClausePrepareMethod
	JoinWithUsing   = statement.ClauseJoinWithUsing
)

// New creates a statement bound to a data source, for callers that want to
// drive the lifecycle themselves.
func New(src schema.Source) *Statement {
	return statement.New(src)
}

// Select builds a statement from args and materializes it through the
// result shape named by the result_as clause, "rows" by default. The
// dynamic type of the result depends on the shape; see the result package.
func Select(src schema.Source, args Args) (interface{}, error) {
	st, err := statement.Select(src, args)
	if err != nil {
		return nil, err
	}
	name, extra := st.ResultSpec()
	return result.Apply(st, name, extra...)
}

// FetchRow retrieves one record by primary key, nil when no row matches.
// Composite keys take one value per key column, in declaration order.
func FetchRow(src schema.Source, pk ...interface{}) (*Row, error) {
	var value interface{}
	switch len(pk) {
	case 0:
		return nil, fmt.Errorf("fetch requires at least one primary key value: %w",
			statement.ErrArgument)
	case 1:
		value = pk[0]
	default:
		value = pk
	}
	st := statement.New(src)
	if err := st.Refine(Args{Fetch: value}); err != nil {
		return nil, err
	}
	row, err := st.Next()
	if err != nil {
		return nil, err
	}
	if err := st.Finish(); err != nil {
		return nil, err
	}
	return row, nil
}
