package statement

import (
	"fmt"
	"sort"
	"strings"

	"github.com/NachosDevs/datamodel/internal/debug"
	"github.com/NachosDevs/datamodel/sqlgen"
)

// Sqlize compiles the accumulated clauses into SQL text and bind values.
// Extra argument sets are refined in first. Compilation happens exactly
// once; recompiling is a lifecycle error. On failure the statement keeps
// its pre-call state and no compiled artifacts are produced.
func (st *Statement) Sqlize(extra ...Args) error {
	if st.status >= StatusSqlized {
		return &StateError{Op: "sqlize", Status: st.status}
	}
	for _, a := range extra {
		if err := st.Refine(a); err != nil {
			return err
		}
	}

	shape := st.ResultShape()

	// the source's built-in filter comes first, so accumulated conditions
	// can only restrict it further
	where := sqlgen.Merge(st.source.BaseFilter(), currentWhere(st.args))

	// fresh FROM descriptor: join-leg injection below must not leak back
	// into the shared source definition
	from := st.source.From()

	params := sqlgen.SelectParams{From: from, Where: where}

	if cols, ok := st.args[ClauseColumns].([]string); ok {
		params.Columns = cols
	} else {
		params.Columns = st.source.DefaultColumns()
	}

	switch v := st.args[ClauseDistinct].(type) {
	case nil:
	case bool:
		params.Distinct = v
	case []string:
		params.Distinct = true
		params.Columns = v
	default:
		return fmt.Errorf("sqlize: distinct expects a bool or []string, got %T: %w", v, ErrArgument)
	}

	if v, ok := st.args[ClauseGroupBy]; ok {
		groups, err := asStringSlice(ClauseGroupBy, v)
		if err != nil {
			return err
		}
		params.GroupBy = groups
	}
	if v, ok := st.args[ClauseHaving]; ok {
		having, err := asCond(ClauseHaving, v)
		if err != nil {
			return err
		}
		params.Having = having
	}

	order, err := orderTerms(st.args[ClauseOrderBy])
	if err != nil {
		return err
	}
	params.OrderBy = order

	limit, offset, err := st.paginationBounds()
	if err != nil {
		return err
	}
	// single-row shapes fetch at most one row unless the caller said otherwise
	if limit == nil && shape == "firstrow" && st.schema.AutoLimitSingle() {
		one := int64(1)
		limit = &one
	}
	params.Limit = limit
	params.Offset = offset

	// a subquery must not carry a row lock
	if shape != "subquery" {
		if v, ok := st.args[ClauseFor]; ok {
			lock, ok := v.(string)
			if !ok {
				return fmt.Errorf("sqlize: for expects a string, got %T: %w", v, ErrArgument)
			}
			params.For = lock
		} else {
			params.For = st.schema.SelectImplicitlyFor()
		}
	}

	if err := applyWhereOn(st.args[ClauseWhereOn], from); err != nil {
		return err
	}
	resolveJoinConditions(from, st.args[ClauseJoinWithUsing])

	setOps, err := collectSetOps(st.args)
	if err != nil {
		return err
	}
	params.SetOps = setOps

	compiled, err := st.schema.Builder().Select(params)
	if err != nil {
		return fmt.Errorf("sqlize: %w", err)
	}
	sqlText, bind := compiled.SQL, compiled.Bind

	if v, ok := st.args[ClausePostSQL]; ok {
		hook, err := asPostSQLHook(v)
		if err != nil {
			return err
		}
		sqlText, bind, err = hook(sqlText, bind)
		if err != nil {
			return fmt.Errorf("sqlize: post_sql hook: %w", err)
		}
	}

	// named placeholders keep their positions across repeats
	prefix := st.schema.NamedPrefix()
	paramIndices := make(map[string][]int)
	for i, v := range bind {
		if s, ok := v.(string); ok && strings.HasPrefix(s, prefix) {
			name := s[len(prefix):]
			paramIndices[name] = append(paramIndices[name], i)
		}
	}

	// bindings staged before compilation now find their positions
	for idx, v := range st.preBoundIndex {
		if idx < 0 || idx >= len(bind) {
			return fmt.Errorf("sqlize: bind position %d out of range for %d values: %w",
				idx, len(bind), ErrBinding)
		}
		bind[idx] = v
	}
	for name, v := range st.preBoundNamed {
		for _, idx := range paramIndices[name] {
			bind[idx] = v
		}
	}

	callback, err := buildRowCallback(st.source, st.schema,
		compiled.AliasedTables, compiled.AliasedColumns,
		st.args[ClauseColumnTypes], st.args[ClausePostMaterialize])
	if err != nil {
		return err
	}

	st.sql = sqlText
	st.bound = bind
	st.paramIndices = paramIndices
	st.aliasedTables = compiled.AliasedTables
	st.aliasedColumns = compiled.AliasedColumns
	st.limit = limit
	st.offset = offset
	st.setOpCount = len(setOps)
	st.rowCallback = callback
	st.status = StatusSqlized

	debug.Debug("statement: sqlized",
		"id", st.id, "sql", st.sql, "bind_count", len(st.bound))
	return nil
}

// paginationBounds folds limit, offset, page_size and page_index into the
// effective limit and offset. A page size overrides both explicit values.
func (st *Statement) paginationBounds() (*int64, *int64, error) {
	var limit, offset *int64
	if v, ok := st.args[ClauseLimit]; ok {
		n, err := asInt64(ClauseLimit, v)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlize: %w", err)
		}
		limit = &n
	}
	if v, ok := st.args[ClauseOffset]; ok {
		n, err := asInt64(ClauseOffset, v)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlize: %w", err)
		}
		offset = &n
	}
	if v, ok := st.args[ClausePageSize]; ok {
		size, err := asInt64(ClausePageSize, v)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlize: %w", err)
		}
		index := int64(1)
		if iv, ok := st.args[ClausePageIndex]; ok {
			index, err = asInt64(ClausePageIndex, iv)
			if err != nil {
				return nil, nil, fmt.Errorf("sqlize: %w", err)
			}
		}
		start := (index - 1) * size
		limit = &size
		offset = &start
	}
	return limit, offset, nil
}

// applyWhereOn merges deferred join conditions into their legs. Injecting an
// explicit condition discards the USING shortcut of that leg.
func applyWhereOn(value interface{}, from *sqlgen.From) error {
	if value == nil {
		return nil
	}
	conds, ok := value.(map[string]*sqlgen.Cond)
	if !ok {
		return fmt.Errorf("sqlize: where_on expects map[string]*sqlgen.Cond, got %T: %w",
			value, ErrArgument)
	}
	if len(conds) == 0 {
		return nil
	}
	if len(from.Legs) == 0 {
		return fmt.Errorf("sqlize: where_on requires a join source: %w", ErrArgument)
	}
	tables := make([]string, 0, len(conds))
	for table := range conds {
		tables = append(tables, table)
	}
	sort.Strings(tables) // stable bind order
	for _, table := range tables {
		leg := from.Leg(table)
		if leg == nil {
			return fmt.Errorf("sqlize: where_on table %q is not part of the join: %w",
				table, ErrArgument)
		}
		leg.On = sqlgen.Merge(leg.On, conds[table])
		leg.Using = nil
	}
	return nil
}

// resolveJoinConditions settles each leg on either ON or USING. Preference
// for USING comes from the join_with_using clause, as a blanket bool or a
// list of table names.
func resolveJoinConditions(from *sqlgen.From, preference interface{}) {
	all := false
	named := map[string]bool{}
	switch v := preference.(type) {
	case bool:
		all = v
	case string:
		named[v] = true
	case []string:
		for _, name := range v {
			named[name] = true
		}
	}
	for i := range from.Legs {
		leg := &from.Legs[i]
		preferUsing := all || named[leg.Table.Name] || named[leg.Table.Alias]
		if preferUsing && len(leg.Using) > 0 {
			leg.On = nil
		} else if leg.On != nil {
			leg.Using = nil
		}
	}
}

// collectSetOps turns set-operation clauses into builder operands, in a
// fixed keyword order.
func collectSetOps(args Args) ([]sqlgen.SetOp, error) {
	var out []sqlgen.SetOp
	for _, op := range setOpKeywords {
		v, ok := args[op.clause]
		if !ok {
			continue
		}
		frags, err := asFragments(op.clause, v)
		if err != nil {
			return nil, err
		}
		for _, f := range frags {
			out = append(out, sqlgen.SetOp{Keyword: op.keyword, SQL: f.SQL, Bind: f.Bind})
		}
	}
	return out, nil
}

func orderTerms(value interface{}) ([]sqlgen.OrderBy, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return []sqlgen.OrderBy{sqlgen.ParseOrderBy(v)}, nil
	case []string:
		out := make([]sqlgen.OrderBy, len(v))
		for i, spec := range v {
			out[i] = sqlgen.ParseOrderBy(spec)
		}
		return out, nil
	case sqlgen.OrderBy:
		return []sqlgen.OrderBy{v}, nil
	case []sqlgen.OrderBy:
		return v, nil
	default:
		return nil, fmt.Errorf("sqlize: order_by expects strings or sqlgen.OrderBy, got %T: %w",
			value, ErrArgument)
	}
}

func asFragments(clause Clause, value interface{}) ([]sqlgen.Fragment, error) {
	switch v := value.(type) {
	case sqlgen.Fragment:
		return []sqlgen.Fragment{v}, nil
	case *sqlgen.Fragment:
		return []sqlgen.Fragment{*v}, nil
	case []sqlgen.Fragment:
		return v, nil
	default:
		return nil, fmt.Errorf("sqlize: %s expects sqlgen.Fragment operands, got %T: %w",
			clause, value, ErrArgument)
	}
}

func asPostSQLHook(value interface{}) (PostSQLHook, error) {
	switch h := value.(type) {
	case PostSQLHook:
		return h, nil
	case func(string, []interface{}) (string, []interface{}, error):
		return h, nil
	default:
		return nil, fmt.Errorf("sqlize: post_sql expects a PostSQLHook, got %T: %w",
			value, ErrArgument)
	}
}
