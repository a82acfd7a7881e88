// Package sqlgen assembles SELECT statements for different database
// providers. It renders a structured description of a query (source tables,
// condition trees, pagination) into a SQL string that always uses ?
// positional markers, together with the bind values those markers stand for.
package sqlgen

import (
	"fmt"
	"strings"
)

// Compiled is the output of Builder.Select: the SQL text, its bind values in
// marker order, and the alias maps discovered while rendering.
type Compiled struct {
	SQL            string
	Bind           []interface{}
	AliasedTables  map[string]string
	AliasedColumns map[string]string
}

// Fragment is a piece of SQL carrying its own bind values. It can stand as
// the value side of a comparison (rendered in parentheses, as for an IN
// subquery) or as the operand of a set operation.
type Fragment struct {
	SQL  string
	Bind []interface{}
}

// SetOp appends a set operation to a select. The SQL member is a complete
// inner select, already rendered with ? markers.
type SetOp struct {
	Keyword string // "UNION", "UNION ALL", "INTERSECT", "EXCEPT" or "MINUS"
	SQL     string
	Bind    []interface{}
}

// OrderBy represents one ORDER BY term.
type OrderBy struct {
	Field     string
	Direction string // "ASC" or "DESC"
}

// ParseOrderBy turns a "-field" / "+field" / "field" spec into an OrderBy
// term, the leading minus meaning descending order.
func ParseOrderBy(spec string) OrderBy {
	switch {
	case strings.HasPrefix(spec, "-"):
		return OrderBy{Field: spec[1:], Direction: "DESC"}
	case strings.HasPrefix(spec, "+"):
		return OrderBy{Field: spec[1:], Direction: "ASC"}
	default:
		return OrderBy{Field: spec, Direction: "ASC"}
	}
}

// SelectParams carries everything Select needs to render one statement.
type SelectParams struct {
	From     *From
	Columns  []string
	Where    *Cond
	GroupBy  []string
	Having   *Cond
	OrderBy  []OrderBy
	Limit    *int64
	Offset   *int64
	For      string // lock clause suffix, e.g. "UPDATE" or "READ ONLY"
	Distinct bool
	SetOps   []SetOp
}

// Builder renders SelectParams into SQL for one dialect.
type Builder struct {
	dialect Dialect
}

// NewBuilder creates a builder for the given provider name.
func NewBuilder(provider string) *Builder {
	return &Builder{dialect: NewDialect(provider)}
}

// NewBuilderWithDialect creates a builder over an explicit dialect.
func NewBuilderWithDialect(d Dialect) *Builder {
	return &Builder{dialect: d}
}

// Dialect returns the dialect this builder renders for.
func (b *Builder) Dialect() Dialect {
	return b.dialect
}

// LimitOffset renders the dialect's pagination clause and its bind values.
// The exact text returned here is what Select appends, so callers can locate
// and strip it from a compiled statement again.
func (b *Builder) LimitOffset(limit, offset *int64) (string, []interface{}) {
	return b.dialect.LimitOffset(limit, offset)
}

// TableAlias renders a table or subquery expression under an alias.
func (b *Builder) TableAlias(expr, alias string) string {
	return b.dialect.TableAlias(expr, alias)
}

// Select renders the full statement. Column entries may carry a requested
// alias in "expr|alias" form; those are rewritten to AS syntax and recorded
// in Compiled.AliasedColumns.
func (b *Builder) Select(p SelectParams) (*Compiled, error) {
	d := b.dialect
	out := &Compiled{
		AliasedTables:  make(map[string]string),
		AliasedColumns: make(map[string]string),
	}
	var parts []string
	var args []interface{}

	// SELECT columns
	sel := "SELECT "
	if p.Distinct {
		sel = "SELECT DISTINCT "
	}
	if len(p.Columns) == 0 {
		parts = append(parts, sel+"*")
	} else {
		cols := make([]string, len(p.Columns))
		for i, col := range p.Columns {
			expr, alias, found := strings.Cut(col, "|")
			if found && alias != "" {
				out.AliasedColumns[alias] = expr
				cols[i] = fmt.Sprintf("%s AS %s", d.Quote(expr), d.Quote(alias))
			} else {
				cols[i] = d.Quote(expr)
			}
		}
		parts = append(parts, sel+strings.Join(cols, ", "))
	}

	// FROM
	fromSQL, err := p.From.render(d, &args, out.AliasedTables)
	if err != nil {
		return nil, err
	}
	parts = append(parts, "FROM "+fromSQL)

	// WHERE
	if p.Where != nil {
		whereSQL, err := p.Where.render(d, &args)
		if err != nil {
			return nil, err
		}
		parts = append(parts, "WHERE "+whereSQL)
	}

	// GROUP BY
	if len(p.GroupBy) > 0 {
		groups := make([]string, len(p.GroupBy))
		for i, g := range p.GroupBy {
			groups[i] = d.Quote(g)
		}
		parts = append(parts, "GROUP BY "+strings.Join(groups, ", "))
	}

	// HAVING
	if p.Having != nil {
		havingSQL, err := p.Having.render(d, &args)
		if err != nil {
			return nil, err
		}
		parts = append(parts, "HAVING "+havingSQL)
	}

	// set operations, each a pre-rendered inner select
	for _, op := range p.SetOps {
		kw := strings.ToUpper(strings.TrimSpace(op.Keyword))
		switch kw {
		case "UNION", "UNION ALL", "INTERSECT", "INTERSECT ALL", "EXCEPT", "EXCEPT ALL", "MINUS":
		default:
			return nil, fmt.Errorf("sqlgen: unknown set operator %q", op.Keyword)
		}
		parts = append(parts, kw+" "+op.SQL)
		args = append(args, op.Bind...)
	}

	// ORDER BY applies to the whole compound statement
	if len(p.OrderBy) > 0 {
		orderParts := make([]string, len(p.OrderBy))
		for i, ob := range p.OrderBy {
			direction := "ASC"
			if strings.EqualFold(ob.Direction, "DESC") {
				direction = "DESC"
			}
			orderParts[i] = fmt.Sprintf("%s %s", d.Quote(ob.Field), direction)
		}
		parts = append(parts, "ORDER BY "+strings.Join(orderParts, ", "))
	}

	// LIMIT / OFFSET
	if limitSQL, limitArgs := d.LimitOffset(p.Limit, p.Offset); limitSQL != "" {
		parts = append(parts, limitSQL)
		args = append(args, limitArgs...)
	}

	// lock clause
	if p.For != "" {
		parts = append(parts, "FOR "+p.For)
	}

	out.SQL = strings.Join(parts, " ")
	out.Bind = args
	return out, nil
}
