package schema

import (
	"strings"

	"github.com/NachosDevs/datamodel/sqlgen"
)

// Source is a queryable origin, either a single table or a join. It supplies
// the metadata a statement compiles against: primary key, default column
// list, a base filter every query is restricted by, the FROM descriptor
// handed to the SQL builder, and declared column types.
type Source interface {
	// Schema returns the owning schema.
	Schema() *Schema
	// Class names the kind of row this source produces.
	Class() string
	// PrimaryKey returns the primary key column names, possibly empty.
	PrimaryKey() []string
	// DefaultColumns returns the columns selected when a statement does
	// not restrict them. Empty means "*".
	DefaultColumns() []string
	// BaseFilter returns a condition every select on this source is
	// restricted by, or nil.
	BaseFilter() *sqlgen.Cond
	// From builds the FROM descriptor for the SQL builder. Each call
	// returns a fresh value the caller may mutate.
	From() *sqlgen.From
	// ColumnTypes maps column names to registered column type names,
	// including declarations inherited from ancestor sources.
	ColumnTypes() map[string]string
}

// Table describes one database table. Declare it once on a schema and share
// it; tables are read-only after declaration.
type Table struct {
	schema      *Schema
	class       string
	name        string
	alias       string
	pk          []string
	defaultCols []string
	filter      *sqlgen.Cond
	parents     []*Table
	colTypes    map[string]string
}

// Table declares a table under a class name and registers it on the schema.
func (s *Schema) Table(class, tableName string, pk ...string) *Table {
	t := &Table{
		schema:   s,
		class:    class,
		name:     tableName,
		pk:       pk,
		colTypes: make(map[string]string),
	}
	s.registerTable(t)
	return t
}

// WithAlias sets the alias the table is selected under.
func (t *Table) WithAlias(alias string) *Table {
	t.alias = alias
	return t
}

// WithDefaultColumns restricts the columns selected when a statement does
// not name any.
func (t *Table) WithDefaultColumns(cols ...string) *Table {
	t.defaultCols = cols
	return t
}

// WithFilter sets a condition every select on this table is restricted by.
func (t *Table) WithFilter(cond *sqlgen.Cond) *Table {
	t.filter = cond
	return t
}

// WithColumnType declares that the given columns hold values of a named
// column type.
func (t *Table) WithColumnType(typeName string, cols ...string) *Table {
	for _, col := range cols {
		t.colTypes[col] = typeName
	}
	return t
}

// WithParents records ancestor tables whose column type declarations this
// table inherits.
func (t *Table) WithParents(parents ...*Table) *Table {
	t.parents = append(t.parents, parents...)
	return t
}

// Schema implements Source.
func (t *Table) Schema() *Schema { return t.schema }

// Class implements Source.
func (t *Table) Class() string { return t.class }

// TableName returns the database table name.
func (t *Table) TableName() string { return t.name }

// PrimaryKey implements Source.
func (t *Table) PrimaryKey() []string {
	return append([]string(nil), t.pk...)
}

// DefaultColumns implements Source.
func (t *Table) DefaultColumns() []string {
	return append([]string(nil), t.defaultCols...)
}

// BaseFilter implements Source.
func (t *Table) BaseFilter() *sqlgen.Cond {
	return t.filter.Clone()
}

// From implements Source.
func (t *Table) From() *sqlgen.From {
	return &sqlgen.From{First: sqlgen.Table{Name: t.name, Alias: t.alias}}
}

// ColumnTypes implements Source: ancestor declarations first, own
// declarations winning on conflict.
func (t *Table) ColumnTypes() map[string]string {
	out := make(map[string]string)
	t.mergeColumnTypes(out)
	return out
}

func (t *Table) mergeColumnTypes(out map[string]string) {
	for _, parent := range t.parents {
		parent.mergeColumnTypes(out)
	}
	for col, typeName := range t.colTypes {
		out[col] = typeName
	}
}

// Leg is one joined table in a Join declaration.
type Leg struct {
	Kind  sqlgen.JoinKind
	Table *Table
	Alias string
	On    *sqlgen.Cond
	Using []string
}

// Join describes a multi-table source: a first table plus join legs. The
// join's primary key is the first table's.
type Join struct {
	schema     *Schema
	class      string
	first      *Table
	firstAlias string
	legs       []Leg
}

// Join declares a join starting from a first table.
func (s *Schema) Join(first *Table, legs ...Leg) *Join {
	classes := []string{first.class}
	for _, leg := range legs {
		classes = append(classes, leg.Table.class)
	}
	return &Join{
		schema: s,
		class:  strings.Join(classes, "+"),
		first:  first,
		legs:   legs,
	}
}

// Named overrides the derived class name of the join.
func (j *Join) Named(class string) *Join {
	j.class = class
	return j
}

// WithFirstAlias aliases the first table inside this join.
func (j *Join) WithFirstAlias(alias string) *Join {
	j.firstAlias = alias
	return j
}

// Schema implements Source.
func (j *Join) Schema() *Schema { return j.schema }

// Class implements Source.
func (j *Join) Class() string { return j.class }

// PrimaryKey implements Source.
func (j *Join) PrimaryKey() []string {
	return j.first.PrimaryKey()
}

// DefaultColumns implements Source. Joins default to the full column set.
func (j *Join) DefaultColumns() []string { return nil }

// BaseFilter implements Source: the AND of every member table's filter.
func (j *Join) BaseFilter() *sqlgen.Cond {
	filter := j.first.BaseFilter()
	for _, leg := range j.legs {
		filter = sqlgen.Merge(filter, leg.Table.BaseFilter())
	}
	return filter
}

// From implements Source.
func (j *Join) From() *sqlgen.From {
	alias := j.firstAlias
	if alias == "" {
		alias = j.first.alias
	}
	from := &sqlgen.From{First: sqlgen.Table{Name: j.first.name, Alias: alias}}
	for _, leg := range j.legs {
		from.Legs = append(from.Legs, sqlgen.JoinLeg{
			Kind:  leg.Kind,
			Table: sqlgen.Table{Name: leg.Table.name, Alias: leg.Alias},
			On:    leg.On.Clone(),
			Using: append([]string(nil), leg.Using...),
		})
	}
	return from
}

// ColumnTypes implements Source: member declarations merged in join order,
// later legs winning on column name conflicts.
func (j *Join) ColumnTypes() map[string]string {
	out := j.first.ColumnTypes()
	for _, leg := range j.legs {
		for col, typeName := range leg.Table.ColumnTypes() {
			out[col] = typeName
		}
	}
	return out
}
