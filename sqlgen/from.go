package sqlgen

import (
	"fmt"
	"strings"
)

// Table identifies a database table, optionally under an alias.
type Table struct {
	Name  string
	Alias string
}

func (t Table) render(d Dialect, aliases map[string]string) string {
	if t.Alias == "" {
		return d.Quote(t.Name)
	}
	aliases[t.Alias] = t.Name
	return d.TableAlias(d.Quote(t.Name), t.Alias)
}

// refName is the name a table answers to in join-condition lookups.
func (t Table) refName() string {
	if t.Alias != "" {
		return t.Alias
	}
	return t.Name
}

// JoinKind enumerates SQL join operators.
type JoinKind string

const (
	// InnerJoin keeps only matching rows from both sides
	InnerJoin JoinKind = "INNER JOIN"
	// LeftJoin keeps all rows of the left side
	LeftJoin JoinKind = "LEFT OUTER JOIN"
	// RightJoin keeps all rows of the right side
	RightJoin JoinKind = "RIGHT OUTER JOIN"
	// FullJoin keeps all rows of both sides
	FullJoin JoinKind = "FULL OUTER JOIN"
	// CrossJoin is the cartesian product, with no join condition
	CrossJoin JoinKind = "CROSS JOIN"
)

// JoinLeg is one joined table together with how it joins: either an ON
// condition or a USING column list. When both are set, On wins and Using
// is ignored.
type JoinLeg struct {
	Kind  JoinKind
	Table Table
	On    *Cond
	Using []string
}

// From is the FROM clause of a select: a first table plus zero or more
// join legs.
type From struct {
	First Table
	Legs  []JoinLeg
}

// NewFrom builds a single-table FROM clause.
func NewFrom(table string) *From {
	return &From{First: Table{Name: table}}
}

// Join appends a join leg and returns the same From for chaining.
func (f *From) Join(kind JoinKind, table Table, on *Cond, using ...string) *From {
	f.Legs = append(f.Legs, JoinLeg{Kind: kind, Table: table, On: on, Using: using})
	return f
}

// Clone deep-copies the FROM clause, including every leg's join condition.
// Callers that inject conditions into legs must work on a clone so that the
// shared source definition stays untouched.
func (f *From) Clone() *From {
	if f == nil {
		return nil
	}
	out := &From{First: f.First}
	for _, leg := range f.Legs {
		cp := JoinLeg{Kind: leg.Kind, Table: leg.Table, On: leg.On.Clone()}
		if leg.Using != nil {
			cp.Using = append([]string(nil), leg.Using...)
		}
		out.Legs = append(out.Legs, cp)
	}
	return out
}

// Leg returns the join leg whose table name or alias matches, or nil when
// the name only matches the first table or nothing at all.
func (f *From) Leg(table string) *JoinLeg {
	for i := range f.Legs {
		t := f.Legs[i].Table
		if t.Name == table || t.Alias == table {
			return &f.Legs[i]
		}
	}
	return nil
}

// HasTable reports whether the given name or alias appears anywhere in the
// FROM clause, first table included.
func (f *From) HasTable(table string) bool {
	if f.First.Name == table || f.First.Alias == table {
		return true
	}
	return f.Leg(table) != nil
}

// Tables lists every table in join order, first table included.
func (f *From) Tables() []Table {
	out := make([]Table, 0, len(f.Legs)+1)
	out = append(out, f.First)
	for _, leg := range f.Legs {
		out = append(out, leg.Table)
	}
	return out
}

func (f *From) render(d Dialect, args *[]interface{}, aliases map[string]string) (string, error) {
	if f == nil || f.First.Name == "" {
		return "", fmt.Errorf("sqlgen: select requires a FROM table")
	}
	var sb strings.Builder
	sb.WriteString(f.First.render(d, aliases))
	for _, leg := range f.Legs {
		kind := leg.Kind
		if kind == "" {
			kind = InnerJoin
		}
		sb.WriteString(" ")
		sb.WriteString(string(kind))
		sb.WriteString(" ")
		sb.WriteString(leg.Table.render(d, aliases))
		switch {
		case kind == CrossJoin:
			// no join condition
		case leg.On != nil:
			onSQL, err := leg.On.render(d, args)
			if err != nil {
				return "", err
			}
			sb.WriteString(" ON ")
			sb.WriteString(onSQL)
		case len(leg.Using) > 0:
			quoted := make([]string, len(leg.Using))
			for i, col := range leg.Using {
				quoted[i] = d.Quote(col)
			}
			sb.WriteString(" USING (")
			sb.WriteString(strings.Join(quoted, ", "))
			sb.WriteString(")")
		default:
			return "", fmt.Errorf("sqlgen: join leg %q has neither ON nor USING", leg.Table.refName())
		}
	}
	return sb.String(), nil
}
