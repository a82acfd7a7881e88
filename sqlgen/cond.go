package sqlgen

import (
	"fmt"
	"strings"
)

// DefaultNamedPrefix marks a string bind value as a named placeholder.
// A value of "?:user_id" is not sent to the database as-is; it reserves a
// slot that is filled later by binding the name "user_id".
const DefaultNamedPrefix = "?:"

// CondKind discriminates condition tree nodes.
type CondKind string

const (
	// CondCompare is a field/operator/value comparison
	CondCompare CondKind = "compare"
	// CondIn is field IN (values...)
	CondIn CondKind = "in"
	// CondNotIn is field NOT IN (values...)
	CondNotIn CondKind = "not_in"
	// CondNull is field IS NULL
	CondNull CondKind = "is_null"
	// CondNotNull is field IS NOT NULL
	CondNotNull CondKind = "is_not_null"
	// CondAnd joins sub-conditions with AND
	CondAnd CondKind = "and"
	// CondOr joins sub-conditions with OR
	CondOr CondKind = "or"
	// CondNot negates its single sub-condition
	CondNot CondKind = "not"
	// CondRaw is a literal SQL fragment with its own binds
	CondRaw CondKind = "raw"
)

// Cond is one node of a condition tree. Build trees with the constructor
// functions (Eq, C, In, And, Or, ...) rather than filling the struct by hand.
type Cond struct {
	Kind   CondKind
	Field  string
	Op     string
	Value  interface{}
	Subs   []*Cond
	SQL    string        // CondRaw only
	Binds  []interface{} // CondRaw only
	Values []interface{} // CondIn / CondNotIn only
}

// C builds a field/operator/value comparison, e.g. C("age", ">=", 21).
func C(field, op string, value interface{}) *Cond {
	return &Cond{Kind: CondCompare, Field: field, Op: op, Value: value}
}

// Eq builds an equality comparison. A nil value renders as IS NULL.
func Eq(field string, value interface{}) *Cond {
	return C(field, "=", value)
}

// Like builds a LIKE comparison.
func Like(field string, pattern interface{}) *Cond {
	return C(field, "LIKE", pattern)
}

// In builds field IN (values...). With no values it renders as 0=1.
func In(field string, values ...interface{}) *Cond {
	return &Cond{Kind: CondIn, Field: field, Values: values}
}

// NotIn builds field NOT IN (values...). With no values it renders as 1=1.
func NotIn(field string, values ...interface{}) *Cond {
	return &Cond{Kind: CondNotIn, Field: field, Values: values}
}

// IsNull builds field IS NULL.
func IsNull(field string) *Cond {
	return &Cond{Kind: CondNull, Field: field}
}

// IsNotNull builds field IS NOT NULL.
func IsNotNull(field string) *Cond {
	return &Cond{Kind: CondNotNull, Field: field}
}

// And joins conditions with AND. Nil entries are skipped; the result is nil
// when nothing remains, and the single condition itself when only one does.
func And(conds ...*Cond) *Cond {
	return combine(CondAnd, conds)
}

// Or joins conditions with OR, with the same nil handling as And.
func Or(conds ...*Cond) *Cond {
	return combine(CondOr, conds)
}

// Not negates a condition.
func Not(c *Cond) *Cond {
	if c == nil {
		return nil
	}
	return &Cond{Kind: CondNot, Subs: []*Cond{c}}
}

// Raw wraps a literal SQL fragment with its bind values.
func Raw(sql string, binds ...interface{}) *Cond {
	return &Cond{Kind: CondRaw, SQL: sql, Binds: binds}
}

// Param returns a named placeholder value using the default "?:" prefix.
// Use it as the value side of a comparison: Eq("user_id", Param("uid")).
func Param(name string) string {
	return DefaultNamedPrefix + name
}

// Merge combines two condition trees into their logical AND. Either side may
// be nil, in which case the other is returned unchanged. This is the merge
// primitive used when conditions accumulate across successive refinements.
func Merge(a, b *Cond) *Cond {
	return And(a, b)
}

func combine(kind CondKind, conds []*Cond) *Cond {
	kept := make([]*Cond, 0, len(conds))
	for _, c := range conds {
		if c != nil {
			kept = append(kept, c)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	}
	return &Cond{Kind: kind, Subs: kept}
}

// Clone deep-copies a condition tree. Bind values are copied by reference.
func (c *Cond) Clone() *Cond {
	if c == nil {
		return nil
	}
	out := &Cond{
		Kind:  c.Kind,
		Field: c.Field,
		Op:    c.Op,
		Value: c.Value,
		SQL:   c.SQL,
	}
	if c.Binds != nil {
		out.Binds = append([]interface{}(nil), c.Binds...)
	}
	if c.Values != nil {
		out.Values = append([]interface{}(nil), c.Values...)
	}
	for _, sub := range c.Subs {
		out.Subs = append(out.Subs, sub.Clone())
	}
	return out
}

// render writes the condition as SQL with ? markers, appending bind values
// to args in marker order.
func (c *Cond) render(d Dialect, args *[]interface{}) (string, error) {
	switch c.Kind {
	case CondCompare:
		if c.Value == nil {
			switch c.Op {
			case "=":
				return fmt.Sprintf("%s IS NULL", d.Quote(c.Field)), nil
			case "!=", "<>":
				return fmt.Sprintf("%s IS NOT NULL", d.Quote(c.Field)), nil
			}
		}
		if frag, ok := c.Value.(Fragment); ok {
			*args = append(*args, frag.Bind...)
			return fmt.Sprintf("%s %s (%s)", d.Quote(c.Field), c.Op, frag.SQL), nil
		}
		*args = append(*args, c.Value)
		return fmt.Sprintf("%s %s ?", d.Quote(c.Field), c.Op), nil
	case CondIn:
		if len(c.Values) == 0 {
			return "0=1", nil
		}
		placeholders := make([]string, len(c.Values))
		for i, v := range c.Values {
			placeholders[i] = "?"
			*args = append(*args, v)
		}
		return fmt.Sprintf("%s IN (%s)", d.Quote(c.Field), strings.Join(placeholders, ", ")), nil
	case CondNotIn:
		if len(c.Values) == 0 {
			return "1=1", nil
		}
		placeholders := make([]string, len(c.Values))
		for i, v := range c.Values {
			placeholders[i] = "?"
			*args = append(*args, v)
		}
		return fmt.Sprintf("%s NOT IN (%s)", d.Quote(c.Field), strings.Join(placeholders, ", ")), nil
	case CondNull:
		return fmt.Sprintf("%s IS NULL", d.Quote(c.Field)), nil
	case CondNotNull:
		return fmt.Sprintf("%s IS NOT NULL", d.Quote(c.Field)), nil
	case CondAnd, CondOr:
		op := " AND "
		if c.Kind == CondOr {
			op = " OR "
		}
		parts := make([]string, 0, len(c.Subs))
		for _, sub := range c.Subs {
			s, err := sub.render(d, args)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return "(" + strings.Join(parts, op) + ")", nil
	case CondNot:
		if len(c.Subs) != 1 {
			return "", fmt.Errorf("sqlgen: NOT requires exactly one sub-condition, got %d", len(c.Subs))
		}
		s, err := c.Subs[0].render(d, args)
		if err != nil {
			return "", err
		}
		return "NOT (" + s + ")", nil
	case CondRaw:
		*args = append(*args, c.Binds...)
		return c.SQL, nil
	default:
		return "", fmt.Errorf("sqlgen: unknown condition kind %q", c.Kind)
	}
}
