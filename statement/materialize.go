package statement

import (
	"fmt"
	"strings"

	"github.com/NachosDevs/datamodel/schema"
	"github.com/NachosDevs/datamodel/types"
)

// buildRowCallback builds the closure applied to every fetched row: it tags
// the row with the source's class, attaches the owning schema in
// multi-schema mode, runs the inbound column handlers and finally the
// caller's post-materialization hook. The closure captures only what it
// needs; it must never hold the statement itself, so that dropping the
// statement releases it.
func buildRowCallback(src schema.Source, sch *schema.Schema,
	aliasedTables, aliasedColumns map[string]string,
	overridesArg, postHookArg interface{}) (RowHook, error) {

	var overrides map[string][]string
	if overridesArg != nil {
		m, ok := overridesArg.(map[string][]string)
		if !ok {
			return nil, fmt.Errorf("column_types expects map[string][]string, got %T: %w",
				overridesArg, ErrArgument)
		}
		overrides = m
	}

	var postHook RowHook
	if postHookArg != nil {
		switch h := postHookArg.(type) {
		case RowHook:
			postHook = h
		case func(*Row) error:
			postHook = h
		default:
			return nil, fmt.Errorf("post_materialize expects a RowHook, got %T: %w",
				postHookArg, ErrArgument)
		}
	}

	class := src.Class()
	var schemaRef *schema.Schema
	if sch.MultiSchema() {
		schemaRef = sch
	}

	// the handler map is computed on the first row and cached; statements
	// run single-threaded, so a plain memo is enough
	var handlers map[string]types.Handler
	var handlersErr error
	resolved := false

	return func(row *Row) error {
		if !resolved {
			handlers, handlersErr = computeHandlers(src, sch, aliasedTables, aliasedColumns, overrides)
			resolved = true
		}
		if handlersErr != nil {
			return handlersErr
		}
		row.Class = class
		row.Schema = schemaRef
		for col, h := range handlers {
			v, ok := row.Values[col]
			if !ok {
				continue
			}
			nv, err := h(v)
			if err != nil {
				return fmt.Errorf("column %q: %w", col, err)
			}
			row.Values[col] = nv
		}
		if postHook != nil {
			return postHook(row)
		}
		return nil
	}, nil
}

// computeHandlers derives the column name to inbound handler mapping:
// the source's declared column types (ancestors included), then handlers
// recovered through column aliases, then per-statement overrides, each
// layer winning over the previous one.
func computeHandlers(src schema.Source, sch *schema.Schema,
	aliasedTables, aliasedColumns map[string]string,
	overrides map[string][]string) (map[string]types.Handler, error) {

	handlers := make(map[string]types.Handler)

	for col, typeName := range src.ColumnTypes() {
		if ct, ok := sch.ColumnType(typeName); ok && ct.FromDB != nil {
			handlers[col] = ct.FromDB
		}
	}

	// an aliased column keeps the handler of the column it stands for
	for alias, expr := range aliasedColumns {
		table, col, qualified := strings.Cut(expr, ".")
		if !qualified {
			if h, ok := handlers[expr]; ok {
				handlers[alias] = h
			}
			continue
		}
		real := table
		if r, ok := lookupFold(aliasedTables, table); ok {
			real = r
		}
		t, ok := sch.TableByName(real)
		if !ok {
			continue
		}
		typeName, ok := t.ColumnTypes()[col]
		if !ok {
			continue
		}
		if ct, ok := sch.ColumnType(typeName); ok && ct.FromDB != nil {
			handlers[alias] = ct.FromDB
		}
	}

	for typeName, cols := range overrides {
		ct, ok := sch.ColumnType(typeName)
		if !ok {
			return nil, fmt.Errorf("column type %q is not registered: %w", typeName, ErrLookup)
		}
		for _, col := range cols {
			if ct.FromDB != nil {
				handlers[col] = ct.FromDB
			} else {
				delete(handlers, col)
			}
		}
	}
	return handlers, nil
}

// lookupFold is a case-insensitive map lookup.
func lookupFold(m map[string]string, key string) (string, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}
