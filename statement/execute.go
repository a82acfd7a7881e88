package statement

import (
	"fmt"

	"github.com/NachosDevs/datamodel/driver"
	"github.com/NachosDevs/datamodel/internal/debug"
	"github.com/NachosDevs/datamodel/schema"
)

// Prepare compiles if needed, then asks the driver for a statement handle.
// The prepare mode comes from the prepare_method clause, falling back to
// the schema default.
func (st *Statement) Prepare() error {
	if st.status < StatusSqlized {
		if err := st.Sqlize(); err != nil {
			return err
		}
	}
	if st.status != StatusSqlized {
		return &StateError{Op: "prepare", Status: st.status}
	}
	if err := st.acquireHandle(); err != nil {
		return err
	}
	st.status = StatusPrepared
	return nil
}

// acquireHandle asks the driver for a statement handle over the compiled
// SQL. It is called by Prepare and again by Execute when the previous
// cursor was finished.
func (st *Statement) acquireHandle() error {
	drv := st.schema.Driver()
	if drv == nil {
		return fmt.Errorf("prepare: %w", ErrNoConnection)
	}

	mode := st.schema.PrepareMode()
	if v, ok := st.args[ClausePrepareMethod]; ok {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("prepare: prepare_method expects a string, got %T: %w", v, ErrArgument)
		}
		mode = s
	}

	var attrs map[string]interface{}
	if v, ok := st.args[ClausePrepareAttrs]; ok {
		m, ok := v.(map[string]interface{})
		if !ok {
			return fmt.Errorf("prepare: prepare_attrs expects map[string]interface{}, got %T: %w",
				v, ErrArgument)
		}
		attrs = m
	}

	var handle driver.Handle
	var err error
	switch mode {
	case schema.PrepareModeCached:
		if cp, ok := drv.(driver.CachedPreparer); ok {
			handle, err = cp.PrepareCached(st.sql, attrs)
		} else {
			handle, err = drv.Prepare(st.sql, attrs)
		}
	case schema.PrepareModePlain, "":
		handle, err = drv.Prepare(st.sql, attrs)
	default:
		return fmt.Errorf("prepare: unknown prepare method %q: %w", mode, ErrArgument)
	}
	if err != nil {
		return err
	}

	st.handle = handle
	st.finished = false
	debug.Debug("statement: prepared", "id", st.id, "method", mode)
	return nil
}

// Execute runs the statement, preparing first if needed. Late bind values
// may be passed in any of the Bind shapes. Execute may be called again on
// an executed statement to re-run it with new bind values; each execution
// starts a fresh cursor.
func (st *Statement) Execute(bindArgs ...interface{}) error {
	if st.status < StatusPrepared {
		if err := st.Prepare(); err != nil {
			return err
		}
	} else if st.finished {
		// The previous cursor was released; get a fresh handle.
		if err := st.acquireHandle(); err != nil {
			return err
		}
	}
	if len(bindArgs) > 0 {
		if err := st.Bind(bindArgs...); err != nil {
			return err
		}
	}

	st.rowNum = 0
	st.rowCount = 0
	st.hasRowCount = false
	st.fastMode = false
	st.fastRow = nil
	st.fastBuf = nil
	st.columns = nil

	preHook, err := asExecHook(ClausePreExec, st.args[ClausePreExec])
	if err != nil {
		return err
	}
	postHook, err := asExecHook(ClausePostExec, st.args[ClausePostExec])
	if err != nil {
		return err
	}

	if preHook != nil {
		if err := preHook(st.handle); err != nil {
			return fmt.Errorf("execute: pre_exec hook: %w", err)
		}
	}

	if err := st.checkUnbound(); err != nil {
		return err
	}

	if err := st.handle.Execute(st.bound); err != nil {
		return err
	}

	if postHook != nil {
		if err := postHook(st.handle); err != nil {
			return fmt.Errorf("execute: post_exec hook: %w", err)
		}
	}

	st.status = StatusExecuted
	debug.Debug("statement: executed", "id", st.id, "bind_count", len(st.bound))
	return nil
}

// checkUnbound verifies that every named placeholder has received a value.
// All missing names are reported together; a missing name usually means a
// foreign key value was never supplied.
func (st *Statement) checkUnbound() error {
	if len(st.paramIndices) == 0 {
		return nil
	}
	prefix := st.schema.NamedPrefix()
	var missing []string
	for name, positions := range st.paramIndices {
		if s, ok := st.bound[positions[0]].(string); ok && s == prefix+name {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return NewBindError(missing)
	}
	return nil
}

// Bind stages or applies bind values. Accepted shapes:
//
//	Bind("name", v1, "other", v2)     alternating names and values
//	Bind(map[string]interface{}{...}) one mapping
//	Bind([]interface{}{v1, v2})       positional, by index
//	Bind("name", v, typeMeta)         one value with driver type metadata
//
// Before compilation, bindings are staged and applied once placeholder
// positions are known. After compilation, a name with no recorded
// placeholder is silently ignored.
func (st *Statement) Bind(args ...interface{}) error {
	switch len(args) {
	case 0:
		return nil
	case 1:
		switch v := args[0].(type) {
		case map[string]interface{}:
			for name, value := range v {
				st.bindName(name, value)
			}
			return nil
		case []interface{}:
			for i, value := range v {
				if err := st.bindIndex(i, value); err != nil {
					return err
				}
			}
			return nil
		default:
			return fmt.Errorf("bind: single argument must be a map or a slice, got %T: %w",
				args[0], ErrBinding)
		}
	case 3:
		// name/value/type form, told apart from an alternating list by
		// its non-string third argument
		if name, ok := args[0].(string); ok {
			if _, isString := args[2].(string); !isString {
				st.bindName(name, driver.TypedValue{Value: args[1], Type: args[2]})
				return nil
			}
		}
	}

	if len(args)%2 != 0 {
		return fmt.Errorf("bind: odd number of arguments (%d): %w", len(args), ErrBinding)
	}
	for i := 0; i < len(args); i += 2 {
		name, ok := args[i].(string)
		if !ok {
			return fmt.Errorf("bind: argument %d must be a placeholder name, got %T: %w",
				i, args[i], ErrBinding)
		}
		st.bindName(name, args[i+1])
	}
	return nil
}

func (st *Statement) bindName(name string, value interface{}) {
	if st.status < StatusSqlized {
		st.preBoundNamed[name] = value
		return
	}
	for _, idx := range st.paramIndices[name] {
		st.bound[idx] = value
	}
}

func (st *Statement) bindIndex(i int, value interface{}) error {
	if st.status < StatusSqlized {
		st.preBoundIndex[i] = value
		return nil
	}
	if i < 0 || i >= len(st.bound) {
		return fmt.Errorf("bind: position %d out of range for %d bind values: %w",
			i, len(st.bound), ErrBinding)
	}
	st.bound[i] = value
	return nil
}

func asExecHook(clause Clause, value interface{}) (ExecHook, error) {
	switch h := value.(type) {
	case nil:
		return nil, nil
	case ExecHook:
		return h, nil
	case func(driver.Handle) error:
		return h, nil
	default:
		return nil, fmt.Errorf("execute: %s expects an ExecHook, got %T: %w",
			clause, value, ErrArgument)
	}
}
