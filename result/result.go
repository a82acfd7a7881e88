// Package result turns statements into caller-facing result shapes.
//
// Shapes are looked up by name in a process-wide registry, with aliases
// collapsing onto canonical names ("arrayref" and "rows" are the same
// shape). The built-ins cover the common access patterns: full row slices,
// a single row, flattened scalar lists, rows keyed by column values, raw
// SQL fragments for subquery composition, and pass-throughs of the
// statement or its driver handle. Applications may register their own
// shapes or replace the built-ins.
package result

import (
	"fmt"
	"sync"

	"github.com/NachosDevs/datamodel/statement"
)

// Shape materializes a statement into its final form.
type Shape interface {
	Apply(st *statement.Statement) (interface{}, error)
}

// Factory builds a Shape from the extra arguments carried by the result_as
// clause, such as the key columns of the hash shape.
type Factory func(extra ...interface{}) (Shape, error)

var (
	mu     sync.RWMutex
	shapes = make(map[string]Factory)
)

// Register binds a factory to a shape name. The name is folded onto its
// canonical form first, so registering "flat" and requesting
// "flat_arrayref" meet on the same entry. A later registration replaces an
// earlier one.
func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	shapes[statement.CanonicalShape(name)] = factory
}

// New builds the shape registered under name.
func New(name string, extra ...interface{}) (Shape, error) {
	mu.RLock()
	factory, ok := shapes[statement.CanonicalShape(name)]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("result: unknown result shape %q: %w", name, statement.ErrLookup)
	}
	return factory(extra...)
}

// Apply resolves a shape by name and applies it to the statement.
func Apply(st *statement.Statement, name string, extra ...interface{}) (interface{}, error) {
	shape, err := New(name, extra...)
	if err != nil {
		return nil, err
	}
	return shape.Apply(st)
}
