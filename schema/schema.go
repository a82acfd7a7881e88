// Package schema holds the runtime configuration that statements execute
// under: the database driver, the SQL builder and its dialect, placeholder
// conventions, and the registries of declared tables and named column types.
package schema

import (
	"context"
	"strings"
	"sync"

	"github.com/NachosDevs/datamodel/driver"
	"github.com/NachosDevs/datamodel/sqlgen"
	"github.com/NachosDevs/datamodel/types"
)

// Prepare modes selectable per schema, overridable per statement.
const (
	// PrepareModePlain prepares a fresh driver statement every time.
	PrepareModePlain = "prepare"
	// PrepareModeCached reuses prepared statements through the driver's
	// statement cache when the driver supports one.
	PrepareModeCached = "cached"
)

// Schema is the runtime configuration shared by every statement built on it.
// It is read-mostly: declare tables and column types up front, then share the
// schema freely across goroutines.
type Schema struct {
	provider            string
	drv                 driver.Driver
	builder             *sqlgen.Builder
	namedPrefix         string
	autoLimitSingle     bool
	selectImplicitlyFor string
	prepareMode         string
	multiSchema         bool

	reg *registry
}

// registry carries the mutable lookup tables, shared between a schema and
// its WithContext clones.
type registry struct {
	mu          sync.RWMutex
	columnTypes map[string]*types.ColumnType
	tables      map[string]*Table
}

// Option configures a Schema at construction time.
type Option func(*Schema)

// WithNamedPrefix changes the prefix that marks named placeholders in bind
// values. The default is "?:".
func WithNamedPrefix(prefix string) Option {
	return func(s *Schema) { s.namedPrefix = prefix }
}

// WithAutoLimitSingle controls whether single-row result shapes force a
// LIMIT 1 on the generated SQL. On by default.
func WithAutoLimitSingle(on bool) Option {
	return func(s *Schema) { s.autoLimitSingle = on }
}

// WithSelectImplicitlyFor sets a default lock clause (e.g. "UPDATE" or
// "READ ONLY") applied to selects that do not specify one.
func WithSelectImplicitlyFor(mode string) Option {
	return func(s *Schema) { s.selectImplicitlyFor = mode }
}

// WithPrepareMode sets the default driver prepare mode, PrepareModePlain or
// PrepareModeCached.
func WithPrepareMode(mode string) Option {
	return func(s *Schema) { s.prepareMode = mode }
}

// WithMultiSchema marks the schema as one of several live schemas in the
// process. Rows then carry a reference to the schema they came from.
func WithMultiSchema(on bool) Option {
	return func(s *Schema) { s.multiSchema = on }
}

// New creates a schema over a provider name and an open driver.
// The stock column types (ISODate, Bool01, JSON) come pre-registered.
func New(provider string, drv driver.Driver, opts ...Option) *Schema {
	s := &Schema{
		provider:        provider,
		drv:             drv,
		builder:         sqlgen.NewBuilder(provider),
		namedPrefix:     sqlgen.DefaultNamedPrefix,
		autoLimitSingle: true,
		prepareMode:     PrepareModePlain,
		reg: &registry{
			columnTypes: make(map[string]*types.ColumnType),
			tables:      make(map[string]*Table),
		},
	}
	for _, ct := range []*types.ColumnType{types.ISODate(), types.Bool01(), types.JSON()} {
		s.reg.columnTypes[ct.Name] = ct
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Provider returns the provider name the schema was created with.
func (s *Schema) Provider() string { return s.provider }

// Driver returns the database driver.
func (s *Schema) Driver() driver.Driver { return s.drv }

// Builder returns the SQL builder.
func (s *Schema) Builder() *sqlgen.Builder { return s.builder }

// NamedPrefix returns the named-placeholder prefix.
func (s *Schema) NamedPrefix() string { return s.namedPrefix }

// AutoLimitSingle reports whether single-row shapes force LIMIT 1.
func (s *Schema) AutoLimitSingle() bool { return s.autoLimitSingle }

// SelectImplicitlyFor returns the default lock clause, empty for none.
func (s *Schema) SelectImplicitlyFor() string { return s.selectImplicitlyFor }

// PrepareMode returns the default prepare mode.
func (s *Schema) PrepareMode() string { return s.prepareMode }

// MultiSchema reports whether rows carry a schema back-reference.
func (s *Schema) MultiSchema() bool { return s.multiSchema }

// WithContext returns a schema clone whose driver operations run under ctx,
// when the driver supports context binding. Registries stay shared.
func (s *Schema) WithContext(ctx context.Context) *Schema {
	clone := *s
	if binder, ok := s.drv.(driver.ContextBinder); ok {
		clone.drv = binder.BindContext(ctx)
	}
	return &clone
}

// RegisterColumnType adds or replaces a named column type.
func (s *Schema) RegisterColumnType(ct *types.ColumnType) {
	s.reg.mu.Lock()
	defer s.reg.mu.Unlock()
	s.reg.columnTypes[ct.Name] = ct
}

// ColumnType looks up a column type by name.
func (s *Schema) ColumnType(name string) (*types.ColumnType, bool) {
	s.reg.mu.RLock()
	defer s.reg.mu.RUnlock()
	ct, ok := s.reg.columnTypes[name]
	return ct, ok
}

// TableByClass looks up a declared table by its class name.
func (s *Schema) TableByClass(class string) (*Table, bool) {
	s.reg.mu.RLock()
	defer s.reg.mu.RUnlock()
	t, ok := s.reg.tables[class]
	return t, ok
}

// TableByName looks up a declared table by its database name, tolerating
// case differences.
func (s *Schema) TableByName(name string) (*Table, bool) {
	s.reg.mu.RLock()
	defer s.reg.mu.RUnlock()
	for _, t := range s.reg.tables {
		if strings.EqualFold(t.name, name) {
			return t, true
		}
	}
	return nil, false
}

func (s *Schema) registerTable(t *Table) {
	s.reg.mu.Lock()
	defer s.reg.mu.Unlock()
	s.reg.tables[t.class] = t
}
