package driver

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/NachosDevs/datamodel/internal/debug"
	"github.com/NachosDevs/datamodel/sqlgen"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/lib/pq"              // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver
)

// SQL is a Driver over a database/sql connection pool. SQL text arrives with
// ? markers; the adapter rewrites them into whatever the underlying driver
// expects before preparing.
type SQL struct {
	db       *sql.DB
	provider string
	dialect  sqlgen.Dialect
	ctx      context.Context
	cache    *stmtCache
}

// Open connects to the database identified by provider and dsn.
func Open(provider, dsn string) (*SQL, error) {
	driverName := driverNameFor(provider)
	if driverName == "" {
		return nil, fmt.Errorf("driver: unsupported provider %q", provider)
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("driver: open %s: %w", provider, err)
	}
	return NewSQL(provider, db), nil
}

// NewSQL wraps an already opened connection pool.
func NewSQL(provider string, db *sql.DB) *SQL {
	return &SQL{
		db:       db,
		provider: provider,
		dialect:  sqlgen.NewDialect(provider),
		ctx:      context.Background(),
	}
}

// driverNameFor maps provider names to database/sql driver names.
func driverNameFor(provider string) string {
	switch provider {
	case "postgresql", "postgres", "pgx":
		return "postgres"
	case "mysql", "mariadb":
		return "mysql"
	case "sqlite", "sqlite3":
		return "sqlite3"
	default:
		return ""
	}
}

// WithContext returns a copy of the driver whose statements run under ctx.
// The statement cache stays shared with the original.
func (d *SQL) WithContext(ctx context.Context) *SQL {
	clone := *d
	clone.ctx = ctx
	return &clone
}

// BindContext implements ContextBinder.
func (d *SQL) BindContext(ctx context.Context) Driver {
	return d.WithContext(ctx)
}

// EnableStmtCache switches Prepare to a shared LRU of prepared statements.
// Evicted statements are closed; handles over cached statements do not close
// them on Finish.
func (d *SQL) EnableStmtCache(maxSize int) {
	d.cache = newStmtCache(maxSize)
}

// CacheStats reports statement cache activity. Zero value when the cache is
// not enabled.
func (d *SQL) CacheStats() CacheStats {
	if d.cache == nil {
		return CacheStats{}
	}
	return d.cache.snapshot()
}

// Provider returns the provider name this driver was opened with.
func (d *SQL) Provider() string { return d.provider }

// DB returns the underlying connection pool.
func (d *SQL) DB() *sql.DB { return d.db }

// Prepare compiles sql into a fresh Handle. The handle owns its prepared
// statement and closes it on Finish.
func (d *SQL) Prepare(sqlText string, attrs map[string]interface{}) (Handle, error) {
	_ = attrs // database/sql has no per-prepare attributes
	converted := d.dialect.ConvertPlaceholders(sqlText)

	stmt, err := d.db.PrepareContext(d.ctx, converted)
	if err != nil {
		return nil, fmt.Errorf("driver: prepare: %w", err)
	}
	return &sqlHandle{stmt: stmt, ctx: d.ctx}, nil
}

// PrepareCached compiles sql through the shared statement cache, creating the
// cache on first use. Handles over cached statements do not close them on
// Finish; they stay prepared for the next caller.
func (d *SQL) PrepareCached(sqlText string, attrs map[string]interface{}) (Handle, error) {
	_ = attrs
	if d.cache == nil {
		d.EnableStmtCache(DefaultStmtCacheSize)
	}
	converted := d.dialect.ConvertPlaceholders(sqlText)

	if stmt, ok := d.cache.get(converted); ok {
		return &sqlHandle{stmt: stmt, ctx: d.ctx, shared: true}, nil
	}
	stmt, err := d.db.PrepareContext(d.ctx, converted)
	if err != nil {
		return nil, fmt.Errorf("driver: prepare: %w", err)
	}
	d.cache.put(converted, stmt)
	return &sqlHandle{stmt: stmt, ctx: d.ctx, shared: true}, nil
}

// Query runs a one-off statement and drains its rows.
func (d *SQL) Query(sqlText string, bind []interface{}) ([][]interface{}, []string, error) {
	converted := d.dialect.ConvertPlaceholders(sqlText)
	debug.Debug("driver: query", "sql", converted, "bind_count", len(bind))

	rows, err := d.db.QueryContext(d.ctx, converted, UnwrapBind(bind)...)
	if err != nil {
		return nil, nil, fmt.Errorf("driver: query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("driver: columns: %w", err)
	}

	var out [][]interface{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, fmt.Errorf("driver: scan: %w", err)
		}
		normalizeRow(values)
		out = append(out, values)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("driver: rows: %w", err)
	}
	return out, columns, nil
}

// Ping verifies the connection.
func (d *SQL) Ping() error {
	return d.db.PingContext(d.ctx)
}

// Close clears the statement cache and closes the pool.
func (d *SQL) Close() error {
	if d.cache != nil {
		d.cache.clear()
	}
	return d.db.Close()
}

// sqlHandle is a Handle over one *sql.Stmt.
type sqlHandle struct {
	stmt     *sql.Stmt
	ctx      context.Context
	shared   bool
	finished bool
	rows     *sql.Rows
	columns  []string
	bound    []interface{}
	scan     []interface{}
}

func (h *sqlHandle) Execute(bind []interface{}) error {
	if h.finished {
		return ErrFinished
	}
	if h.rows != nil {
		h.rows.Close()
		h.rows = nil
		h.columns = nil
	}
	rows, err := h.stmt.QueryContext(h.ctx, UnwrapBind(bind)...)
	if err != nil {
		return fmt.Errorf("driver: execute: %w", err)
	}
	h.rows = rows
	return nil
}

func (h *sqlHandle) Columns() ([]string, error) {
	if h.finished {
		return nil, ErrFinished
	}
	if h.rows == nil {
		return nil, ErrNotExecuted
	}
	if h.columns == nil {
		columns, err := h.rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("driver: columns: %w", err)
		}
		h.columns = columns
	}
	return h.columns, nil
}

func (h *sqlHandle) Fetch() ([]interface{}, error) {
	if h.finished {
		return nil, ErrFinished
	}
	if h.rows == nil {
		return nil, ErrNotExecuted
	}
	if !h.rows.Next() {
		if err := h.rows.Err(); err != nil {
			return nil, fmt.Errorf("driver: fetch: %w", err)
		}
		return nil, nil
	}

	if h.bound != nil {
		if err := h.rows.Scan(h.scan...); err != nil {
			return nil, fmt.Errorf("driver: scan: %w", err)
		}
		normalizeRow(h.bound)
		return h.bound, nil
	}

	columns, err := h.Columns()
	if err != nil {
		return nil, err
	}
	values := make([]interface{}, len(columns))
	ptrs := make([]interface{}, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := h.rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("driver: scan: %w", err)
	}
	normalizeRow(values)
	return values, nil
}

// normalizeRow converts []byte cells to strings in place. Several drivers
// return text columns as []byte; rows must not depend on the provider.
func normalizeRow(values []interface{}) {
	for i, v := range values {
		if b, ok := v.([]byte); ok {
			values[i] = string(b)
		}
	}
}

func (h *sqlHandle) FetchAll() ([][]interface{}, error) {
	var out [][]interface{}
	for {
		row, err := h.Fetch()
		if err != nil {
			return nil, err
		}
		if row == nil {
			return out, nil
		}
		if h.bound != nil {
			// detach from the reused buffer
			row = append([]interface{}(nil), row...)
		}
		out = append(out, row)
	}
}

func (h *sqlHandle) BindColumns(dest []interface{}) error {
	if h.finished {
		return ErrFinished
	}
	if h.rows == nil {
		return ErrNotExecuted
	}
	columns, err := h.Columns()
	if err != nil {
		return err
	}
	if len(dest) != len(columns) {
		return fmt.Errorf("driver: bind buffer has %d slots for %d columns", len(dest), len(columns))
	}
	h.bound = dest
	h.scan = make([]interface{}, len(dest))
	for i := range dest {
		h.scan[i] = &dest[i]
	}
	return nil
}

func (h *sqlHandle) Finish() error {
	if h.finished {
		return nil
	}
	h.finished = true
	var err error
	if h.rows != nil {
		err = h.rows.Close()
		h.rows = nil
	}
	if !h.shared {
		if cerr := h.stmt.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
