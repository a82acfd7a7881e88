package sqlgen

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect captures the per-provider differences in SQL rendering: identifier
// quoting, LIMIT/OFFSET syntax and the placeholder style expected by the
// database driver. Rendering always emits ? markers; ConvertPlaceholders
// rewrites them right before the statement is handed to the driver.
type Dialect interface {
	Name() string
	Quote(ident string) string
	LimitOffset(limit, offset *int64) (string, []interface{})
	ConvertPlaceholders(sql string) string
	TableAlias(expr, alias string) string
}

// NewDialect returns the dialect for the given provider name.
func NewDialect(provider string) Dialect {
	switch provider {
	case "postgresql", "postgres", "pgx":
		return &PostgresDialect{}
	case "mysql", "mariadb":
		return &MySQLDialect{}
	case "sqlite", "sqlite3":
		return &SQLiteDialect{}
	default:
		return &PostgresDialect{} // default to postgres
	}
}

// PostgresDialect renders SQL for PostgreSQL.
type PostgresDialect struct{}

func (d *PostgresDialect) Name() string { return "postgres" }

func (d *PostgresDialect) Quote(ident string) string {
	return quoteQualified(ident, `"%s"`)
}

func (d *PostgresDialect) LimitOffset(limit, offset *int64) (string, []interface{}) {
	var parts []string
	var args []interface{}
	if limit != nil {
		parts = append(parts, "LIMIT ?")
		args = append(args, *limit)
	}
	if offset != nil && *offset > 0 {
		parts = append(parts, "OFFSET ?")
		args = append(args, *offset)
	}
	return strings.Join(parts, " "), args
}

// ConvertPlaceholders rewrites ? markers into $1..$n, leaving quoted
// literals untouched.
func (d *PostgresDialect) ConvertPlaceholders(sql string) string {
	return numberPlaceholders(sql)
}

func (d *PostgresDialect) TableAlias(expr, alias string) string {
	return fmt.Sprintf("%s AS %s", expr, d.Quote(alias))
}

// MySQLDialect renders SQL for MySQL and MariaDB.
type MySQLDialect struct{}

func (d *MySQLDialect) Name() string { return "mysql" }

func (d *MySQLDialect) Quote(ident string) string {
	return quoteQualified(ident, "`%s`")
}

func (d *MySQLDialect) LimitOffset(limit, offset *int64) (string, []interface{}) {
	var parts []string
	var args []interface{}
	switch {
	case limit != nil:
		parts = append(parts, "LIMIT ?")
		args = append(args, *limit)
	case offset != nil && *offset > 0:
		// MySQL requires LIMIT when using OFFSET
		parts = append(parts, "LIMIT 18446744073709551615")
	}
	if offset != nil && *offset > 0 {
		parts = append(parts, "OFFSET ?")
		args = append(args, *offset)
	}
	return strings.Join(parts, " "), args
}

func (d *MySQLDialect) ConvertPlaceholders(sql string) string { return sql }

func (d *MySQLDialect) TableAlias(expr, alias string) string {
	return fmt.Sprintf("%s AS %s", expr, d.Quote(alias))
}

// SQLiteDialect renders SQL for SQLite.
type SQLiteDialect struct{}

func (d *SQLiteDialect) Name() string { return "sqlite" }

func (d *SQLiteDialect) Quote(ident string) string {
	return quoteQualified(ident, `"%s"`)
}

func (d *SQLiteDialect) LimitOffset(limit, offset *int64) (string, []interface{}) {
	var parts []string
	var args []interface{}
	switch {
	case limit != nil:
		parts = append(parts, "LIMIT ?")
		args = append(args, *limit)
	case offset != nil && *offset > 0:
		// SQLite accepts OFFSET only after a LIMIT; -1 means unlimited
		parts = append(parts, "LIMIT -1")
	}
	if offset != nil && *offset > 0 {
		parts = append(parts, "OFFSET ?")
		args = append(args, *offset)
	}
	return strings.Join(parts, " "), args
}

func (d *SQLiteDialect) ConvertPlaceholders(sql string) string { return sql }

func (d *SQLiteDialect) TableAlias(expr, alias string) string {
	return fmt.Sprintf("%s AS %s", expr, d.Quote(alias))
}

// quoteQualified quotes each segment of a possibly dotted identifier.
// Expressions (anything that is not a plain identifier path) and the *
// wildcard pass through unchanged.
func quoteQualified(ident, format string) string {
	if ident == "*" || !isIdentPath(ident) {
		return ident
	}
	segments := strings.Split(ident, ".")
	for i, seg := range segments {
		if seg != "*" {
			segments[i] = fmt.Sprintf(format, seg)
		}
	}
	return strings.Join(segments, ".")
}

func isIdentPath(s string) bool {
	if s == "" {
		return false
	}
	for _, seg := range strings.Split(s, ".") {
		if seg == "*" {
			continue
		}
		if seg == "" {
			return false
		}
		for _, r := range seg {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			case r >= '0' && r <= '9':
			case r == '_':
			default:
				return false
			}
		}
	}
	return true
}

// numberPlaceholders turns each ? outside quoted literals into $1..$n.
func numberPlaceholders(sql string) string {
	var sb strings.Builder
	sb.Grow(len(sql) + 8)
	n := 0
	inSingle := false
	inDouble := false
	for i := 0; i < len(sql); i++ {
		ch := sql[i]
		switch {
		case ch == '\'' && !inDouble:
			inSingle = !inSingle
		case ch == '"' && !inSingle:
			inDouble = !inDouble
		case ch == '?' && !inSingle && !inDouble:
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteByte(ch)
	}
	return sb.String()
}
