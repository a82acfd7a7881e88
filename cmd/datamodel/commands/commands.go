// Package commands implements CLI commands.
package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/NachosDevs/datamodel/driver"
	"github.com/NachosDevs/datamodel/internal/config"
	"github.com/NachosDevs/datamodel/schema"
	"github.com/NachosDevs/datamodel/sqlgen"
	"github.com/NachosDevs/datamodel/statement"
	"github.com/spf13/cobra"
)

// selectOptions holds the flags shared by the explain and run commands.
// Every field maps onto a refine clause of the statement being built.
type selectOptions struct {
	provider  string
	table     string
	class     string
	pk        []string
	columns   []string
	where     []string
	orderBy   []string
	groupBy   []string
	limit     int64
	offset    int64
	pageSize  int64
	pageIndex int64
	distinct  bool
}

func (o *selectOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.provider, "provider", "", "Database provider: postgres, mysql or sqlite (defaults to the configured provider)")
	cmd.Flags().StringVar(&o.table, "table", "", "Database table to select from")
	cmd.Flags().StringVar(&o.class, "class", "", "Class name attached to fetched rows (defaults to the table name)")
	cmd.Flags().StringSliceVar(&o.pk, "pk", nil, "Primary key column(s) of the table")
	cmd.Flags().StringSliceVar(&o.columns, "columns", nil, "Columns to select (defaults to *)")
	cmd.Flags().StringArrayVar(&o.where, "where", nil, "Filter as column=value, repeatable; values combine with AND")
	cmd.Flags().StringSliceVar(&o.orderBy, "order-by", nil, "Order by columns, prefix with - for descending")
	cmd.Flags().StringSliceVar(&o.groupBy, "group-by", nil, "Group by columns")
	cmd.Flags().Int64Var(&o.limit, "limit", -1, "Maximum number of rows (negative means no limit)")
	cmd.Flags().Int64Var(&o.offset, "offset", -1, "Number of rows to skip (negative means no offset)")
	cmd.Flags().Int64Var(&o.pageSize, "page-size", 0, "Rows per page; overrides --limit and --offset")
	cmd.Flags().Int64Var(&o.pageIndex, "page-index", 0, "1-based page number, used with --page-size")
	cmd.Flags().BoolVar(&o.distinct, "distinct", false, "Select distinct rows")
}

// resolveProvider picks the provider from the flag or the configuration.
func (o *selectOptions) resolveProvider(cfg *config.Config) string {
	if o.provider != "" {
		return o.provider
	}
	return cfg.Provider
}

// buildStatement declares the table on a one-off schema and refines a
// statement with the clauses derived from the flags. The driver may be nil
// when the statement is only compiled, never executed.
func (o *selectOptions) buildStatement(cfg *config.Config, drv driver.Driver) (*statement.Statement, error) {
	if o.table == "" {
		return nil, fmt.Errorf("a table name is required (--table)")
	}

	s := schema.New(o.resolveProvider(cfg), drv,
		schema.WithNamedPrefix(cfg.NamedPrefix))

	class := o.class
	if class == "" {
		class = o.table
	}
	src := s.Table(class, o.table, o.pk...)

	args := statement.Args{}
	if len(o.columns) > 0 {
		args[statement.ClauseColumns] = o.columns
	}
	cond, err := parseWhere(o.where)
	if err != nil {
		return nil, err
	}
	if cond != nil {
		args[statement.ClauseWhere] = cond
	}
	if len(o.orderBy) > 0 {
		args[statement.ClauseOrderBy] = o.orderBy
	}
	if len(o.groupBy) > 0 {
		args[statement.ClauseGroupBy] = o.groupBy
	}
	if o.limit >= 0 {
		args[statement.ClauseLimit] = o.limit
	}
	if o.offset >= 0 {
		args[statement.ClauseOffset] = o.offset
	}
	if o.pageSize > 0 {
		args[statement.ClausePageSize] = o.pageSize
	}
	if o.pageIndex > 0 {
		args[statement.ClausePageIndex] = o.pageIndex
	}
	if o.distinct {
		args[statement.ClauseDistinct] = true
	}

	st := statement.New(src)
	if len(args) > 0 {
		if err := st.Refine(args); err != nil {
			return nil, err
		}
	}
	return st, nil
}

// parseWhere turns column=value pairs into a single AND condition.
func parseWhere(pairs []string) (*sqlgen.Cond, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	conds := make([]*sqlgen.Cond, 0, len(pairs))
	for _, pair := range pairs {
		column, value, ok := strings.Cut(pair, "=")
		if !ok || column == "" {
			return nil, fmt.Errorf("invalid filter %q, expected column=value", pair)
		}
		conds = append(conds, sqlgen.Eq(column, parseValue(value)))
	}
	if len(conds) == 1 {
		return conds[0], nil
	}
	return sqlgen.And(conds...), nil
}

// parseValue guesses the Go type of a flag value. Numbers become int64 or
// float64, everything else stays a string.
func parseValue(s string) interface{} {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// formatValue renders a bind or column value for terminal output.
func formatValue(v interface{}) string {
	if tv, ok := v.(driver.TypedValue); ok {
		v = tv.Value
	}
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + val + "'"
	case []byte:
		return "'" + string(val) + "'"
	default:
		return fmt.Sprintf("%v", val)
	}
}
