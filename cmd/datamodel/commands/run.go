package commands

import (
	"fmt"
	"strings"

	"github.com/NachosDevs/datamodel/driver"
	"github.com/NachosDevs/datamodel/internal/config"
	"github.com/NachosDevs/datamodel/internal/ui"
	"github.com/spf13/cobra"
)

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	var opts selectOptions
	var databaseURL string
	var explain bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a select and print the rows",
		Long: `Build a select statement from flags, execute it against the database
and print the fetched rows.

The connection string comes from --database-url, the DATABASE_URL
environment variable or the config file, in that order.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(&opts, databaseURL, explain)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "Connection string (overrides DATABASE_URL)")
	cmd.Flags().BoolVar(&explain, "explain", false, "Also print the generated SQL before the rows")

	return cmd
}

func runRun(opts *selectOptions, databaseURL string, explain bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if databaseURL != "" {
		cfg.DatabaseURL = databaseURL
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("no database URL configured, set DATABASE_URL or pass --database-url")
	}

	drv, err := driver.Open(opts.resolveProvider(cfg), cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer drv.Close()

	st, err := opts.buildStatement(cfg, drv)
	if err != nil {
		return err
	}

	if explain {
		if err := st.Sqlize(); err != nil {
			return err
		}
		sqlText, bind, err := st.SQL()
		if err != nil {
			return err
		}
		ui.Info("%s", sqlText)
		for i, v := range bind {
			ui.Info("  ?%d = %s", i+1, formatValue(v))
		}
		ui.Plain("")
	}

	headers, err := st.Headers()
	if err != nil {
		return err
	}
	rows, err := st.All()
	if err != nil {
		return err
	}

	ui.Primary("%s", strings.Join(headers, "\t"))
	cells := make([]string, len(headers))
	for _, row := range rows {
		for i, col := range headers {
			cells[i] = formatValue(row.Get(col))
		}
		ui.Plain("%s", strings.Join(cells, "\t"))
	}
	ui.Success("%d row(s)", len(rows))

	return nil
}
