package commands

import (
	"github.com/NachosDevs/datamodel/internal/config"
	"github.com/NachosDevs/datamodel/internal/ui"
	"github.com/spf13/cobra"
)

// NewExplainCommand creates the explain command.
func NewExplainCommand() *cobra.Command {
	var opts selectOptions

	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Compile a select and print the generated SQL",
		Long: `Build a select statement from flags, compile it and print the
generated SQL together with its bind values. No database connection
is opened.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(&opts)
		},
	}

	opts.register(cmd)

	return cmd
}

func runExplain(opts *selectOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	st, err := opts.buildStatement(cfg, nil)
	if err != nil {
		return err
	}
	if err := st.Sqlize(); err != nil {
		return err
	}

	sqlText, bind, err := st.SQL()
	if err != nil {
		return err
	}

	ui.Plain("%s", sqlText)
	if len(bind) == 0 {
		return nil
	}

	ui.Primary("\nBind values:")
	for i, v := range bind {
		ui.Info("  ?%d = %s", i+1, formatValue(v))
	}
	return nil
}
