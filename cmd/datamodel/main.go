// Package main is the entry point for the datamodel CLI.
package main

import (
	"fmt"
	"os"

	"github.com/NachosDevs/datamodel/cmd/datamodel/commands"
	"github.com/spf13/cobra"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	rootCmd := &cobra.Command{
		Use:   "datamodel",
		Short: "Statement engine for relational selects",
		Long: `datamodel builds SELECT statements from declarative clauses, compiles
them to SQL and runs them against PostgreSQL, MySQL or SQLite.`,
		Version: fmt.Sprintf("%s (commit: %s)", commands.Version, commands.GitCommit),
	}

	rootCmd.AddCommand(commands.NewExplainCommand())
	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd.Execute()
}
