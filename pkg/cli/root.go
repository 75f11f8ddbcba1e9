// Package cli implements the factuboard command-line interface. Commands
// operate in-process on the data directory and metastore, so the CLI works
// without a running server.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var (
		dataDir string
		metaDB  string
		output  string
	)

	rootCmd := &cobra.Command{
		Use:           "factuboard",
		Short:         "Back-office spreadsheet pipeline CLI",
		Long:          "Ingest, inspect, and audit the per-module spreadsheet caches that back the dashboard.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "cache directory (default $DATA_DIR or persisted_data)")
	rootCmd.PersistentFlags().StringVar(&metaDB, "meta-db", "", "SQLite metastore path (default $META_DB_PATH)")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (table, json)")

	opts := &rootOptions{dataDir: &dataDir, metaDB: &metaDB, output: &output}

	rootCmd.AddCommand(
		newIngestCmd(opts),
		newRosterCmd(opts),
		newStatusCmd(opts),
		newMetricsCmd(opts),
		newAuditCmd(opts),
		newVersionCmd(),
	)

	return rootCmd
}

// rootOptions carries the resolved persistent flags into subcommands.
type rootOptions struct {
	dataDir *string
	metaDB  *string
	output  *string
}

func (o *rootOptions) json() bool { return *o.output == "json" }
