package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"factuboard/internal/domain"
)

func newIngestCmd(opts *rootOptions) *cobra.Command {
	var actor string

	cmd := &cobra.Command{
		Use:   "ingest <module> <file>",
		Short: "Ingest a spreadsheet into a module cache",
		Long: "Parses, validates, and filters a .csv/.xlsx export, then replaces the " +
			"module's Parquet cache. Prints the per-row accounting report.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutputFormat(*opts.output); err != nil {
				return err
			}
			module, path := args[0], args[1]
			if !domain.KnownModule(module) {
				return domain.ErrNotFound("module %q", module)
			}

			f, err := os.Open(path) //nolint:gosec // user-supplied CLI argument
			if err != nil {
				return err
			}
			defer f.Close() //nolint:errcheck

			e, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer e.Close()

			report, err := e.App.Loader.Ingest(cmd.Context(), actor, module, filepath.Base(path), f)
			if err != nil {
				return err
			}
			return printReport(cmd, opts, report)
		},
	}

	cmd.Flags().StringVar(&actor, "actor", "cli", "actor recorded in the audit trail")
	return cmd
}

func printReport(cmd *cobra.Command, opts *rootOptions, report *domain.IngestionReport) error {
	if opts.json() {
		return printJSON(cmd.OutOrStdout(), report)
	}

	rows := [][]string{
		{"job", report.JobID},
		{"module", report.Module},
		{"rows read", strconv.Itoa(report.RowsRead)},
		{"rows committed", strconv.Itoa(report.RowsCommitted)},
		{"rows rejected", strconv.Itoa(report.RowsRejected)},
		{"dropped (status)", strconv.Itoa(report.RowsDroppedStatus)},
		{"dropped (roster)", strconv.Itoa(report.RowsDroppedRoster)},
	}
	if err := printTable(cmd.OutOrStdout(), []string{"FIELD", "VALUE"}, rows); err != nil {
		return err
	}
	for _, re := range report.RowErrors {
		fmt.Fprintf(cmd.OutOrStdout(), "row %d: %s: %s\n", re.Row, re.Column, re.Reason)
	}
	return nil
}
