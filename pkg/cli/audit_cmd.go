package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

func newAuditCmd(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show recent ingestion attempts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutputFormat(*opts.output); err != nil {
				return err
			}
			e, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer e.Close()

			entries, err := e.App.AuditRepo.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if opts.json() {
				return printJSON(cmd.OutOrStdout(), entries)
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{
					entry.CreatedAt.Format("2006-01-02 15:04:05"),
					entry.Actor,
					entry.Module,
					entry.Status,
					strconv.Itoa(entry.RowsRead),
					strconv.Itoa(entry.RowsDropped),
					entry.SourceFile,
				})
			}
			return printTable(cmd.OutOrStdout(),
				[]string{"WHEN", "ACTOR", "MODULE", "STATUS", "READ", "DROPPED", "FILE"}, rows)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "maximum entries to show")
	return cmd
}
