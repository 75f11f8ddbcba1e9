package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show per-module cache state",
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

			statuses := e.App.Loader.Status(cmd.Context())
			if opts.json() {
				return printJSON(cmd.OutOrStdout(), statuses)
			}

			rows := make([][]string, 0, len(statuses))
			for _, st := range statuses {
				rowCount, updated := "-", "-"
				if st.Meta != nil {
					rowCount = strconv.Itoa(st.Meta.RowCount)
					updated = st.Meta.LastUpdated.Format("2006-01-02 15:04:05")
				}
				rows = append(rows, []string{st.Module, string(st.State), rowCount, updated})
			}
			return printTable(cmd.OutOrStdout(), []string{"MODULE", "STATE", "ROWS", "UPDATED"}, rows)
		},
	}
}
