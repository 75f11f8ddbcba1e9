package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"factuboard/internal/domain"
	"factuboard/internal/filter"
	"factuboard/internal/metrics"
)

func newMetricsCmd(opts *rootOptions) *cobra.Command {
	var (
		from       string
		to         string
		users      []string
		agreements []string
		statuses   []string
	)

	cmd := &cobra.Command{
		Use:   "metrics <module>",
		Short: "Compute KPIs over a module's cached table",
		Long: "Loads the module's cache, applies the optional filters, and prints the " +
			"aggregated totals, per-user breakdown, and daily trend.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutputFormat(*opts.output); err != nil {
				return err
			}
			sel, err := buildSelection(from, to, users, agreements, statuses)
			if err != nil {
				return err
			}

			e, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer e.Close()

			table, err := e.App.Loader.GetModuleTable(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			m := metrics.Summarize(filter.Apply(table, sel))
			if opts.json() {
				return printJSON(cmd.OutOrStdout(), m)
			}
			return printMetrics(cmd, m)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "start date (inclusive, 2006-01-02)")
	cmd.Flags().StringVar(&to, "to", "", "end date (inclusive, 2006-01-02)")
	cmd.Flags().StringSliceVar(&users, "user", nil, "restrict to these users (repeatable)")
	cmd.Flags().StringSliceVar(&agreements, "agreement", nil, "restrict to these agreements (repeatable)")
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "restrict to these states (repeatable)")
	return cmd
}

func buildSelection(from, to string, users, agreements, statuses []string) (domain.FilterSelection, error) {
	var sel domain.FilterSelection
	if from != "" {
		t, err := time.Parse(domain.DateLayout, from)
		if err != nil {
			return sel, domain.ErrValidation("invalid --from date %q (want %s)", from, domain.DateLayout)
		}
		sel.DateFrom = &t
	}
	if to != "" {
		t, err := time.Parse(domain.DateLayout, to)
		if err != nil {
			return sel, domain.ErrValidation("invalid --to date %q (want %s)", to, domain.DateLayout)
		}
		sel.DateTo = &t
	}
	sel.Users = users
	sel.Agreements = agreements
	sel.Statuses = statuses
	return sel, nil
}

func printMetrics(cmd *cobra.Command, m *domain.Metrics) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "module: %s\n", m.Module)
	fmt.Fprintf(out, "total rows: %d\n", m.TotalRows)
	fmt.Fprintf(out, "total value: %s\n", m.TotalValue.StringFixed(2))
	fmt.Fprintf(out, "daily average: %s\n\n", m.DailyAverage.StringFixed(2))

	if len(m.PerUser) > 0 {
		rows := make([][]string, 0, len(m.PerUser))
		for _, b := range m.PerUser {
			rows = append(rows, []string{b.Key, strconv.Itoa(b.Count), b.Value.StringFixed(2)})
		}
		if err := printTable(out, []string{"USER", "COUNT", "VALUE"}, rows); err != nil {
			return err
		}
		fmt.Fprintln(out)
	}

	if len(m.Trend) > 0 {
		rows := make([][]string, 0, len(m.Trend))
		for _, p := range m.Trend {
			rows = append(rows, []string{p.Date, strconv.Itoa(p.Count), p.Value.StringFixed(2)})
		}
		return printTable(out, []string{"DATE", "COUNT", "VALUE"}, rows)
	}
	return nil
}
