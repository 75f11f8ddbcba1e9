package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
)

func newRosterCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roster",
		Short: "Manage the authorized-user roster",
	}
	cmd.AddCommand(newRosterLoadCmd(opts), newRosterListCmd(opts))
	return cmd
}

func newRosterLoadCmd(opts *rootOptions) *cobra.Command {
	var actor string

	cmd := &cobra.Command{
		Use:   "load <file>",
		Short: "Replace the roster from a DOCUMENTO/NOMBRE workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
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

			n, err := e.App.Ingestor.ReplaceRoster(cmd.Context(), actor, filepath.Base(path), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "roster replaced: %d users\n", n)
			return nil
		},
	}

	cmd.Flags().StringVar(&actor, "actor", "cli", "actor recorded in the audit trail")
	return cmd
}

func newRosterListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List authorized users",
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

			users, err := e.App.RosterRepo.All(cmd.Context())
			if err != nil {
				return err
			}

			docs := make([]string, 0, len(users))
			for doc := range users {
				docs = append(docs, doc)
			}
			sort.Strings(docs)

			if opts.json() {
				type entry struct {
					DocumentID string `json:"document_id"`
					FullName   string `json:"full_name"`
				}
				out := make([]entry, 0, len(docs))
				for _, doc := range docs {
					out = append(out, entry{DocumentID: doc, FullName: users[doc]})
				}
				return printJSON(cmd.OutOrStdout(), out)
			}

			rows := make([][]string, 0, len(docs))
			for _, doc := range docs {
				rows = append(rows, []string{doc, users[doc]})
			}
			return printTable(cmd.OutOrStdout(), []string{"DOCUMENTO", "NOMBRE"}, rows)
		},
	}
}
