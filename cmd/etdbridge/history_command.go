package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"etdbridge/internal/api"
	"etdbridge/internal/journal"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		filter journal.Filter
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent submissions from the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Paths.JournalPath == "" {
				return fmt.Errorf("paths.journal_path is not configured")
			}
			store, err := journal.Open(cfg.Paths.JournalPath)
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer store.Close()

			records, err := store.Recent(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, api.SubmissionListResponse{Items: api.FromRecords(records)})
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No submissions recorded")
				return nil
			}
			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				detail := rec.RecordKey
				if rec.ErrorKind != "" {
					detail = rec.ErrorKind + ": " + rec.ErrorMessage
				}
				rows = append(rows, []string{
					strconv.FormatInt(rec.ID, 10),
					rec.Destination,
					rec.Submission,
					rec.State,
					strconv.Itoa(rec.Resources),
					rec.UpdatedAt.Local().Format("2006-01-02 15:04"),
					detail,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Destination", "Submission", "State", "Files", "Updated", "Detail"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&filter.Destination, "destination", "", "Only show this destination")
	cmd.Flags().StringSliceVar(&filter.States, "state", nil, "Only show these states (repeatable)")
	cmd.Flags().IntVar(&filter.Limit, "limit", 50, "Maximum rows")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON")
	return cmd
}
