package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"etdbridge/internal/ledger"
	"etdbridge/internal/logging"
	"etdbridge/internal/workdirs"
)

func newWorkdirsCommand(ctx *commandContext) *cobra.Command {
	var pruneAge time.Duration

	cmd := &cobra.Command{
		Use:   "workdirs",
		Short: "List extraction directories in the intake folders",
		Long: "List extraction directories in the intake folders.\n\n" +
			"With --prune-older-than, working directories of published submissions\n" +
			"older than the given age are removed. Quarantined directories are kept.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			snapshot, err := ledger.Load(cfg.Paths.LedgerDir)
			if err != nil {
				return fmt.Errorf("load ledger: %w", err)
			}
			dirs, err := workdirs.List(cfg.Paths.IntakeRoot, cfg.DestinationNames(), snapshot)
			if err != nil {
				return fmt.Errorf("list working directories: %w", err)
			}

			out := cmd.OutOrStdout()
			if pruneAge > 0 {
				result := workdirs.PrunePublished(cmd.Context(), dirs, pruneAge, time.Now(), logging.NewNop())
				for _, path := range result.Removed {
					fmt.Fprintf(out, "Removed %s\n", path)
				}
				for _, failure := range result.Errors {
					fmt.Fprintf(cmd.ErrOrStderr(), "Failed to remove %s: %v\n", failure.Path, failure.Error)
				}
				if len(result.Errors) > 0 {
					return fmt.Errorf("%d working directories could not be removed", len(result.Errors))
				}
				fmt.Fprintf(out, "Pruned %d working directories\n", len(result.Removed))
				return nil
			}

			if len(dirs) == 0 {
				fmt.Fprintln(out, "No working directories")
				return nil
			}
			rows := make([][]string, 0, len(dirs))
			for _, dir := range dirs {
				rows = append(rows, []string{
					dir.Destination,
					dir.Name,
					string(dir.State),
					humanBytes(dir.Size),
					dir.ModTime.Local().Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Destination", "Directory", "State", "Size", "Modified"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().DurationVar(&pruneAge, "prune-older-than", 0, "Remove published working directories older than this age (e.g. 720h)")
	return cmd
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
