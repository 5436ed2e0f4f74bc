package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"etdbridge/internal/daemonrun"
	"etdbridge/internal/logging"
	"etdbridge/internal/preflight"
	"etdbridge/internal/storage"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var skipStorage bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify directories, programs, and services",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			var backend storage.Backend
			if !skipStorage {
				b, closeBackend, err := daemonrun.OpenBackend(cmd.Context(), cfg, logging.NewNop())
				if err != nil {
					return fmt.Errorf("open storage backend: %w", err)
				}
				defer closeBackend()
				backend = b
			}

			results := preflight.RunAll(cmd.Context(), cfg, backend)
			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(results))
			for _, result := range results {
				label := "FAIL"
				if result.Passed {
					label = "OK"
				}
				rows = append(rows, []string{result.Name, colorizeStatus(out, result.Passed, label), result.Detail})
			}
			fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Detail"}, rows, nil))

			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d of %d checks failed", len(failed), len(results))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipStorage, "skip-storage", false, "Skip the remote storage round trip")
	return cmd
}
