package main

import (
	"fmt"
	"path"
	"strconv"

	"github.com/spf13/cobra"

	"etdbridge/internal/daemonrun"
	"etdbridge/internal/logging"
)

func newStorageCommand(ctx *commandContext) *cobra.Command {
	storageCmd := &cobra.Command{
		Use:   "storage",
		Short: "Inspect the remote storage backend",
	}
	storageCmd.AddCommand(&cobra.Command{
		Use:   "ls [remote-path]",
		Short: "List a remote folder (defaults to storage.remote_root)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			prefix := cfg.Storage.RemoteRoot
			if len(args) == 1 {
				prefix = args[0]
			}

			backend, closeBackend, err := daemonrun.OpenBackend(cmd.Context(), cfg, logging.NewNop())
			if err != nil {
				return fmt.Errorf("open storage backend: %w", err)
			}
			defer closeBackend()

			entries, err := backend.List(cmd.Context(), prefix)
			if err != nil {
				return fmt.Errorf("list %s: %w", prefix, err)
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintf(out, "%s is empty\n", prefix)
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				kind, size := "file", strconv.FormatInt(entry.Size, 10)
				if entry.Dir {
					kind, size = "dir", ""
				}
				rows = append(rows, []string{path.Base(entry.Name), kind, size})
			}
			fmt.Fprintln(out, renderTable([]string{"Name", "Type", "Size"}, rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight}))
			return nil
		},
	})
	return storageCmd
}
