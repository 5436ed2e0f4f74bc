package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"etdbridge/internal/archive"
	"etdbridge/internal/daemon"
	"etdbridge/internal/ledger"
)

func newLedgerCommand(ctx *commandContext) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect and edit the seen/broken ledger",
	}
	ledgerCmd.AddCommand(newLedgerShowCommand(ctx))
	ledgerCmd.AddCommand(newLedgerReleaseCommand(ctx))
	return ledgerCmd
}

func newLedgerShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "List archives recorded as seen or broken",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			snapshot, err := ledger.Load(cfg.Paths.LedgerDir)
			if err != nil {
				return fmt.Errorf("load ledger: %w", err)
			}
			if asJSON {
				return writeJSON(cmd, map[string][]string{
					"seen":   nonNil(snapshot.Seen),
					"broken": nonNil(snapshot.Broken),
				})
			}

			broken := make(map[string]bool, len(snapshot.Broken))
			for _, path := range snapshot.Broken {
				broken[path] = true
			}
			out := cmd.OutOrStdout()
			if len(snapshot.Seen) == 0 {
				fmt.Fprintln(out, "Ledger is empty")
				return nil
			}
			rows := make([][]string, 0, len(snapshot.Seen))
			for _, path := range snapshot.Seen {
				rows = append(rows, []string{path, yesNo(broken[path])})
			}
			fmt.Fprintln(out, renderTable([]string{"Archive", "Broken"}, rows, nil))
			fmt.Fprintf(out, "%d seen, %d broken\n", len(snapshot.Seen), len(snapshot.Broken))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON")
	return cmd
}

func newLedgerReleaseCommand(ctx *commandContext) *cobra.Command {
	var cleanWorkdir bool

	cmd := &cobra.Command{
		Use:   "release <archive-path>",
		Short: "Forget an archive so the next run processes it again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			locked, err := daemon.IsLocked(cfg.LockPath())
			if err != nil {
				return fmt.Errorf("inspect daemon lock: %w", err)
			}
			if locked {
				return errors.New("daemon is running; stop it before editing the ledger")
			}

			path, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve archive path: %w", err)
			}
			removed, err := ledger.Release(cfg.Paths.LedgerDir, path)
			if err != nil {
				return fmt.Errorf("release %s: %w", path, err)
			}

			out := cmd.OutOrStdout()
			if !removed {
				fmt.Fprintf(out, "%s was not in the ledger\n", path)
			} else {
				fmt.Fprintf(out, "Released %s\n", path)
			}

			if cleanWorkdir {
				workdir := filepath.Join(filepath.Dir(path), archive.WorkDirName(path))
				if _, statErr := os.Stat(workdir); statErr == nil {
					if err := os.RemoveAll(workdir); err != nil {
						return fmt.Errorf("remove working directory: %w", err)
					}
					fmt.Fprintf(out, "Removed working directory %s\n", workdir)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&cleanWorkdir, "clean-workdir", false, "Also remove the archive's working directory")
	return cmd
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
